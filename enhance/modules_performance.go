package enhance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sqlshield/sqlshield/migration"
)

// concurrentIndexModule rewrites blocking CREATE INDEX statements to use
// CONCURRENTLY. Statements that are already concurrent are left alone, so
// re-running the rewrite is harmless.
type concurrentIndexModule struct {
	meta Enhancement
}

func newConcurrentIndexModule() Module {
	return &concurrentIndexModule{meta: Enhancement{
		ID:                   "concurrent-index",
		Name:                 "Concurrent index creation",
		Description:          "Rewrites CREATE INDEX to CREATE INDEX CONCURRENTLY to avoid blocking writes",
		Category:             CategoryPerformance,
		Priority:             75,
		RequiresConfirmation: true,
		Tags:                 []string{"index", "locking"},
	}}
}

var (
	createIndexRe     = regexp.MustCompile(`(?i)\bcreate\s+(unique\s+)?index\b`)
	concurrentIndexRe = regexp.MustCompile(`(?i)\bcreate\s+(unique\s+)?index\s+concurrently\b`)
)

func (m *concurrentIndexModule) Enhancement() *Enhancement { return &m.meta }

func (m *concurrentIndexModule) Detect(f *migration.File) bool {
	if f == nil {
		return false
	}
	return len(m.blockingLines(f.Up)) > 0
}

// blockingLines returns the 1-based lines holding a CREATE INDEX that is
// not already CONCURRENTLY.
func (m *concurrentIndexModule) blockingLines(content string) []lineMatch {
	var out []lineMatch
	for i, raw := range strings.Split(content, "\n") {
		t := strings.TrimSpace(raw)
		if strings.HasPrefix(t, "--") {
			continue
		}
		if createIndexRe.MatchString(raw) && !concurrentIndexRe.MatchString(raw) {
			out = append(out, lineMatch{line: i + 1, text: t})
		}
	}
	return out
}

func (m *concurrentIndexModule) Analyze(f *migration.File) Analysis {
	if !m.Detect(f) {
		return notApplicable()
	}

	var issues []Issue
	for _, lm := range m.blockingLines(f.Up) {
		issues = append(issues, Issue{
			Severity:       SeverityMedium,
			Description:    "CREATE INDEX without CONCURRENTLY blocks writes to the table for the whole build",
			Location:       lm.text,
			Line:           lm.line,
			Recommendation: "Use CREATE INDEX CONCURRENTLY (must run outside a transaction block)",
		})
	}

	return Analysis{
		Applicable: true,
		Confidence: 0.85,
		Issues:     issues,
		Impact: Impact{
			PerformanceImprovement: 0.7,
			ComplexityAdded:        0.3,
			Description:            "Index builds stop blocking concurrent writes",
		},
	}
}

func (m *concurrentIndexModule) Apply(content string, f *migration.File) Result {
	lines := strings.Split(content, "\n")
	var changes []Change
	for i, raw := range lines {
		t := strings.TrimSpace(raw)
		if strings.HasPrefix(t, "--") {
			continue
		}
		if !createIndexRe.MatchString(raw) || concurrentIndexRe.MatchString(raw) {
			continue
		}
		modified := createIndexRe.ReplaceAllStringFunc(raw, func(match string) string {
			return match + " CONCURRENTLY"
		})
		lines[i] = modified
		changes = append(changes, Change{
			Type:     ChangeModified,
			Original: raw,
			Modified: modified,
			Line:     i + 1,
			Reason:   "Index created concurrently to avoid blocking writes",
		})
	}

	if len(changes) == 0 {
		return unapplied(&m.meta, content)
	}

	return Result{
		Enhancement:     &m.meta,
		Applied:         true,
		ModifiedContent: strings.Join(lines, "\n"),
		Warnings: []string{
			"concurrent-index: CREATE INDEX CONCURRENTLY cannot run inside a transaction block",
		},
		Changes: changes,
	}
}

// lockTimeoutModule prepends a lock_timeout so DDL that needs an exclusive
// lock fails fast instead of queueing behind long-running transactions and
// stalling every other session.
type lockTimeoutModule struct {
	meta Enhancement
}

func newLockTimeoutModule() Module {
	return &lockTimeoutModule{meta: Enhancement{
		ID:          "lock-timeout",
		Name:        "Lock timeout guard",
		Description: "Sets lock_timeout ahead of ALTER TABLE statements so lock waits fail fast",
		Category:    CategoryPerformance,
		Priority:    65,
		Tags:        []string{"locking", "availability"},
	}}
}

const lockTimeoutStmt = "SET lock_timeout = '5s';"

var alterTableRe = regexp.MustCompile(`(?i)\balter\s+table\b`)

func (m *lockTimeoutModule) Enhancement() *Enhancement { return &m.meta }

func (m *lockTimeoutModule) Detect(f *migration.File) bool {
	if f == nil {
		return false
	}
	return m.needsTimeout(f.Up)
}

func (m *lockTimeoutModule) needsTimeout(content string) bool {
	if strings.Contains(strings.ToLower(content), "lock_timeout") {
		return false
	}
	for _, raw := range strings.Split(content, "\n") {
		t := strings.TrimSpace(raw)
		if strings.HasPrefix(t, "--") {
			continue
		}
		if alterTableRe.MatchString(raw) {
			return true
		}
	}
	return false
}

func (m *lockTimeoutModule) Analyze(f *migration.File) Analysis {
	if !m.Detect(f) {
		return notApplicable()
	}

	var issues []Issue
	for i, raw := range strings.Split(f.Up, "\n") {
		t := strings.TrimSpace(raw)
		if strings.HasPrefix(t, "--") || !alterTableRe.MatchString(raw) {
			continue
		}
		issues = append(issues, Issue{
			Severity:       SeverityLow,
			Description:    "ALTER TABLE waits indefinitely for its lock, queueing all later statements behind it",
			Location:       t,
			Line:           i + 1,
			Recommendation: fmt.Sprintf("Set a lock timeout first: %s", lockTimeoutStmt),
		})
	}

	return Analysis{
		Applicable: true,
		Confidence: 0.75,
		Issues:     issues,
		Impact: Impact{
			PerformanceImprovement: 0.4,
			RiskReduction:          0.3,
			ComplexityAdded:        0.1,
			Description:            "Lock waits fail fast instead of stalling the application",
		},
	}
}

func (m *lockTimeoutModule) Apply(content string, f *migration.File) Result {
	if !m.needsTimeout(content) {
		return unapplied(&m.meta, content)
	}

	return Result{
		Enhancement:     &m.meta,
		Applied:         true,
		ModifiedContent: lockTimeoutStmt + "\n\n" + content,
		Changes: []Change{{
			Type:     ChangeAdded,
			Modified: lockTimeoutStmt,
			Line:     1,
			Reason:   "Bounded lock wait for ALTER TABLE work",
		}},
	}
}
