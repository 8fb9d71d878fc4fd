package enhance

import (
	"fmt"
	"strings"

	"github.com/sqlshield/sqlshield/migration"
)

// Module is the executable side of one Enhancement: a cheap content-only
// detector, an analyzer producing issues and an impact summary, and an
// applicator rewriting script text.
//
// Modules are stateless and safe to reuse across many inputs. Detect and
// Analyze read only the file's Up text; Apply re-scans the content it is
// handed, which may already carry earlier modules' edits.
type Module interface {
	Enhancement() *Enhancement
	Detect(f *migration.File) bool
	Analyze(f *migration.File) Analysis
	Apply(content string, f *migration.File) Result
}

// notApplicable is the canonical no-op analysis: callers branch on
// Applicable alone.
func notApplicable() Analysis {
	return Analysis{}
}

// unapplied is the canonical not-applied result: the content passes
// through unchanged.
func unapplied(e *Enhancement, content string, warnings ...string) Result {
	return Result{
		Enhancement:     e,
		Applied:         false,
		ModifiedContent: content,
		Warnings:        warnings,
	}
}

// Registry holds the catalog of modules in registration order. It is
// read-only after construction and safe for concurrent use.
type Registry struct {
	modules []Module
}

// NewRegistry validates the catalog and fails fast on contract violations:
// a module without a usable id, or two modules sharing one, is a
// programming error that must surface at load time, not mid-pipeline.
func NewRegistry(mods ...Module) (*Registry, error) {
	seen := make(map[string]bool, len(mods))
	for _, m := range mods {
		e := m.Enhancement()
		if e == nil || strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("module registered without a valid id")
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("duplicate module id %q", e.ID)
		}
		seen[e.ID] = true
	}
	return &Registry{modules: mods}, nil
}

// Modules returns the catalog in registration order.
func (r *Registry) Modules() []Module {
	return r.modules
}

// WithoutIDs returns a registry with the named modules removed, preserving
// registration order for the rest. Unknown ids are ignored.
func (r *Registry) WithoutIDs(ids []string) *Registry {
	if len(ids) == 0 {
		return r
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var kept []Module
	for _, m := range r.modules {
		if !drop[m.Enhancement().ID] {
			kept = append(kept, m)
		}
	}
	return &Registry{modules: kept}
}

// DefaultRegistry returns the full built-in catalog. The catalog is static
// configuration; a validation failure here is a programming error.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		newDropColumnModule(),
		newDropTableModule(),
		newTruncateModule(),
		newDeleteWithoutWhereModule(),
		newUpdateWithoutWhereModule(),
		newTransactionModule(),
		newBackupModule(),
		newConcurrentIndexModule(),
		newLockTimeoutModule(),
		newNotNullDefaultModule(),
	)
	if err != nil {
		panic(fmt.Sprintf("built-in enhancement catalog invalid: %v", err))
	}
	return r
}

// lineMatch is one line of script text that tripped a construct pattern.
type lineMatch struct {
	line int // 1-based
	text string
}

// scanLines walks the content line by line and reports, per construct, the
// lines that match. Matching is done against the lower-cased line so the
// construct patterns can be written in lower case. Exclude patterns run
// against the whole statement the line opens, so a clause on a later line
// still suppresses the match.
func scanLines(content string, constructs []construct) map[int][]lineMatch {
	found := make(map[int][]lineMatch)
	raws := strings.Split(content, "\n")
	lower := make([]string, len(raws))
	for i, raw := range raws {
		lower[i] = strings.ToLower(raw)
	}

	for i, raw := range raws {
		trimmed := strings.TrimSpace(lower[i])
		if strings.HasPrefix(trimmed, "--") {
			continue
		}
		for ci, c := range constructs {
			if !c.pattern.MatchString(lower[i]) {
				continue
			}
			if c.exclude != nil && c.exclude.MatchString(statementFrom(lower, i)) {
				continue
			}
			found[ci] = append(found[ci], lineMatch{line: i + 1, text: strings.TrimSpace(raw)})
		}
	}
	return found
}

// statementFrom joins lines from i through the one carrying the
// terminating semicolon.
func statementFrom(lines []string, i int) string {
	var b strings.Builder
	for ; i < len(lines); i++ {
		b.WriteString(lines[i])
		if strings.Contains(lines[i], ";") {
			break
		}
		b.WriteString(" ")
	}
	return b.String()
}
