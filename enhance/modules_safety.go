package enhance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sqlshield/sqlshield/confidence"
	"github.com/sqlshield/sqlshield/migration"
)

// construct is one risky SQL shape a module looks for. Patterns match
// against a single lower-cased line; exclude, when set, suppresses lines
// that also match it (e.g. a DELETE that does carry a WHERE clause).
type construct struct {
	pattern        *regexp.Regexp
	exclude        *regexp.Regexp
	severity       Severity
	description    string
	recommendation string
}

// patternModule covers the rules whose rewrite is "prepend a warning
// comment block above the untouched statements". The first comment line
// doubles as the idempotence guard: if it is already present, Apply
// refuses to add it again.
type patternModule struct {
	meta       Enhancement
	confidence float64
	impact     Impact
	constructs []construct
	comment    []string
}

func (m *patternModule) Enhancement() *Enhancement { return &m.meta }

func (m *patternModule) Detect(f *migration.File) bool {
	if f == nil || strings.TrimSpace(f.Up) == "" {
		return false
	}
	return len(scanLines(f.Up, m.constructs)) > 0
}

func (m *patternModule) Analyze(f *migration.File) Analysis {
	if !m.Detect(f) {
		return notApplicable()
	}

	matches := scanLines(f.Up, m.constructs)
	var issues []Issue
	for ci, c := range m.constructs {
		for _, lm := range matches[ci] {
			issues = append(issues, Issue{
				Severity:       c.severity,
				Description:    c.description,
				Location:       lm.text,
				Line:           lm.line,
				Recommendation: c.recommendation,
			})
		}
	}

	return Analysis{
		Applicable: true,
		Confidence: m.confidence,
		Issues:     issues,
		Impact:     m.impact,
	}
}

func (m *patternModule) Apply(content string, f *migration.File) Result {
	if len(scanLines(content, m.constructs)) == 0 {
		return unapplied(&m.meta, content)
	}
	if strings.Contains(content, m.comment[0]) {
		return unapplied(&m.meta, content,
			fmt.Sprintf("%s: warning comment already present, not adding again", m.meta.ID))
	}

	block := strings.Join(m.comment, "\n")
	return Result{
		Enhancement:     &m.meta,
		Applied:         true,
		ModifiedContent: block + "\n\n" + content,
		Changes: []Change{{
			Type:     ChangeAdded,
			Modified: block,
			Line:     1,
			Reason:   m.meta.Name,
		}},
	}
}

func newDropColumnModule() Module {
	return &patternModule{
		meta: Enhancement{
			ID:                   "drop-column-warning",
			Name:                 "Drop column warning",
			Description:          "Flags DROP COLUMN statements, which permanently discard data",
			Category:             CategorySafety,
			Priority:             90,
			RequiresConfirmation: true,
			Tags:                 []string{"destructive", "data-loss"},
		},
		confidence: 0.95,
		impact: Impact{
			RiskReduction:   0.8,
			ComplexityAdded: 0.1,
			Description:     "Makes irreversible column removal explicit before it runs",
		},
		constructs: []construct{{
			pattern:        regexp.MustCompile(`\bdrop\s+column\b`),
			severity:       SeverityHigh,
			description:    "DROP COLUMN permanently removes the column and its data",
			recommendation: "Confirm the column is unused and a recent backup exists; consider renaming it first and dropping in a later release",
		}},
		comment: []string{
			"-- ⚠️  WARNING: this migration drops a column. The data in it cannot be recovered.",
			"-- Verify the column is no longer read anywhere and that a recent backup exists.",
		},
	}
}

func newDropTableModule() Module {
	return &patternModule{
		meta: Enhancement{
			ID:                   "drop-table-warning",
			Name:                 "Drop table warning",
			Description:          "Flags DROP TABLE statements, which discard the whole table",
			Category:             CategorySafety,
			Priority:             95,
			RequiresConfirmation: true,
			Tags:                 []string{"destructive", "data-loss"},
		},
		confidence: 0.95,
		impact: Impact{
			RiskReduction:   0.9,
			ComplexityAdded: 0.1,
			Description:     "Makes irreversible table removal explicit before it runs",
		},
		constructs: []construct{{
			pattern:        regexp.MustCompile(`\bdrop\s+table\b`),
			severity:       SeverityCritical,
			description:    "DROP TABLE permanently removes the table, its data and its indexes",
			recommendation: "Take a backup (pg_dump -t <table>) before applying, or archive the rows first",
		}},
		comment: []string{
			"-- ⚠️  WARNING: this migration drops a table. All rows in it will be lost.",
			"-- Dump the table before applying: pg_dump -t <table> ...",
		},
	}
}

func newTruncateModule() Module {
	return &patternModule{
		meta: Enhancement{
			ID:          "truncate-warning",
			Name:        "Truncate warning",
			Description: "Flags TRUNCATE statements, which delete all rows without firing row triggers",
			Category:    CategorySafety,
			Priority:    85,
			Tags:        []string{"destructive", "data-loss"},
		},
		confidence: 0.9,
		impact: Impact{
			RiskReduction:   0.7,
			ComplexityAdded: 0.1,
			Description:     "Makes bulk row removal explicit before it runs",
		},
		constructs: []construct{{
			pattern:        regexp.MustCompile(`\btruncate\s+(table\s+)?\w`),
			severity:       SeverityHigh,
			description:    "TRUNCATE removes every row and bypasses ON DELETE triggers",
			recommendation: "Use DELETE with a WHERE clause if only some rows should go, and back the table up first",
		}},
		comment: []string{
			"-- ⚠️  WARNING: this migration truncates a table. Every row will be removed.",
		},
	}
}

func newDeleteWithoutWhereModule() Module {
	return &patternModule{
		meta: Enhancement{
			ID:          "delete-without-where",
			Name:        "Unscoped DELETE warning",
			Description: "Flags DELETE statements that carry no WHERE clause",
			Category:    CategorySafety,
			Priority:    80,
			Tags:        []string{"destructive", "dml"},
		},
		confidence: 0.85,
		impact: Impact{
			RiskReduction:   0.8,
			ComplexityAdded: 0.1,
			Description:     "Catches accidental full-table deletes",
		},
		constructs: []construct{{
			pattern:        regexp.MustCompile(`^\s*delete\s+from\b`),
			exclude:        regexp.MustCompile(`\bwhere\b`),
			severity:       SeverityCritical,
			description:    "DELETE without a WHERE clause removes every row in the table",
			recommendation: "Add a WHERE clause, or use TRUNCATE deliberately if a full wipe is intended",
		}},
		comment: []string{
			"-- ⚠️  WARNING: this migration contains a DELETE without a WHERE clause.",
			"-- Double-check that removing every row is intended.",
		},
	}
}

func newUpdateWithoutWhereModule() Module {
	return &patternModule{
		meta: Enhancement{
			ID:          "update-without-where",
			Name:        "Unscoped UPDATE warning",
			Description: "Flags UPDATE statements that carry no WHERE clause",
			Category:    CategorySafety,
			Priority:    80,
			Tags:        []string{"destructive", "dml"},
		},
		confidence: 0.85,
		impact: Impact{
			RiskReduction:   0.8,
			ComplexityAdded: 0.1,
			Description:     "Catches accidental full-table updates",
		},
		constructs: []construct{{
			pattern:        regexp.MustCompile(`^\s*update\s+\S+\s+set\b`),
			exclude:        regexp.MustCompile(`\bwhere\b`),
			severity:       SeverityCritical,
			description:    "UPDATE without a WHERE clause rewrites every row in the table",
			recommendation: "Add a WHERE clause, or split the update into bounded batches",
		}},
		comment: []string{
			"-- ⚠️  WARNING: this migration contains an UPDATE without a WHERE clause.",
			"-- Double-check that rewriting every row is intended.",
		},
	}
}

func newNotNullDefaultModule() Module {
	return &patternModule{
		meta: Enhancement{
			ID:          "not-null-default",
			Name:        "NOT NULL column without default",
			Description: "Flags added NOT NULL columns that have no DEFAULT, which fail on non-empty tables",
			Category:    CategorySafety,
			Priority:    55,
			Tags:        []string{"schema", "availability"},
		},
		confidence: 0.8,
		impact: Impact{
			RiskReduction:   0.5,
			ComplexityAdded: 0.1,
			Description:     "Prevents a guaranteed failure on tables that already hold rows",
		},
		constructs: []construct{{
			pattern:        regexp.MustCompile(`\badd\s+column\b.*\bnot\s+null\b`),
			exclude:        regexp.MustCompile(`\bdefault\b`),
			severity:       SeverityMedium,
			description:    "Adding a NOT NULL column without a DEFAULT fails when the table has rows",
			recommendation: "Add the column with a DEFAULT, or add it nullable and backfill before setting NOT NULL",
		}},
		comment: []string{
			"-- ⚠️  NOTE: adding a NOT NULL column without a DEFAULT fails on non-empty tables.",
			"-- Add a DEFAULT, or add the column nullable and backfill first.",
		},
	}
}

// transactionModule wraps the script in BEGIN/COMMIT when no transaction
// markers are present. Its trigger condition is the absence of markers, so
// repeated runs naturally refuse to double-wrap.
type transactionModule struct {
	meta Enhancement
}

func newTransactionModule() Module {
	return &transactionModule{meta: Enhancement{
		ID:                   "transaction-wrapper",
		Name:                 "Transaction wrapper",
		Description:          "Wraps the migration in a transaction so a mid-script failure rolls back cleanly",
		Category:             CategorySafety,
		Priority:             70,
		RequiresConfirmation: true,
		Tags:                 []string{"atomicity"},
	}}
}

var txnStmtRe = regexp.MustCompile(`(?i)^(begin|start\s+transaction|commit)\b`)

func (m *transactionModule) Enhancement() *Enhancement { return &m.meta }

func (m *transactionModule) Detect(f *migration.File) bool {
	if f == nil {
		return false
	}
	return m.needsWrap(f.Up)
}

// needsWrap checks per statement, not per line, so markers sharing a line
// with other statements still count.
func (m *transactionModule) needsWrap(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	for _, stmt := range migration.Statements(content) {
		if txnStmtRe.MatchString(stmt) {
			return false
		}
	}
	return true
}

func (m *transactionModule) Analyze(f *migration.File) Analysis {
	if !m.Detect(f) {
		return notApplicable()
	}
	return Analysis{
		Applicable: true,
		Confidence: 0.9,
		Issues: []Issue{{
			Severity:       SeverityMedium,
			Description:    "Migration runs outside a transaction; a mid-script failure leaves the schema half-changed",
			Location:       firstStatementLine(f.Up),
			Line:           1,
			Recommendation: "Wrap the statements in BEGIN/COMMIT",
		}},
		Impact: Impact{
			RiskReduction:   0.6,
			ComplexityAdded: 0.2,
			Description:     "Failed runs roll back instead of stopping halfway",
		},
	}
}

func (m *transactionModule) Apply(content string, f *migration.File) Result {
	if !m.needsWrap(content) {
		return unapplied(&m.meta, content,
			"transaction-wrapper: transaction markers already present, not wrapping again")
	}

	var warnings []string
	if strings.Contains(strings.ToLower(content), "concurrently") {
		warnings = append(warnings,
			"transaction-wrapper: CREATE INDEX CONCURRENTLY cannot run inside a transaction block; review before applying")
	}

	wrapped := "BEGIN;\n\n" + strings.TrimRight(content, "\n") + "\n\nCOMMIT;"
	return Result{
		Enhancement:     &m.meta,
		Applied:         true,
		ModifiedContent: wrapped,
		Warnings:        warnings,
		Changes: []Change{{
			Type:     ChangeWrapped,
			Original: content,
			Modified: wrapped,
			Line:     1,
			Reason:   "Wrapped migration in BEGIN/COMMIT",
		}},
	}
}

// backupModule recommends a pre-migration backup. Unlike the fixed-trigger
// rules it weighs its evidence through the confidence scorer: destructive
// statements are the required signal, variety of destruction the optional
// one, and an existing backup notice counts against.
type backupModule struct {
	meta   Enhancement
	scorer confidence.Scorer
}

func newBackupModule() Module {
	return &backupModule{
		meta: Enhancement{
			ID:          "backup-recommendation",
			Name:        "Backup recommendation",
			Description: "Recommends a backup before destructive migrations",
			Category:    CategorySafety,
			Priority:    60,
			Tags:        []string{"backup"},
		},
		scorer: confidence.Default(),
	}
}

const backupNotice = "-- 💾 BACKUP RECOMMENDED before applying this migration:"

var destructiveKinds = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"drop-table", regexp.MustCompile(`\bdrop\s+table\b`)},
	{"drop-column", regexp.MustCompile(`\bdrop\s+column\b`)},
	{"truncate", regexp.MustCompile(`\btruncate\b`)},
	{"delete", regexp.MustCompile(`\bdelete\s+from\b`)},
	{"alter-type", regexp.MustCompile(`\balter\s+column\b.*\btype\b`)},
}

func (m *backupModule) Enhancement() *Enhancement { return &m.meta }

func (m *backupModule) evidence(content string) confidence.Evidence {
	lower := strings.ToLower(content)
	kinds := 0
	for _, k := range destructiveKinds {
		if k.pattern.MatchString(lower) {
			kinds++
		}
	}

	ev := confidence.Evidence{
		Required: confidence.Bucket{Total: 1},
		Optional: confidence.Bucket{Total: len(destructiveKinds) - 1},
	}
	if kinds > 0 {
		ev.Required.Found = 1
		ev.Optional.Found = kinds - 1
	}
	if strings.Contains(content, backupNotice) {
		ev.Negative++
	}
	return ev
}

func (m *backupModule) Detect(f *migration.File) bool {
	if f == nil || strings.TrimSpace(f.Up) == "" {
		return false
	}
	return m.scorer.Found(m.evidence(f.Up))
}

func (m *backupModule) Analyze(f *migration.File) Analysis {
	if !m.Detect(f) {
		return notApplicable()
	}

	ev := m.evidence(f.Up)
	lower := strings.ToLower(f.Up)
	var issues []Issue
	for _, k := range destructiveKinds {
		if k.pattern.MatchString(lower) {
			issues = append(issues, Issue{
				Severity:       SeverityMedium,
				Description:    fmt.Sprintf("Destructive operation present: %s", k.name),
				Location:       k.name,
				Line:           1,
				Recommendation: "Take a backup before applying",
			})
		}
	}

	return Analysis{
		Applicable: true,
		Confidence: m.scorer.Score(ev),
		Issues:     issues,
		Impact: Impact{
			RiskReduction:   0.7,
			ComplexityAdded: 0.05,
			Description:     "A restorable backup turns an irreversible mistake into a recoverable one",
		},
	}
}

func (m *backupModule) Apply(content string, f *migration.File) Result {
	if !m.scorer.Found(m.evidence(content)) {
		return unapplied(&m.meta, content)
	}
	if strings.Contains(content, backupNotice) {
		return unapplied(&m.meta, content,
			"backup-recommendation: backup notice already present, not adding again")
	}

	block := strings.Join([]string{
		backupNotice,
		"--   pg_dump --format=custom --file=pre_migration.dump $DATABASE_URL",
	}, "\n")
	return Result{
		Enhancement:     &m.meta,
		Applied:         true,
		ModifiedContent: block + "\n\n" + content,
		Changes: []Change{{
			Type:     ChangeAdded,
			Modified: block,
			Line:     1,
			Reason:   m.meta.Name,
		}},
	}
}

// firstStatementLine returns the first non-empty, non-comment line of the
// script, for use as an issue location.
func firstStatementLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if t != "" && !strings.HasPrefix(t, "--") {
			return t
		}
	}
	return ""
}
