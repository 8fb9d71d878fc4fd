package enhance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sqlshield/sqlshield/migration"
)

// Rollback synthesis inverts a forward script by pattern-matching a closed
// set of statement shapes and emitting their inverses in reverse statement
// order, so later forward statements are undone first. Statements with no
// known inverse come out as commented manual-action placeholders rather
// than being dropped: the rollback is always complete in structure even
// when some steps are advisory only.

var (
	createTableRe = regexp.MustCompile(`(?is)^\s*create\s+table\s+(?:if\s+not\s+exists\s+)?("?[\w.]+"?)`)
	addColumnRe   = regexp.MustCompile(`(?is)^\s*alter\s+table\s+(?:only\s+)?("?[\w.]+"?)\s+add\s+column\s+(?:if\s+not\s+exists\s+)?("?\w+"?)`)
	createIdxRe   = regexp.MustCompile(`(?is)^\s*create\s+(?:unique\s+)?index\s+(?:concurrently\s+)?(?:if\s+not\s+exists\s+)?("?[\w.]+"?)`)
)

// SynthesizeRollback derives a best-effort inverse script from forward SQL.
func SynthesizeRollback(up string) string {
	stmts := migration.Statements(up)

	var out []string
	for i := len(stmts) - 1; i >= 0; i-- {
		stmt := stmts[i]
		switch {
		case createTableRe.MatchString(stmt):
			table := createTableRe.FindStringSubmatch(stmt)[1]
			out = append(out, fmt.Sprintf("DROP TABLE IF EXISTS %s;", table))

		case addColumnRe.MatchString(stmt):
			m := addColumnRe.FindStringSubmatch(stmt)
			out = append(out, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", m[1], m[2]))

		case createIdxRe.MatchString(stmt):
			index := createIdxRe.FindStringSubmatch(stmt)[1]
			out = append(out, fmt.Sprintf("DROP INDEX IF EXISTS %s;", index))

		default:
			out = append(out,
				"-- manual rollback required for:",
				fmt.Sprintf("--   %s", truncateSQL(collapseWhitespace(stmt), 120)))
		}
	}

	return strings.Join(out, "\n")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateSQL(sql string, max int) string {
	if len(sql) <= max {
		return sql
	}
	return sql[:max-3] + "..."
}
