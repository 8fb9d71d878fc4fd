package migration

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RollbackMarker separates the forward section of a script from an
// explicit, hand-written rollback section.
const RollbackMarker = "-- rollback"

// File describes one migration script. It is immutable once constructed:
// analysis and enhancement only ever read Up and return new text.
type File struct {
	Path       string
	Name       string
	Up         string
	Down       string
	Timestamp  time.Time
	Operations []string
	Checksum   string
}

// Load reads a migration script from disk. The filename is expected to
// follow the <timestamp>_<name>.sql convention; files that don't are still
// loaded, with the timestamp left zero.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read migration file %s: %v", path, err)
	}

	content := string(data)
	up, down := SplitRollback(content)

	f := &File{
		Path:       path,
		Name:       strings.TrimSuffix(filepath.Base(path), ".sql"),
		Up:         up,
		Down:       down,
		Operations: Statements(up),
		Checksum:   Checksum(content),
	}

	if ts, ok := parseTimestamp(f.Name); ok {
		f.Timestamp = ts
	}

	return f, nil
}

// List returns the .sql files in dir in lexical order, which for
// timestamp-prefixed names is also chronological order.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %v", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// SplitRollback splits script content at the first "-- rollback" marker
// line. The marker line itself belongs to neither section.
func SplitRollback(content string) (up, down string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), RollbackMarker) {
			up = strings.TrimRight(strings.Join(lines[:i], "\n"), "\n")
			down = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			return up, down
		}
	}
	return strings.TrimRight(content, "\n"), ""
}

// Render reassembles a script from its sections, preserving the rollback
// marker when a reverse section exists.
func Render(up, down string) string {
	if down == "" {
		return strings.TrimRight(up, "\n") + "\n"
	}
	return strings.TrimRight(up, "\n") + "\n\n" + RollbackMarker + "\n" + strings.TrimRight(down, "\n") + "\n"
}

// Statements splits raw SQL on statement-terminating semicolons, dropping
// comment-only and empty fragments. Semicolons inside single quotes do not
// terminate a statement; this is a heuristic split, not a parse.
func Statements(sql string) []string {
	var stmts []string
	var cur strings.Builder
	inQuote := false

	for _, r := range sql {
		switch {
		case r == '\'':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ';' && !inQuote:
			if s := cleanStatement(cur.String()); s != "" {
				stmts = append(stmts, s)
			}
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if s := cleanStatement(cur.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

// cleanStatement strips comment lines and surrounding whitespace; returns
// "" when nothing executable remains.
func cleanStatement(raw string) string {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// Checksum returns the hex sha256 of the script content.
func Checksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

func parseTimestamp(name string) (time.Time, bool) {
	idx := strings.Index(name, "_")
	if idx < 0 {
		idx = len(name)
	}
	ts, err := time.Parse("20060102150405", name[:idx])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
