package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadWithRollbackSection(t *testing.T) {
	content := "CREATE TABLE users (id serial PRIMARY KEY);\n\n-- rollback\nDROP TABLE users;\n"
	path := writeFile(t, t.TempDir(), "20240101120000_create_users.sql", content)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if f.Name != "20240101120000_create_users" {
		t.Errorf("Name = %q", f.Name)
	}
	want := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if !f.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", f.Timestamp, want)
	}
	if f.Up != "CREATE TABLE users (id serial PRIMARY KEY);" {
		t.Errorf("Up = %q", f.Up)
	}
	if f.Down != "DROP TABLE users;" {
		t.Errorf("Down = %q", f.Down)
	}
	if f.Checksum != Checksum(content) {
		t.Errorf("Checksum = %q, want checksum of raw content", f.Checksum)
	}
}

func TestLoadWithoutRollbackSection(t *testing.T) {
	path := writeFile(t, t.TempDir(), "20240202000000_add_index.sql", "CREATE INDEX idx ON t(a);\n")

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Down != "" {
		t.Errorf("Down = %q, want empty", f.Down)
	}
	if f.Up != "CREATE INDEX idx ON t(a);" {
		t.Errorf("Up = %q", f.Up)
	}
}

func TestLoadUnconventionalName(t *testing.T) {
	path := writeFile(t, t.TempDir(), "baseline.sql", "SELECT 1;\n")

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !f.Timestamp.IsZero() {
		t.Errorf("Timestamp = %v, want zero for unconventional name", f.Timestamp)
	}
}

func TestRenderSplitRoundTrip(t *testing.T) {
	up := "ALTER TABLE users ADD COLUMN age int;"
	down := "ALTER TABLE users DROP COLUMN age;"

	gotUp, gotDown := SplitRollback(Render(up, down))
	if gotUp != up {
		t.Errorf("up = %q, want %q", gotUp, up)
	}
	if gotDown != down {
		t.Errorf("down = %q, want %q", gotDown, down)
	}
}

func TestStatements(t *testing.T) {
	sql := "-- seed\nINSERT INTO t VALUES ('a;b');\nCREATE TABLE x (id int);\n"
	stmts := Statements(sql)
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want 2: %v", len(stmts), stmts)
	}
	if stmts[0] != "INSERT INTO t VALUES ('a;b')" {
		t.Errorf("quoted semicolon split a statement: %q", stmts[0])
	}
}

func TestLoadPopulatesOperations(t *testing.T) {
	content := "CREATE TABLE t (id int);\nCREATE INDEX idx ON t(id);\n"
	path := writeFile(t, t.TempDir(), "20240303000000_two_ops.sql", content)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Operations) != 2 {
		t.Errorf("Operations = %v, want 2 entries", f.Operations)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "20240202000000_b.sql", "")
	writeFile(t, dir, "20240101000000_a.sql", "")
	writeFile(t, dir, "notes.txt", "")

	files, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("List returned %d files, want 2", len(files))
	}
	if filepath.Base(files[0]) != "20240101000000_a.sql" {
		t.Errorf("files not in lexical order: %v", files)
	}
}
