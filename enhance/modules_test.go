package enhance

import (
	"reflect"
	"strings"
	"testing"

	"github.com/sqlshield/sqlshield/migration"
)

func mf(up string) *migration.File {
	return &migration.File{
		Path: "migrations/20240101120000_test.sql",
		Name: "20240101120000_test",
		Up:   up,
	}
}

func moduleByID(t *testing.T, id string) Module {
	t.Helper()
	for _, m := range DefaultRegistry().Modules() {
		if m.Enhancement().ID == id {
			return m
		}
	}
	t.Fatalf("no module with id %q", id)
	return nil
}

func TestDropColumnScenario(t *testing.T) {
	m := moduleByID(t, "drop-column-warning")
	f := mf("ALTER TABLE users DROP COLUMN email;")

	a := m.Analyze(f)
	if !a.Applicable {
		t.Fatal("drop column migration must be applicable")
	}
	if len(a.Issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(a.Issues))
	}
	if a.Issues[0].Severity != SeverityHigh {
		t.Errorf("severity = %q, want high", a.Issues[0].Severity)
	}
	if a.Issues[0].Line != 1 {
		t.Errorf("line = %d, want 1", a.Issues[0].Line)
	}

	res := m.Apply(f.Up, f)
	if !res.Applied {
		t.Fatal("apply should have rewritten the content")
	}
	if !strings.Contains(res.ModifiedContent, "ALTER TABLE users DROP COLUMN email;") {
		t.Error("original statement must remain intact below the warning")
	}
	if !strings.HasPrefix(res.ModifiedContent, "-- ⚠️") {
		t.Error("warning comment block must be prepended")
	}
	if len(res.Changes) != 1 || res.Changes[0].Type != ChangeAdded {
		t.Errorf("changes = %+v, want one ADDED change", res.Changes)
	}
}

func TestTransactionDetectRefusesDoubleWrap(t *testing.T) {
	m := moduleByID(t, "transaction-wrapper")

	wrapped := mf("BEGIN;\nALTER TABLE users DROP COLUMN email;\nCOMMIT;")
	if m.Detect(wrapped) {
		t.Error("Detect must return false when transaction markers are present")
	}

	bare := mf("ALTER TABLE users DROP COLUMN email;")
	if !m.Detect(bare) {
		t.Error("Detect must return true when markers are absent")
	}

	res := m.Apply(bare.Up, bare)
	if !res.Applied {
		t.Fatal("apply should wrap the content")
	}
	if !strings.HasPrefix(res.ModifiedContent, "BEGIN;") || !strings.HasSuffix(res.ModifiedContent, "COMMIT;") {
		t.Errorf("content not wrapped: %q", res.ModifiedContent)
	}

	again := m.Apply(res.ModifiedContent, bare)
	if again.Applied {
		t.Error("re-applying must not double-wrap")
	}
	if again.ModifiedContent != res.ModifiedContent {
		t.Error("refused apply must return its input unchanged")
	}
}

func TestTransactionDetectRecognizesSingleLineMarkers(t *testing.T) {
	m := moduleByID(t, "transaction-wrapper")
	f := mf("BEGIN; DROP TABLE t; COMMIT;")

	if m.Detect(f) {
		t.Error("markers sharing a line with other statements must still count")
	}
	res := m.Apply(f.Up, f)
	if res.Applied {
		t.Error("already-wrapped single-line script must not be wrapped again")
	}
	if res.ModifiedContent != f.Up {
		t.Errorf("content must pass through unchanged, got %q", res.ModifiedContent)
	}
}

func TestNoOpInvariant(t *testing.T) {
	// Applicable to no module: wrapped, no risky constructs.
	f := mf("BEGIN;\nSELECT 1;\nCOMMIT;")

	for _, m := range DefaultRegistry().Modules() {
		a := m.Analyze(f)
		if a.Applicable {
			t.Errorf("%s: unexpectedly applicable", m.Enhancement().ID)
			continue
		}
		if !reflect.DeepEqual(a, Analysis{}) {
			t.Errorf("%s: non-applicable analysis is not the canonical no-op shape: %+v", m.Enhancement().ID, a)
		}

		res := m.Apply(f.Up, f)
		if res.Applied {
			t.Errorf("%s: applied on non-applicable input", m.Enhancement().ID)
		}
		if res.ModifiedContent != f.Up {
			t.Errorf("%s: content changed on non-applicable input", m.Enhancement().ID)
		}
	}
}

func TestAnalyzeIdempotence(t *testing.T) {
	f := mf("DROP TABLE old_events;\nALTER TABLE users DROP COLUMN email;\nDELETE FROM sessions;\nCREATE INDEX idx_users_email ON users(email);")

	for _, m := range DefaultRegistry().Modules() {
		first := m.Analyze(f)
		second := m.Analyze(f)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s: repeated analysis differs:\n%+v\n%+v", m.Enhancement().ID, first, second)
		}
	}
}

func TestDetectMalformedInput(t *testing.T) {
	for _, m := range DefaultRegistry().Modules() {
		if m.Detect(nil) {
			t.Errorf("%s: Detect(nil) = true", m.Enhancement().ID)
		}
		if m.Detect(mf("")) {
			t.Errorf("%s: Detect(empty) = true", m.Enhancement().ID)
		}
	}
}

func TestConcurrentIndexRewrite(t *testing.T) {
	m := moduleByID(t, "concurrent-index")
	up := strings.Join([]string{
		"CREATE INDEX idx_a ON t(a);",
		"CREATE UNIQUE INDEX idx_b ON t(b);",
		"CREATE INDEX CONCURRENTLY idx_c ON t(c);",
	}, "\n")
	f := mf(up)

	a := m.Analyze(f)
	if !a.Applicable {
		t.Fatal("must be applicable")
	}
	if len(a.Issues) != 2 {
		t.Fatalf("got %d issues, want 2 (already-concurrent line is fine)", len(a.Issues))
	}

	res := m.Apply(up, f)
	if !res.Applied {
		t.Fatal("apply should rewrite")
	}
	if !strings.Contains(res.ModifiedContent, "CREATE INDEX CONCURRENTLY idx_a") {
		t.Errorf("idx_a not rewritten: %q", res.ModifiedContent)
	}
	if !strings.Contains(res.ModifiedContent, "CREATE UNIQUE INDEX CONCURRENTLY idx_b") {
		t.Errorf("idx_b not rewritten: %q", res.ModifiedContent)
	}
	if strings.Contains(res.ModifiedContent, "CONCURRENTLY CONCURRENTLY") {
		t.Error("already-concurrent statement was rewritten again")
	}
	if len(res.Changes) != 2 {
		t.Errorf("got %d changes, want 2", len(res.Changes))
	}
	for _, ch := range res.Changes {
		if ch.Type != ChangeModified {
			t.Errorf("change type = %q, want MODIFIED", ch.Type)
		}
	}

	// Rewriting the rewritten text changes nothing further.
	again := m.Apply(res.ModifiedContent, f)
	if again.Applied {
		t.Error("second apply should find nothing to rewrite")
	}
}

func TestWarningCommentNotAddedTwice(t *testing.T) {
	m := moduleByID(t, "drop-column-warning")
	f := mf("ALTER TABLE users DROP COLUMN email;")

	first := m.Apply(f.Up, f)
	if !first.Applied {
		t.Fatal("first apply should rewrite")
	}
	second := m.Apply(first.ModifiedContent, f)
	if second.Applied {
		t.Error("second apply must not stack another warning comment")
	}
	if len(second.Warnings) == 0 {
		t.Error("refused re-application should explain itself in a warning")
	}
}

func TestScopedDMLNotFlagged(t *testing.T) {
	del := moduleByID(t, "delete-without-where")
	if del.Detect(mf("DELETE FROM sessions WHERE expires_at < now();")) {
		t.Error("DELETE with WHERE must not be flagged")
	}
	if !del.Detect(mf("DELETE FROM sessions;")) {
		t.Error("DELETE without WHERE must be flagged")
	}

	upd := moduleByID(t, "update-without-where")
	if upd.Detect(mf("UPDATE users SET active = false WHERE last_seen < now();")) {
		t.Error("UPDATE with WHERE must not be flagged")
	}
	if !upd.Detect(mf("UPDATE users SET active = false;")) {
		t.Error("UPDATE without WHERE must be flagged")
	}
}

func TestMultilineWhereClauseRecognized(t *testing.T) {
	del := moduleByID(t, "delete-without-where")
	if del.Detect(mf("DELETE FROM sessions\nWHERE expires_at < now();")) {
		t.Error("WHERE on the next line must not be flagged")
	}
	if !del.Detect(mf("DELETE FROM sessions;\nSELECT count(*) FROM sessions;")) {
		t.Error("WHERE in a later statement must not suppress the match")
	}

	upd := moduleByID(t, "update-without-where")
	if upd.Detect(mf("UPDATE users SET active = false\nWHERE id = 1;")) {
		t.Error("WHERE on the next line must not be flagged")
	}
}

func TestNotNullDefault(t *testing.T) {
	m := moduleByID(t, "not-null-default")
	if !m.Detect(mf("ALTER TABLE users ADD COLUMN tier text NOT NULL;")) {
		t.Error("NOT NULL without DEFAULT must be flagged")
	}
	if m.Detect(mf("ALTER TABLE users ADD COLUMN tier text NOT NULL DEFAULT 'free';")) {
		t.Error("NOT NULL with DEFAULT must not be flagged")
	}
	a := m.Analyze(mf("ALTER TABLE users ADD COLUMN tier text NOT NULL;"))
	if len(a.Issues) != 1 || a.Issues[0].Severity != SeverityMedium {
		t.Errorf("issues = %+v, want one medium issue", a.Issues)
	}
}

func TestBackupModuleEvidence(t *testing.T) {
	m := moduleByID(t, "backup-recommendation")

	if m.Detect(mf("CREATE TABLE t (id int);")) {
		t.Error("non-destructive migration must not trigger a backup recommendation")
	}

	destructive := mf("DROP TABLE old_events;\nDELETE FROM sessions;")
	if !m.Detect(destructive) {
		t.Error("destructive migration must trigger a backup recommendation")
	}
	a := m.Analyze(destructive)
	if a.Confidence <= 0.3 || a.Confidence > 1 {
		t.Errorf("confidence = %f, want in (0.3, 1]", a.Confidence)
	}

	res := m.Apply(destructive.Up, destructive)
	if !res.Applied || !strings.Contains(res.ModifiedContent, backupNotice) {
		t.Error("apply should prepend the backup notice")
	}
	again := m.Apply(res.ModifiedContent, destructive)
	if again.Applied {
		t.Error("backup notice must not be added twice")
	}
}

func TestCommentedLinesIgnored(t *testing.T) {
	m := moduleByID(t, "drop-table-warning")
	if m.Detect(mf("-- DROP TABLE users;\nSELECT 1;")) {
		t.Error("a commented-out statement must not trigger detection")
	}
}
