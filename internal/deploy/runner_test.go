package deploy

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// A single connection keeps every statement on the same in-memory
	// database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeSQL(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// unreadableSQL plants a directory with a .sql suffix so discovery picks it
// up but reading it fails, which is the file-level failure mode.
func unreadableSQL(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
		t.Fatal(err)
	}
}

func setupSQLDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, group := range []string{"ddl", "dml"} {
		if err := os.Mkdir(filepath.Join(dir, group), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestDeployDDLStopsAtFailedFile(t *testing.T) {
	db := setupTestDB(t)
	dir := setupSQLDir(t)
	ddl := filepath.Join(dir, "ddl")

	writeSQL(t, ddl, "001_first.sql", "CREATE TABLE first_t (id INTEGER);")
	unreadableSQL(t, ddl, "002_bad.sql")
	writeSQL(t, ddl, "003_third.sql", "CREATE TABLE third_t (id INTEGER);")

	d := New(db, dir)
	if err := d.DeployDDL(context.Background()); err == nil {
		t.Fatal("expected DDL failure")
	}

	if !tableExists(t, db, "first_t") {
		t.Error("first file should have executed")
	}
	if tableExists(t, db, "third_t") {
		t.Error("third file must not execute after a failure")
	}
}

func TestDeployDDLExecutesInLexicalOrder(t *testing.T) {
	db := setupTestDB(t)
	dir := setupSQLDir(t)
	ddl := filepath.Join(dir, "ddl")

	// 002 depends on 001; the stage fails unless order is lexical.
	writeSQL(t, ddl, "002_second.sql", "INSERT INTO ordered_t (id) VALUES (1);")
	writeSQL(t, ddl, "001_first.sql", "CREATE TABLE ordered_t (id INTEGER);")

	d := New(db, dir)
	if err := d.DeployDDL(context.Background()); err != nil {
		t.Fatalf("DeployDDL: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM ordered_t").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestDeployDDLFailsWhenNoFiles(t *testing.T) {
	d := New(setupTestDB(t), setupSQLDir(t))
	if err := d.DeployDDL(context.Background()); err == nil {
		t.Fatal("expected failure when the DDL directory is empty")
	}
}

func TestDeployDMLContinuesPastFailedFile(t *testing.T) {
	db := setupTestDB(t)
	dir := setupSQLDir(t)
	dml := filepath.Join(dir, "dml")

	writeSQL(t, filepath.Join(dir, "ddl"), "001_schema.sql", "CREATE TABLE seed_t (id INTEGER);")
	writeSQL(t, dml, "001_first.sql", "INSERT INTO seed_t (id) VALUES (1);")
	unreadableSQL(t, dml, "002_bad.sql")
	writeSQL(t, dml, "003_third.sql", "INSERT INTO seed_t (id) VALUES (3);")

	d := New(db, dir)
	if err := d.DeployDDL(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := d.DeployDML(context.Background()); err != nil {
		t.Fatalf("DeployDML must tolerate file failures, got %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM seed_t").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("rows = %d, want 2 (first and third files applied)", n)
	}
}

func TestDeployDMLSucceedsWhenNoFiles(t *testing.T) {
	d := New(setupTestDB(t), setupSQLDir(t))
	if err := d.DeployDML(context.Background()); err != nil {
		t.Fatalf("DeployDML: %v", err)
	}
}

func TestStatementFailureDoesNotFailFile(t *testing.T) {
	db := setupTestDB(t)
	dir := setupSQLDir(t)

	// The middle statement is invalid; the surrounding statements must
	// still execute and the file must still count as a success.
	writeSQL(t, filepath.Join(dir, "ddl"), "001_mixed.sql", strings.Join([]string{
		"CREATE TABLE mixed_a (id INTEGER);",
		"INSERT INTO no_such_table (id) VALUES (1);",
		"CREATE TABLE mixed_b (id INTEGER);",
	}, "\n"))

	d := New(db, dir)
	if err := d.DeployDDL(context.Background()); err != nil {
		t.Fatalf("DeployDDL: %v", err)
	}
	if !tableExists(t, db, "mixed_a") || !tableExists(t, db, "mixed_b") {
		t.Error("statements around the failed one must still execute")
	}
}

func TestVerifyAttemptsAllChecks(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.Exec("CREATE TABLE present_t (id INTEGER)"); err != nil {
		t.Fatal(err)
	}

	d := New(db, setupSQLDir(t))
	d.checks = []check{
		{"A", "SELECT * FROM present_t"},
		{"B", "SELECT * FROM missing_one"},
		{"C", "SELECT * FROM present_t"},
		{"D", "SELECT * FROM missing_two"},
		{"E", "SELECT * FROM present_t"},
	}

	err := d.Verify(context.Background())
	if err == nil {
		t.Fatal("expected verification failure")
	}
	// Both failing checks must be reported, proving the battery was not
	// cut short at the first failure.
	msg := err.Error()
	if !strings.Contains(msg, "B:") || !strings.Contains(msg, "D:") {
		t.Errorf("error should name both failed checks, got %q", msg)
	}
}

func TestVerifyPassesWhenAllChecksSucceed(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.Exec("CREATE TABLE present_t (id INTEGER)"); err != nil {
		t.Fatal(err)
	}

	d := New(db, setupSQLDir(t))
	d.checks = []check{
		{"A", "SELECT * FROM present_t"},
		{"B", "SELECT * FROM present_t"},
	}
	if err := d.Verify(context.Background()); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"two statements", "CREATE TABLE a (id INTEGER);\nCREATE TABLE b (id INTEGER);", 2},
		{"trailing semicolon", "SELECT 1;", 1},
		{"comment-only fragment skipped", "-- header comment;\nSELECT 1;", 1},
		{"blank fragments skipped", ";;\nSELECT 1;\n;", 1},
		{"statement with inline comment kept", "-- sets up\nCREATE TABLE c (id INTEGER);", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitStatements(tt.content); len(got) != tt.want {
				t.Errorf("SplitStatements = %d statements %q, want %d", len(got), got, tt.want)
			}
		})
	}
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var found string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("tableExists: %v", err)
	}
	return true
}
