package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// tempDBPath returns a path to a temp database file.
func tempDBPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "test.db")
}

// setupTestDB creates a new temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestOpen(t *testing.T) {
	path := tempDBPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	// Check path is set correctly
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}

	// Check file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file does not exist at %s", path)
	}
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	path := filepath.Join(nested, "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(nested); os.IsNotExist(err) {
		t.Errorf("parent directories not created: %s", nested)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	// Try to open a database at a path that can't be created
	// (on Linux, we can't create files under /proc)
	_, err := Open("/proc/nonexistent/test.db")
	if err == nil {
		t.Error("expected error opening db at invalid path")
	}
}

func TestClose(t *testing.T) {
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	// Subsequent operations should fail
	_, err = db.Query("SELECT 1")
	if err == nil {
		t.Error("expected error after close, got nil")
	}
}

func TestMigrate(t *testing.T) {
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	tables := []string{"schema_version", "lessons", "task_results"}
	for _, table := range tables {
		var count int
		row := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table)
		if err := row.Scan(&count); err != nil {
			t.Errorf("failed to check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	for i := 0; i < 3; i++ {
		if err := db.Migrate(); err != nil {
			t.Fatalf("Migrate (iteration %d) failed: %v", i, err)
		}
	}

	var version, rows int
	row := db.QueryRow("SELECT MAX(version), COUNT(*) FROM schema_version")
	if err := row.Scan(&version, &rows); err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != 2 || rows != 2 {
		t.Errorf("schema version = %d (%d rows), want 2 (2 rows)", version, rows)
	}
}

func TestOpenArchive_Migrates(t *testing.T) {
	db, err := OpenArchive(tempDBPath(t))
	if err != nil {
		t.Fatalf("OpenArchive failed: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM lessons").Scan(&count); err != nil {
		t.Fatalf("lessons table missing: %v", err)
	}
}

func insertLessonRow(t *testing.T, db *DB, id string, createdAt time.Time) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO lessons (id, course_title, lesson_title, title, depth, strategy, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, "Course", "Lesson", "Title", "basic", "tasks", "body", formatTime(createdAt))
	if err != nil {
		t.Fatalf("insert lesson %s: %v", id, err)
	}
}

func TestExec(t *testing.T) {
	db := setupTestDB(t)

	result, err := db.Exec(`INSERT INTO lessons (id, course_title, lesson_title, title, depth, strategy, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"l-1", "Course", "Lesson", "Title", "basic", "tasks", "body", "2024-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		t.Fatalf("RowsAffected failed: %v", err)
	}
	if affected != 1 {
		t.Errorf("RowsAffected = %d, want 1", affected)
	}
}

func TestQuery(t *testing.T) {
	db := setupTestDB(t)
	insertLessonRow(t, db, "l-1", time.Now())

	rows, err := db.Query("SELECT id, course_title FROM lessons WHERE id = ?", "l-1")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	var id, course string
	if !rows.Next() {
		t.Fatal("expected row, got none")
	}
	if err := rows.Scan(&id, &course); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if id != "l-1" || course != "Course" {
		t.Errorf("got (%s, %s), want (l-1, Course)", id, course)
	}
}

func TestTransaction_Success(t *testing.T) {
	db := setupTestDB(t)

	err := db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO lessons (id, course_title, lesson_title, title, depth, strategy, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			"tx-1", "Course", "Lesson", "Title", "basic", "tasks", "body", "2024-01-01T00:00:00Z")
		return err
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}

	var count int
	row := db.QueryRow("SELECT COUNT(*) FROM lessons WHERE id = ?", "tx-1")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("failed to verify: %v", err)
	}
	if count != 1 {
		t.Error("transaction was not committed")
	}
}

func TestTransaction_Rollback(t *testing.T) {
	db := setupTestDB(t)

	err := db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO lessons (id, course_title, lesson_title, title, depth, strategy, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			"tx-fail", "Course", "Lesson", "Title", "basic", "tasks", "body", "2024-01-01T00:00:00Z")
		if err != nil {
			return err
		}
		return fmt.Errorf("simulated error")
	})
	if err == nil {
		t.Error("expected error from Transaction")
	}

	var count int
	row := db.QueryRow("SELECT COUNT(*) FROM lessons WHERE id = ?", "tx-fail")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("failed to verify: %v", err)
	}
	if count != 0 {
		t.Error("transaction was not rolled back")
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got, want := DefaultPath(), "/custom/data/lessonforge/lessons.db"; got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_DATA_HOME", "")
	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".local", "share", "lessonforge", "lessons.db")
	if got := DefaultPath(); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}

func TestFormatAndParseTime(t *testing.T) {
	now := time.Now()
	parsed, err := parseTime(formatTime(now))
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}
	if !now.Equal(parsed) {
		t.Errorf("time round-trip failed: got %v, want %v", parsed, now.UTC())
	}
}

func TestPurgeOldLessons(t *testing.T) {
	db := setupTestDB(t)
	insertLessonRow(t, db, "old", time.Now().Add(-48*time.Hour))
	insertLessonRow(t, db, "new", time.Now())
	if _, err := db.Exec(`INSERT INTO task_results (lesson_id, task_id, kind, status) VALUES (?, ?, ?, ?)`,
		"old", "topic_research", "topic_research", "completed"); err != nil {
		t.Fatalf("insert task result: %v", err)
	}

	n, err := db.PurgeOldLessons(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldLessons failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d lessons, want 1", n)
	}

	var lessons, results int
	if err := db.QueryRow("SELECT COUNT(*) FROM lessons").Scan(&lessons); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM task_results").Scan(&results); err != nil {
		t.Fatal(err)
	}
	if lessons != 1 || results != 0 {
		t.Errorf("after purge: %d lessons, %d task results; want 1, 0", lessons, results)
	}
}
