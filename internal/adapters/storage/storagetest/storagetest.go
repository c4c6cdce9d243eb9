// Package storagetest opens migrated SQLite databases for store tests.
package storagetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"eventbook/internal/adapters/storage"
)

// OpenDB returns a migrated, file-backed database that is closed when t ends.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// InsertAccount writes a minimal account row directly and returns its id.
func InsertAccount(t testing.TB, db *sql.DB, id, username string, staff bool) string {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		"INSERT INTO account (id, username, email, password_hash, is_staff, created_at) VALUES (?, ?, ?, '', ?, ?)",
		id, username, username+"@example.com", staff, storage.FormatTime(time.Now()),
	)
	if err != nil {
		t.Fatalf("insert account %s: %v", id, err)
	}
	return id
}

// InsertEvent writes an event row directly and returns its id.
func InsertEvent(t testing.TB, db *sql.DB, id, createdBy string, capacity int, date time.Time) string {
	t.Helper()
	now := storage.FormatTime(time.Now())
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO event (id, name, description, location, date, capacity, created_by, created_at, updated_at)
		 VALUES (?, ?, 'desc', 'loc', ?, ?, ?, ?, ?)`,
		id, "Event "+id, storage.FormatTime(date), capacity, createdBy, now, now,
	)
	if err != nil {
		t.Fatalf("insert event %s: %v", id, err)
	}
	return id
}
