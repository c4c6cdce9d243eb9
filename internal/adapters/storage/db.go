package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// TimeLayout is the fixed-width UTC layout every timestamp column uses,
// so that text ordering matches chronological ordering.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DSN builds the connection string used for every SQLite connection.
// Foreign keys are enforced per connection and transactions take the write lock up front.
func DSN(path string) string {
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_txlock=immediate",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)", "_pragma=synchronous(NORMAL)")
	}
	return path + "?" + strings.Join(pragmas, "&")
}

// Open opens and pings the SQLite database at path.
// PRE: path is a writable file path or ":memory:"
// POST: returns a live connection pool with foreign keys enabled
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return db, nil
}

type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "baseline",
		stmts: []string{
			`CREATE TABLE account (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL UNIQUE COLLATE NOCASE,
				password_hash TEXT NOT NULL DEFAULT '',
				is_staff INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				failed_logins INTEGER NOT NULL DEFAULT 0,
				locked_until TEXT
			)`,
			`CREATE TABLE profile (
				account_id TEXT PRIMARY KEY,
				bio TEXT NOT NULL DEFAULT '',
				location TEXT NOT NULL DEFAULT '',
				updated_at TEXT NOT NULL,
				FOREIGN KEY (account_id) REFERENCES account(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE event (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL,
				location TEXT NOT NULL,
				date TEXT NOT NULL,
				capacity INTEGER NOT NULL CHECK (capacity > 0),
				created_by TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				FOREIGN KEY (created_by) REFERENCES account(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE booking (
				id TEXT PRIMARY KEY,
				account_id TEXT NOT NULL,
				event_id TEXT NOT NULL,
				booked_at TEXT NOT NULL,
				UNIQUE (account_id, event_id),
				FOREIGN KEY (account_id) REFERENCES account(id) ON DELETE CASCADE,
				FOREIGN KEY (event_id) REFERENCES event(id) ON DELETE CASCADE
			)`,
		},
	},
	{
		version: 2,
		name:    "listing_indexes",
		stmts: []string{
			`CREATE INDEX idx_event_date ON event(date)`,
			`CREATE INDEX idx_event_created_by ON event(created_by)`,
			`CREATE INDEX idx_booking_event ON booking(event_id)`,
		},
	},
	{
		version: 3,
		name:    "notification_outbox",
		stmts: []string{
			`CREATE TABLE outbox (
				id TEXT PRIMARY KEY,
				notifier TEXT NOT NULL,
				booking_id TEXT NOT NULL,
				payload TEXT NOT NULL,
				status TEXT NOT NULL,
				attempts INTEGER NOT NULL DEFAULT 0,
				max_attempts INTEGER NOT NULL,
				last_attempted_at TEXT,
				created_at TEXT NOT NULL,
				error_message TEXT NOT NULL DEFAULT '',
				UNIQUE (booking_id, notifier),
				FOREIGN KEY (booking_id) REFERENCES booking(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX idx_outbox_status ON outbox(status, created_at)`,
		},
	},
	{
		version: 4,
		name:    "outbox_next_attempt",
		stmts: []string{
			`ALTER TABLE outbox ADD COLUMN next_attempt_at TEXT`,
			`CREATE INDEX idx_outbox_due ON outbox(status, next_attempt_at)`,
		},
	},
}

// LatestSchemaVersion returns the version the migration chain ends at.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the highest applied migration version.
// PRE: MigrateDB has created schema_version
func SchemaVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	return v, err
}

// MigrateDB applies every pending migration in order, one transaction each.
// PRE: db is a valid database connection
// POST: schema_version equals LatestSchemaVersion()
func MigrateDB(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		zap.L().Info("schema_migrated", zap.Int("version", m.version), zap.String("name", m.name))
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)",
		m.version, m.name, FormatTime(time.Now()),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// IsUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// NullableTime renders t, or nil for the zero time.
func NullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// ParseTime parses a timestamp column written by FormatTime or by SQLite itself.
func ParseTime(s string) (time.Time, error) {
	formats := []string{
		TimeLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}

// ParseTimeColumn parses a required timestamp column, naming the column on failure.
func ParseTimeColumn(column, s string) (time.Time, error) {
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s: %w", column, err)
	}
	return t, nil
}

// ParseNullTimeColumn is ParseTimeColumn for nullable columns; NULL or empty yields the zero time.
func ParseNullTimeColumn(column string, s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return ParseTimeColumn(column, s.String)
}
