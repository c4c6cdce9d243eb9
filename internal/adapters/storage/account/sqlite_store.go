package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventbook/internal/adapters/storage"
	domain "eventbook/internal/domain/account"
	profileDomain "eventbook/internal/domain/profile"
)

const selectColumns = "SELECT id, username, email, password_hash, is_staff, created_at, failed_logins, locked_until FROM account"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return s.getOne(ctx, selectColumns+" WHERE id = ?", id)
}

// GetByUsername retrieves an Account by its exact username.
// PRE: username is non-empty
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByUsername(ctx context.Context, username string) (domain.Account, error) {
	return s.getOne(ctx, selectColumns+" WHERE username = ?", username)
}

// GetByEmail retrieves an Account by email, ignoring case.
// PRE: email is non-empty
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.getOne(ctx, selectColumns+" WHERE email = ?", email)
}

func (s *SQLiteStore) getOne(ctx context.Context, query string, arg string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, query, arg)
	entity, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account %q: %w", arg, domain.ErrNotFound)
	}
	return entity, err
}

// Save persists an Account (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted; duplicate username/email yields ErrUsernameTaken/ErrEmailTaken
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertAccount(ctx, tx, entity); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordFailedLogin bumps the failed-login counter in place and locks the
// account once it reaches domain.MaxFailedLogins.
// PRE: id is non-empty
// POST: Returns the new counter; no other column is touched
func (s *SQLiteStore) RecordFailedLogin(ctx context.Context, id string, now time.Time) (int, error) {
	var failed int
	err := s.db.QueryRowContext(ctx,
		`UPDATE account SET
			failed_logins = failed_logins + 1,
			locked_until = CASE WHEN failed_logins + 1 >= ? THEN ? ELSE locked_until END
		 WHERE id = ?
		 RETURNING failed_logins`,
		domain.MaxFailedLogins, storage.FormatTime(now.Add(domain.LockoutDuration)), id,
	).Scan(&failed)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("account %q: %w", id, domain.ErrNotFound)
	}
	return failed, err
}

// ResetFailedLogins clears the counter and any lock.
// POST: failed_logins is 0 and locked_until is NULL
func (s *SQLiteStore) ResetFailedLogins(ctx context.Context, id string) error {
	return s.updateOne(ctx, id, "UPDATE account SET failed_logins = 0, locked_until = NULL WHERE id = ?", id)
}

// SetPasswordHash replaces only the stored password hash.
// PRE: hash is a bcrypt hash
// POST: password_hash is hash; lockout state is unchanged
func (s *SQLiteStore) SetPasswordHash(ctx context.Context, id, hash string) error {
	return s.updateOne(ctx, id, "UPDATE account SET password_hash = ? WHERE id = ?", hash, id)
}

func (s *SQLiteStore) updateOne(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("account %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CreateWithProfile inserts an account and its empty profile in one transaction.
// PRE: entity has been validated; p.AccountID == entity.ID
// POST: both rows exist, or neither does
func (s *SQLiteStore) CreateWithProfile(ctx context.Context, entity domain.Account, p profileDomain.Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertAccount(ctx, tx, entity); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO profile (account_id, bio, location, updated_at) VALUES (?, ?, ?, ?)",
		p.AccountID, p.Bio, p.Location, storage.FormatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return tx.Commit()
}

// Count returns the total number of accounts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&count)
	return count, err
}

func upsertAccount(ctx context.Context, tx *sql.Tx, entity domain.Account) error {
	fields := []string{"id", "username", "email", "password_hash", "is_staff", "created_at", "failed_logins", "locked_until"}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ")
	updates := []string{
		"username=excluded.username",
		"email=excluded.email",
		"password_hash=excluded.password_hash",
		"is_staff=excluded.is_staff",
		"failed_logins=excluded.failed_logins",
		"locked_until=excluded.locked_until",
	}

	query := fmt.Sprintf(
		"INSERT INTO account (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		placeholders,
		strings.Join(updates, ", "),
	)

	_, err := tx.ExecContext(ctx, query,
		entity.ID,
		entity.Username,
		entity.Email,
		entity.PasswordHash,
		entity.IsStaff,
		storage.FormatTime(entity.CreatedAt),
		entity.FailedLogins,
		storage.NullableTime(entity.LockedUntil),
	)
	if storage.IsUniqueViolation(err) {
		if strings.Contains(err.Error(), "account.email") {
			return domain.ErrEmailTaken
		}
		return domain.ErrUsernameTaken
	}
	return err
}

// scanAccount extracts an Account from a row scanner function.
func scanAccount(scan func(dest ...interface{}) error) (domain.Account, error) {
	var entity domain.Account
	var createdAt string
	var lockedUntil sql.NullString
	err := scan(
		&entity.ID,
		&entity.Username,
		&entity.Email,
		&entity.PasswordHash,
		&entity.IsStaff,
		&createdAt,
		&entity.FailedLogins,
		&lockedUntil,
	)
	if err != nil {
		return domain.Account{}, err
	}
	if entity.CreatedAt, err = storage.ParseTimeColumn("account.created_at", createdAt); err != nil {
		return domain.Account{}, err
	}
	if entity.LockedUntil, err = storage.ParseNullTimeColumn("account.locked_until", lockedUntil); err != nil {
		return domain.Account{}, err
	}
	return entity, nil
}
