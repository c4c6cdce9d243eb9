package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventbook/internal/adapters/storage"
	domain "eventbook/internal/domain/profile"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new profile store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByAccountID retrieves the profile owned by an account.
// PRE: accountID is non-empty
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByAccountID(ctx context.Context, accountID string) (domain.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT account_id, bio, location, updated_at FROM profile WHERE account_id = ?", accountID)

	var p domain.Profile
	var updatedAt string
	err := row.Scan(&p.AccountID, &p.Bio, &p.Location, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, fmt.Errorf("profile for %q: %w", accountID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Profile{}, err
	}
	if p.UpdatedAt, err = storage.ParseTimeColumn("profile.updated_at", updatedAt); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// Save inserts or updates a profile.
// PRE: value has been validated and its account exists
// POST: the row for value.AccountID holds value
func (s *SQLiteStore) Save(ctx context.Context, value domain.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profile (account_id, bio, location, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(account_id) DO UPDATE SET bio=excluded.bio, location=excluded.location, updated_at=excluded.updated_at`,
		value.AccountID, value.Bio, value.Location, storage.FormatTime(value.UpdatedAt),
	)
	return err
}
