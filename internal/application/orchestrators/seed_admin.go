package orchestrators

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"eventbook/internal/domain/account"
	"eventbook/internal/domain/profile"
)

// AccountStoreForSeed defines the store interface needed by SeedAdmin.
type AccountStoreForSeed interface {
	Count(ctx context.Context) (int, error)
	CreateWithProfile(ctx context.Context, a account.Account, p profile.Profile) error
}

// SeedAdminInput carries the configured staff credentials.
type SeedAdminInput struct {
	Username string
	Email    string
	Password string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	AccountStore AccountStoreForSeed
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteSeedAdmin creates a staff account if no accounts exist.
// PRE: Database is migrated
// POST: a staff account with an empty profile exists if count was 0; otherwise nothing changes
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) (bool, error) {
	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if input.Password == "" {
		return false, errors.New("seed admin: password is not configured")
	}

	now := clock(deps.Now)
	acct := account.Account{
		ID:        newID(deps.GenerateID),
		Username:  strings.TrimSpace(input.Username),
		Email:     strings.TrimSpace(input.Email),
		IsStaff:   true,
		CreatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		return false, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return false, err
	}
	if err := deps.AccountStore.CreateWithProfile(ctx, acct, profile.New(acct.ID, now)); err != nil {
		return false, err
	}

	zap.L().Info("auth_event", zap.String("event", "admin_seeded"), zap.String("username", acct.Username))
	return true, nil
}
