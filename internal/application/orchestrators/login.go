package orchestrators

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"eventbook/internal/domain/account"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByUsername(ctx context.Context, username string) (account.Account, error)
	RecordFailedLogin(ctx context.Context, id string, now time.Time) (int, error)
	ResetFailedLogins(ctx context.Context, id string) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Username string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
	Now          func() time.Time
}

// ErrInvalidCredentials is returned for every failed login, whatever the cause.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ExecuteLogin validates credentials and returns the identity for session creation.
// PRE: none
// POST: Returns the principal on success; records failed attempts on a wrong password
// INVARIANT: unknown user, wrong password and locked account are indistinguishable to the caller
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (account.Principal, error) {
	if input.Username == "" || input.Password == "" {
		return account.Principal{}, ErrInvalidCredentials
	}
	now := clock(deps.Now)

	acct, err := deps.AccountStore.GetByUsername(ctx, input.Username)
	if errors.Is(err, account.ErrNotFound) {
		zap.L().Info("auth_event", zap.String("event", "login_failed"), zap.String("username", input.Username), zap.String("reason", "not_found"))
		return account.Principal{}, ErrInvalidCredentials
	}
	if err != nil {
		return account.Principal{}, err
	}

	if acct.IsLocked(now) {
		zap.L().Info("auth_event", zap.String("event", "login_blocked"), zap.String("username", input.Username), zap.String("reason", "locked"))
		return account.Principal{}, ErrInvalidCredentials
	}

	// Lockout state is updated in place; writing back acct would undo a
	// password change committed since it was read.
	if err := acct.CheckPassword(input.Password); err != nil {
		failed, err := deps.AccountStore.RecordFailedLogin(ctx, acct.ID, now)
		if err != nil {
			zap.L().Warn("auth_event_save_failed", zap.String("account_id", acct.ID), zap.Error(err))
		}
		zap.L().Info("auth_event",
			zap.String("event", "login_failed"),
			zap.String("username", input.Username),
			zap.String("reason", "wrong_password"),
			zap.Int("failed_logins", failed),
		)
		return account.Principal{}, ErrInvalidCredentials
	}

	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		if err := deps.AccountStore.ResetFailedLogins(ctx, acct.ID); err != nil {
			return account.Principal{}, err
		}
	}

	zap.L().Info("auth_event", zap.String("event", "login_success"), zap.String("username", acct.Username))
	return acct.Principal(), nil
}
