package orchestrators

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"eventbook/internal/domain/account"
	"eventbook/internal/domain/profile"
	"eventbook/internal/domain/validation"
)

// AccountStoreForRegister defines the store interface needed by Register.
type AccountStoreForRegister interface {
	GetByUsername(ctx context.Context, username string) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	CreateWithProfile(ctx context.Context, a account.Account, p profile.Profile) error
}

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	Username  string
	Email     string
	Password1 string
	Password2 string
}

// RegisterDeps holds dependencies for Register.
type RegisterDeps struct {
	AccountStore AccountStoreForRegister
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteRegister creates an account and its empty profile.
// PRE: none; all input is validated here
// POST: on success exactly one Account and one Profile exist for the new ID
// INVARIANT: username and email stay unique; failures return validation.Errors
func ExecuteRegister(ctx context.Context, input RegisterInput, deps RegisterDeps) (account.Principal, error) {
	now := clock(deps.Now)
	acct := account.Account{
		ID:        newID(deps.GenerateID),
		Username:  strings.TrimSpace(input.Username),
		Email:     strings.TrimSpace(input.Email),
		CreatedAt: now,
	}

	errs := validation.Errors{}
	var fieldErrs validation.Errors
	if err := acct.Validate(); errors.As(err, &fieldErrs) {
		errs.Merge(fieldErrs)
	}
	if err := account.ValidatePassword(input.Password1, input.Password2, acct.Username); errors.As(err, &fieldErrs) {
		errs.Merge(fieldErrs)
	}

	if !errs.Has("username") {
		if _, err := deps.AccountStore.GetByUsername(ctx, acct.Username); err == nil {
			errs.Add("username", "A user with that username already exists.")
		} else if !errors.Is(err, account.ErrNotFound) {
			return account.Principal{}, err
		}
	}
	if !errs.Has("email") {
		if _, err := deps.AccountStore.GetByEmail(ctx, acct.Email); err == nil {
			errs.Add("email", "A user with that email already exists.")
		} else if !errors.Is(err, account.ErrNotFound) {
			return account.Principal{}, err
		}
	}
	if len(errs) > 0 {
		return account.Principal{}, errs
	}

	if err := acct.SetPassword(input.Password1); err != nil {
		return account.Principal{}, err
	}

	err := deps.AccountStore.CreateWithProfile(ctx, acct, profile.New(acct.ID, now))
	switch {
	case errors.Is(err, account.ErrUsernameTaken):
		return account.Principal{}, validation.Errors{"username": {"A user with that username already exists."}}
	case errors.Is(err, account.ErrEmailTaken):
		return account.Principal{}, validation.Errors{"email": {"A user with that email already exists."}}
	case err != nil:
		return account.Principal{}, err
	}

	zap.L().Info("auth_event",
		zap.String("event", "account_created"),
		zap.String("account_id", acct.ID),
		zap.String("username", acct.Username),
	)
	return acct.Principal(), nil
}
