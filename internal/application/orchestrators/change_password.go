package orchestrators

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"eventbook/internal/domain/account"
	"eventbook/internal/domain/validation"
)

// ChangePasswordInput carries input for the change-password orchestrator.
type ChangePasswordInput struct {
	Principal       account.Principal
	CurrentPassword string
	NewPassword1    string
	NewPassword2    string
}

// AccountStoreForChangePassword defines the store interface needed by ChangePassword.
type AccountStoreForChangePassword interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	AccountStore AccountStoreForChangePassword
}

// ExecuteChangePassword verifies the current password and stores the new one.
// PRE: Principal is authenticated
// POST: on success the stored hash matches NewPassword1; failures return
// validation.Errors keyed by old_password, new_password1 and new_password2
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	if input.Principal.IsAnonymous() {
		return ErrAuthenticationRequired
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.Principal.ID)
	if err != nil {
		return err
	}

	errs := validation.Errors{}
	if input.CurrentPassword == "" {
		errs.Add("old_password", "This field is required.")
	} else if acct.CheckPassword(input.CurrentPassword) != nil {
		errs.Add("old_password", "Your old password was entered incorrectly. Please enter it again.")
	}

	var pwErrs validation.Errors
	if err := account.ValidatePassword(input.NewPassword1, input.NewPassword2, acct.Username); errors.As(err, &pwErrs) {
		for _, msg := range pwErrs["password1"] {
			errs.Add("new_password1", msg)
		}
		for _, msg := range pwErrs["password2"] {
			errs.Add("new_password2", msg)
		}
	}
	if !errs.Has("old_password") && !errs.Has("new_password1") && input.NewPassword1 == input.CurrentPassword {
		errs.Add("new_password1", "The new password must be different from the old one.")
	}
	if len(errs) > 0 {
		return errs
	}

	if err := acct.SetPassword(input.NewPassword1); err != nil {
		return err
	}
	if err := deps.AccountStore.SetPasswordHash(ctx, acct.ID, acct.PasswordHash); err != nil {
		return err
	}

	zap.L().Info("auth_event", zap.String("event", "password_changed"), zap.String("account_id", acct.ID))
	return nil
}
