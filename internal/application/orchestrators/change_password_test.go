package orchestrators

import (
	"context"
	"errors"
	"testing"

	"eventbook/internal/domain/account"
	"eventbook/internal/domain/validation"
)

func TestExecuteChangePassword(t *testing.T) {
	newStore := func(t *testing.T) *mockAccountStore {
		t.Helper()
		store := newMockAccountStore()
		acct := account.Account{ID: owner.ID, Username: owner.Username, Email: owner.Email, CreatedAt: testTime}
		if err := acct.SetPassword("OldPass123!"); err != nil {
			t.Fatal(err)
		}
		store.accounts[acct.ID] = acct
		return store
	}

	tests := []struct {
		name      string
		input     ChangePasswordInput
		wantField string
	}{
		{
			name:      "wrong current password",
			input:     ChangePasswordInput{Principal: owner, CurrentPassword: "nope", NewPassword1: "NewPass456!", NewPassword2: "NewPass456!"},
			wantField: "old_password",
		},
		{
			name:      "missing current password",
			input:     ChangePasswordInput{Principal: owner, NewPassword1: "NewPass456!", NewPassword2: "NewPass456!"},
			wantField: "old_password",
		},
		{
			name:      "too short",
			input:     ChangePasswordInput{Principal: owner, CurrentPassword: "OldPass123!", NewPassword1: "short", NewPassword2: "short"},
			wantField: "new_password1",
		},
		{
			name:      "mismatch",
			input:     ChangePasswordInput{Principal: owner, CurrentPassword: "OldPass123!", NewPassword1: "NewPass456!", NewPassword2: "NewPass789!"},
			wantField: "new_password2",
		},
		{
			name:      "unchanged",
			input:     ChangePasswordInput{Principal: owner, CurrentPassword: "OldPass123!", NewPassword1: "OldPass123!", NewPassword2: "OldPass123!"},
			wantField: "new_password1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			before := store.accounts[owner.ID].PasswordHash

			err := ExecuteChangePassword(context.Background(), tt.input, ChangePasswordDeps{AccountStore: store})
			var errs validation.Errors
			if !errors.As(err, &errs) {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if !errs.Has(tt.wantField) {
				t.Errorf("expected error on %s, got %v", tt.wantField, errs)
			}
			if store.accounts[owner.ID].PasswordHash != before {
				t.Error("password changed despite validation failure")
			}
		})
	}

	t.Run("success", func(t *testing.T) {
		store := newStore(t)
		err := ExecuteChangePassword(context.Background(), ChangePasswordInput{
			Principal:       owner,
			CurrentPassword: "OldPass123!",
			NewPassword1:    "NewPass456!",
			NewPassword2:    "NewPass456!",
		}, ChangePasswordDeps{AccountStore: store})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		acct := store.accounts[owner.ID]
		if acct.CheckPassword("NewPass456!") != nil {
			t.Error("new password not accepted")
		}
		if acct.CheckPassword("OldPass123!") == nil {
			t.Error("old password still accepted")
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		err := ExecuteChangePassword(context.Background(), ChangePasswordInput{}, ChangePasswordDeps{AccountStore: newStore(t)})
		if !errors.Is(err, ErrAuthenticationRequired) {
			t.Errorf("got %v, want ErrAuthenticationRequired", err)
		}
	})
}
