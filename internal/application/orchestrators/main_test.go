package orchestrators

import (
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"eventbook/internal/domain/account"
)

func TestMain(m *testing.M) {
	account.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}
