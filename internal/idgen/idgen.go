package idgen

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// New returns a UUIDv7 identifier string.
// If UUIDv7 generation fails, it falls back to a random UUIDv4.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

var accountNamePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ValidateAccountName checks that name can be used as an account key in the
// configuration and in command routing.
// Rules: lowercase letters, digits, and dashes; must start with a letter and
// end with a letter or digit; max 64 characters.
func ValidateAccountName(name string) error {
	if len(name) > 64 {
		return fmt.Errorf("account name too long (max 64 characters)")
	}
	if !accountNamePattern.MatchString(name) {
		return fmt.Errorf("account name %q is invalid: must match %s", name, accountNamePattern.String())
	}
	return nil
}
