package auth

import (
	"fmt"

	"github.com/alexedwards/argon2id"
)

// HashPassword returns an Argon2id PHC string suitable for
// ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// VerifyPassword compares in constant time. A malformed hash is an error,
// not a mismatch.
func VerifyPassword(password, hash string) (bool, error) {
	ok, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("verify password: %w", err)
	}
	return ok, nil
}
