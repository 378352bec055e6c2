package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past 72 bytes, so longer passwords are refused
// instead of silently truncated.
const (
	MinPasswordLen = 8
	MaxPasswordLen = 72
)

var ErrPasswordPolicy = errors.New("password must be 8 to 72 bytes")

// CheckPasswordPolicy is applied to every password before hashing, for
// self-registered customers and CLI-created admins alike.
func CheckPasswordPolicy(plain string) error {
	if n := len(plain); n < MinPasswordLen || n > MaxPasswordLen {
		return ErrPasswordPolicy
	}
	return nil
}

// HashPassword checks the policy and hashes with the configured cost.
func HashPassword(plain string, cost int) (string, error) {
	if err := CheckPasswordPolicy(plain); err != nil {
		return "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
