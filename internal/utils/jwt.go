// Package utils issues the access and refresh tokens handed to bakery
// customers and admins, and hashes their passwords.
package utils

import (
	"crypto/rand"   // random bytes for refresh tokens
	"crypto/sha256" // stored form of a refresh token
	"encoding/hex"  // text encoding of random bytes and digests
	"time"          // expiry computation

	"github.com/golang-jwt/jwt/v5" // HS256 signing
)

// AccessToken is a signed HS256 JWT and the moment it stops being accepted.
// Clients send Token in the Authorization header of every protected call.
type AccessToken struct {
	Token string    `json:"token"`      // compact JWT
	Exp   time.Time `json:"expires_at"` // UTC expiry
}

// RefreshToken is the long-lived value a client trades for new access
// tokens.  Raw is returned to the client exactly once; the database keeps
// only HashRefreshRaw(Raw).
type RefreshToken struct {
	Raw string    `json:"token"`      // 96 hex characters
	Exp time.Time `json:"expires_at"` // UTC expiry
}

// NewAccessToken signs a token for userID with the given role, valid for
// ttlMin minutes.  The claims are sub (user id), role, exp and iat; the
// middleware package reads sub and role back.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	// One clock reading so iat and exp agree.
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	// Sign with the shared HMAC secret.
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a fresh random token valid for ttlDays days.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes, 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw is the stored form of a refresh token: the hex SHA-256 of
// the raw value.  Lookups, rotation and revocation all go through it.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex reads n bytes from crypto/rand and hex encodes them.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
