package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func TestNewAccessTokenClaims(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, "ADMIN", 15)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("s3cret"), nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("parse: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"].(float64) != 42 || claims["role"] != "ADMIN" {
		t.Fatalf("claims = %v", claims)
	}
	if d := time.Until(tok.Exp); d < 14*time.Minute || d > 15*time.Minute {
		t.Fatalf("exp in %s", d)
	}
}

func TestRefreshTokens(t *testing.T) {
	a, err := NewRefreshToken(7)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewRefreshToken(7)
	if len(a.Raw) != 96 || a.Raw == b.Raw {
		t.Fatalf("raw tokens %q %q", a.Raw, b.Raw)
	}
	if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) || HashRefreshRaw(a.Raw) == HashRefreshRaw(b.Raw) {
		t.Fatal("hash not deterministic or collides")
	}
	if len(HashRefreshRaw(a.Raw)) != 64 {
		t.Fatal("unexpected hash length")
	}
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("croissant", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(h, "croissant") || VerifyPassword(h, "baguette") {
		t.Fatal("verify mismatch")
	}
	for _, pw := range []string{"short", strings.Repeat("x", MaxPasswordLen+1)} {
		if _, err := HashPassword(pw, bcrypt.MinCost); !errors.Is(err, ErrPasswordPolicy) {
			t.Errorf("len %d: err = %v, want ErrPasswordPolicy", len(pw), err)
		}
	}
}
