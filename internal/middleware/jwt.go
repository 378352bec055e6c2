package middleware

import (
	"errors"   // sentinel-style errors for malformed claims
	"net/http" // status codes for the 401 replies
	"strconv"  // subjects may arrive as decimal strings
	"strings"  // Authorization header parsing

	"github.com/golang-jwt/jwt/v5" // JWT parsing and signature checks
	"github.com/labstack/echo/v4"  // middleware signature and context
)

// ParseAccessToken validates an access token issued by utils.NewAccessToken
// and returns its subject (the user id) and role.  Only HS256 signed with
// secret is accepted; expiry is enforced by the jwt library.  A token
// without a usable subject is rejected even when the signature is good.
func ParseAccessToken(secret, raw string) (uint64, string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Refuse anything that is not HMAC before handing out the key.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, "", err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return 0, "", errors.New("invalid claims")
	}

	// JSON numbers decode as float64.  Tokens from other issuers may
	// carry the subject as a string instead.
	var uid uint64
	switch sub := claims["sub"].(type) {
	case float64:
		uid = uint64(sub)
	case string:
		uid, _ = strconv.ParseUint(sub, 10, 64)
	}
	if uid == 0 {
		return 0, "", errors.New("missing subject")
	}
	// A missing role is left empty; RequireRole turns that into a 403.
	role, _ := claims["role"].(string)
	return uid, role, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.  The second result is false when the scheme is wrong or the
// token part is blank.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return raw, raw != ""
}

// JWTAuth rejects requests without a valid bearer access token with 401.
// On success the user id (uint64) and role (string) are stored in the
// echo context, where UserIDFrom, RoleFrom and RequireRole read them.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// No header, or a header with another scheme.
			raw, ok := BearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			// Bad signature, expired, or no subject.
			uid, role, err := ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			// Make the identity available to the rest of the chain.
			c.Set(ctxUserID, uid)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}
