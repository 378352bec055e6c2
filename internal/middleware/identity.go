package middleware

import (
	"strconv" // string forms of the user id

	"github.com/labstack/echo/v4" // request context accessors
)

// Context keys under which JWTAuth stores the caller's identity.
const (
	ctxUserID = "user_id" // uint64 user id from the "sub" claim
	ctxRole   = "role"    // role claim, "CUSTOMER" or "ADMIN"
)

// UserIDFrom returns the authenticated user id stored by JWTAuth.  JWTAuth
// stores a uint64, but float64 and decimal strings are accepted too so
// tests and other middleware can set the key directly.  The second result
// is false for anonymous requests and for a zero id.
func UserIDFrom(c echo.Context) (uint64, bool) {
	switch v := c.Get(ctxUserID).(type) {
	case uint64:
		return v, v != 0
	case float64:
		return uint64(v), v > 0
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		return id, err == nil && id != 0
	}
	return 0, false
}

// RoleFrom returns the role claim, or "" for anonymous requests.
func RoleFrom(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// userKey identifies the caller inside rate limit keys: the decimal user
// id when authenticated, "anon" otherwise.
func userKey(c echo.Context) string {
	if id, ok := UserIDFrom(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
