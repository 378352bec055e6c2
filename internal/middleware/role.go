package middleware // middleware holds the request pipeline shared by every route group

import (
	"net/http" // status codes for the 403 reply

	"github.com/labstack/echo/v4" // echo middleware chaining and context
)

// RequireRole returns a middleware that admits a request only when the
// caller's role is one of roles.  The role is the "role" claim that
// JWTAuth stored in the context, so JWTAuth must run first.  Customers
// hit the customer routes with "CUSTOMER"; the admin group accepts only
// "ADMIN".  Anything else, including an anonymous request, gets a 403
// with the usual {"error": ...} body.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// Set of accepted roles, looked up once per request.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// RoleFrom yields "" when JWTAuth did not run or the claim
			// was missing, and "" is never in the set.
			if !allowed[RoleFrom(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			// Role accepted: continue down the chain.
			return next(c)
		}
	}
}
