package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tv-show-tracker/internal/auth"
)

// UsernameKey is the context key under which BearerAuth stores the
// verified identity.
const UsernameKey = "username"

// BearerAuth returns an Echo middleware that validates the Bearer
// access token on every request and injects the verified username into
// the context. Handlers read it via Username(c). All verification
// failures look the same to the client: 401 with no detail about why
// the token was rejected.
func BearerAuth(a *auth.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			username, err := a.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(UsernameKey, username)
			return next(c)
		}
	}
}

// Username returns the identity stored by BearerAuth, or "" on routes
// that did not pass through it.
func Username(c echo.Context) string {
	if v, ok := c.Get(UsernameKey).(string); ok {
		return v
	}
	return ""
}
