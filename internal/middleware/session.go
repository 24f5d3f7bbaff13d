package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avilchesf/gestor-gastos/internal/utils"
)

// SessionCookieName is the cookie the session token travels in. The cookie
// is HTTP-only so browser scripts never see the raw JWT.
const SessionCookieName = "token"

// SessionAuth returns an Echo middleware that resolves the current user
// from the session cookie, falling back to an Authorization bearer header
// for non-browser clients. On success the user id and email are stored in
// the request context under "user_id" and "email"; otherwise the request
// is rejected with 401.
func SessionAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ""
			if ck, err := c.Cookie(SessionCookieName); err == nil && ck.Value != "" {
				raw = ck.Value
			} else if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				raw = strings.TrimPrefix(auth, "Bearer ")
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
			}

			claims, err := utils.ParseSessionToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session"})
			}

			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			return next(c)
		}
	}
}
