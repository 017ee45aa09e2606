package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-lending/internal/auth"
)

// TokenVerifier resolves a raw bearer token to a stable user id. It is
// satisfied by *auth.Verifier; tests substitute a stub.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// BearerAuth returns an Echo middleware that validates the bearer
// token on every request against the identity provider and stores the
// verified user id in the request context under "user_id". There is no
// local session state: an expired or revoked token fails on the next
// request. Provider outages surface as 503 so clients do not discard
// otherwise valid tokens.
func BearerAuth(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			uid, err := v.Verify(c.Request().Context(), raw)
			if err != nil {
				if errors.Is(err, auth.ErrUnavailable) {
					return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "identity provider unavailable"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set("user_id", uid)
			return next(c)
		}
	}
}
