package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-lending/internal/model"
	"github.com/iliyamo/library-lending/internal/repository"
)

// UserLookup fetches a user record by id. It is satisfied by
// *repository.UserRepo; tests substitute a stub.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// RequireAdmin returns a middleware that restricts a route group to
// users whose admin flag is set. The flag lives in the users table
// rather than the token, so a demotion takes effect on the next
// request without waiting for a token refresh. It assumes BearerAuth
// already stored "user_id" in the context; a user that has never
// touched the system has no row and is treated as non-admin.
func RequireAdmin(users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := c.Get("user_id").(string)
			if !ok || uid == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			u, err := users.GetByID(c.Request().Context(), uid)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "admin privileges required"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
			}
			if !u.IsAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin privileges required"})
			}
			return next(c)
		}
	}
}
