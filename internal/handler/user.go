package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-lending/internal/repository"
)

// UserHandler serves the caller's own account endpoints.
type UserHandler struct {
	Users    *repository.UserRepo
	Loans    *repository.LoanRepo
	Wishlist *repository.WishlistRepo
}

// NewUserHandler constructs a UserHandler with the provided
// repositories.
func NewUserHandler(users *repository.UserRepo, loans *repository.LoanRepo, wishlist *repository.WishlistRepo) *UserHandler {
	if users == nil || loans == nil || wishlist == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Users: users, Loans: loans, Wishlist: wishlist}
}

// Me handles GET /api/users/me. It confirms the token resolved to a
// known user, creating the row on first contact, and echoes the id and
// role back.
func (h *UserHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Users.GetOrCreate(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":  u.ID,
		"is_admin": u.IsAdmin,
	})
}

// Profile handles GET /api/users/profile. It aggregates the caller's
// lending activity into a small stats payload.
func (h *UserHandler) Profile(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	if _, err := h.Users.GetOrCreate(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	total, active, err := h.Loans.CountByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load profile"})
	}
	wishlistCount, err := h.Wishlist.CountByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load profile"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":        userID,
		"total_loans":    total,
		"active_loans":   active,
		"books_read":     total - active,
		"wishlist_count": wishlistCount,
	})
}
