package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-lending/internal/catalog"
	"github.com/iliyamo/library-lending/internal/model"
	"github.com/iliyamo/library-lending/internal/repository"
)

// AdminHandler serves the staff-only endpoints. Routes using it must be
// wired behind both BearerAuth and RequireAdmin; the handler itself
// re-reads the caller id only where the operation depends on it.
type AdminHandler struct {
	Loans   *repository.LoanRepo
	Users   *repository.UserRepo
	Catalog *catalog.Client

	// loanFlow shares the return transition with the user-facing
	// handler so forced returns follow the exact same rules.
	loanFlow *LoanHandler
}

// NewAdminHandler constructs an AdminHandler. loanFlow provides the
// shared return transition.
func NewAdminHandler(loans *repository.LoanRepo, users *repository.UserRepo, cat *catalog.Client, loanFlow *LoanHandler) *AdminHandler {
	if loans == nil || users == nil || cat == nil || loanFlow == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Loans: loans, Users: users, Catalog: cat, loanFlow: loanFlow}
}

// adminLoanResponse is an active loan enriched with the borrower's
// contact fields and the catalog metadata staff need to identify the
// physical copy.
type adminLoanResponse struct {
	ID              string   `json:"id"`
	BookID          string   `json:"book_id"`
	UserID          string   `json:"user_id"`
	UserDisplayName string   `json:"user_display_name"`
	UserEmail       string   `json:"user_email"`
	BorrowedDate    string   `json:"borrowed_date"`
	DueDate         string   `json:"due_date"`
	Status          string   `json:"status"`
	BookTitle       string   `json:"book_title"`
	BookImage       string   `json:"book_image"`
	BookAuthors     []string `json:"book_authors"`
}

// ListLoans handles GET /api/admin/loans. Every active loan is joined
// with its owner and enriched from the catalog. Enrichment is all or
// nothing: one failed catalog lookup fails the whole listing, so staff
// never act on a partially described page.
func (h *AdminHandler) ListLoans(c echo.Context) error {
	ctx := c.Request().Context()
	loans, err := h.Loans.ListAllActiveWithUsers(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load loans"})
	}

	out := make([]adminLoanResponse, 0, len(loans))
	for _, lw := range loans {
		book, err := h.Catalog.GetByID(ctx, lw.Loan.BookID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load book details"})
		}
		image := ""
		if book.CoverImage != nil {
			image = *book.CoverImage
		}
		out = append(out, adminLoanResponse{
			ID:              lw.Loan.ID,
			BookID:          lw.Loan.BookID,
			UserID:          lw.Loan.UserID,
			UserDisplayName: lw.UserDisplayName,
			UserEmail:       lw.UserEmail,
			BorrowedDate:    isoTime(lw.Loan.BorrowedDate),
			DueDate:         isoTime(lw.Loan.DueDate),
			Status:          lw.Loan.Status,
			BookTitle:       book.Title,
			BookImage:       image,
			BookAuthors:     book.Authors,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// ForceReturn handles PUT /api/admin/loans/:id/return. It runs the same
// transition as an owner return but looks the loan up by id alone, so
// staff can close out any active loan. The response records which admin
// acted.
func (h *AdminHandler) ForceReturn(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	loanID := c.Param("id")
	ctx := c.Request().Context()

	returnedAt, done := h.loanFlow.finishLoan(c, func(tx *sql.Tx) (model.Loan, error) {
		return h.Loans.GetByIDTx(ctx, tx, loanID)
	})
	if !done {
		return nil
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "Book returned successfully by admin",
		"loan_id":       loanID,
		"returned_date": isoTime(returnedAt),
		"admin_user_id": adminID,
	})
}

// MakeAdmin handles GET /api/admin/users/:id/make-admin.
func (h *AdminHandler) MakeAdmin(c echo.Context) error {
	return h.setAdmin(c, true)
}

// RemoveAdmin handles GET /api/admin/users/:id/remove-admin. Admins
// cannot demote themselves; the last admin lockout this prevents is
// cheaper to forbid than to recover from.
func (h *AdminHandler) RemoveAdmin(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if callerID == c.Param("id") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Cannot remove your own admin privileges"})
	}
	return h.setAdmin(c, false)
}

func (h *AdminHandler) setAdmin(c echo.Context, isAdmin bool) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	u, err := h.Users.SetAdmin(ctx, c.Param("id"), isAdmin)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}
	msg := fmt.Sprintf("User %s is now an admin", u.Email)
	if !isAdmin {
		msg = fmt.Sprintf("User %s is no longer an admin", u.Email)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":       msg,
		"user_id":       u.ID,
		"admin_user_id": adminID,
	})
}
