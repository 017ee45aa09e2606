package handler

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-lending/internal/model"
)

// getUserID extracts the verified user id stored in the context by the
// BearerAuth middleware. Handlers behind that middleware can rely on
// it; a missing value means the route was wired without auth.
func getUserID(c echo.Context) (string, error) {
	v, ok := c.Get("user_id").(string)
	if !ok || v == "" {
		return "", errors.New("no authenticated user in context")
	}
	return v, nil
}

// isoTime formats a timestamp the way every date field in the API is
// rendered.
func isoTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// loanResponse is the wire shape of a loan in list and borrow
// responses. The detail endpoint adds the nullable returned_date.
type loanResponse struct {
	ID           string `json:"id"`
	BookID       string `json:"book_id"`
	UserID       string `json:"user_id"`
	BorrowedDate string `json:"borrowed_date"`
	DueDate      string `json:"due_date"`
	Status       string `json:"status"`
}

func newLoanResponse(l model.Loan) loanResponse {
	return loanResponse{
		ID:           l.ID,
		BookID:       l.BookID,
		UserID:       l.UserID,
		BorrowedDate: isoTime(l.BorrowedDate),
		DueDate:      isoTime(l.DueDate),
		Status:       l.Status,
	}
}

// loanDetailResponse is the wire shape of a single-loan lookup,
// including the return timestamp which is null while the loan is
// active.
type loanDetailResponse struct {
	loanResponse
	ReturnedDate *string `json:"returned_date"`
}

func newLoanDetailResponse(l model.Loan) loanDetailResponse {
	d := loanDetailResponse{loanResponse: newLoanResponse(l)}
	if l.ReturnedDate != nil {
		iso := isoTime(*l.ReturnedDate)
		d.ReturnedDate = &iso
	}
	return d
}
