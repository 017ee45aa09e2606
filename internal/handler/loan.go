package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-lending/internal/model"
	"github.com/iliyamo/library-lending/internal/queue"
	"github.com/iliyamo/library-lending/internal/repository"
	queue_publisher "github.com/iliyamo/library-lending/internal/service"
)

// loanTerm is the fixed lending period. Due dates are computed once at
// borrow time and never recalculated; there is no renewal.
const loanTerm = 14 * 24 * time.Hour

// LoanHandler implements the borrow/return workflow. Every mutation
// that touches both a loan and its book runs inside a single
// transaction so stock never drifts from the loan records. Methods
// assume BearerAuth has populated the user id in the context.
type LoanHandler struct {
	Loans    *repository.LoanRepo
	Books    *repository.BookRepo
	Users    *repository.UserRepo
	Wishlist *repository.WishlistRepo

	// notify publishes a book-available event after a commit brings a
	// book back in stock. Failures are logged and ignored: delivery is
	// best effort and must never fail the request.
	notify func(ctx context.Context, ev queue.BookAvailableEvent)
}

// NewLoanHandler constructs a LoanHandler with the provided
// repositories. All dependencies must be non-nil.
func NewLoanHandler(loans *repository.LoanRepo, books *repository.BookRepo, users *repository.UserRepo, wishlist *repository.WishlistRepo) *LoanHandler {
	if loans == nil || books == nil || users == nil || wishlist == nil {
		panic("nil repository passed to NewLoanHandler")
	}
	return &LoanHandler{
		Loans:    loans,
		Books:    books,
		Users:    users,
		Wishlist: wishlist,
		notify: func(ctx context.Context, ev queue.BookAvailableEvent) {
			if err := queue_publisher.PublishBookAvailable(ctx, ev); err != nil {
				log.Printf("loan: publish book.available failed: %v", err)
			}
		},
	}
}

// List handles GET /api/loans. It returns the caller's active loans,
// creating the user row on first contact.
func (h *LoanHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	if _, err := h.Users.GetOrCreate(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	loans, err := h.Loans.ListActiveByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load loans"})
	}
	out := make([]loanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, newLoanResponse(l))
	}
	return c.JSON(http.StatusOK, out)
}

// Borrow handles POST /api/loans. It lazily creates the user and book,
// rejects out-of-stock books and duplicate active loans, then inserts
// the loan and adjusts stock/popularity atomically. The duplicate check
// is a fast path; the uniq_active_loan key catches concurrent
// double-submission and maps to the same 400.
func (h *LoanHandler) Borrow(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		BookID string `json:"book_id"`
	}
	if err := c.Bind(&body); err != nil || body.BookID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "book_id is required"})
	}

	ctx := c.Request().Context()
	if _, err := h.Users.GetOrCreate(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Loans.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	book, err := h.Books.GetOrCreateTx(ctx, tx, body.BookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if book.Stock <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Book is currently out of stock. Add it to your wishlist to be notified when available.",
		})
	}
	if _, err := h.Loans.FindActiveTx(ctx, tx, userID, body.BookID); err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "You already have this book on loan"})
	} else if !errors.Is(err, repository.ErrLoanNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	now := time.Now().UTC()
	loan := model.Loan{
		ID:           uuid.NewString(),
		UserID:       userID,
		BookID:       body.BookID,
		BorrowedDate: now,
		DueDate:      now.Add(loanTerm),
		Status:       model.LoanStatusActive,
	}
	if err := h.Loans.CreateTx(ctx, tx, &loan); err != nil {
		if errors.Is(err, repository.ErrDuplicateLoan) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "You already have this book on loan"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create loan"})
	}
	if _, err := h.Books.AdjustStockTx(ctx, tx, body.BookID, -1, +1); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update stock"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, newLoanResponse(loan))
}

// Return handles PUT /api/loans/:id/return. Only the loan owner can
// return it; a loan that is already returned fails with 400 and does
// not touch stock a second time.
func (h *LoanHandler) Return(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	loanID := c.Param("id")
	ctx := c.Request().Context()
	if _, err := h.Users.GetOrCreate(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	returnedAt, done := h.finishLoan(c, func(tx *sql.Tx) (model.Loan, error) {
		return h.Loans.GetByIDForUserTx(ctx, tx, loanID, userID)
	})
	if !done {
		return nil // response already written by finishLoan
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "Book returned successfully",
		"loan_id":       loanID,
		"returned_date": isoTime(returnedAt),
	})
}

// Get handles GET /api/loans/:id. It returns the full loan record,
// including the nullable returned_date, for loans owned by the caller.
func (h *LoanHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	if _, err := h.Users.GetOrCreate(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	loan, err := h.Loans.GetByIDForUser(ctx, c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, repository.ErrLoanNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Loan not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch loan"})
	}
	return c.JSON(http.StatusOK, newLoanDetailResponse(loan))
}

// finishLoan is the return transition shared by owner returns and the
// admin forced return: load the loan through the supplied lookup,
// require active status, mark it returned, increment stock when the
// book row exists, and fire the availability notification when the
// book just came back in stock. It reports done=false after writing an
// error response itself.
func (h *LoanHandler) finishLoan(c echo.Context, lookup func(tx *sql.Tx) (model.Loan, error)) (returnedAt time.Time, done bool) {
	ctx := c.Request().Context()
	tx, err := h.Loans.DB().BeginTx(ctx, nil)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
		return time.Time{}, false
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	loan, err := lookup(tx)
	if err != nil {
		if errors.Is(err, repository.ErrLoanNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "Loan not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return time.Time{}, false
	}
	if loan.Status != model.LoanStatusActive {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "Loan is not active"})
		return time.Time{}, false
	}

	returnedAt = time.Now().UTC()
	if err := h.Loans.MarkReturnedTx(ctx, tx, loan.ID, returnedAt); err != nil {
		if errors.Is(err, repository.ErrLoanNotActive) {
			_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "Loan is not active"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update loan"})
		}
		return time.Time{}, false
	}

	// Increment stock only when the book row exists; a loan may
	// reference a book the store has never materialized.
	updated, err := h.Books.AdjustStockTx(ctx, tx, loan.BookID, +1, 0)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update stock"})
		return time.Time{}, false
	}
	backInStock := false
	if updated > 0 {
		stock, err := h.Books.StockTx(ctx, tx, loan.BookID)
		if err != nil {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update stock"})
			return time.Time{}, false
		}
		backInStock = stock == 1
	}

	if err := tx.Commit(); err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
		return time.Time{}, false
	}
	committed = true

	if backInStock {
		h.notifyAvailable(ctx, loan.BookID, returnedAt)
	}
	return returnedAt, true
}

// notifyAvailable publishes a book.available event when notify-flagged
// wishlist entries exist for the book.
func (h *LoanHandler) notifyAvailable(ctx context.Context, bookID string, returnedAt time.Time) {
	items, err := h.Wishlist.ListNotifiableByBook(ctx, bookID)
	if err != nil {
		log.Printf("loan: load notifiable wishlist entries failed: %v", err)
		return
	}
	if len(items) == 0 {
		return
	}
	userIDs := make([]string, 0, len(items))
	for _, it := range items {
		userIDs = append(userIDs, it.UserID)
	}
	h.notify(ctx, queue.BookAvailableEvent{
		BookID:     bookID,
		UserIDs:    userIDs,
		ReturnedAt: isoTime(returnedAt),
	})
}
