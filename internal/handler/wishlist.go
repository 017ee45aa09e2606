package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-lending/internal/model"
	"github.com/iliyamo/library-lending/internal/repository"
)

// WishlistHandler serves the per-user wishlist. Entries are a pure
// (user, book) relation with an added timestamp and a notify flag.
// Adding an entry also materializes the book row, so a book first seen
// through a wishlist carries real stock state by the time anyone
// borrows or returns it.
type WishlistHandler struct {
	Wishlist *repository.WishlistRepo
	Users    *repository.UserRepo
	Books    *repository.BookRepo
}

// NewWishlistHandler constructs a WishlistHandler with the provided
// repositories.
func NewWishlistHandler(wishlist *repository.WishlistRepo, users *repository.UserRepo, books *repository.BookRepo) *WishlistHandler {
	if wishlist == nil || users == nil || books == nil {
		panic("nil repository passed to NewWishlistHandler")
	}
	return &WishlistHandler{Wishlist: wishlist, Users: users, Books: books}
}

// wishlistResponse is the wire shape of a wishlist entry. Field names
// are camelCase, unlike the loan payloads; clients already depend on
// both conventions.
type wishlistResponse struct {
	ID                  string `json:"id"`
	BookID              string `json:"bookId"`
	UserID              string `json:"userId"`
	AddedDate           string `json:"addedDate"`
	NotifyWhenAvailable bool   `json:"notifyWhenAvailable"`
}

func newWishlistResponse(w model.WishlistItem) wishlistResponse {
	return wishlistResponse{
		ID:                  w.ID,
		BookID:              w.BookID,
		UserID:              w.UserID,
		AddedDate:           isoTime(w.AddedDate),
		NotifyWhenAvailable: w.NotifyWhenAvailable,
	}
}

// List handles GET /api/wishlist. It returns the caller's entries
// ordered by the time they were added.
func (h *WishlistHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	if _, err := h.Users.GetOrCreate(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items, err := h.Wishlist.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load wishlist"})
	}
	out := make([]wishlistResponse, 0, len(items))
	for _, it := range items {
		out = append(out, newWishlistResponse(it))
	}
	return c.JSON(http.StatusOK, out)
}

// Check handles GET /api/wishlist/check/:bookId. It reports whether the
// book is on the caller's wishlist without failing when it is not.
func (h *WishlistHandler) Check(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	if _, err := h.Users.GetOrCreate(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	_, err = h.Wishlist.Find(ctx, userID, c.Param("bookId"))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"in_wishlist": true})
	case errors.Is(err, repository.ErrWishlistNotFound):
		return c.JSON(http.StatusOK, echo.Map{"in_wishlist": false})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}

// Add handles POST /api/wishlist. The notify flag defaults to true when
// the body omits it, so bare {"book_id": ...} requests opt in to
// availability notifications.
func (h *WishlistHandler) Add(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		BookID              string `json:"book_id"`
		NotifyWhenAvailable *bool  `json:"notify_when_available"`
	}
	if err := c.Bind(&body); err != nil || body.BookID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "book_id is required"})
	}
	notify := true
	if body.NotifyWhenAvailable != nil {
		notify = *body.NotifyWhenAvailable
	}

	ctx := c.Request().Context()
	if _, err := h.Users.GetOrCreate(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	// Wishing for a never-seen book creates its row with default stock,
	// same as searching for it would.
	if _, err := h.Books.GetOrCreate(ctx, body.BookID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	item := model.WishlistItem{
		ID:                  uuid.NewString(),
		UserID:              userID,
		BookID:              body.BookID,
		AddedDate:           time.Now().UTC(),
		NotifyWhenAvailable: notify,
	}
	if err := h.Wishlist.Create(ctx, &item); err != nil {
		if errors.Is(err, repository.ErrDuplicateWishlist) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Book already in wishlist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add to wishlist"})
	}
	return c.JSON(http.StatusOK, newWishlistResponse(item))
}

// Remove handles DELETE /api/wishlist/:bookId.
func (h *WishlistHandler) Remove(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	if _, err := h.Users.GetOrCreate(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	bookID := c.Param("bookId")
	if err := h.Wishlist.Delete(ctx, userID, bookID); err != nil {
		if errors.Is(err, repository.ErrWishlistNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Book not found in wishlist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove from wishlist"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Book removed from wishlist",
		"book_id": bookID,
	})
}
