package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/library-lending/internal/model"
)

// WishlistRepo provides access to the wishlist_items table. Entries are
// created on add and deleted on remove; nothing updates them in place.
type WishlistRepo struct {
	db *sql.DB
}

// NewWishlistRepo returns a new WishlistRepo bound to the given database.
func NewWishlistRepo(db *sql.DB) *WishlistRepo { return &WishlistRepo{db: db} }

const wishlistColumns = `id, user_id, book_id, added_date, notify_when_available`

func scanWishlistItem(row rowScanner) (model.WishlistItem, error) {
	var w model.WishlistItem
	err := row.Scan(&w.ID, &w.UserID, &w.BookID, &w.AddedDate, &w.NotifyWhenAvailable)
	return w, err
}

// Find returns the wishlist entry for a (user, book) pair, or
// ErrWishlistNotFound when none exists.
func (r *WishlistRepo) Find(ctx context.Context, userID, bookID string) (model.WishlistItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+wishlistColumns+` FROM wishlist_items WHERE user_id = ? AND book_id = ? LIMIT 1`,
		userID, bookID)
	w, err := scanWishlistItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.WishlistItem{}, ErrWishlistNotFound
	}
	return w, err
}

// ListByUser returns all wishlist entries of a user ordered by the time
// they were added.
func (r *WishlistRepo) ListByUser(ctx context.Context, userID string) ([]model.WishlistItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+wishlistColumns+` FROM wishlist_items WHERE user_id = ? ORDER BY added_date`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.WishlistItem, 0)
	for rows.Next() {
		w, err := scanWishlistItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

// ListNotifiableByBook returns every wishlist entry for a book whose
// owner asked to be notified when the book becomes available again.
func (r *WishlistRepo) ListNotifiableByBook(ctx context.Context, bookID string) ([]model.WishlistItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+wishlistColumns+` FROM wishlist_items WHERE book_id = ? AND notify_when_available = 1`,
		bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.WishlistItem, 0)
	for rows.Next() {
		w, err := scanWishlistItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

// Create inserts a new wishlist entry. A duplicate-key violation of
// uniq_wishlist_entry maps to ErrDuplicateWishlist.
func (r *WishlistRepo) Create(ctx context.Context, w *model.WishlistItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wishlist_items (id, user_id, book_id, added_date, notify_when_available) VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.BookID, w.AddedDate, w.NotifyWhenAvailable)
	if isDuplicateKey(err) {
		return ErrDuplicateWishlist
	}
	return err
}

// Delete removes the entry for a (user, book) pair. It returns
// ErrWishlistNotFound when nothing was deleted.
func (r *WishlistRepo) Delete(ctx context.Context, userID, bookID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = ? AND book_id = ?`,
		userID, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrWishlistNotFound
	}
	return nil
}

// CountByUser returns the number of wishlist entries a user holds.
func (r *WishlistRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wishlist_items WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}
