package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-lending/internal/repository"
)

// errDuplicateEntry mimics the driver error for a unique-key violation.
var errDuplicateEntry = errors.New("Error 1062 (23000): Duplicate entry")

func newWishlistTestHandler(t *testing.T) (*WishlistHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWishlistHandler(
		repository.NewWishlistRepo(db),
		repository.NewUserRepo(db),
		repository.NewBookRepo(db),
	), mock
}

func expectBookExists(mock sqlmock.Sqlmock, id string, popularity, stock int) {
	mock.ExpectQuery(regexp.QuoteMeta(`FROM books WHERE id = ?`)).
		WithArgs(id).WillReturnRows(bookRow(id, popularity, stock))
}

func wishlistRow(id, userID, bookID string, notify bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "book_id", "added_date", "notify_when_available"}).
		AddRow(id, userID, bookID, time.Now(), notify)
}

func TestWishlistAddDefaultsNotify(t *testing.T) {
	h, mock := newWishlistTestHandler(t)

	expectUserExists(mock, "u1")
	expectBookExists(mock, "b1", 0, 1)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO wishlist_items`)).
		WithArgs(sqlmock.AnyArg(), "u1", "b1", sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newLoanContext(t, http.MethodPost, "/api/wishlist", `{"book_id":"b1"}`)
	require.NoError(t, h.Add(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got wishlistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "b1", got.BookID)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.NotifyWhenAvailable)
	assert.NotEmpty(t, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistAddExplicitNoNotify(t *testing.T) {
	h, mock := newWishlistTestHandler(t)

	expectUserExists(mock, "u1")
	expectBookExists(mock, "b1", 0, 1)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO wishlist_items`)).
		WithArgs(sqlmock.AnyArg(), "u1", "b1", sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newLoanContext(t, http.MethodPost, "/api/wishlist", `{"book_id":"b1","notify_when_available":false}`)
	require.NoError(t, h.Add(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got wishlistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.NotifyWhenAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistAddCreatesUnseenBook(t *testing.T) {
	h, mock := newWishlistTestHandler(t)

	expectUserExists(mock, "u1")
	// A book first referenced through the wishlist gets its row with
	// default stock before the entry is inserted.
	sel := regexp.QuoteMeta(`FROM books WHERE id = ?`)
	mock.ExpectQuery(sel).WithArgs("b-new").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO books (id, popularity, stock) VALUES (?, 0, 1)`)).
		WithArgs("b-new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sel).WithArgs("b-new").WillReturnRows(bookRow("b-new", 0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO wishlist_items`)).
		WithArgs(sqlmock.AnyArg(), "u1", "b-new", sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newLoanContext(t, http.MethodPost, "/api/wishlist", `{"book_id":"b-new"}`)
	require.NoError(t, h.Add(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got wishlistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "b-new", got.BookID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistAddDuplicate(t *testing.T) {
	h, mock := newWishlistTestHandler(t)

	expectUserExists(mock, "u1")
	expectBookExists(mock, "b1", 0, 1)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO wishlist_items`)).
		WithArgs(sqlmock.AnyArg(), "u1", "b1", sqlmock.AnyArg(), true).
		WillReturnError(errDuplicateEntry)

	c, rec := newLoanContext(t, http.MethodPost, "/api/wishlist", `{"book_id":"b1"}`)
	require.NoError(t, h.Add(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Book already in wishlist")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRemove(t *testing.T) {
	h, mock := newWishlistTestHandler(t)

	expectUserExists(mock, "u1")
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM wishlist_items WHERE user_id = ? AND book_id = ?`)).
		WithArgs("u1", "b1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newLoanContext(t, http.MethodDelete, "/api/wishlist/b1", "")
	c.SetParamNames("bookId")
	c.SetParamValues("b1")
	require.NoError(t, h.Remove(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Book removed from wishlist")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRemoveMissing(t *testing.T) {
	h, mock := newWishlistTestHandler(t)

	expectUserExists(mock, "u1")
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM wishlist_items`)).
		WithArgs("u1", "b9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, rec := newLoanContext(t, http.MethodDelete, "/api/wishlist/b9", "")
	c.SetParamNames("bookId")
	c.SetParamValues("b9")
	require.NoError(t, h.Remove(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Book not found in wishlist")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistCheck(t *testing.T) {
	h, mock := newWishlistTestHandler(t)

	expectUserExists(mock, "u1")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM wishlist_items WHERE user_id = ? AND book_id = ?`)).
		WithArgs("u1", "b1").
		WillReturnRows(wishlistRow("w1", "u1", "b1", true))

	c, rec := newLoanContext(t, http.MethodGet, "/api/wishlist/check/b1", "")
	c.SetParamNames("bookId")
	c.SetParamValues("b1")
	require.NoError(t, h.Check(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"in_wishlist":true}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistList(t *testing.T) {
	h, mock := newWishlistTestHandler(t)

	expectUserExists(mock, "u1")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM wishlist_items WHERE user_id = ? ORDER BY added_date`)).
		WithArgs("u1").
		WillReturnRows(wishlistRow("w1", "u1", "b1", true))

	c, rec := newLoanContext(t, http.MethodGet, "/api/wishlist", "")
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []wishlistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].BookID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
