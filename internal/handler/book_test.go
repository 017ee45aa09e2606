package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-lending/internal/catalog"
	"github.com/iliyamo/library-lending/internal/repository"
)

func newBookTestHandler(t *testing.T, catalogHandler http.HandlerFunc) (*BookHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	srv := httptest.NewServer(catalogHandler)
	t.Cleanup(srv.Close)
	return NewBookHandler(catalog.New(srv.URL, ""), repository.NewBookRepo(db)), mock
}

func TestBookSearchMergesLocalState(t *testing.T) {
	h, mock := newBookTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalItems": 1,
			"items": []map[string]any{
				{"id": "b1", "volumeInfo": map[string]any{"title": "Dune"}},
			},
		})
	})

	mock.ExpectQuery(regexp.QuoteMeta(`FROM books WHERE id = ?`)).
		WithArgs("b1").WillReturnRows(bookRow("b1", 7, 0))

	c, rec := newLoanContext(t, http.MethodGet, "/api/books/search?query=dune", "")
	require.NoError(t, h.Search(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Items      []bookResponse `json:"items"`
		TotalItems int            `json:"totalItems"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.TotalItems)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Dune", got.Items[0].Title)
	assert.Equal(t, 7, got.Items[0].Popularity)
	assert.Equal(t, 0, got.Items[0].Stock)
	assert.Equal(t, "borrowed", got.Items[0].Availability)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookSearchUpstreamFailure(t *testing.T) {
	h, mock := newBookTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	c, rec := newLoanContext(t, http.MethodGet, "/api/books/search?query=x", "")
	require.NoError(t, h.Search(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to search books")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookGetCreatesLocalRow(t *testing.T) {
	h, mock := newBookTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "b1", "volumeInfo": map[string]any{"title": "Dune"},
		})
	})

	sel := regexp.QuoteMeta(`FROM books WHERE id = ?`)
	mock.ExpectQuery(sel).WithArgs("b1").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO books (id, popularity, stock) VALUES (?, 0, 1)`)).
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sel).WithArgs("b1").WillReturnRows(bookRow("b1", 0, 1))

	c, rec := newLoanContext(t, http.MethodGet, "/api/books/b1", "")
	c.SetParamNames("id")
	c.SetParamValues("b1")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got bookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, 1, got.Stock)
	assert.Equal(t, "available", got.Availability)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookGetUnknownVolume(t *testing.T) {
	h, mock := newBookTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c, rec := newLoanContext(t, http.MethodGet, "/api/books/ghost", "")
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "book not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
