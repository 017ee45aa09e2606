package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-lending/internal/catalog"
	"github.com/iliyamo/library-lending/internal/repository"
)

// BookHandler serves the public catalog endpoints. Search and lookup
// delegate entirely to the catalog provider for metadata and ranking;
// the handler only folds in the local stock state, creating book rows
// lazily the first time a catalog id is seen.
type BookHandler struct {
	Catalog *catalog.Client
	Books   *repository.BookRepo
}

// NewBookHandler constructs a BookHandler with the provided catalog
// client and book repository.
func NewBookHandler(cat *catalog.Client, books *repository.BookRepo) *BookHandler {
	if cat == nil || books == nil {
		panic("nil dependency passed to NewBookHandler")
	}
	return &BookHandler{Catalog: cat, Books: books}
}

// bookResponse merges the catalog projection with local lending state.
// Availability is derived, never stored: "available" iff stock > 0.
type bookResponse struct {
	catalog.Book
	Popularity int `json:"popularity"`
	Stock      int `json:"stock"`
}

func availability(stock int) string {
	if stock > 0 {
		return "available"
	}
	return "borrowed"
}

// Search handles GET /api/books/search. All parameters are optional;
// maxResults defaults to 20 and is clamped by the catalog client. Each
// result is annotated with the local popularity/stock, inserting a
// fresh row (stock=1) for ids never seen before.
func (h *BookHandler) Search(c echo.Context) error {
	maxResults := 20
	if s := c.QueryParam("maxResults"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			maxResults = n
		}
	}
	startIndex := 0
	if s := c.QueryParam("startIndex"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			startIndex = n
		}
	}

	ctx := c.Request().Context()
	result, err := h.Catalog.Search(ctx, catalog.Query{
		Text:       c.QueryParam("query"),
		Author:     c.QueryParam("author"),
		Category:   c.QueryParam("category"),
		SortBy:     c.QueryParam("sortBy"),
		MaxResults: maxResults,
		StartIndex: startIndex,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to search books"})
	}

	items := make([]bookResponse, 0, len(result.Items))
	for _, it := range result.Items {
		row, err := h.Books.GetOrCreate(ctx, it.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		it.Availability = availability(row.Stock)
		items = append(items, bookResponse{Book: it, Popularity: row.Popularity, Stock: row.Stock})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":      items,
		"totalItems": result.TotalItems,
	})
}

// Get handles GET /api/books/:id. The catalog owns the metadata; any
// provider failure surfaces as 404, matching the contract that this
// endpoint either returns a full record or "not found". Looking up an
// unseen id creates its book row with default stock.
func (h *BookHandler) Get(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	book, err := h.Catalog.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
	}

	row, err := h.Books.GetOrCreate(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	book.Availability = availability(row.Stock)
	return c.JSON(http.StatusOK, bookResponse{Book: book, Popularity: row.Popularity, Stock: row.Stock})
}
