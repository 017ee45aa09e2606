// Package catalog queries the external book-metadata provider (Google
// Books) and normalizes its heterogeneous volumes into the canonical
// book record the rest of the service works with. The provider owns
// search ranking entirely; this client only shapes queries and
// responses.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned by GetByID when the provider has no volume
// for the requested id.
var ErrNotFound = errors.New("catalog: book not found")

// ErrUpstream is returned for transport failures, timeouts and
// non-2xx provider responses. Callers decide whether it surfaces as
// 404 or 500.
var ErrUpstream = errors.New("catalog: upstream error")

// fallbackTerm is substituted when a search carries no query, author
// or category, because the provider rejects an empty q parameter.
const fallbackTerm = "a"

// requestTimeout bounds every provider call.
const requestTimeout = 10 * time.Second

// Book is the canonical projection of a provider volume. Optional
// fields are pointers so that absent values serialize as null, the
// shape API clients already consume.
type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Description   *string  `json:"description"`
	CoverImage    *string  `json:"coverImage"`
	Categories    []string `json:"categories"`
	PublishedDate *string  `json:"publishedDate"`
	PageCount     *int     `json:"pageCount"`
	Language      *string  `json:"language"`
	Publisher     *string  `json:"publisher"`
	ISBN          *string  `json:"isbn"`
	AverageRating *float64 `json:"averageRating"`
	RatingsCount  *int     `json:"ratingsCount"`
	PreviewLink   *string  `json:"previewLink"`
	InfoLink      *string  `json:"infoLink"`
	Availability  string   `json:"availability"`
}

// SearchResult carries a page of normalized volumes plus the
// provider-reported total.
type SearchResult struct {
	Items      []Book `json:"items"`
	TotalItems int    `json:"totalItems"`
}

// Query holds the caller-supplied search parameters before they are
// assembled into the provider query string.
type Query struct {
	Text       string // free-text term
	Author     string // becomes an inauthor: clause
	Category   string // becomes a subject: clause
	SortBy     string // passed through only when exactly "newest"
	MaxResults int    // clamped to [1,40]
	StartIndex int    // floored at 0
}

// Client talks to the provider over HTTP. The zero value is not
// usable; construct with New.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a Client for the given base URL and optional API key.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Search queries the provider's volume search. The query string joins
// the free-text term with inauthor:/subject: clauses; when all three
// are empty the fallback term is sent instead. Ordering is the
// provider default unless SortBy is exactly "newest".
func (c *Client) Search(ctx context.Context, q Query) (SearchResult, error) {
	terms := make([]string, 0, 3)
	if q.Text != "" {
		terms = append(terms, q.Text)
	}
	if q.Author != "" {
		terms = append(terms, "inauthor:"+q.Author)
	}
	if q.Category != "" {
		terms = append(terms, "subject:"+q.Category)
	}
	search := strings.Join(terms, " ")
	if search == "" {
		search = fallbackTerm
	}

	maxResults := q.MaxResults
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > 40 {
		maxResults = 40
	}
	startIndex := q.StartIndex
	if startIndex < 0 {
		startIndex = 0
	}
	orderBy := "relevance"
	if q.SortBy == "newest" {
		orderBy = "newest"
	}

	params := url.Values{}
	params.Set("q", search)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("startIndex", strconv.Itoa(startIndex))
	params.Set("orderBy", orderBy)
	params.Set("printType", "books")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var payload struct {
		TotalItems int      `json:"totalItems"`
		Items      []volume `json:"items"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/volumes?"+params.Encode(), &payload); err != nil {
		return SearchResult{}, err
	}

	items := make([]Book, 0, len(payload.Items))
	for _, v := range payload.Items {
		items = append(items, normalize(v.ID, v.VolumeInfo))
	}
	return SearchResult{Items: items, TotalItems: payload.TotalItems}, nil
}

// GetByID fetches a single volume. A provider 404 maps to ErrNotFound;
// every other failure is ErrUpstream.
func (c *Client) GetByID(ctx context.Context, id string) (Book, error) {
	params := url.Values{}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	u := c.baseURL + "/volumes/" + url.PathEscape(id)
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}
	var v volume
	if err := c.getJSON(ctx, u, &v); err != nil {
		return Book{}, err
	}
	return normalize(v.ID, v.VolumeInfo), nil
}

// getJSON performs a GET and decodes the body. Status handling: 404 is
// ErrNotFound, any other non-2xx is ErrUpstream.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	return nil
}

// volume mirrors the subset of the provider response the service
// consumes.
type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string   `json:"title"`
	Authors             []string `json:"authors"`
	Description         *string  `json:"description"`
	Categories          []string `json:"categories"`
	PublishedDate       *string  `json:"publishedDate"`
	PageCount           *int     `json:"pageCount"`
	Language            *string  `json:"language"`
	Publisher           *string  `json:"publisher"`
	AverageRating       *float64 `json:"averageRating"`
	RatingsCount        *int     `json:"ratingsCount"`
	PreviewLink         *string  `json:"previewLink"`
	InfoLink            *string  `json:"infoLink"`
	ImageLinks          struct {
		Large     string `json:"large"`
		Medium    string `json:"medium"`
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
}

// normalize projects a provider volume onto the canonical record:
// title falls back to "Unknown Title", covers prefer large over medium
// over thumbnail and are rewritten to https, the ISBN prefers ISBN_13
// over ISBN_10 (first match wins), and availability defaults to
// "available" until the stock layer overwrites it.
func normalize(id string, info volumeInfo) Book {
	b := Book{
		ID:            id,
		Title:         info.Title,
		Authors:       info.Authors,
		Description:   info.Description,
		Categories:    info.Categories,
		PublishedDate: info.PublishedDate,
		PageCount:     info.PageCount,
		Language:      info.Language,
		Publisher:     info.Publisher,
		AverageRating: info.AverageRating,
		RatingsCount:  info.RatingsCount,
		PreviewLink:   info.PreviewLink,
		InfoLink:      info.InfoLink,
		Availability:  "available",
	}
	if b.Title == "" {
		b.Title = "Unknown Title"
	}
	if b.Authors == nil {
		b.Authors = []string{}
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}

	cover := info.ImageLinks.Large
	if cover == "" {
		cover = info.ImageLinks.Medium
	}
	if cover == "" {
		cover = info.ImageLinks.Thumbnail
	}
	if cover != "" {
		if strings.HasPrefix(cover, "http://") {
			cover = "https://" + strings.TrimPrefix(cover, "http://")
		}
		b.CoverImage = &cover
	}

	for _, ident := range info.IndustryIdentifiers {
		if ident.Type == "ISBN_13" || ident.Type == "ISBN_10" {
			isbn := ident.Identifier
			b.ISBN = &isbn
			break
		}
	}
	return b
}
