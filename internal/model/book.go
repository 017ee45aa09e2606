package model

import "time"

// Book represents a row in the `books` table. The primary key is the
// catalog id assigned by the external book provider; the row stores only
// the local lending state (stock and popularity) while all descriptive
// metadata (title, authors, cover) lives in the catalog and is fetched
// on demand. Rows are created lazily the first time a catalog id is
// referenced and are never deleted.
//
// Fields:
//  ID         – books.id (catalog volume id, opaque string).
//  Popularity – books.popularity (incremented once per successful borrow).
//  Stock      – books.stock (copies available to borrow, starts at 1).
//  CreatedAt  – books.created_at.
//  UpdatedAt  – books.updated_at.
type Book struct {
	ID         string    // books.id
	Popularity int       // books.popularity
	Stock      int       // books.stock
	CreatedAt  time.Time // books.created_at
	UpdatedAt  time.Time // books.updated_at
}
