package model

import "time"

// WishlistItem represents a row in the `wishlist_items` table. A user
// keeps at most one entry per book; entries are created on add, deleted
// on remove and never otherwise mutated. The notify flag marks entries
// whose owner wants a message when the book comes back in stock.
//
// Fields:
//  ID                  – wishlist_items.id (generated UUID).
//  UserID              – wishlist_items.user_id.
//  BookID              – wishlist_items.book_id (catalog id).
//  AddedDate           – wishlist_items.added_date.
//  NotifyWhenAvailable – wishlist_items.notify_when_available.
type WishlistItem struct {
	ID                  string    // wishlist_items.id
	UserID              string    // wishlist_items.user_id
	BookID              string    // wishlist_items.book_id
	AddedDate           time.Time // wishlist_items.added_date
	NotifyWhenAvailable bool      // wishlist_items.notify_when_available
}
