// Package queue defines message payloads exchanged over the message broker.
package queue

// BookAvailableEvent is published when a return brings a book back in
// stock and wishlist entries asked to be notified. It carries enough
// information for downstream consumers to log or send notifications
// without querying the primary database.
type BookAvailableEvent struct {
	BookID     string   `json:"book_id"`
	UserIDs    []string `json:"user_ids"`
	ReturnedAt string   `json:"returned_at"`
}
