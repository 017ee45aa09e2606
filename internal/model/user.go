package model

import "time"

// User represents a row in the `users` table. The id equals the subject
// returned by the identity provider when a bearer token is verified, so
// it is immutable and never generated locally. Rows are created lazily
// on the first authenticated request with placeholder contact fields.
//
// Fields:
//  ID          – users.id (identity-provider subject).
//  Email       – users.email.
//  DisplayName – users.display_name.
//  IsAdmin     – users.is_admin (grants access to /api/admin routes).
//  CreatedAt   – users.created_at.
type User struct {
	ID          string    // users.id
	Email       string    // users.email
	DisplayName string    // users.display_name
	IsAdmin     bool      // users.is_admin
	CreatedAt   time.Time // users.created_at
}
