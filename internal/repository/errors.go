// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific errors. For example, ErrDuplicateLoan
// signals that the active-loan uniqueness invariant would be violated,
// while ErrLoanNotActive marks an attempt to return a loan twice.
package repository

import (
	"errors"
	"strings"
)

// ErrBookNotFound is returned when no book row exists for a catalog id.
var ErrBookNotFound = errors.New("book not found")

// ErrUserNotFound is returned when no user row exists for an id.
var ErrUserNotFound = errors.New("user not found")

// ErrLoanNotFound is returned when a loan does not exist or is not
// visible to the caller (ownership is enforced in the queries).
var ErrLoanNotFound = errors.New("loan not found")

// ErrLoanNotActive is returned when a state transition requires an
// active loan but the loan has already been returned.
var ErrLoanNotActive = errors.New("loan is not active")

// ErrDuplicateLoan is returned when a user already holds an active loan
// for the same book. The uniq_active_loan key raises it even under
// concurrent double-submission.
var ErrDuplicateLoan = errors.New("active loan already exists")

// ErrWishlistNotFound is returned when no wishlist entry exists for a
// (user, book) pair.
var ErrWishlistNotFound = errors.New("wishlist entry not found")

// ErrDuplicateWishlist is returned when the (user, book) pair is
// already on the wishlist.
var ErrDuplicateWishlist = errors.New("wishlist entry already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-key error
// (error number 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
