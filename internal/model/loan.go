package model

import "time"

// Loan status values. A loan is created active and moves to returned
// exactly once; no other transition exists.
const (
	LoanStatusActive   = "active"
	LoanStatusReturned = "returned"
)

// Loan represents a row in the `loans` table. Each loan tracks one
// physical copy borrowed by one user. The due date is fixed at creation
// (borrowed date + 14 days) and never recalculated. book_id is a trusted
// opaque catalog id and carries no foreign key.
//
// Fields:
//  ID           – loans.id (generated UUID).
//  UserID       – loans.user_id (references users.id).
//  BookID       – loans.book_id (catalog id, no relational constraint).
//  BorrowedDate – loans.borrowed_date.
//  DueDate      – loans.due_date (borrowed_date + 14 days).
//  ReturnedDate – loans.returned_date (nil while active).
//  Status       – loans.status ("active" or "returned").
type Loan struct {
	ID           string     // loans.id
	UserID       string     // loans.user_id
	BookID       string     // loans.book_id
	BorrowedDate time.Time  // loans.borrowed_date
	DueDate      time.Time  // loans.due_date
	ReturnedDate *time.Time // loans.returned_date (nullable)
	Status       string     // loans.status
}
