package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/library-lending/internal/model"
)

// LoanRepo provides access to the loans table. All timestamp columns
// are stored in UTC. Ownership is enforced inside the queries: lookups
// scoped to a user simply return no row for someone else's loan, which
// the handlers surface as 404.
type LoanRepo struct {
	db *sql.DB
}

// NewLoanRepo returns a new LoanRepo bound to the given database.
func NewLoanRepo(db *sql.DB) *LoanRepo { return &LoanRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions
// spanning loans and books.
func (r *LoanRepo) DB() *sql.DB { return r.db }

const loanColumns = `id, user_id, book_id, borrowed_date, due_date, returned_date, status`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (model.Loan, error) {
	var l model.Loan
	var returned sql.NullTime
	err := row.Scan(&l.ID, &l.UserID, &l.BookID, &l.BorrowedDate, &l.DueDate, &returned, &l.Status)
	if returned.Valid {
		t := returned.Time
		l.ReturnedDate = &t
	}
	return l, err
}

// CreateTx inserts a new loan within an existing transaction. A
// duplicate-key violation of uniq_active_loan maps to ErrDuplicateLoan,
// making the storage layer the final guarantee for the one-active-loan
// invariant.
func (r *LoanRepo) CreateTx(ctx context.Context, tx *sql.Tx, l *model.Loan) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO loans (id, user_id, book_id, borrowed_date, due_date, status) VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.BookID, l.BorrowedDate, l.DueDate, l.Status)
	if isDuplicateKey(err) {
		return ErrDuplicateLoan
	}
	return err
}

// FindActiveTx looks up the active loan for a (user, book) pair inside
// a transaction. It returns ErrLoanNotFound when none exists.
func (r *LoanRepo) FindActiveTx(ctx context.Context, tx *sql.Tx, userID, bookID string) (model.Loan, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE user_id = ? AND book_id = ? AND status = ? LIMIT 1`,
		userID, bookID, model.LoanStatusActive)
	l, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Loan{}, ErrLoanNotFound
	}
	return l, err
}

// ListActiveByUser returns the caller's active loans ordered by borrow
// time, newest first. An empty slice means no active loans.
func (r *LoanRepo) ListActiveByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE user_id = ? AND status = ? ORDER BY borrowed_date DESC`,
		userID, model.LoanStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	loans := make([]model.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// GetByIDForUser returns a single loan owned by the given user. A loan
// owned by someone else yields ErrLoanNotFound, never a hint that the
// id exists.
func (r *LoanRepo) GetByIDForUser(ctx context.Context, loanID, userID string) (model.Loan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = ? AND user_id = ? LIMIT 1`,
		loanID, userID)
	l, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Loan{}, ErrLoanNotFound
	}
	return l, err
}

// GetByIDForUserTx is GetByIDForUser inside an existing transaction.
func (r *LoanRepo) GetByIDForUserTx(ctx context.Context, tx *sql.Tx, loanID, userID string) (model.Loan, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = ? AND user_id = ? LIMIT 1`,
		loanID, userID)
	l, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Loan{}, ErrLoanNotFound
	}
	return l, err
}

// GetByIDTx returns a loan by id regardless of owner. Used by the admin
// forced-return path.
func (r *LoanRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, loanID string) (model.Loan, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = ? LIMIT 1`, loanID)
	l, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Loan{}, ErrLoanNotFound
	}
	return l, err
}

// MarkReturnedTx moves a loan to the returned state and records the
// return time. The transition is guarded by the status predicate so a
// concurrent double-return updates zero rows; that case surfaces as
// ErrLoanNotActive.
func (r *LoanRepo) MarkReturnedTx(ctx context.Context, tx *sql.Tx, loanID string, returnedAt time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE loans SET status = ?, returned_date = ? WHERE id = ? AND status = ?`,
		model.LoanStatusReturned, returnedAt, loanID, model.LoanStatusActive)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLoanNotActive
	}
	return nil
}

// LoanWithUser joins a loan with its owner's contact fields for the
// admin listing. Catalog enrichment happens in the handler.
type LoanWithUser struct {
	Loan            model.Loan
	UserDisplayName string
	UserEmail       string
}

// ListAllActiveWithUsers returns every active loan in the system joined
// with the owning user, ordered by borrow time, newest first.
func (r *LoanRepo) ListAllActiveWithUsers(ctx context.Context) ([]LoanWithUser, error) {
	const q = `SELECT l.id, l.user_id, l.book_id, l.borrowed_date, l.due_date, l.returned_date, l.status,
	                  u.display_name, u.email
	           FROM loans l
	           JOIN users u ON u.id = l.user_id
	           WHERE l.status = ?
	           ORDER BY l.borrowed_date DESC`
	rows, err := r.db.QueryContext(ctx, q, model.LoanStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LoanWithUser, 0)
	for rows.Next() {
		var lw LoanWithUser
		var returned sql.NullTime
		if err := rows.Scan(
			&lw.Loan.ID, &lw.Loan.UserID, &lw.Loan.BookID,
			&lw.Loan.BorrowedDate, &lw.Loan.DueDate, &returned, &lw.Loan.Status,
			&lw.UserDisplayName, &lw.UserEmail,
		); err != nil {
			return nil, err
		}
		if returned.Valid {
			t := returned.Time
			lw.Loan.ReturnedDate = &t
		}
		out = append(out, lw)
	}
	return out, rows.Err()
}

// CountByUser returns the total and active loan counts for a user.
func (r *LoanRepo) CountByUser(ctx context.Context, userID string) (total, active int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(status = ?), 0) FROM loans WHERE user_id = ?`,
		model.LoanStatusActive, userID).Scan(&total, &active)
	return total, active, err
}
