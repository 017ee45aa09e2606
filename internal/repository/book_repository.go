package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/library-lending/internal/model"
)

// BookRepo provides access to the books table. Books are keyed by the
// catalog id and carry only local lending state; rows appear lazily via
// GetOrCreate the first time a catalog id is referenced and are never
// deleted.
type BookRepo struct {
	db *sql.DB
}

// NewBookRepo returns a new BookRepo bound to the given database.
func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions
// spanning books and loans.
func (r *BookRepo) DB() *sql.DB { return r.db }

const bookColumns = `id, popularity, stock, created_at, updated_at`

func scanBook(row *sql.Row) (model.Book, error) {
	var b model.Book
	err := row.Scan(&b.ID, &b.Popularity, &b.Stock, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// GetByID fetches a book row. It returns ErrBookNotFound when the
// catalog id has never been referenced.
func (r *BookRepo) GetByID(ctx context.Context, id string) (model.Book, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ? LIMIT 1`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Book{}, ErrBookNotFound
	}
	return b, err
}

// GetOrCreate returns the book row for a catalog id, inserting a fresh
// row with stock=1 and popularity=0 when none exists. This is the only
// place where book rows come into existence, so the check-then-insert
// race lives here and is resolved by retrying the select when the
// insert loses to a concurrent request.
func (r *BookRepo) GetOrCreate(ctx context.Context, id string) (model.Book, error) {
	return r.getOrCreate(ctx, r.db, id)
}

// GetOrCreateTx is GetOrCreate inside an existing transaction.
func (r *BookRepo) GetOrCreateTx(ctx context.Context, tx *sql.Tx, id string) (model.Book, error) {
	return r.getOrCreate(ctx, tx, id)
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *BookRepo) getOrCreate(ctx context.Context, q execer, id string) (model.Book, error) {
	sel := `SELECT ` + bookColumns + ` FROM books WHERE id = ? LIMIT 1`
	b, err := scanBook(q.QueryRowContext(ctx, sel, id))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Book{}, err
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO books (id, popularity, stock) VALUES (?, 0, 1)`, id); err != nil {
		if !isDuplicateKey(err) {
			return model.Book{}, err
		}
		// lost the insert race; the row exists now
	}
	return scanBook(q.QueryRowContext(ctx, sel, id))
}

// AdjustStockTx applies stock and popularity deltas to a book within a
// transaction. It reports how many rows were updated; zero means the
// book row does not exist, which callers on the return path treat as a
// no-op rather than an error.
func (r *BookRepo) AdjustStockTx(ctx context.Context, tx *sql.Tx, id string, stockDelta, popularityDelta int) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE books SET stock = stock + ?, popularity = popularity + ? WHERE id = ?`,
		stockDelta, popularityDelta, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StockTx reads the current stock of a book within a transaction.
func (r *BookRepo) StockTx(ctx context.Context, tx *sql.Tx, id string) (int, error) {
	var stock int
	err := tx.QueryRowContext(ctx,
		`SELECT stock FROM books WHERE id = ? LIMIT 1`, id).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	return stock, err
}
