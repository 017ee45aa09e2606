package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-lending/internal/model"
)

func loanRows(id, userID, bookID, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user_id", "book_id", "borrowed_date", "due_date", "returned_date", "status"}).
		AddRow(id, userID, bookID, now, now.Add(14*24*time.Hour), nil, status)
}

func TestLoanCreateTxDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLoanRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO loans`)).
		WithArgs("l1", "u1", "b1", sqlmock.AnyArg(), sqlmock.AnyArg(), model.LoanStatusActive).
		WillReturnError(errDup)

	tx, err := db.Begin()
	require.NoError(t, err)
	now := time.Now()
	err = repo.CreateTx(context.Background(), tx, &model.Loan{
		ID: "l1", UserID: "u1", BookID: "b1",
		BorrowedDate: now, DueDate: now.Add(14 * 24 * time.Hour),
		Status: model.LoanStatusActive,
	})
	assert.ErrorIs(t, err, ErrDuplicateLoan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanFindActiveTxNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLoanRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM loans WHERE user_id = ? AND book_id = ? AND status = ?`)).
		WithArgs("u1", "b1", model.LoanStatusActive).
		WillReturnError(sql.ErrNoRows)

	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = repo.FindActiveTx(context.Background(), tx, "u1", "b1")
	assert.ErrorIs(t, err, ErrLoanNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanMarkReturnedTxGuardsStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLoanRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE loans SET status = ?, returned_date = ? WHERE id = ? AND status = ?`)).
		WithArgs(model.LoanStatusReturned, sqlmock.AnyArg(), "l1", model.LoanStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.MarkReturnedTx(context.Background(), tx, "l1", time.Now())
	assert.ErrorIs(t, err, ErrLoanNotActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanGetByIDForUserScopesOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLoanRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM loans WHERE id = ? AND user_id = ?`)).
		WithArgs("l1", "intruder").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByIDForUser(context.Background(), "l1", "intruder")
	assert.ErrorIs(t, err, ErrLoanNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanListActiveByUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLoanRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM loans WHERE user_id = ? AND status = ? ORDER BY borrowed_date DESC`)).
		WithArgs("u1", model.LoanStatusActive).
		WillReturnRows(loanRows("l1", "u1", "b1", model.LoanStatusActive))

	loans, err := repo.ListActiveByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, "l1", loans[0].ID)
	assert.Nil(t, loans[0].ReturnedDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanCountByUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLoanRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*), COALESCE(SUM(status = ?), 0) FROM loans WHERE user_id = ?`)).
		WithArgs(model.LoanStatusActive, "u1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "active"}).AddRow(5, 2))

	total, active, err := repo.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, 2, active)
	assert.NoError(t, mock.ExpectationsWereMet())
}
