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
)

func userRows(id, email, name string, isAdmin bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "display_name", "is_admin", "created_at"}).
		AddRow(id, email, name, isAdmin, time.Now())
}

func TestUserGetOrCreateInsertsPlaceholder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	sel := regexp.QuoteMeta(`SELECT id, email, display_name, is_admin, created_at FROM users WHERE id = ?`)
	mock.ExpectQuery(sel).WithArgs("uid1").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (id, email, display_name) VALUES (?, ?, ?)`)).
		WithArgs("uid1", "uid1@placeholder.com", "User").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sel).WithArgs("uid1").
		WillReturnRows(userRows("uid1", "uid1@placeholder.com", "User", false))

	u, err := repo.GetOrCreate(context.Background(), "uid1")
	require.NoError(t, err)
	assert.Equal(t, "uid1@placeholder.com", u.Email)
	assert.False(t, u.IsAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetOrCreateConcurrentInsert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	sel := regexp.QuoteMeta(`SELECT id, email, display_name, is_admin, created_at FROM users WHERE id = ?`)
	mock.ExpectQuery(sel).WithArgs("uid1").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("uid1", "uid1@placeholder.com", "User").
		WillReturnError(errDup)
	mock.ExpectQuery(sel).WithArgs("uid1").
		WillReturnRows(userRows("uid1", "uid1@placeholder.com", "User", false))

	u, err := repo.GetOrCreate(context.Background(), "uid1")
	require.NoError(t, err)
	assert.Equal(t, "uid1", u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSetAdminNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ?`)).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.SetAdmin(context.Background(), "ghost", true)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSetAdmin(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ?`)).
		WithArgs("uid1").
		WillReturnRows(userRows("uid1", "uid1@placeholder.com", "User", false))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET is_admin = ? WHERE id = ?`)).
		WithArgs(true, "uid1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := repo.SetAdmin(context.Background(), "uid1", true)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}
