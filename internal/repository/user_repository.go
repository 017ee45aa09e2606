package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/library-lending/internal/model"
)

// UserRepo provides access to the users table. User ids equal the
// verified identity-provider subject; the repo never invents ids.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, display_name, is_admin, created_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by id. It returns ErrUserNotFound when no row
// exists.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetOrCreate returns the user row for a verified subject, inserting a
// placeholder row on first contact. The placeholder email and display
// name stand in until a profile sync exists; the id itself is the only
// field any workflow relies on.
func (r *UserRepo) GetOrCreate(ctx context.Context, id string) (model.User, error) {
	sel := `SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`
	u, err := scanUser(r.db.QueryRowContext(ctx, sel, id))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, err
	}
	email := fmt.Sprintf("%s@placeholder.com", id)
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name) VALUES (?, ?, ?)`,
		id, email, "User"); err != nil {
		if !isDuplicateKey(err) {
			return model.User{}, err
		}
		// concurrent first request created the row already
	}
	return scanUser(r.db.QueryRowContext(ctx, sel, id))
}

// SetAdmin flips the admin flag on a user. It returns ErrUserNotFound
// when the target does not exist. The existence check runs first
// because MySQL reports zero affected rows for no-op updates, which
// would be indistinguishable from a missing user.
func (r *UserRepo) SetAdmin(ctx context.Context, id string, isAdmin bool) (model.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_admin = ? WHERE id = ?`, isAdmin, id); err != nil {
		return model.User{}, err
	}
	u.IsAdmin = isAdmin
	return u, nil
}
