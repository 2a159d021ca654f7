package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"core_innovators/internal/models"
)

const (
	userColumns       = `id, username, email, password_hash, created_at`
	insertUserSQL     = `INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	selectUserByName  = `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	selectUserByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
)

// UserSQLite keeps accounts in the users table. Usernames are unique
// without regard to case.
type UserSQLite struct {
	db *sql.DB
}

var _ UserRepo = (*UserSQLite)(nil)

func NewUserSQLite(db *sql.DB) *UserSQLite { return &UserSQLite{db: db} }

// Create inserts u and returns its id. A taken username yields ErrUserExists.
func (r *UserSQLite) Create(ctx context.Context, u models.User) (int, error) {
	at := u.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	res, err := r.db.ExecContext(ctx, insertUserSQL, u.Username, u.Email, u.PasswordHash, sqliteTime(at))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %q", ErrUserExists, u.Username)
		}
		return 0, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", u.Username, err)
	}
	return int(id), nil
}

func (r *UserSQLite) GetByUsername(ctx context.Context, username string) (models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUserByName, username))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("select user %q: %w", username, err)
	}
	return u, nil
}

func (r *UserSQLite) GetByID(ctx context.Context, id int) (models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUserByIDSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("select user %d: %w", id, err)
	}
	return u, nil
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return models.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// isUniqueViolation matches SQLite's constraint message; the driver exposes
// no portable error code.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
