package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/tkivila/craftshop/internal/domain/user"
)

const (
	findUserByEmailSQL = `SELECT id, username, email, password_hash, role, created_at
		FROM users WHERE email = $1`

	createUserSQL = `INSERT INTO users (id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns the account registered under email, or user.ErrNotFound.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	err := r.db.QueryRow(ctx, findUserByEmailSQL, email).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	return &u, nil
}

// Create inserts a new account. The unique index on email turns a concurrent
// duplicate insert into user.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.Exec(ctx, createUserSQL,
		u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role),
	)
	if err != nil {
		if uniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("creating user %q: %w", u.Email, err)
	}
	return nil
}
