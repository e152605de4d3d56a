package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Role is a user's access level.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

var (
	// ErrNotFound is returned when no user matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned by Create when the email already belongs to
	// an account. Callers treat it as "already exists, re-fetch".
	ErrEmailTaken = errors.New("email already registered")
)

// User is a shop account. Accounts are created lazily on first order and are
// never deleted by the order workflow.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Repository defines persistence operations for users.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
}

// PasswordHasher hashes account passwords with a slow, salted function.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
