package user

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Directory resolves customers by email, creating a default customer account
// on first contact.
type Directory struct {
	repo            Repository
	hasher          PasswordHasher
	defaultPassword string
}

// NewDirectory creates a Directory. defaultPassword is the initial credential
// for accounts created implicitly by order placement.
func NewDirectory(repo Repository, hasher PasswordHasher, defaultPassword string) *Directory {
	return &Directory{
		repo:            repo,
		hasher:          hasher,
		defaultPassword: defaultPassword,
	}
}

// ResolveOrCreate returns the account for email, creating a customer account
// with the default password when none exists. The email column is unique in
// the store, so a concurrent first-time order for the same address loses the
// insert race with ErrEmailTaken and re-fetches the winner's row. Exactly one
// account per email either way.
func (d *Directory) ResolveOrCreate(ctx context.Context, email string) (*User, error) {
	u, err := d.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return u, nil
	case !errors.Is(err, ErrNotFound):
		return nil, errors.Wrap(err, "find user")
	}

	hash, err := d.hasher.Hash(d.defaultPassword)
	if err != nil {
		return nil, errors.Wrap(err, "hash default password")
	}

	created := &User{
		ID:           uuid.New().String(),
		Username:     email,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleCustomer,
	}
	err = d.repo.Create(ctx, created)
	switch {
	case err == nil:
		return created, nil
	case errors.Is(err, ErrEmailTaken):
		existing, ferr := d.repo.FindByEmail(ctx, email)
		if ferr != nil {
			return nil, errors.Wrap(ferr, "re-fetch user after insert race")
		}
		return existing, nil
	default:
		return nil, errors.Wrap(err, "create user")
	}
}
