package user

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	byEmail   map[string]*User
	createErr error
	creates   int
	finds     int
}

func (m *mockRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	m.finds++
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	m.byEmail[u.Email] = u
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func TestResolveOrCreate_Existing(t *testing.T) {
	existing := &User{ID: "u1", Email: "known@example.com", Role: RoleAdmin}
	repo := &mockRepo{byEmail: map[string]*User{"known@example.com": existing}}
	d := NewDirectory(repo, plainHasher{}, "changeme")

	u, err := d.ResolveOrCreate(context.Background(), "known@example.com")
	require.NoError(t, err)
	assert.Same(t, existing, u)
	assert.Equal(t, 0, repo.creates, "existing account must not be recreated")
}

func TestResolveOrCreate_CreatesCustomer(t *testing.T) {
	repo := &mockRepo{byEmail: map[string]*User{}}
	d := NewDirectory(repo, plainHasher{}, "changeme")

	u, err := d.ResolveOrCreate(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, "new@example.com", u.Username)
	assert.Equal(t, RoleCustomer, u.Role, "implicitly created accounts are customers")
	assert.Equal(t, "hashed:changeme", u.PasswordHash)
	assert.Equal(t, 1, repo.creates)
}

// racingRepo simulates a concurrent insert winning between the find and the
// create: the first FindByEmail misses, Create fails with ErrEmailTaken, and
// the re-fetch serves the winner's row.
type racingRepo struct {
	winner *User
	missed bool
}

func (r *racingRepo) FindByEmail(_ context.Context, _ string) (*User, error) {
	if !r.missed {
		r.missed = true
		return nil, ErrNotFound
	}
	return r.winner, nil
}

func (r *racingRepo) Create(_ context.Context, _ *User) error { return ErrEmailTaken }

func TestResolveOrCreate_InsertRace(t *testing.T) {
	winner := &User{ID: "winner", Email: "race@example.com", Role: RoleCustomer}
	d := NewDirectory(&racingRepo{winner: winner}, plainHasher{}, "changeme")

	u, err := d.ResolveOrCreate(context.Background(), "race@example.com")
	require.NoError(t, err)
	assert.Same(t, winner, u, "loser of the insert race adopts the winner's row")
}

func TestResolveOrCreate_CreateError(t *testing.T) {
	repo := &mockRepo{byEmail: map[string]*User{}, createErr: errors.New("db down")}
	d := NewDirectory(repo, plainHasher{}, "changeme")

	_, err := d.ResolveOrCreate(context.Background(), "new@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create user")
}
