// Package credentials registers users and checks their passwords.
package credentials

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/triple/internal/domain/user"
	"github.com/geocoder89/triple/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooLong    = errors.New("password longer than 72 bytes")
)

type UserRepo interface {
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) error
}

type Store struct {
	users  UserRepo
	hasher PasswordHasher
}

func NewStore(users UserRepo, hasher PasswordHasher) *Store {
	return &Store{users: users, hasher: hasher}
}

// Register creates a user with a bcrypt-hashed password. The email pre-check
// only saves a hash on the common path; two concurrent registrations can both
// pass it, and the repository's uniqueness guarantee decides the winner.
func (s *Store) Register(ctx context.Context, email, password, name string) (user.User, error) {
	email = strings.TrimSpace(email)

	if len(password) > security.MaxPasswordBytes {
		return user.User{}, ErrPasswordTooLong
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user.User{}, user.ErrEmailTaken
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user.User{}, err
	}

	return s.users.Create(ctx, email, hash, strings.TrimSpace(name))
}

// Authenticate returns the user when the password matches. Unknown email and
// wrong password are the same error.
func (s *Store) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, err
	}

	if err := s.hasher.Check(u.PasswordHash, password); err != nil {
		return user.User{}, ErrInvalidCredentials
	}

	return u, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return s.users.GetByEmail(ctx, strings.TrimSpace(email))
}

func (s *Store) FindByID(ctx context.Context, id string) (user.User, error) {
	return s.users.GetByID(ctx, id)
}
