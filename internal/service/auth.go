package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/gadget-registry/internal/domain"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePassword(hash, password string) (bool, error)
}

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	IssueToken(userID uuid.UUID) (string, time.Time, error)
}

// Credentials combines the two primitives the auth flow needs.
type Credentials interface {
	PasswordHasher
	TokenIssuer
}

// Session is the result of a successful sign-in.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService handles user registration and sign-in.
type AuthService struct {
	users domain.UserRepository
	creds Credentials
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, creds Credentials) *AuthService {
	return &AuthService{users: users, creds: creds}
}

// Register creates a new account. It fails with Conflict if the email is
// already registered.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.Conflict("a user with that email already exists")
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	hash, err := s.creds.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.Conflict("a user with that email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// SignIn checks credentials and issues a session token bound to the user.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("no user with that email")
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	ok, err := s.creds.ComparePassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.Unauthorized("invalid email or password")
	}

	token, expires, err := s.creds.IssueToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &Session{User: user, Token: token, ExpiresAt: expires}, nil
}
