// Package service provides the business logic for accounts and tasks,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/taskkeeper/internal/models"
	"github.com/atinyakov/taskkeeper/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used for password hashes.
const DefaultBcryptCost = 12

// UserRepository defines the persistence operations
// required by the authentication service.
type UserRepository interface {
	// FindByEmail returns the user with the normalized email or repository.ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByID returns the user with id or repository.ErrNotFound.
	FindByID(ctx context.Context, id string) (*models.User, error)
	// CreateUser stores a new user; repository.ErrDuplicateEmail on a taken email.
	CreateUser(ctx context.Context, u *models.User) error
}

// AuthService implements signup and credential checks.
type AuthService struct {
	repo UserRepository
	cost int
	// dummyHash is compared against when the email is unknown so that both
	// failure paths spend the same bcrypt work.
	dummyHash []byte
	now       func() time.Time
}

// NewAuthService constructs an AuthService hashing with the given bcrypt cost.
// Out-of-range costs fall back to DefaultBcryptCost.
func NewAuthService(repo UserRepository, cost int) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	return &AuthService{
		repo:      repo,
		cost:      cost,
		dummyHash: dummy,
		now:       time.Now,
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup validates in, hashes the password and stores a new user.
// It returns a *ValidationError for bad input and ErrConflict when the
// email is already registered.
func (s *AuthService) Signup(ctx context.Context, in models.SignupInput) (*models.User, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate returns the user owning email if password matches.
// Unknown email and wrong password both yield ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if strings.ContainsRune(email, 0) {
		// No stored email contains NUL and Postgres rejects it as a parameter.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrUnauthorized
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.VerifyPassword(u, password) {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// VerifyPassword reports whether candidate matches the stored hash of u.
func (s *AuthService) VerifyPassword(u *models.User, candidate string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(candidate)) == nil
}

// UserByID returns the user with id, or ErrNotFound if it no longer exists.
func (s *AuthService) UserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
