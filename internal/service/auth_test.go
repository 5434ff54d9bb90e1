package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/atinyakov/taskkeeper/internal/models"
	"github.com/atinyakov/taskkeeper/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	FindByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	FindByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	CreateUserFunc  func(ctx context.Context, u *models.User) error
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.FindByEmailFunc(ctx, email)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u *models.User) error {
	return m.CreateUserFunc(ctx, u)
}

// memUserRepo keeps users in a map keyed by email, enforcing uniqueness like the unique index.
type memUserRepo struct {
	byEmail map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: map[string]*models.User{}}
}

func (m *memUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) CreateUser(_ context.Context, u *models.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	m.byEmail[u.Email] = u
	return nil
}

func signup(email, password string) models.SignupInput {
	return models.SignupInput{Email: email, Password: password, ConfirmPassword: password}
}

func TestSignup_StoresHashedNormalizedUser(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewAuthService(repo, bcrypt.MinCost)

	u, err := svc.Signup(context.Background(), signup("  A@X.com ", "secret1"))
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if u.Email != "a@x.com" {
		t.Errorf("Email = %q; want %q", u.Email, "a@x.com")
	}
	if u.ID == "" || u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Errorf("expected generated id and timestamps, got %+v", u)
	}
	if strings.Contains(string(u.PasswordHash), "secret1") {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("secret1")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestSignup_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc := NewAuthService(newMemUserRepo(), bcrypt.MinCost)

	if _, err := svc.Signup(context.Background(), signup("a@x.com", "secret1")); err != nil {
		t.Fatalf("first Signup returned error: %v", err)
	}
	_, err := svc.Signup(context.Background(), signup("A@X.COM", "another"))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second Signup error = %v; want ErrConflict", err)
	}
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name      string
		in        models.SignupInput
		wantField string
	}{
		{"bad email", signup("not-an-email", "secret1"), "email"},
		{"empty email", signup("", "secret1"), "email"},
		{"short password", signup("a@x.com", "123"), "password"},
		{"nul in email", signup("a\x00@x.com", "secret1"), "email"},
		{"password over 72 bytes", signup("a@x.com", strings.Repeat("é", 40)), "password"},
		{"mismatch", models.SignupInput{Email: "a@x.com", Password: "secret1", ConfirmPassword: "secret2"}, "confirmPassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepo{CreateUserFunc: func(ctx context.Context, u *models.User) error {
				t.Fatal("CreateUser must not be called for invalid input")
				return nil
			}}
			svc := NewAuthService(repo, bcrypt.MinCost)

			_, err := svc.Signup(context.Background(), tt.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Signup error = %v; want *ValidationError", err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("errors.Is(err, ErrValidation) = false")
			}
			found := false
			for _, f := range verr.Fields {
				if f.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("fields = %+v; want one for %q", verr.Fields, tt.wantField)
			}
		})
	}
}

func TestSignup_RepoError(t *testing.T) {
	wantErr := errors.New("insert failed")
	repo := &mockUserRepo{CreateUserFunc: func(ctx context.Context, u *models.User) error { return wantErr }}
	svc := NewAuthService(repo, bcrypt.MinCost)

	_, err := svc.Signup(context.Background(), signup("a@x.com", "secret1"))
	if !errors.Is(err, wantErr) {
		t.Fatalf("Signup error = %v; want wrapped %v", err, wantErr)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewAuthService(repo, bcrypt.MinCost)
	created, err := svc.Signup(context.Background(), signup("a@x.com", "secret1"))
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}

	u, err := svc.Authenticate(context.Background(), " A@x.com", "secret1")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if u.ID != created.ID {
		t.Errorf("Authenticate user = %q; want %q", u.ID, created.ID)
	}

	_, wrongPass := svc.Authenticate(context.Background(), "a@x.com", "wrong!!")
	_, unknown := svc.Authenticate(context.Background(), "b@x.com", "secret1")
	if !errors.Is(wrongPass, ErrUnauthorized) || !errors.Is(unknown, ErrUnauthorized) {
		t.Fatalf("wrong password = %v, unknown email = %v; want ErrUnauthorized for both", wrongPass, unknown)
	}
	if wrongPass.Error() != unknown.Error() {
		t.Errorf("failure messages differ: %q vs %q", wrongPass, unknown)
	}
}

func TestAuthenticate_NulEmailSkipsStore(t *testing.T) {
	repo := &mockUserRepo{FindByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
		t.Fatal("FindByEmail must not be called with a NUL byte")
		return nil, nil
	}}
	svc := NewAuthService(repo, bcrypt.MinCost)

	_, err := svc.Authenticate(context.Background(), "a\x00@x.com", "secret1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Authenticate error = %v; want ErrUnauthorized", err)
	}
}

func TestAuthenticate_StoreError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockUserRepo{FindByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
		return nil, wantErr
	}}
	svc := NewAuthService(repo, bcrypt.MinCost)

	_, err := svc.Authenticate(context.Background(), "a@x.com", "secret1")
	if !errors.Is(err, wantErr) || errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Authenticate error = %v; want wrapped store error", err)
	}
}

func TestUserByID(t *testing.T) {
	repo := &mockUserRepo{FindByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
		if id == "u1" {
			return &models.User{ID: "u1", Email: "a@x.com"}, nil
		}
		return nil, repository.ErrNotFound
	}}
	svc := NewAuthService(repo, bcrypt.MinCost)

	u, err := svc.UserByID(context.Background(), "u1")
	if err != nil || u.Email != "a@x.com" {
		t.Fatalf("UserByID = %+v, %v", u, err)
	}
	if _, err := svc.UserByID(context.Background(), "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UserByID(gone) error = %v; want ErrNotFound", err)
	}
}

func TestNewAuthService_CostFallback(t *testing.T) {
	svc := NewAuthService(newMemUserRepo(), 0)
	if svc.cost != DefaultBcryptCost {
		t.Errorf("cost = %d; want %d", svc.cost, DefaultBcryptCost)
	}
}
