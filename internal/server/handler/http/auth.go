// Package http provides the JSON HTTP handlers and router for accounts and tasks.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/taskkeeper/internal/middleware"
	"github.com/atinyakov/taskkeeper/internal/models"
	"github.com/atinyakov/taskkeeper/internal/service"
	"go.uber.org/zap"
)

// AuthService defines the account operations required by the HTTP handlers.
type AuthService interface {
	// Signup validates and stores a new user.
	Signup(ctx context.Context, in models.SignupInput) (*models.User, error)
	// Authenticate checks credentials and returns the matching user.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// SessionWriter sets and clears the session cookie.
type SessionWriter interface {
	AttachSession(w http.ResponseWriter, token string)
	ClearSession(w http.ResponseWriter)
}

// AuthHandler handles signup, login, logout and current-user requests.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	// Tokens issues the token stored in the session cookie.
	Tokens TokenIssuer
	// Sessions writes the session cookie.
	Sessions SessionWriter
	// Logger records unexpected failures.
	Logger *zap.Logger
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

// Signup handles POST /auth/signup. On success the new user is echoed with
// 201 and a session cookie is set.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.AuthService.Signup(r.Context(), req)
	if err != nil {
		respondError(w, h.Logger, "signup failed", err)
		return
	}

	if !h.startSession(w, user) {
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{User: user})
}

// Login handles POST /auth/login. Unknown email and wrong password produce
// the same 401 response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var missing []service.FieldError
	if req.Email == "" {
		missing = append(missing, service.FieldError{Field: "email", Message: "email is required"})
	}
	if req.Password == "" {
		missing = append(missing, service.FieldError{Field: "password", Message: "password is required"})
	}
	if len(missing) > 0 {
		respondError(w, h.Logger, "login failed", &service.ValidationError{Fields: missing})
		return
	}

	user, err := h.AuthService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondError(w, h.Logger, "login failed", err)
		return
	}

	if !h.startSession(w, user) {
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// Logout handles POST /auth/logout by clearing the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ClearSession(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me handles GET /auth/me and returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, h.Logger, "me", service.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, user *models.User) bool {
	token, err := h.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		respondError(w, h.Logger, "issue token", err)
		return false
	}
	h.Sessions.AttachSession(w, token)
	return true
}
