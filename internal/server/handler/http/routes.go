package http

import (
	"net/http"

	"github.com/atinyakov/taskkeeper/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the TaskKeeper API.
//
// Routes:
//
//	POST   /auth/signup  → authHandler.Signup
//	POST   /auth/login   → authHandler.Login
//	POST   /auth/logout  → authHandler.Logout
//	GET    /auth/me      → authHandler.Me        (protected)
//	GET    /tasks        → taskHandler.List      (protected)
//	POST   /tasks        → taskHandler.Create    (protected)
//	GET    /tasks/{id}   → taskHandler.Get       (protected)
//	PUT    /tasks/{id}   → taskHandler.Update    (protected)
//	DELETE /tasks/{id}   → taskHandler.Delete    (protected)
//
// Middleware chain (applied in order): RequestID, WithRequestLogging,
// Recoverer, AllowContentType("application/json"), then RequireIdentity on
// protected routes.
func NewRouter(
	authHandler *AuthHandler,
	taskHandler *TaskHandler,
	identity middleware.IdentityResolver,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	// Only allow request bodies with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	requireIdentity := middleware.RequireIdentity(identity, logger)

	r.Route("/auth", func(r chi.Router) {
		// Public endpoints
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.With(requireIdentity).Get("/me", authHandler.Me)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(requireIdentity)

		r.Get("/", taskHandler.List)
		r.Post("/", taskHandler.Create)
		r.Get("/{id}", taskHandler.Get)
		r.Put("/{id}", taskHandler.Update)
		r.Delete("/{id}", taskHandler.Delete)
	})

	return r
}
