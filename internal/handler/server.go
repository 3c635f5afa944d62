// Package handler implements the HTTP handlers for the Timeclock API.
// All handlers are methods on Server, split into domain-specific files
// (health.go, timeentry.go, auth.go) that share the same struct so they can
// access its dependencies. Handlers do coarse field-shape validation and
// transport mapping only; every interval rule lives in the service layer.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkrogh/timeclock/backend/internal/domain"
)

// TimeEntryServicer defines the business operations the time-entry handlers
// depend on. Defining the interface here (in the consumer package) follows
// the Go convention: "accept interfaces, return concrete types". It lets
// handler tests inject a mock without touching the database or service layer.
type TimeEntryServicer interface {
	ClockIn(ctx context.Context, userID uuid.UUID, lat, lng *float64) (domain.TimeEntry, error)
	ClockOut(ctx context.Context, userID uuid.UUID, lat, lng *float64) (domain.TimeEntry, error)
	GetOpenEntry(ctx context.Context, userID uuid.UUID) (domain.TimeEntry, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.TimeEntry, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.TimeEntryPatch) (domain.TimeEntry, error)
	ListPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.TimeEntry, int64, error)
}

// AuthServicer defines the authentication operations the auth handlers depend on.
type AuthServicer interface {
	Login(ctx context.Context, email, password string) (domain.User, string, error)
	Logout(ctx context.Context, token string) error
}

// UserServicer defines the account operations the user handlers depend on.
type UserServicer interface {
	Register(ctx context.Context, name, email, password string) (domain.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

// Server holds the handler dependencies for all API endpoints.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	entries TimeEntryServicer
	auth    AuthServicer
	users   UserServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(entries TimeEntryServicer, auth AuthServicer, users UserServicer) *Server {
	return &Server{entries: entries, auth: auth, users: users}
}

// Routes mounts every endpoint on a chi router. requireAuth guards the
// authenticated group; it is injected so tests can substitute a stub that
// places a known user in the request context.
func (s *Server) Routes(requireAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Post("/api/auth/register", s.Register)
	r.Post("/api/auth/login", s.Login)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/api/auth/logout", s.Logout)
		r.Get("/api/user", s.CurrentUser)
		r.Put("/api/user/password", s.UpdatePassword)

		r.Route("/api/time-entries", func(r chi.Router) {
			r.Post("/clock-in", s.ClockIn)
			r.Post("/clock-out", s.ClockOut)
			r.Get("/current", s.Current)
			r.Get("/", s.ListTimeEntries)
			r.Get("/{id}", s.GetTimeEntry)
			r.Put("/{id}", s.UpdateTimeEntry)
		})
	})

	return r
}
