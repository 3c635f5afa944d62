package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mkrogh/timeclock/backend/internal/domain"
)

// Authenticator resolves a bearer token to the user it belongs to.
// Implementations return domain.ErrNotFound for unknown or revoked tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

// ctxKey is unexported so no other package can forge context values.
type ctxKey int

const userKey ctxKey = iota

// NewAuthenticator returns a middleware that requires a valid
// "Authorization: Bearer <token>" header. On success the resolved user is
// stored in the request context for UserFrom; otherwise the request is
// rejected with 401 before reaching the handler.
func NewAuthenticator(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthenticated(w)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					unauthenticated(w)
					return
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a context carrying the given user, exactly as
// NewAuthenticator stores it for authenticated requests. Handler tests use
// it to simulate an authenticated caller without a token round-trip.
func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the authenticated user stored by NewAuthenticator.
// ok is false on routes that were not behind the middleware.
func UserFrom(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userKey).(domain.User)
	return user, ok
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header,
// or returns "" when the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthenticated."})
}
