package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrogh/timeclock/backend/internal/domain"
	"github.com/mkrogh/timeclock/backend/internal/repo"
)

const msgBadCredentials = "These credentials do not match our records."

// AuthService implements token-based authentication: login issues an opaque
// bearer token (stored only as a SHA-256 digest), logout revokes it, and
// Authenticate resolves a presented token back to its user.
type AuthService struct {
	users  repo.UserRepo
	tokens repo.TokenRepo
}

// NewAuthService constructs an AuthService backed by the provided repos.
func NewAuthService(users repo.UserRepo, tokens repo.TokenRepo) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Login verifies the email/password pair and issues a fresh bearer token.
// The plaintext token is returned to the caller exactly once; only its hash
// is persisted. A wrong email and a wrong password produce the same
// validation failure so the endpoint does not leak which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, "", domain.NewValidationError("email", msgBadCredentials)
		}
		return domain.User{}, "", fmt.Errorf("service.AuthService.Login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.User{}, "", domain.NewValidationError("email", msgBadCredentials)
	}

	plaintext, err := newToken()
	if err != nil {
		return domain.User{}, "", fmt.Errorf("service.AuthService.Login: %w", err)
	}

	_, err = s.tokens.Create(ctx, domain.APIToken{
		UserID:    user.ID,
		TokenHash: HashToken(plaintext),
	})
	if err != nil {
		return domain.User{}, "", fmt.Errorf("service.AuthService.Login: %w", err)
	}

	return user, plaintext, nil
}

// Logout revokes the presented token. An unknown token is not an error:
// the caller's goal — that the token no longer works — is already met.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	err := s.tokens.DeleteByTokenHash(ctx, HashToken(token))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("service.AuthService.Logout: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its owning user.
// Returns domain.ErrNotFound for unknown or revoked tokens.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	user, err := s.tokens.GetUserByTokenHash(ctx, HashToken(token))
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Authenticate: %w", err)
	}
	return user, nil
}

// newToken returns 32 bytes of hex-encoded randomness.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the hex SHA-256 digest of a plaintext token, the only
// form in which tokens are ever stored or looked up.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
