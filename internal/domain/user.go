package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns time entries. PasswordHash is a bcrypt hash
// and must never be serialized to clients.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// APIToken is a persisted bearer token. Only the SHA-256 hex digest of the
// plaintext token is stored; the plaintext is returned to the client exactly
// once, at login.
type APIToken struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TokenHash  string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}
