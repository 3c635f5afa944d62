package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mkrogh/timeclock/backend/internal/domain"
)

// TokenRepo defines the persistence operations for API bearer tokens.
// Tokens are stored hashed; every lookup takes the SHA-256 hex digest of the
// plaintext token presented by the client.
type TokenRepo interface {
	// Create inserts a new token record and returns the persisted record.
	Create(ctx context.Context, token domain.APIToken) (domain.APIToken, error)

	// GetUserByTokenHash resolves a token hash to its owning user, touching
	// the token's last_used_at. Returns domain.ErrNotFound for unknown hashes.
	GetUserByTokenHash(ctx context.Context, tokenHash string) (domain.User, error)

	// DeleteByTokenHash revokes a token. Returns domain.ErrNotFound if no
	// token with that hash exists.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
}

// pgTokenRepo is the Postgres implementation of TokenRepo.
type pgTokenRepo struct {
	db db
}

// NewTokenRepo constructs a TokenRepo backed by the provided db connection.
func NewTokenRepo(db db) TokenRepo {
	return &pgTokenRepo{db: db}
}

func (r *pgTokenRepo) Create(ctx context.Context, token domain.APIToken) (domain.APIToken, error) {
	const q = `
		INSERT INTO api_tokens (user_id, token_hash)
		VALUES (@user_id, @token_hash)
		RETURNING id, user_id, token_hash, created_at, last_used_at`

	args := pgx.NamedArgs{
		"user_id":    token.UserID,
		"token_hash": token.TokenHash,
	}

	var (
		t          domain.APIToken
		id         pgtype.UUID
		userID     pgtype.UUID
		lastUsedAt pgtype.Timestamptz
	)
	err := r.db.QueryRow(ctx, q, args).Scan(&id, &userID, &t.TokenHash, &t.CreatedAt, &lastUsedAt)
	if err != nil {
		return domain.APIToken{}, fmt.Errorf("repo.TokenRepo.Create: %w", err)
	}

	t.ID = uuid.UUID(id.Bytes)
	t.UserID = uuid.UUID(userID.Bytes)
	t.CreatedAt = t.CreatedAt.UTC()
	if lastUsedAt.Valid {
		lu := lastUsedAt.Time.UTC()
		t.LastUsedAt = &lu
	}
	return t, nil
}

func (r *pgTokenRepo) GetUserByTokenHash(ctx context.Context, tokenHash string) (domain.User, error) {
	const q = `
		SELECT u.id, u.name, u.email, u.password_hash, u.created_at, u.updated_at
		FROM api_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = @token_hash`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"token_hash": tokenHash})
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, fmt.Errorf("repo.TokenRepo.GetUserByTokenHash: %w", domain.ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("repo.TokenRepo.GetUserByTokenHash: %w", err)
	}

	const touch = `UPDATE api_tokens SET last_used_at = now() WHERE token_hash = @token_hash`
	if _, err := r.db.Exec(ctx, touch, pgx.NamedArgs{"token_hash": tokenHash}); err != nil {
		return domain.User{}, fmt.Errorf("repo.TokenRepo.GetUserByTokenHash: touch: %w", err)
	}

	return user, nil
}

func (r *pgTokenRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	const q = `DELETE FROM api_tokens WHERE token_hash = @token_hash`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"token_hash": tokenHash})
	if err != nil {
		return fmt.Errorf("repo.TokenRepo.DeleteByTokenHash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TokenRepo.DeleteByTokenHash: %w", domain.ErrNotFound)
	}
	return nil
}
