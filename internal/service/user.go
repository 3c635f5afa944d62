package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrogh/timeclock/backend/internal/domain"
	"github.com/mkrogh/timeclock/backend/internal/repo"
)

const (
	msgWrongCurrentPassword = "The provided password is incorrect."
	msgPasswordTooShort     = "The password must be at least 8 characters."

	minPasswordLength = 8
)

// UserService implements account-level operations for the authenticated user.
type UserService struct {
	users repo.UserRepo
}

// NewUserService constructs a UserService backed by the provided UserRepo.
func NewUserService(users repo.UserRepo) *UserService {
	return &UserService{users: users}
}

// ChangePassword replaces the user's password after verifying the current
// one. The confirmation field is the handler's concern; this method only
// enforces the rules that need the stored hash.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service.UserService.ChangePassword: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return domain.NewValidationError("current_password", msgWrongCurrentPassword)
	}
	if len(newPassword) < minPasswordLength {
		return domain.NewValidationError("password", msgPasswordTooShort)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("service.UserService.ChangePassword: hash: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("service.UserService.ChangePassword: %w", err)
	}
	return nil
}

// Register creates a new user account with a bcrypt-hashed password.
// Returns a validation error when the email is already taken.
func (s *UserService) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	if len(password) < minPasswordLength {
		return domain.User{}, domain.NewValidationError("password", msgPasswordTooShort)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Register: hash: %w", err)
	}

	user, err := s.users.Create(ctx, domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.User{}, domain.NewValidationError("email", "The email has already been taken.")
		}
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w", err)
	}
	return user, nil
}
