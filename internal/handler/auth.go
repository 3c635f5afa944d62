package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkrogh/timeclock/backend/internal/domain"
	"github.com/mkrogh/timeclock/backend/internal/middleware"
)

// Register handles POST /api/auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeFieldError(w, "body", "The request body must be valid JSON.")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login handles POST /api/auth/login. On success the response carries the
// plaintext bearer token — the only time it is ever visible.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeFieldError(w, "body", "The request body must be valid JSON.")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// Logout handles POST /api/auth/logout, revoking the token that
// authenticated this request.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if err := s.auth.Logout(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
}

// CurrentUser handles GET /api/user.
func (s *Server) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdatePassword handles PUT /api/user/password.
// Requires the current password and a matching confirmation.
func (s *Server) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req updatePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		writeFieldError(w, "body", "The request body must be valid JSON.")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.users.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.Password); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated."})
}

// --- request types ----------------------------------------------------------

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req registerRequest) validate() error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(req.Name) == "" {
		verr.Add("name", "The name field is required.")
	}
	if strings.TrimSpace(req.Email) == "" {
		verr.Add("email", "The email field is required.")
	}
	if req.Password == "" {
		verr.Add("password", "The password field is required.")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req loginRequest) validate() error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(req.Email) == "" {
		verr.Add("email", "The email field is required.")
	}
	if req.Password == "" {
		verr.Add("password", "The password field is required.")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

type updatePasswordRequest struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (req updatePasswordRequest) validate() error {
	verr := &domain.ValidationError{}
	if req.CurrentPassword == "" {
		verr.Add("current_password", "The current password field is required.")
	}
	if req.Password == "" {
		verr.Add("password", "The password field is required.")
	} else if req.Password != req.PasswordConfirmation {
		verr.Add("password", "The password field confirmation does not match.")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// --- response types ---------------------------------------------------------

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
