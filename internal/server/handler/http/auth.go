package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/minihub/internal/middleware"
	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/service"
)

// AuthService defines the account operations required by the HTTP handlers.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.Session, error)
	Login(ctx context.Context, in service.LoginInput) (*service.Session, error)
	AdminLogin(ctx context.Context, in service.LoginInput) (*service.Session, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, in service.ProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID string, in service.PasswordInput) error
}

// AuthHandler handles registration, sign-in and profile requests.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	Log         *zap.Logger
}

// Register handles POST /auth/register. It answers 201 with the new user
// and a bearer token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Registration successful",
		"user":    sess.User,
		"token":   sess.Token,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.AuthService.Login(r.Context(), req)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Signed in",
		"user":    sess.User,
		"token":   sess.Token,
	})
}

// AdminLogin handles POST /admin/login. Non-admin accounts get the same
// 401 as wrong credentials.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.AuthService.AdminLogin(r.Context(), req)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Signed in to admin console",
		"admin":   sess.User,
		"token":   sess.Token,
	})
}

// Profile handles GET /auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.AuthService.Profile(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// UpdateProfile handles PUT /auth/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileInput
	if !decode(w, r, &req) {
		return
	}
	user, err := h.AuthService.UpdateProfile(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// ChangePassword handles PUT /auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req service.PasswordInput
	if !decode(w, r, &req) {
		return
	}
	if err := h.AuthService.ChangePassword(r.Context(), middleware.GetUserIDFromContext(r.Context()), req); err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeMessage(w, "Password changed")
}
