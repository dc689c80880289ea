package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/service"
)

// AdminService defines the admin console operations.
type AdminService interface {
	Dashboard(ctx context.Context) (models.DashboardStats, error)
	Users(ctx context.Context) ([]models.UserOverview, error)
	DeleteUser(ctx context.Context, id string) error
	ResetPassword(ctx context.Context, id, newPassword string) error
	Feedbacks(ctx context.Context) ([]models.Feedback, error)
	UpdateFeedback(ctx context.Context, id string, in service.FeedbackUpdate) error
	Settings(ctx context.Context) ([]models.SiteSetting, error)
	UpsertSetting(ctx context.Context, st models.SiteSetting) error
	Database(ctx context.Context) (models.DatabaseStats, error)
}

// AdminHandler serves /admin. Routes must be guarded by RequireAdmin.
type AdminHandler struct {
	Admin AdminService
	Log   *zap.Logger
}

// Routes mounts the admin endpoints.
func (h *AdminHandler) Routes(r chi.Router) {
	r.Get("/stats", h.Dashboard)
	r.Get("/users", h.Users)
	r.Delete("/users/{userId}", h.DeleteUser)
	r.Post("/users/{userId}/reset-password", h.ResetPassword)
	r.Get("/feedbacks", h.Feedbacks)
	r.Put("/feedbacks/{feedbackId}", h.UpdateFeedback)
	r.Get("/settings", h.Settings)
	r.Put("/settings", h.UpsertSetting)
	r.Get("/database", h.Database)
}

// Dashboard handles GET /admin/stats.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.Dashboard(r.Context())
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Users handles GET /admin/users.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.Admin.Users(r.Context())
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// DeleteUser handles DELETE /admin/users/{userId}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteUser(r.Context(), chi.URLParam(r, "userId")); err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeMessage(w, "User deleted")
}

// ResetPassword handles POST /admin/users/{userId}/reset-password.
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Admin.ResetPassword(r.Context(), chi.URLParam(r, "userId"), req.NewPassword); err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeMessage(w, "Password reset")
}

// Feedbacks handles GET /admin/feedbacks.
func (h *AdminHandler) Feedbacks(w http.ResponseWriter, r *http.Request) {
	list, err := h.Admin.Feedbacks(r.Context())
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedbacks": list})
}

// UpdateFeedback handles PUT /admin/feedbacks/{feedbackId}.
func (h *AdminHandler) UpdateFeedback(w http.ResponseWriter, r *http.Request) {
	var req service.FeedbackUpdate
	if !decode(w, r, &req) {
		return
	}
	if err := h.Admin.UpdateFeedback(r.Context(), chi.URLParam(r, "feedbackId"), req); err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeMessage(w, "Feedback status updated")
}

// Settings handles GET /admin/settings.
func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Admin.Settings(r.Context())
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// UpsertSetting handles PUT /admin/settings.
func (h *AdminHandler) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	var req models.SiteSetting
	if !decode(w, r, &req) {
		return
	}
	if err := h.Admin.UpsertSetting(r.Context(), req); err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeMessage(w, "Setting updated")
}

// Database handles GET /admin/database.
func (h *AdminHandler) Database(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.Database(r.Context())
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
