package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/minihub/internal/middleware"
	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/service"
)

// FeedbackService accepts and lists feedback tickets.
type FeedbackService interface {
	Submit(ctx context.Context, userID string, in service.FeedbackInput) (*models.Feedback, error)
	ListMine(ctx context.Context, userID string) ([]models.Feedback, error)
}

// FeedbackHandler serves ticket submission.
type FeedbackHandler struct {
	Feedback FeedbackService
	Log      *zap.Logger
}

// Submit handles POST /feedback. Anonymous submissions are accepted.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.FeedbackInput
	if !decode(w, r, &req) {
		return
	}
	f, err := h.Feedback.Submit(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Feedback sent",
		"feedbackId": f.ID,
	})
}

// ListMine handles GET /feedback.
func (h *FeedbackHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.Feedback.ListMine(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedbacks": list})
}
