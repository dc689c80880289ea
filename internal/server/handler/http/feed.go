package http

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/atinyakov/minihub/internal/middleware"
	"github.com/atinyakov/minihub/internal/models"
)

// FeedService reads the requester's activity log.
type FeedService interface {
	Feed(ctx context.Context, userID string, q models.FeedQuery) ([]models.Activity, error)
	Stats(ctx context.Context, userID string) (models.FeedStats, error)
}

// FeedHandler serves the activity feed.
type FeedHandler struct {
	Feed FeedService
	Log  *zap.Logger
}

// List handles GET /feed.
func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListByType handles GET /feed/user, which also accepts a type filter.
func (h *FeedHandler) ListByType(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *FeedHandler) list(w http.ResponseWriter, r *http.Request, withType bool) {
	q, ok := feedQuery(w, r)
	if !ok {
		return
	}
	if withType {
		q.Type = models.Category(r.URL.Query().Get("type"))
	}
	activities, err := h.Feed.Feed(r.Context(), middleware.GetUserIDFromContext(r.Context()), q)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": activities})
}

// Stats handles GET /feed/stats.
func (h *FeedHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Feed.Stats(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func feedQuery(w http.ResponseWriter, r *http.Request) (models.FeedQuery, bool) {
	var q models.FeedQuery
	for name, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, name+" must be an integer")
			return q, false
		}
		*dst = n
	}
	return q, true
}
