package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/minihub/internal/middleware"
	"github.com/atinyakov/minihub/internal/models"
)

// ResourceService is the service contract shared by every resource kind.
type ResourceService[T any, P any] interface {
	List(ctx context.Context, requester string, filter models.ListFilter) ([]*T, error)
	Get(ctx context.Context, id, requester string) (*T, error)
	Create(ctx context.Context, requester string, p *P) (*T, error)
	Update(ctx context.Context, id, requester string, p *P) (*T, error)
	Delete(ctx context.Context, id, requester string) error
}

// ResourceHandler serves the CRUD endpoints of one resource kind.
// Responses use Singular and Plural as envelope keys.
type ResourceHandler[T any, P any] struct {
	Service  ResourceService[T, P]
	Singular string
	Plural   string
	// Label starts the delete confirmation, e.g. "Task".
	Label string
	Log   *zap.Logger
}

// Routes mounts list/create on / and get/update/delete on /{id}.
func (h *ResourceHandler[T, P]) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List handles GET / and accepts an optional published=true|false filter.
func (h *ResourceHandler[T, P]) List(w http.ResponseWriter, r *http.Request) {
	var filter models.ListFilter
	if v := r.URL.Query().Get("published"); v != "" {
		published, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "published must be true or false")
			return
		}
		filter.Published = &published
	}

	items, err := h.Service.List(r.Context(), middleware.GetUserIDFromContext(r.Context()), filter)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	if items == nil {
		items = []*T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{h.Plural: items})
}

// Get handles GET /{id}.
func (h *ResourceHandler[T, P]) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{h.Singular: item})
}

// Create handles POST /.
func (h *ResourceHandler[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	p := new(P)
	if !decode(w, r, p) {
		return
	}
	item, err := h.Service.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), p)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{h.Singular: item})
}

// Update handles PUT /{id}.
func (h *ResourceHandler[T, P]) Update(w http.ResponseWriter, r *http.Request) {
	p := new(P)
	if !decode(w, r, p) {
		return
	}
	item, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), middleware.GetUserIDFromContext(r.Context()), p)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{h.Singular: item})
}

// Delete handles DELETE /{id}.
func (h *ResourceHandler[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.Service.Delete(r.Context(), chi.URLParam(r, "id"), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeMessage(w, h.Label+" deleted")
}
