// Package http provides the JSON HTTP API: handlers for accounts, owned
// resources, the activity feed, feedback and the admin console, and the
// chi router that mounts them.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/minihub/internal/access"
	"github.com/atinyakov/minihub/internal/middleware"
	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/service"
	"github.com/atinyakov/minihub/internal/telemetry"
	"github.com/atinyakov/minihub/internal/validate"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// decode reads a JSON body into v and answers 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// fail maps a service error to a response. Unexpected errors are logged,
// reported and answered with a generic 500.
func fail(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var multi *validate.MultiError
	var single *validate.ValidationError
	switch {
	case errors.As(err, &multi):
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": multi.Errors})
	case errors.As(err, &single):
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []validate.ValidationError{*single}})
	case errors.Is(err, access.ErrNotAccessible):
		writeError(w, http.StatusNotFound, access.ErrNotAccessible.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, models.ErrEmailTaken.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrAdminProtected):
		writeError(w, http.StatusBadRequest, service.ErrAdminProtected.Error())
	default:
		if log != nil {
			log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		telemetry.CaptureError(err, map[string]string{
			"method": r.Method,
			"path":   r.URL.Path,
			"user":   middleware.GetUserIDFromContext(r.Context()),
		})
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
