package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/minihub/internal/metrics"
	"github.com/atinyakov/minihub/internal/middleware"
	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/ratelimit"
)

// Handlers groups the handlers mounted by NewRouter.
type Handlers struct {
	Auth     *AuthHandler
	Tasks    *ResourceHandler[models.Task, models.TaskInput]
	Notes    *ResourceHandler[models.Note, models.NoteInput]
	Goals    *ResourceHandler[models.Goal, models.GoalInput]
	Finance  *FinanceHandler
	Articles *ResourceHandler[models.Article, models.ArticleInput]
	Feed     *FeedHandler
	Feedback *FeedbackHandler
	Admin    *AdminHandler
}

// NewRouter constructs the HTTP handler for the whole service.
//
// Routes:
//
//	GET  /health, /metrics                 → liveness, Prometheus
//	POST /api/auth/register, /api/auth/login
//	     /api/auth/profile, /api/auth/password            (bearer)
//	     /api/tasks, /notes, /goals, /finance, /articles  (bearer)
//	     /api/feed, /api/feed/user, /api/feed/stats       (bearer)
//	POST /api/feedback                                    (optional bearer)
//	GET  /api/feedback                                    (bearer)
//	POST /api/admin/login
//	     /api/admin/*                                     (bearer, ADMIN role)
//
// Middleware chain under /api (applied in order):
//  1. limiter.Middleware: per-IP fixed-window rate limit
//  2. AllowContentType("application/json"): rejects non-JSON bodies
//  3. WithRequestLogging(logger): logs requests
func NewRouter(
	h Handlers,
	auth middleware.Authenticator,
	limiter *ratelimit.Limiter,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Use(chiMiddleware.AllowContentType("application/json"))
		r.Use(middleware.WithRequestLogging(logger))

		// Public endpoints
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/admin/login", h.Auth.AdminLogin)
		r.With(middleware.OptionalAuth(auth)).Post("/feedback", h.Feedback.Submit)

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(auth))

			r.Get("/auth/profile", h.Auth.Profile)
			r.Put("/auth/profile", h.Auth.UpdateProfile)
			r.Put("/auth/password", h.Auth.ChangePassword)

			r.Route("/tasks", h.Tasks.Routes)
			r.Route("/notes", h.Notes.Routes)
			r.Route("/goals", h.Goals.Routes)
			r.Route("/articles", h.Articles.Routes)
			r.Route("/finance", func(r chi.Router) {
				r.Get("/", h.Finance.List)
				r.Post("/", h.Finance.Create)
				r.Get("/stats", h.Finance.Stats)
				r.Get("/{id}", h.Finance.Get)
				r.Put("/{id}", h.Finance.Update)
				r.Delete("/{id}", h.Finance.Delete)
			})

			r.Get("/feed", h.Feed.List)
			r.Get("/feed/user", h.Feed.ListByType)
			r.Get("/feed/stats", h.Feed.Stats)

			r.Get("/feedback", h.Feedback.ListMine)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				h.Admin.Routes(r)
			})
		})
	})

	return r
}
