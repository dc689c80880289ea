// Package main initializes and starts the Minihub HTTP(S) server, setting
// up configuration, logging, error reporting, database connections,
// repositories, services, handlers and the optional rate limiter.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/atinyakov/minihub/internal/auth"
	"github.com/atinyakov/minihub/internal/config"
	"github.com/atinyakov/minihub/internal/db"
	"github.com/atinyakov/minihub/internal/logger"
	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/ratelimit"
	"github.com/atinyakov/minihub/internal/repository"
	"github.com/atinyakov/minihub/internal/server/handler/http"
	"github.com/atinyakov/minihub/internal/service"
	"github.com/atinyakov/minihub/internal/telemetry"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if enabled, err := telemetry.InitSentry(options.SentryDSN, options.Environment, cmp.Or(version, "dev")); err != nil {
		zapLogger.Warn("sentry disabled", zap.Error(err))
	} else if enabled {
		defer telemetry.Flush()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, zapLogger); err != nil {
		zapLogger.Error("server stopped with error", zap.Error(err))
		telemetry.Flush()
		os.Exit(1)
	}
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) (err error) {
	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("cannot init database: %w", err)
	}
	defer func() { err = multierr.Append(err, postgresDB.Close()) }()

	// Initialize repositories.
	tx := repository.NewTransactor(postgresDB)
	users := repository.NewPostgresUserRepository(postgresDB)
	activities := repository.NewPostgresActivityRepository(postgresDB)
	feedbacks := repository.NewPostgresFeedbackRepository(postgresDB)
	settings := repository.NewPostgresSettingsRepository(postgresDB)
	stats := repository.NewPostgresStatsRepository(postgresDB)

	// Refresh table row gauges in the background.
	db.StartStatsCollector(ctx, stats, options.StatsInterval, zapLogger)

	tokens, err := auth.NewTokenIssuer(options.JWTSecret, options.JWTExpiry)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	hasher := auth.NewHasher(options.BcryptCost)

	// Initialize business-logic services.
	recorder := service.NewRecorder(activities)
	authService := service.NewAuthService(users, hasher, tokens, recorder, tx)
	tasks := service.NewResourceService(service.TaskKind, repository.NewTaskRepository(postgresDB), users, recorder, tx)
	notes := service.NewResourceService(service.NoteKind, repository.NewNoteRepository(postgresDB), users, recorder, tx)
	goals := service.NewResourceService(service.GoalKind, repository.NewGoalRepository(postgresDB), users, recorder, tx)
	transactions := service.NewResourceService(service.NewTransactionKind(options.DefaultCurrency), repository.NewTransactionRepository(postgresDB), users, recorder, tx)
	articles := service.NewResourceService(service.ArticleKind, repository.NewArticleRepository(postgresDB), users, recorder, tx)
	adminService := service.NewAdminService(users, feedbacks, settings, stats, hasher, recorder, tx)

	// Create HTTP handlers.
	handlers := http.Handlers{
		Auth:  &http.AuthHandler{AuthService: authService, Log: zapLogger},
		Tasks: &http.ResourceHandler[models.Task, models.TaskInput]{Service: tasks, Singular: "task", Plural: "tasks", Label: "Task", Log: zapLogger},
		Notes: &http.ResourceHandler[models.Note, models.NoteInput]{Service: notes, Singular: "note", Plural: "notes", Label: "Note", Log: zapLogger},
		Goals: &http.ResourceHandler[models.Goal, models.GoalInput]{Service: goals, Singular: "goal", Plural: "goals", Label: "Goal", Log: zapLogger},
		Finance: &http.FinanceHandler{
			ResourceHandler: &http.ResourceHandler[models.Transaction, models.TransactionInput]{
				Service: transactions, Singular: "transaction", Plural: "transactions", Label: "Transaction", Log: zapLogger,
			},
			Finance: service.NewFinanceService(transactions),
		},
		Articles: &http.ResourceHandler[models.Article, models.ArticleInput]{Service: articles, Singular: "article", Plural: "articles", Label: "Article", Log: zapLogger},
		Feed:     &http.FeedHandler{Feed: service.NewFeedService(activities), Log: zapLogger},
		Feedback: &http.FeedbackHandler{Feedback: service.NewFeedbackService(feedbacks), Log: zapLogger},
		Admin:    &http.AdminHandler{Admin: adminService, Log: zapLogger},
	}

	// Per-IP rate limiting needs Redis; without it every request passes.
	var store ratelimit.Store
	if options.RedisURL != "" {
		client, dialErr := ratelimit.DialRedis(ctx, options.RedisURL)
		if dialErr != nil {
			zapLogger.Warn("rate limiting disabled", zap.Error(dialErr))
		} else {
			defer func(c *goredis.Client) { err = multierr.Append(err, c.Close()) }(client)
			store = ratelimit.NewRedisStore(client)
		}
	}
	limiter := ratelimit.New(store, options.RateLimit, options.RateWindow)

	// Build the router with middleware and routes.
	router := http.NewRouter(handlers, authService, limiter, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	tlsEnabled := options.TLSCert != "" && options.TLSKey != ""
	if tlsEnabled {
		// Load server TLS certificate and key.
		cert, certErr := tls.LoadX509KeyPair(options.TLSCert, options.TLSKey)
		if certErr != nil {
			return fmt.Errorf("failed to load server TLS cert/key: %w", certErr)
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("starting server", zap.String("addr", options.Addr), zap.Bool("tls", tlsEnabled))
		if tlsEnabled {
			serveErr <- server.ListenAndServeTLS("", "")
		} else {
			serveErr <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	zapLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
