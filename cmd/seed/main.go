// Package main bootstraps a Minihub database: it applies the schema,
// creates the administrator account if missing and stores default site
// settings, optionally read from a YAML file.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/atinyakov/minihub/internal/auth"
	"github.com/atinyakov/minihub/internal/db"
	"github.com/atinyakov/minihub/internal/logger"
	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/repository"
	"github.com/atinyakov/minihub/internal/service"
)

type seedOptions struct {
	dsn          string
	settingsPath string
	bcryptCost   int
	admin        service.AdminAccount
}

// settingsFile is the layout of the -settings YAML file.
type settingsFile struct {
	Settings []struct {
		Key         string `yaml:"key"`
		Value       string `yaml:"value"`
		Description string `yaml:"description"`
	} `yaml:"settings"`
}

func main() {
	log := logger.New()
	if err := log.Init("info"); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	if err := seed(log.Log); err != nil {
		log.Log.Error("seed failed", zap.Error(err))
		_ = log.Log.Sync()
		os.Exit(1)
	}
	_ = log.Log.Sync()
}

func seed(zapLogger *zap.Logger) error {
	opts, err := parseFlags(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	defaults, err := loadSettings(opts.settingsPath)
	if err != nil {
		return fmt.Errorf("cannot load settings: %w", err)
	}
	return run(context.Background(), opts, defaults, db.InitPostgres, zapLogger)
}

// run opens the database with open and bootstraps it. The connection is
// closed before run returns, on failure too.
func run(
	ctx context.Context,
	opts seedOptions,
	defaults []models.SiteSetting,
	open func(ctx context.Context, dsn string) (*sql.DB, error),
	zapLogger *zap.Logger,
) (err error) {
	postgresDB, err := open(ctx, opts.dsn)
	if err != nil {
		return fmt.Errorf("cannot init database: %w", err)
	}
	defer func() { err = multierr.Append(err, postgresDB.Close()) }()

	users := repository.NewPostgresUserRepository(postgresDB)
	admin := service.NewAdminService(
		users,
		repository.NewPostgresFeedbackRepository(postgresDB),
		repository.NewPostgresSettingsRepository(postgresDB),
		repository.NewPostgresStatsRepository(postgresDB),
		auth.NewHasher(opts.bcryptCost),
		service.NewRecorder(repository.NewPostgresActivityRepository(postgresDB)),
		repository.NewTransactor(postgresDB),
	)

	created, err := admin.Bootstrap(ctx, opts.admin, defaults)
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	if created {
		zapLogger.Info("administrator created", zap.String("email", opts.admin.Email))
	} else {
		zapLogger.Info("administrator already exists", zap.String("email", opts.admin.Email))
	}
	zapLogger.Info("site settings ensured", zap.Int("count", len(defaults)))
	return nil
}

func parseFlags(args []string, getenv func(string) string, out io.Writer) (seedOptions, error) {
	var opts seedOptions
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.dsn, "d", getenv("DATABASE_DSN"), "db address")
	fs.StringVar(&opts.settingsPath, "settings", "", "YAML file with default site settings")
	fs.IntVar(&opts.bcryptCost, "bcrypt-cost", 10, "password hashing cost")
	fs.StringVar(&opts.admin.Email, "admin-email", "admin@system.local", "administrator email")
	fs.StringVar(&opts.admin.Name, "admin-name", "Administrator", "administrator display name")
	fs.StringVar(&opts.admin.Password, "admin-password", getenv("ADMIN_PASSWORD"), "administrator password")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.dsn == "" {
		return opts, errors.New("database dsn is required (-d or DATABASE_DSN)")
	}
	if len(opts.admin.Password) < 6 {
		return opts, errors.New("admin password must be at least 6 characters (-admin-password or ADMIN_PASSWORD)")
	}
	return opts, nil
}

// loadSettings reads default settings from path, or returns
// service.DefaultSettings when path is empty.
func loadSettings(path string) ([]models.SiteSetting, error) {
	if path == "" {
		return service.DefaultSettings, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var file settingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	out := make([]models.SiteSetting, 0, len(file.Settings))
	for i, st := range file.Settings {
		if st.Key == "" {
			return nil, fmt.Errorf("settings[%d]: key is required", i)
		}
		out = append(out, models.SiteSetting{Key: st.Key, Value: st.Value, Description: st.Description})
	}
	return out, nil
}
