// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables and
// an optional YAML config file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string `yaml:"addr"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `yaml:"database_dsn"`

	// JWTSecret signs bearer tokens.
	JWTSecret string `yaml:"jwt_secret"`
	// JWTExpiry is the lifetime of issued tokens.
	JWTExpiry time.Duration `yaml:"jwt_expiry"`
	// BcryptCost is the password hashing cost.
	BcryptCost int `yaml:"bcrypt_cost"`

	LogLevel string `yaml:"log_level"`

	// RedisURL enables the per-IP rate limiter when set.
	RedisURL   string        `yaml:"redis_url"`
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`

	SentryDSN   string `yaml:"sentry_dsn"`
	Environment string `yaml:"environment"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`

	// DefaultCurrency applies to transactions created without one.
	DefaultCurrency string `yaml:"default_currency"`

	// StatsInterval is how often table row gauges are refreshed.
	StatsInterval time.Duration `yaml:"stats_interval"`

	// Config is the path to the Config file.
	Config string `yaml:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Options {
	return Options{
		Addr:            "localhost:8080",
		JWTExpiry:       7 * 24 * time.Hour,
		BcryptCost:      10,
		LogLevel:        "info",
		RateLimit:       100,
		RateWindow:      15 * time.Minute,
		Environment:     "development",
		DefaultCurrency: "RUB",
		StatsInterval:   time.Minute,
		Config:          "config.yaml",
	}
}

// Parse parses the command-line flags, the config file and environment
// variables, in increasing order of precedence.
func Parse() (*Options, error) {
	return parse(flag.CommandLine, os.Args[1:], os.Getenv)
}

func parse(fs *flag.FlagSet, args []string, getenv func(string) string) (*Options, error) {
	options := Defaults()

	fs.StringVar(&options.Addr, "a", options.Addr, "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", options.DatabaseDSN, "db address")
	fs.StringVar(&options.JWTSecret, "jwt-secret", options.JWTSecret, "token signing secret")
	fs.DurationVar(&options.JWTExpiry, "jwt-expiry", options.JWTExpiry, "token lifetime")
	fs.StringVar(&options.LogLevel, "log-level", options.LogLevel, "log level")
	fs.StringVar(&options.RedisURL, "redis", options.RedisURL, "redis url for rate limiting")
	fs.StringVar(&options.TLSCert, "tls-cert", options.TLSCert, "server certificate path")
	fs.StringVar(&options.TLSKey, "tls-key", options.TLSKey, "server key path")
	fs.StringVar(&options.Config, "config", options.Config, "path to config file")
	fs.StringVar(&options.Config, "c", options.Config, "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Flags set explicitly win over the file.
	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if options.Config != "" {
		if err := loadFile(options.Config, &options, fs, explicit); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&options, getenv); err != nil {
		return nil, err
	}
	if options.JWTSecret == "" {
		return nil, errors.New("jwt secret is required (JWT_SECRET)")
	}
	return &options, nil
}

func loadFile(path string, options *Options, fs *flag.FlagSet, explicit map[string]bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	fromFlags := *options
	if err := yaml.Unmarshal(data, options); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	options.Config = fromFlags.Config

	restore := map[string]func(){
		"a":          func() { options.Addr = fromFlags.Addr },
		"d":          func() { options.DatabaseDSN = fromFlags.DatabaseDSN },
		"jwt-secret": func() { options.JWTSecret = fromFlags.JWTSecret },
		"jwt-expiry": func() { options.JWTExpiry = fromFlags.JWTExpiry },
		"log-level":  func() { options.LogLevel = fromFlags.LogLevel },
		"redis":      func() { options.RedisURL = fromFlags.RedisURL },
		"tls-cert":   func() { options.TLSCert = fromFlags.TLSCert },
		"tls-key":    func() { options.TLSKey = fromFlags.TLSKey },
	}
	for name := range explicit {
		if fn, ok := restore[name]; ok {
			fn()
		}
	}
	return nil
}

func applyEnv(options *Options, getenv func(string) string) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":   &options.Addr,
		"DATABASE_DSN":     &options.DatabaseDSN,
		"JWT_SECRET":       &options.JWTSecret,
		"LOG_LEVEL":        &options.LogLevel,
		"REDIS_URL":        &options.RedisURL,
		"SENTRY_DSN":       &options.SentryDSN,
		"ENVIRONMENT":      &options.Environment,
		"TLS_CERT":         &options.TLSCert,
		"TLS_KEY":          &options.TLSKey,
		"DEFAULT_CURRENCY": &options.DefaultCurrency,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"JWT_EXPIRY":     &options.JWTExpiry,
		"RATE_WINDOW":    &options.RateWindow,
		"STATS_INTERVAL": &options.StatsInterval,
	}
	for key, dst := range durations {
		v := getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"BCRYPT_COST": &options.BcryptCost,
		"RATE_LIMIT":  &options.RateLimit,
	}
	for key, dst := range ints {
		v := getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	return nil
}
