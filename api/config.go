package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/harlequingg/lifestrat-api/internal/storage"
)

type config struct {
	port     int
	env      string
	logLevel string
	db       storage.Config
	smtp     struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	jwt struct {
		secret    string
		lifetime  time.Duration
		generated bool
	}
	limiter struct {
		enabled             bool
		maxRequestPerSecond float64
		burst               int
	}
	cors struct {
		trustedOrigins []string
	}
}

// parseConfig reads flags from args. Every flag defaults to an environment
// variable looked up through getenv, so a .env file or the process
// environment can configure the server without flags.
func parseConfig(args []string, getenv func(string) string) (config, error) {
	var cfg config
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	port, err := strconv.Atoi(env("PORT", "3000"))
	if err != nil {
		return cfg, fmt.Errorf("invalid PORT: %w", err)
	}
	smtpPort, err := strconv.Atoi(env("SMTP_PORT", "25"))
	if err != nil {
		return cfg, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	lifetime, err := time.ParseDuration(env("JWT_LIFETIME", "24h"))
	if err != nil {
		return cfg, fmt.Errorf("invalid JWT_LIFETIME: %w", err)
	}

	fs := pflag.NewFlagSet("lifestrat", pflag.ContinueOnError)
	fs.IntVar(&cfg.port, "port", port, "Server port")
	fs.StringVar(&cfg.env, "env", env("APP_ENV", "development"), "Environment [development|staging|production]")
	fs.StringVar(&cfg.logLevel, "log-level", env("LOG_LEVEL", "info"), "Log level [debug|info|warn|error]")

	fs.StringVar(&cfg.db.Backend, "storage", env("STORAGE", storage.BackendPostgres), "Storage backend [postgres|memory]")
	fs.StringVar(&cfg.db.DSN, "db-dsn", getenv("DB_DSN"), "PostgreSQL DSN")
	fs.IntVar(&cfg.db.MaxOpenConnections, "db-max-open-conns", 25, "PostgreSQL max open connections")
	fs.IntVar(&cfg.db.MaxIdleConnections, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	fs.DurationVar(&cfg.db.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max connection idle time")

	fs.StringVar(&cfg.smtp.host, "smtp-host", getenv("SMTP_HOST"), "SMTP host, mail is not sent when empty")
	fs.IntVar(&cfg.smtp.port, "smtp-port", smtpPort, "SMTP port")
	fs.StringVar(&cfg.smtp.username, "smtp-username", getenv("SMTP_USERNAME"), "SMTP username")
	fs.StringVar(&cfg.smtp.password, "smtp-password", getenv("SMTP_PASSWORD"), "SMTP password")
	fs.StringVar(&cfg.smtp.sender, "smtp-sender", env("SMTP_SENDER", "LifeStrat <no-reply@lifestrat.local>"), "SMTP sender")

	fs.StringVar(&cfg.jwt.secret, "jwt-secret", getenv("JWT_SECRET"), "JWT signing secret")
	fs.DurationVar(&cfg.jwt.lifetime, "jwt-lifetime", lifetime, "JWT lifetime")

	fs.BoolVar(&cfg.limiter.enabled, "limiter-enabled", true, "Enable per-client rate limiting")
	fs.Float64Var(&cfg.limiter.maxRequestPerSecond, "limiter-rps", 2, "Rate limiter max requests per second")
	fs.IntVar(&cfg.limiter.burst, "limiter-burst", 4, "Rate limiter max burst")

	var origins string
	fs.StringVar(&origins, "cors-trusted-origins", getenv("CORS_TRUSTED_ORIGINS"), "Trusted CORS origins (space separated)")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.cors.trustedOrigins = strings.Fields(origins)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	if cfg.jwt.secret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return cfg, err
		}
		cfg.jwt.secret = string(secret)
		cfg.jwt.generated = true
	}
	return cfg, nil
}

func (cfg config) validate() error {
	var errs []error
	if cfg.port < 1 || cfg.port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", cfg.port))
	}
	if !slices.Contains([]string{"development", "staging", "production"}, cfg.env) {
		errs = append(errs, fmt.Errorf("unknown env %q", cfg.env))
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.logLevel) {
		errs = append(errs, fmt.Errorf("unknown log level %q", cfg.logLevel))
	}
	switch cfg.db.Backend {
	case storage.BackendPostgres:
		if cfg.db.DSN == "" {
			errs = append(errs, errors.New("db-dsn must be set for the postgres backend"))
		}
	case storage.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", cfg.db.Backend))
	}
	// Token expiry is stored in whole seconds.
	if cfg.jwt.lifetime < time.Second {
		errs = append(errs, errors.New("jwt-lifetime must be at least 1s"))
	}
	if cfg.limiter.enabled && (cfg.limiter.maxRequestPerSecond <= 0 || cfg.limiter.burst <= 0) {
		errs = append(errs, errors.New("limiter-rps and limiter-burst must be positive"))
	}
	return errors.Join(errs...)
}
