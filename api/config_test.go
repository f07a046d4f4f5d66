package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harlequingg/lifestrat-api/internal/storage"
)

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil, envOf(map[string]string{"DB_DSN": "postgres://localhost/lifestrat"}))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.port)
	assert.Equal(t, "development", cfg.env)
	assert.Equal(t, storage.BackendPostgres, cfg.db.Backend)
	assert.Equal(t, "postgres://localhost/lifestrat", cfg.db.DSN)
	assert.Equal(t, 15*time.Minute, cfg.db.MaxIdleTime)
	assert.Equal(t, 24*time.Hour, cfg.jwt.lifetime)
	assert.True(t, cfg.limiter.enabled)
	assert.Empty(t, cfg.cors.trustedOrigins)
	assert.Empty(t, cfg.smtp.host)

	assert.Len(t, cfg.jwt.secret, 32)
	assert.True(t, cfg.jwt.generated)
}

func TestParseConfigFromEnvironment(t *testing.T) {
	cfg, err := parseConfig(nil, envOf(map[string]string{
		"PORT":                 "8080",
		"APP_ENV":              "production",
		"STORAGE":              "memory",
		"SMTP_HOST":            "smtp.example.com",
		"SMTP_PORT":            "587",
		"JWT_SECRET":           "s3cret",
		"JWT_LIFETIME":         "90m",
		"CORS_TRUSTED_ORIGINS": "https://a.example.com https://b.example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.port)
	assert.Equal(t, "production", cfg.env)
	assert.Equal(t, storage.BackendMemory, cfg.db.Backend)
	assert.Equal(t, "smtp.example.com", cfg.smtp.host)
	assert.Equal(t, 587, cfg.smtp.port)
	assert.Equal(t, "s3cret", cfg.jwt.secret)
	assert.False(t, cfg.jwt.generated)
	assert.Equal(t, 90*time.Minute, cfg.jwt.lifetime)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.cors.trustedOrigins)
}

func TestParseConfigFlagsOverrideEnvironment(t *testing.T) {
	cfg, err := parseConfig([]string{
		"--port=9000",
		"--storage", "memory",
		"--jwt-lifetime=30m",
		"--limiter-enabled=false",
		"--log-level=debug",
	}, envOf(map[string]string{"PORT": "8080", "STORAGE": "postgres"}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.port)
	assert.Equal(t, storage.BackendMemory, cfg.db.Backend)
	assert.Equal(t, 30*time.Minute, cfg.jwt.lifetime)
	assert.False(t, cfg.limiter.enabled)
	assert.Equal(t, "debug", cfg.logLevel)
}

func TestParseConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{"postgres without dsn", nil, nil, "db-dsn must be set"},
		{"unknown backend", []string{"--storage=sqlite"}, nil, `unknown storage backend "sqlite"`},
		{"unknown env", []string{"--storage=memory", "--env=qa"}, nil, `unknown env "qa"`},
		{"unknown log level", []string{"--storage=memory", "--log-level=loud"}, nil, `unknown log level "loud"`},
		{"port out of range", []string{"--storage=memory", "--port=70000"}, nil, "port 70000 out of range"},
		{"zero lifetime", []string{"--storage=memory", "--jwt-lifetime=0s"}, nil, "jwt-lifetime must be at least 1s"},
		{"sub-second lifetime", []string{"--storage=memory", "--jwt-lifetime=500ms"}, nil, "jwt-lifetime must be at least 1s"},
		{"zero burst", []string{"--storage=memory", "--limiter-burst=0"}, nil, "limiter-rps and limiter-burst must be positive"},
		{"bad env port", nil, map[string]string{"PORT": "eighty"}, "invalid PORT"},
		{"bad env lifetime", nil, map[string]string{"JWT_LIFETIME": "forever"}, "invalid JWT_LIFETIME"},
		{"unknown flag", []string{"--storage=memory", "--colour=red"}, nil, "unknown flag: --colour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(tt.args, envOf(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("production", "warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	_, err = newLogger("development", "chatty")
	assert.Error(t, err)
}
