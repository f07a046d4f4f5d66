package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/harlequingg/lifestrat-api/internal/analytics"
	"github.com/harlequingg/lifestrat-api/internal/auth"
	"github.com/harlequingg/lifestrat-api/internal/service"
	"github.com/harlequingg/lifestrat-api/internal/storage"
)

const version = "1.0.0"

type application struct {
	config  config
	logger  *zap.Logger
	storage *storage.Storage
	mailer  *mailer
	metrics *metrics

	tokens    *auth.TokenService
	users     *service.UserService
	auth      *service.AuthService
	spheres   *service.LifeSphereService
	projects  *service.ProjectService
	tasks     *service.TaskService
	analytics *analytics.Engine

	wg   sync.WaitGroup
	done chan struct{}
}

func newApplication(cfg config, store *storage.Storage, logger *zap.Logger) *application {
	tokens := auth.NewTokenService([]byte(cfg.jwt.secret), cfg.jwt.lifetime)
	users := service.NewUserService(store.Users)
	spheres := service.NewLifeSphereService(store.LifeSpheres)

	app := &application{
		config:    cfg,
		logger:    logger,
		storage:   store,
		metrics:   newMetrics(),
		tokens:    tokens,
		users:     users,
		auth:      service.NewAuthService(users, spheres, tokens),
		spheres:   spheres,
		projects:  service.NewProjectService(store.Projects, store.LifeSpheres),
		tasks:     service.NewTaskService(store.Tasks, store.LifeSpheres, store.Projects),
		analytics: analytics.NewEngine(store.Tasks, store.Projects),
		done:      make(chan struct{}),
	}
	if cfg.smtp.host != "" {
		app.mailer = newMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender)
	}
	return app
}

func newLogger(env, level string) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if env == "production" {
		zcfg = zap.NewProductionConfig()
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

func main() {
	// A missing .env file is fine; the environment and flags still apply.
	_ = godotenv.Load()

	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.env, cfg.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := storage.Open(cfg.db)
	if err != nil {
		logger.Fatal("open storage", zap.String("backend", cfg.db.Backend), zap.Error(err))
	}
	defer store.Close()
	logger.Info("storage ready", zap.String("backend", cfg.db.Backend))

	if cfg.jwt.generated {
		logger.Warn("no JWT secret configured, using a random one; tokens will not survive a restart")
	}
	if cfg.smtp.host == "" {
		logger.Info("smtp host not set, welcome mail disabled")
	}

	app := newApplication(cfg, store, logger)
	if err := app.serve(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// serve runs the HTTP server until SIGINT or SIGTERM, then waits for in-flight
// requests and background jobs to finish.
func (app *application) serve() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     zap.NewStdLog(app.logger),
	}

	shutdownErr := make(chan error, 1)
	go func() {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		app.logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := srv.Shutdown(ctx)
		close(app.done)
		app.wg.Wait()
		shutdownErr <- err
	}()

	app.logger.Info("starting server",
		zap.String("env", app.config.env),
		zap.Int("port", app.config.port),
		zap.String("version", version),
	)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		return err
	}
	app.logger.Info("server stopped")
	return nil
}
