package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/events"
	httpapi "github.com/aussiebroadwan/profiles/internal/profiles/http"
	"github.com/aussiebroadwan/profiles/internal/profiles/notify"
	"github.com/aussiebroadwan/profiles/internal/profiles/service"
	"github.com/aussiebroadwan/profiles/internal/profiles/session"
	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"github.com/aussiebroadwan/profiles/internal/profiles/store/drivers/postgres"
	"github.com/aussiebroadwan/profiles/internal/profiles/store/drivers/sqlite"
	"github.com/aussiebroadwan/profiles/pkg/cryptox"
	"github.com/aussiebroadwan/profiles/pkg/slogx"
)

// BuildVersion is overridden at build time with
// -ldflags "-X github.com/aussiebroadwan/profiles/internal/profiles/app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// sessionBackend both issues and verifies session tokens.
type sessionBackend interface {
	session.Issuer
	session.Verifier
}

// Application encapsulates the profiles service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	hasher   *cryptox.Argon2id
	sessions sessionBackend
	mailer   notify.Publisher

	// Services
	userProfileService *service.UserProfileService
	profileService     *service.ProfileService
	outboxRelay        *service.OutboxRelay

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "profiles-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	pepper, err := cryptox.LoadPepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewArgon2id(pepper, cryptox.DefaultParams)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSessions(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initMailer(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.outboxRelay.Start()

	app.logger.Info("profiles service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		app.outboxRelay.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down profiles service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Requests are drained, so no new outbox rows can appear behind the relay.
	app.outboxRelay.Stop()

	if c, ok := app.mailer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			app.logger.Error("error closing mail publisher", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("profiles service stopped")
	return nil
}

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns:        app.cfg.DBMaxConns,
			MinConns:        app.cfg.DBMinConns,
			MaxConnLifetime: app.cfg.DBMaxConnLifetime,
			AcquireTimeout:  app.cfg.DBAcquireTimeout,
		})
	default:
		host := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(host, sqlite.WithAcquireTimeout(app.cfg.DBAcquireTimeout))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initSessions picks the remote session service when configured, local JWT
// sessions otherwise.
func (app *Application) initSessions() error {
	if app.cfg.SessionServiceURL != "" {
		app.sessions = session.NewRemoteIssuer(app.cfg.SessionServiceURL)
		app.logger.Info("using remote session service", "url", app.cfg.SessionServiceURL)
		return nil
	}

	secret := []byte(app.cfg.SessionSecret)
	if len(secret) == 0 {
		generated, err := cryptox.GenerateSecret(cryptox.TokenSize256)
		if err != nil {
			return fmt.Errorf("failed to generate session secret: %w", err)
		}
		secret = generated
		app.logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}

	issuer, err := session.NewJWTIssuer(secret, app.cfg.SessionIssuer, app.cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize sessions: %w", err)
	}
	app.sessions = issuer
	return nil
}

func (app *Application) initMailer() error {
	if app.cfg.RabbitMQURL == "" {
		app.mailer = notify.LogPublisher{Logger: app.logger}
		app.logger.Warn("RABBITMQ_URL not set, email jobs will only be logged")
		return nil
	}

	publisher, err := notify.NewRabbitPublisher(app.cfg.RabbitMQURL, app.cfg.RabbitMQEmailQueue)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	app.mailer = publisher
	app.logger.Info("email jobs published to rabbitmq", "queue", app.cfg.RabbitMQEmailQueue)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	router := events.NewRouter(events.State{
		Users:            app.db.Users(),
		Mailer:           app.mailer,
		ResetPasswordURL: app.cfg.ResetPasswordURL,
	})

	app.userProfileService = service.NewUserProfileService(app.db, router, app.sessions, app.hasher)
	app.profileService = service.NewProfileService(app.db)

	app.outboxRelay = service.NewOutboxRelay(
		app.userProfileService.Publisher(),
		app.logger,
		app.cfg.OutboxRelayInterval,
		app.cfg.OutboxRelayGrace,
		app.cfg.OutboxRelayBatch,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.sessions,
		app.cfg.RateLimits,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.UserProfileService = app.userProfileService
	router.ProfileService = app.profileService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
