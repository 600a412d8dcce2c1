package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/internal/session/gate"
	httpapi "github.com/aussiebroadwan/examania/internal/session/http"
	"github.com/aussiebroadwan/examania/internal/session/metrics"
	"github.com/aussiebroadwan/examania/internal/session/service"
	"github.com/aussiebroadwan/examania/internal/session/store"
	"github.com/aussiebroadwan/examania/internal/session/store/drivers/sqlite"
	"github.com/aussiebroadwan/examania/pkg/cryptox"
	"github.com/aussiebroadwan/examania/pkg/jwtx"
	"github.com/aussiebroadwan/examania/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// BuildVersion is overridden at build time via -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application wires the session service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db        store.Store
	codec     *jwtx.Codec
	hasher    *cryptox.Hasher
	registry  *prometheus.Registry
	collector *metrics.Collector

	accountService   *service.AccountService
	renewer          *service.RenewalCoordinator
	bootstrapService *service.BootstrapService
	gate             *gate.Gate

	server *http.Server
	router *httpapi.Router
}

func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "session-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initCrypto(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initMetrics()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mostly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("session service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"access_ttl", app.cfg.AccessTTL,
		"refresh_ttl", app.cfg.RefreshTTL,
		"cookie_secure", app.cfg.CookieSecure,
		"bootstrap_enabled", app.bootstrapService.Enabled(),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
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
	app.logger.Info("shutting down session service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("session service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initCrypto() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	app.hasher, err = cryptox.NewHasher(pepper)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	app.codec, err = jwtx.NewCodec(
		[]byte(app.cfg.AccessSecret),
		[]byte(app.cfg.RefreshSecret),
		jwtx.WithIssuer(app.cfg.Issuer),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}

	return nil
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.collector = metrics.NewCollector(app.registry)
}

func (app *Application) initServices() {
	// Validate already checked the role
	defaultRole, _ := domain.ParseRole(app.cfg.DefaultRole)

	directory := service.NewStoreDirectory(app.db)
	issuer := service.NewSessionIssuer(app.codec, app.cfg.AccessTTL, app.cfg.RefreshTTL)
	verifier := service.NewSessionVerifier(app.codec)

	app.accountService = &service.AccountService{
		Directory:   directory,
		Credentials: app.hasher,
		Issuer:      issuer,
		Observer:    app.collector,
		DefaultRole: defaultRole,
	}

	app.renewer = &service.RenewalCoordinator{
		Verifier:  verifier,
		Issuer:    issuer,
		Directory: directory,
		Observer:  app.collector,
		Timeout:   app.cfg.RenewalTimeout,
		Retries:   app.cfg.RenewalRetries,
	}

	app.bootstrapService = &service.BootstrapService{
		Store:       app.db,
		Credentials: app.hasher,
		Token:       app.cfg.BootstrapToken,
	}

	app.gate = gate.New(app.cfg.Routes(), verifier, app.renewer, app.cfg.RenewalThreshold)
	app.gate.Observer = app.collector
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.codec, BuildVersion, app.db, app.logger)

	router.Cookies = httpapi.Cookies{
		Secure:     app.cfg.CookieSecure,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	router.Gate = app.gate
	router.AccountService = app.accountService
	router.Renewer = app.renewer
	router.BootstrapService = app.bootstrapService
	router.Metrics = metrics.Handler(app.registry)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
