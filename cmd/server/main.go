// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "escpos-emulator/docs"
	"escpos-emulator/internal/billing"
	"escpos-emulator/internal/config"
	"escpos-emulator/internal/database"
	"escpos-emulator/internal/handler"
	"escpos-emulator/internal/repository"
	"escpos-emulator/internal/routes"
	"escpos-emulator/internal/session"
	"escpos-emulator/internal/utils"
)

// Application wires every layer of the emulator together: config, logger,
// database, repositories, the session registry and its observer chain,
// the HTTP router and the server that serves it.
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	sessionRepo repository.SessionRepository
	historyRepo repository.CommandHistoryRepository

	registry  *session.Registry
	estimator *billing.Estimator
	eventBus  *handler.EventBus
	migrator  *database.Migrator
}

// @title ESC/POS Emulator API
// @version 1.0.0
// @description Session-based ESC/POS command stream decoder and status-response emulator
// @termsOfService http://swagger.io/terms/

// @contact.name ESC/POS Emulator Support
// @contact.email support@escpos-emulator.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8084
// @BasePath /api/v1
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "escpos-emulator")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initializeRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := app.initializeSessionRegistry(); err != nil {
		return nil, fmt.Errorf("failed to initialize session registry: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeDatabase sets up the database connection and runs migrations
func (app *Application) initializeDatabase() error {
	db, err := database.NewDB(&app.config.Database, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	app.migrator = database.NewMigrator(db, app.logger, &app.config.Database)
	if err := app.migrator.Up(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeRepositories creates repository instances
func (app *Application) initializeRepositories() error {
	app.sessionRepo = repository.NewSessionRepository(app.database, app.logger)
	app.historyRepo = repository.NewCommandHistoryRepository(app.database, app.logger)

	app.logger.Info("Repositories initialized successfully")
	return nil
}

// initializeSessionRegistry wires the observer chain (persistence,
// billing, WebSocket fan-out) into a single composite Observer shared by
// every session the registry opens.
func (app *Application) initializeSessionRegistry() error {
	historyObserver := repository.NewHistoryObserver(app.historyRepo, app.logger)
	app.estimator = billing.NewEstimator(app.config.Billing)
	app.eventBus = handler.NewEventBus(app.logger)

	observers := session.Observers{historyObserver, app.estimator, app.eventBus}
	app.registry = session.NewRegistry(app.logger, observers)

	go app.eventBus.Start()

	app.logger.Info("Session registry initialized successfully")
	return nil
}

// initializeServer sets up the HTTP server and routes
func (app *Application) initializeServer() error {
	router := routes.NewRouter(
		app.config,
		app.logger,
		app.database,
		app.registry,
		app.sessionRepo,
		app.historyRepo,
		app.estimator,
		app.eventBus,
	)

	engine := router.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      engine,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)

	return nil
}

// startCleanupService periodically prunes command-log rows older than
// commandLogRetention via the repository layer, and closed sessions older
// than sessionRetention via the migrator's purge_stale_sessions function —
// two separately-tuned retention windows, since raw command traces are
// far higher volume than session metadata and don't need to be kept as
// long.
func (app *Application) startCleanupService() {
	const (
		commandLogRetention = 30 * 24 * time.Hour
		sessionRetention    = 90 * 24 * time.Hour
	)

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	app.logger.Info("Cleanup service started")

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)

		deleted, err := app.historyRepo.DeleteOlderThan(ctx, time.Now().Add(-commandLogRetention))
		if err != nil {
			app.logger.Error("Failed to cleanup old command history", zap.Error(err))
		} else if deleted > 0 {
			app.logger.Info("Cleaned up old command history", zap.Int64("deleted", deleted))
		}

		if _, err := app.migrator.RunCleanup(sessionRetention); err != nil {
			app.logger.Error("Failed to run database cleanup", zap.Error(err))
		}

		cancel()
	}
}

// waitForShutdown waits for a shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "escpos-emulator")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}

	app.logger.Info("Application shutdown completed")
}

// Start starts the HTTP server and background services, blocking until a
// shutdown signal is received.
func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	go app.startCleanupService()

	app.waitForShutdown()

	return nil
}
