package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"library/internal/api"
	"library/internal/config"
	"library/internal/manager"
	"library/internal/models"
	"library/internal/storage"
	"library/internal/storage/ch"
	"library/internal/storage/file"
	"library/internal/storage/stubs"
)

// App represents the application
type App struct {
	config *config.Config
	logger *zap.Logger

	books   storage.Store[models.Book]
	readers storage.Store[models.Reader]
	staff   storage.Store[models.Staff]
	chDB    *ch.ClickHouseDB

	server *http.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration from environment variables
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}

	return NewWithConfig(cfg, logger)
}

// NewWithConfig builds the application from an already loaded configuration
func NewWithConfig(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger}

	logger.Info("Starting Library Records service...", zap.String("storage", cfg.Backend))

	// Initialize storage
	if err := app.initStorage(context.Background()); err != nil {
		return nil, err
	}

	// Initialize HTTP server
	app.initHTTPServer()

	return app, nil
}

// initStorage opens one store per collection on the configured backend
func (a *App) initStorage(ctx context.Context) error {
	switch a.config.Backend {
	case config.BackendMemory:
		a.logger.Info("Using in-memory storage")
		a.books = stubs.NewMockStore[models.Book]()
		a.readers = stubs.NewMockStore[models.Reader]()
		a.staff = stubs.NewMockStore[models.Staff]()

	case config.BackendClickHouse:
		tlsStatus := "without TLS"
		if a.config.ClickHouseUseTLS {
			tlsStatus = "with TLS"
		}
		a.logger.Info("Connecting to ClickHouse",
			zap.String("host", a.config.ClickHouseHost),
			zap.Int("port", a.config.ClickHousePort),
			zap.String("database", a.config.ClickHouseDatabase),
			zap.String("user", a.config.ClickHouseUser),
			zap.String("tls", tlsStatus),
		)
		db, err := ch.NewClickHouseDB(
			a.config.ClickHouseHost,
			a.config.ClickHousePort,
			a.config.ClickHouseDatabase,
			a.config.ClickHouseUser,
			a.config.ClickHousePassword,
			a.config.ClickHouseUseTLS,
		)
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		if a.config.ClickHouseAutoMigrate {
			db.EnableAutoMigrate()
		}
		if err := db.Initialize(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.chDB = db
		a.books = ch.NewStore[models.Book](db, storage.EntityBooks)
		a.readers = ch.NewStore[models.Reader](db, storage.EntityReaders)
		a.staff = ch.NewStore[models.Staff](db, storage.EntityStaff)

	default:
		codec, err := file.CodecFor(a.config.StoreFormat)
		if err != nil {
			return err
		}
		path := func(entity string) string {
			return filepath.Join(a.config.DataDir, entity+codec.Ext())
		}

		books, err := file.Open[models.Book](path(storage.EntityBooks), codec, a.logger)
		if err != nil {
			return fmt.Errorf("failed to open book store: %w", err)
		}
		readers, err := file.Open[models.Reader](path(storage.EntityReaders), codec, a.logger)
		if err != nil {
			return fmt.Errorf("failed to open reader store: %w", err)
		}
		staff, err := file.Open[models.Staff](path(storage.EntityStaff), codec, a.logger)
		if err != nil {
			return fmt.Errorf("failed to open staff store: %w", err)
		}
		a.books, a.readers, a.staff = books, readers, staff
	}

	a.logger.Info("Storage initialized successfully")
	return nil
}

// initHTTPServer wires the managers into the HTTP API
func (a *App) initHTTPServer() {
	server := api.NewServer(
		manager.NewBookManager(a.books, a.logger),
		manager.NewReaderManager(a.readers, a.logger),
		manager.NewStaffManager(a.staff, a.logger),
		a.config.Backend,
		a.logger,
	)

	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Handler returns the HTTP handler serving the API
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until shutdown
func (a *App) Run() error {
	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or a server failure
	select {
	case <-sigChan:
		a.logger.Info("Shutting down...")
	case err := <-errChan:
		a.logger.Error("HTTP server error", zap.Error(err))
		a.Shutdown()
		return fmt.Errorf("http server: %w", err)
	}

	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	// Shutdown HTTP server gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	// Close stores
	err := errors.Join(a.books.Close(), a.readers.Close(), a.staff.Close())
	if a.chDB != nil {
		err = errors.Join(err, a.chDB.Close())
	}
	if err != nil {
		a.logger.Error("Error closing storage", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	a.logger.Sync()
	return nil
}
