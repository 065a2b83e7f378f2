package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"carespace-backend/config"
	"carespace-backend/internal/api"
	"carespace-backend/internal/availability"
	"carespace-backend/internal/booking"
	"carespace-backend/internal/db"
	"carespace-backend/internal/logging"
	"carespace-backend/internal/metrics"
	"carespace-backend/internal/store"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Env, cfg.Logging.Level)
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath), zap.String("timezone", cfg.Location.String()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledger, err := openLedger(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize booking storage", zap.Error(err))
	}

	ref := store.LoadReference(cfg.Data, logger)
	appStore := store.New(ctx, ref, ledger, cfg.Location, logger)

	m := metrics.NewBookingMetrics(nil)
	engine := availability.NewEngine(appStore, cfg, logger, m)
	bookings := booking.NewService(appStore, logger, m)

	router := api.NewRouter(cfg, api.Deps{
		Store:    appStore,
		Engine:   engine,
		Bookings: bookings,
		Metrics:  m,
		Logger:   logger,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
	}

	logger.Info("server gracefully stopped")
}

// openLedger picks the booking store named by storage.driver.
func openLedger(cfg *config.Config, logger *zap.Logger) (store.Ledger, error) {
	if cfg.Storage.Driver == "csv" {
		path := cfg.Data.DataPath(cfg.Data.BookingsFile)
		logger.Info("bookings stored in CSV", zap.String("file", path))
		return store.NewCSVLedger(path, cfg.Location, logger), nil
	}

	gormDB, err := db.Init(&cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("bookings stored in database", zap.String("driver", cfg.Storage.Driver))
	return store.NewGormLedger(gormDB), nil
}
