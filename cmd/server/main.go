package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bikeshare-platform/internal/config"
	"bikeshare-platform/internal/dataset"
	"bikeshare-platform/internal/handlers"
	"bikeshare-platform/internal/repository"
	"bikeshare-platform/internal/services"
	"bikeshare-platform/pkg/database"
	"bikeshare-platform/pkg/logging"
	"bikeshare-platform/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("bikeshare-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting bike sharing analytics API server", logging.Fields{
		"version":        "1.0.0",
		"server_host":    cfg.Server.Host,
		"server_port":    cfg.Server.Port,
		"dataset_source": cfg.Dataset.Source,
		"dataset_path":   cfg.Dataset.Path,
	})

	metricsCollector := metrics.NewCollector("bikeshare_platform")

	// The snapshot database is only needed when serving from Postgres.
	var rentalRepo repository.RentalRepository
	if cfg.Dataset.Source == config.SourcePostgres {
		dbConfig := &database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}

		db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		rentalRepo = repository.NewRentalRepository(db, logger, metricsCollector)
	}

	cache := dataset.NewCache(dataset.LoadAndEnrich)
	dataService := services.NewDatasetService(cache, rentalRepo, cfg.Dataset, logger, metricsCollector)
	analyticsService := services.NewAnalyticsService(dataService, logger, metricsCollector)

	// Warm the table at startup: load and enrichment failures are fatal,
	// no partial table is ever served.
	table, err := dataService.Table(ctx)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load dataset", logging.Fields{
			"source": cfg.Dataset.Source,
			"path":   cfg.Dataset.Path,
		}, err)
	}

	logger.Info(ctx, "[DATASET_READY] Enriched table loaded", logging.Fields{
		"rows":   len(table),
		"source": cfg.Dataset.Source,
	})

	rentalHandler := handlers.NewRentalHandler(analyticsService, dataService, logger, metricsCollector)

	router := mux.NewRouter()
	rentalHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
