package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bikeshare-platform/internal/config"
	"bikeshare-platform/internal/dataset"
	"bikeshare-platform/internal/exporter"
	"bikeshare-platform/internal/repository"
	"bikeshare-platform/pkg/database"
	"bikeshare-platform/pkg/logging"
	"bikeshare-platform/pkg/metrics"
)

func main() {
	csvPath := flag.String("csv", "", "Path to the day-level bike sharing CSV (default: DATASET_PATH)")
	batchSize := flag.Int("batch-size", 200, "Number of records per snapshot batch")
	parquetOut := flag.String("parquet-out", "", "Optional path to write a parquet copy of the enriched table")
	skipDB := flag.Bool("skip-db", false, "Skip the Postgres snapshot (parquet export only)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *csvPath == "" {
		*csvPath = cfg.Dataset.Path
	}

	logger := logging.NewStructuredLogger("bikeshare-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting dataset snapshot ingestion", logging.Fields{
		"version":     "1.0.0",
		"csv_path":    *csvPath,
		"batch_size":  *batchSize,
		"parquet_out": *parquetOut,
	})

	metricsCollector := metrics.NewCollector("bikeshare_ingester")

	startTime := time.Now()

	// Load and enrich the full table up front: any load, parse or mapping
	// error aborts the run before a single row is written.
	table, err := dataset.LoadAndEnrich(*csvPath)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to load dataset", logging.Fields{
			"csv_path": *csvPath,
		}, err)
	}

	logger.Info(ctx, "[INGESTER_LOADED] Dataset loaded and enriched", logging.Fields{
		"rows": len(table),
	})

	snapshotted := 0
	if !*skipDB {
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
			logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		rentalRepo := repository.NewRentalRepository(db, logger, metricsCollector)

		for start := 0; start < len(table); start += *batchSize {
			end := start + *batchSize
			if end > len(table) {
				end = len(table)
			}

			if err := rentalRepo.CreateRentalsBatch(ctx, table[start:end]); err != nil {
				metricsCollector.RecordIngestionError("batch_error")
				logger.Fatal(ctx, "[INGESTER_ERROR] Failed to snapshot batch", logging.Fields{
					"batch_start": start,
					"batch_end":   end,
				}, err)
			}
			snapshotted += end - start
		}
	}

	if *parquetOut != "" {
		data, err := exporter.WriteParquet(table)
		if err != nil {
			logger.Fatal(ctx, "[INGESTER_ERROR] Parquet serialization failed", logging.Fields{
				"parquet_out": *parquetOut,
			}, err)
		}

		if err := os.WriteFile(*parquetOut, data, 0o644); err != nil {
			logger.Fatal(ctx, "[INGESTER_ERROR] Failed to write parquet file", logging.Fields{
				"parquet_out": *parquetOut,
			}, err)
		}

		metricsCollector.RecordExport("parquet")
	}

	duration := time.Since(startTime)
	metricsCollector.IngestionDuration.Observe(duration.Seconds())

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("SNAPSHOT COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Rows Loaded:        %d\n", len(table))
	fmt.Printf("Rows Snapshotted:   %d\n", snapshotted)
	if *parquetOut != "" {
		fmt.Printf("Parquet Written:    %s\n", *parquetOut)
	}
	fmt.Printf("Duration:           %v\n", duration)

	logger.Info(ctx, "[INGESTER_COMPLETE] Snapshot ingestion completed", logging.Fields{
		"rows_loaded":      len(table),
		"rows_snapshotted": snapshotted,
		"duration_seconds": duration.Seconds(),
	})
}
