package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/weather-lake-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-lake-etl/internal/adapter/kafka"
	"github.com/couchcryptid/weather-lake-etl/internal/catalog"
	"github.com/couchcryptid/weather-lake-etl/internal/config"
	"github.com/couchcryptid/weather-lake-etl/internal/etl"
	"github.com/couchcryptid/weather-lake-etl/internal/observability"
	"github.com/couchcryptid/weather-lake-etl/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rawStore, err := storage.Open(ctx, cfg.RawRoot)
	if err != nil {
		logger.Error("failed to open raw store", "root", cfg.RawRoot, "error", err)
		os.Exit(1)
	}
	processedStore, err := storage.Open(ctx, cfg.ProcessedRoot)
	if err != nil {
		logger.Error("failed to open processed store", "root", cfg.ProcessedRoot, "error", err)
		os.Exit(1)
	}

	// Catalog verification (feature-flagged via CATALOG_CHECK / GLUE_DATABASE+GLUE_TABLE).
	if cfg.CatalogCheck {
		if err := verifyCatalog(ctx, cfg); err != nil {
			logger.Error("catalog verification failed", "error", err)
			os.Exit(1)
		}
		logger.Info("catalog schema verified", "database", cfg.GlueDatabase, "table", cfg.GlueTable)
	}

	reader := etl.NewRawReader(rawStore, cfg.Cities, logger, metrics)
	indexer := etl.NewIndexer(processedStore)
	writer := etl.NewPartitionedWriter(processedStore, logger, metrics)

	coordinator := etl.NewCoordinator(reader, indexer, writer, logger, metrics, etl.Options{
		LookbackDays: cfg.LookbackDays,
		Parallelism:  cfg.Parallelism,
		StoreTimeout: cfg.StoreTimeout,
	}, clockwork.NewRealClock())

	// HTTP endpoints are optional for a run-to-completion job; HTTP_ADDR
	// enables them for scheduled deployments that want scraping.
	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, coordinator, coordinator, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	summary, runErr := coordinator.Run(ctx)
	if runErr != nil {
		logger.Error("run failed", "error", runErr)
	}

	if runErr == nil && cfg.SummaryEnabled {
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		if err := publisher.PublishSummary(ctx, summary); err != nil {
			logger.Error("summary publish error", "error", err)
		}
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil || summary.Failed > 0 {
		os.Exit(1)
	}
}

func verifyCatalog(ctx context.Context, cfg *config.Config) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	schema, err := catalog.LoadTableSchema(ctx, glue.NewFromConfig(awsCfg), cfg.GlueDatabase, cfg.GlueTable)
	if err != nil {
		return err
	}
	return catalog.Verify(schema)
}
