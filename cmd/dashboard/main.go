package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/nyc-building-dashboard/internal/adapter/boundary"
	"github.com/couchcryptid/nyc-building-dashboard/internal/adapter/csvsource"
	httpadapter "github.com/couchcryptid/nyc-building-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/nyc-building-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/nyc-building-dashboard/internal/adapter/mapbox"
	"github.com/couchcryptid/nyc-building-dashboard/internal/config"
	"github.com/couchcryptid/nyc-building-dashboard/internal/dashboard"
	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
	"github.com/couchcryptid/nyc-building-dashboard/internal/observability"
	"github.com/couchcryptid/nyc-building-dashboard/internal/pipeline"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ds, err := csvsource.Load(cfg.DatasetPath)
	if err != nil {
		logger.Error("failed to load dataset", "path", cfg.DatasetPath, "error", err)
		os.Exit(1)
	}
	metrics.DatasetRows.Set(float64(ds.Len()))
	metrics.DatasetZipCodes.Set(float64(len(ds.ZipCodes())))
	metrics.DatasetSkippedRows.Set(float64(ds.Skipped()))
	logger.Info("dataset loaded",
		"path", cfg.DatasetPath,
		"rows", ds.Len(),
		"zip_codes", len(ds.ZipCodes()),
		"skipped", ds.Skipped(),
		"has_location", ds.HasLocation(),
	)

	boundaries, err := boundary.Load(cfg.BoundaryPath, cfg.BoundaryKey)
	if err != nil {
		logger.Error("failed to load boundaries", "path", cfg.BoundaryPath, "error", err)
		os.Exit(1)
	}
	metrics.BoundaryFeatures.Set(float64(boundaries.Len()))
	logger.Info("boundaries loaded", "path", cfg.BoundaryPath, "features", boundaries.Len(), "key", cfg.BoundaryKey)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional interaction event sink (feature-flagged via EVENTS_ENABLED / EVENTS_KAFKA_BROKERS).
	var (
		sink       dashboard.EventSink
		writer     *kafkaadapter.Writer
		eventsDone = make(chan struct{})
	)
	if cfg.EventsEnabled {
		writer = kafkaadapter.NewWriter(cfg.EventsBrokers, cfg.EventsTopic, logger)
		events := pipeline.New(writer, logger, metrics, pipeline.Options{
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.BatchFlushInterval,
		})
		sink = events
		go func() {
			defer close(eventsDone)
			if err := events.Run(ctx); err != nil {
				logger.Error("event pipeline error", "error", err)
			}
		}()
		logger.Info("interaction events enabled", "brokers", cfg.EventsBrokers, "topic", cfg.EventsTopic)
	} else {
		close(eventsDone)
	}

	d := dashboard.NewDispatcher(&dashboard.State{
		Dataset:     ds,
		Boundaries:  boundaries,
		Geocoder:    geocoder,
		BoundaryURL: httpadapter.BoundaryPath,
		BoundaryKey: cfg.BoundaryKey,
		Logger:      logger,
	}, dashboard.Options{
		StylesheetURL: cfg.StylesheetURL,
		Metrics:       metrics,
		Sink:          sink,
		Logger:        logger,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, d, cfg.Debug, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-eventsDone:
	case <-shutdownCtx.Done():
		logger.Warn("event pipeline did not drain before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
