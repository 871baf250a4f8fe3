// Command tracker serves the ISS telemetry query API. It ingests the NASA
// OEM ephemeris feed at startup and answers epoch queries until stopped.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/iss-telemetry/internal/adapter/http"
	"github.com/couchcryptid/iss-telemetry/internal/adapter/nominatim"
	"github.com/couchcryptid/iss-telemetry/internal/config"
	"github.com/couchcryptid/iss-telemetry/internal/domain"
	"github.com/couchcryptid/iss-telemetry/internal/feed"
	"github.com/couchcryptid/iss-telemetry/internal/ingest"
	"github.com/couchcryptid/iss-telemetry/internal/observability"
	"github.com/couchcryptid/iss-telemetry/internal/service"
	"github.com/couchcryptid/iss-telemetry/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Store backend: in-memory snapshot by default, SQLite for persistence
	// across restarts.
	var epochStore store.Store
	switch cfg.StoreDriver {
	case "sqlite":
		sqliteStore, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Error("failed to open sqlite store", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		epochStore = sqliteStore
		logger.Info("using sqlite store", "path", cfg.SQLitePath)
	default:
		epochStore = store.NewMemoryStore()
		logger.Info("using in-memory store")
	}

	// Reverse geocoding is feature-flagged; disabled resolves every place
	// name to the over-water sentinel.
	var geocoder domain.Geocoder
	if cfg.GeocoderEnabled {
		client := nominatim.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, metrics, logger)
		geocoder = nominatim.NewCachedGeocoder(client, cfg.GeocoderCacheSize, metrics)
		logger.Info("reverse geocoding enabled", "base_url", cfg.GeocoderBaseURL, "cache_size", cfg.GeocoderCacheSize)
	} else {
		logger.Info("reverse geocoding disabled")
	}

	fetcher := feed.NewClient(cfg.FeedURL, cfg.FeedTimeout, logger)
	parser := feed.NewParser(logger)
	ingestor := ingest.New(fetcher, parser, epochStore, cfg.RefreshInterval, logger, metrics)

	queries := service.New(epochStore, geocoder, clockwork.NewRealClock(), logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, queries, ingestor, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ingestion.
	go func() {
		if err := ingestor.Run(ctx); err != nil {
			logger.Error("ingestor error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
