// Package ingest runs the fetch-parse-store pipeline that populates the
// epoch store from the upstream ephemeris feed.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/iss-telemetry/internal/feed"
	"github.com/couchcryptid/iss-telemetry/internal/observability"
	"github.com/couchcryptid/iss-telemetry/internal/store"
)

// Fetcher retrieves the raw feed document.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// DocumentParser converts a raw feed document into an Ephemeris.
type DocumentParser interface {
	Parse(raw []byte) (*feed.Ephemeris, error)
}

// Ingestor drives ingestion: once at startup with retry, then optionally on
// a refresh interval. A failed refresh keeps the last good generation
// serving; the store is only ever replaced by a fully parsed feed.
type Ingestor struct {
	fetcher  Fetcher
	parser   DocumentParser
	store    store.Store
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates an Ingestor. interval 0 disables periodic refresh.
func New(fetcher Fetcher, parser DocumentParser, st store.Store, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Ingestor {
	return &Ingestor{
		fetcher:  fetcher,
		parser:   parser,
		store:    st,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once at least one ingestion has succeeded.
func (g *Ingestor) CheckReadiness(_ context.Context) error {
	if !g.ready.Load() {
		return errors.New("no ephemeris ingested yet")
	}
	return nil
}

// Run performs the initial ingestion, retrying with exponential backoff
// until it succeeds or the context is cancelled, then re-ingests on the
// configured interval.
func (g *Ingestor) Run(ctx context.Context) error {
	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		err := g.IngestOnce(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil
		}
		g.logger.Error("initial ingestion failed, retrying", "error", err, "backoff", backoff)
		if !sleepWithContext(ctx, backoff) {
			return nil
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}

	if g.interval <= 0 {
		g.logger.Info("periodic refresh disabled")
		return nil
	}

	g.logger.Info("periodic refresh enabled", "interval", g.interval)
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("ingestor stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := g.IngestOnce(ctx); err != nil && ctx.Err() == nil {
				// Fail closed: the previous generation keeps serving.
				g.logger.Error("refresh failed, keeping current dataset", "error", err)
			}
		}
	}
}

// IngestOnce executes one fetch-parse-store cycle.
func (g *Ingestor) IngestOnce(ctx context.Context) error {
	start := time.Now()

	raw, err := g.fetcher.Fetch(ctx)
	if err != nil {
		g.metrics.IngestRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("fetch feed: %w", err)
	}

	eph, err := g.parser.Parse(raw)
	if err != nil {
		g.metrics.IngestRuns.WithLabelValues("error").Inc()
		return err
	}

	if err := g.store.PutAll(ctx, eph.Metadata, eph.Records); err != nil {
		g.metrics.IngestRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("store ephemeris: %w", err)
	}

	g.metrics.IngestRuns.WithLabelValues("success").Inc()
	g.metrics.IngestSkipped.Add(float64(eph.Skipped))
	g.metrics.EpochsStored.Set(float64(len(eph.Records)))
	g.metrics.IngestDuration.Observe(time.Since(start).Seconds())
	g.ready.Store(true)

	g.logger.Info("ephemeris ingested",
		"object", eph.Metadata.ObjectName,
		"records", len(eph.Records),
		"skipped", eph.Skipped,
		"duration", time.Since(start),
	)
	return nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
