// Package service answers epoch queries against the current store
// generation: pagination, point lookup, derived speed and location, and
// the nearest-to-now search.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/iss-telemetry/internal/domain"
	"github.com/couchcryptid/iss-telemetry/internal/store"
)

// DefaultLimit is the page size used when a list request names none.
const DefaultLimit = 10

var (
	// ErrInvalidArgument marks client-correctable query parameter errors.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmpty means the store holds no records, so no query can be answered.
	ErrEmpty = errors.New("no epochs ingested")
)

// Service is stateless per request; every answer depends only on the
// store's current generation and, for Nearest, the injected clock.
type Service struct {
	store    store.Store
	geocoder domain.Geocoder // nil disables place-name resolution
	clock    clockwork.Clock
	logger   *slog.Logger
}

// New creates a query service. Pass a nil geocoder to resolve every place
// name to domain.UnknownPlace.
func New(st store.Store, geocoder domain.Geocoder, clock clockwork.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:    st,
		geocoder: geocoder,
		clock:    clock,
		logger:   logger,
	}
}

// EpochPage is one window into the stored records.
type EpochPage struct {
	Records []domain.EpochRecord
	Limit   int
	Offset  int
	Total   int
}

// Location is a geodetic point plus its resolved place name.
type Location struct {
	domain.GeodeticPoint
	Place string
}

// Snapshot is the full answer for one epoch: state vector, speed, location.
type Snapshot struct {
	Record   domain.EpochRecord
	Speed    float64
	Location Location
}

// ListEpochs validates the pagination window and returns the matching
// records in index order. Offsets beyond the dataset clamp to an empty page.
func (s *Service) ListEpochs(ctx context.Context, limit, offset int) (EpochPage, error) {
	if limit <= 0 {
		return EpochPage{}, fmt.Errorf("%w: limit must be a positive integer, got %d", ErrInvalidArgument, limit)
	}
	if offset < 0 {
		return EpochPage{}, fmt.Errorf("%w: offset must be a non-negative integer, got %d", ErrInvalidArgument, offset)
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return EpochPage{}, fmt.Errorf("count epochs: %w", err)
	}
	records, err := s.store.Range(ctx, offset, limit)
	if err != nil {
		return EpochPage{}, fmt.Errorf("range epochs: %w", err)
	}

	return EpochPage{Records: records, Limit: limit, Offset: offset, Total: total}, nil
}

// GetEpoch returns the record at index; store.ErrNotFound if out of range.
func (s *Service) GetEpoch(ctx context.Context, index int) (domain.EpochRecord, error) {
	return s.store.Get(ctx, index)
}

// GetSpeed returns the instantaneous speed (km/s) of the epoch at index.
func (s *Service) GetSpeed(ctx context.Context, index int) (float64, error) {
	rec, err := s.store.Get(ctx, index)
	if err != nil {
		return 0, err
	}
	return domain.Speed(rec.Velocity), nil
}

// GetLocation returns the geodetic position of the epoch at index with a
// best-effort place name. Geocoding failure degrades the place name, never
// the request.
func (s *Service) GetLocation(ctx context.Context, index int) (Location, error) {
	rec, err := s.store.Get(ctx, index)
	if err != nil {
		return Location{}, err
	}
	return s.locate(ctx, rec), nil
}

// Nearest returns the full snapshot of the epoch whose timestamp is closest
// to the current instant; exact ties resolve to the lowest index.
func (s *Service) Nearest(ctx context.Context) (Snapshot, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("count epochs: %w", err)
	}
	if count == 0 {
		return Snapshot{}, ErrEmpty
	}

	records, err := s.store.Range(ctx, 0, count)
	if err != nil {
		return Snapshot{}, fmt.Errorf("range epochs: %w", err)
	}
	if len(records) == 0 {
		return Snapshot{}, ErrEmpty
	}

	// Linear scan; the feed window holds a few thousand records at most.
	// Strict < keeps the lowest index on exact ties.
	now := s.clock.Now()
	best := records[0]
	bestDiff := absDuration(best.Timestamp.Sub(now))
	for _, rec := range records[1:] {
		if diff := absDuration(rec.Timestamp.Sub(now)); diff < bestDiff {
			best, bestDiff = rec, diff
		}
	}

	return Snapshot{
		Record:   best,
		Speed:    domain.Speed(best.Velocity),
		Location: s.locate(ctx, best),
	}, nil
}

// Metadata returns the feed metadata of the current generation.
func (s *Service) Metadata(ctx context.Context) (domain.FeedMetadata, error) {
	return s.store.Metadata(ctx)
}

func (s *Service) locate(ctx context.Context, rec domain.EpochRecord) Location {
	point := domain.Geodetic(rec.Position, rec.Timestamp)
	place := domain.ResolvePlaceName(ctx, s.geocoder, point.Latitude, point.Longitude, s.logger)
	return Location{GeodeticPoint: point, Place: place}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
