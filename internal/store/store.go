// Package store persists one generation of ingested epoch records keyed by
// their feed-order index.
package store

import (
	"context"
	"errors"

	"github.com/couchcryptid/iss-telemetry/internal/domain"
)

// ErrNotFound is returned by Get for an index outside [0, Count).
var ErrNotFound = errors.New("epoch not found")

// Store is a keyed container for one ingestion generation of epoch records.
//
// PutAll replaces the entire prior contents atomically with respect to
// readers: a concurrent reader observes either the fully-old or fully-new
// generation, never a mix.
type Store interface {
	// PutAll replaces all stored records and feed metadata.
	PutAll(ctx context.Context, meta domain.FeedMetadata, records []domain.EpochRecord) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Get returns the record at the given index, or ErrNotFound.
	Get(ctx context.Context, index int) (domain.EpochRecord, error)

	// Range returns at most limit records starting at offset, in index
	// order. Out-of-range offsets clamp to an empty result, never an error.
	Range(ctx context.Context, offset, limit int) ([]domain.EpochRecord, error)

	// Metadata returns the feed metadata of the current generation; the
	// zero value before the first successful PutAll.
	Metadata(ctx context.Context) (domain.FeedMetadata, error)
}
