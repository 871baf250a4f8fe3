package store

import (
	"context"
	"sync/atomic"

	"github.com/couchcryptid/iss-telemetry/internal/domain"
)

// generation is one immutable ingestion result. Records are never mutated
// after the swap, so readers may share the slice freely.
type generation struct {
	meta    domain.FeedMetadata
	records []domain.EpochRecord
}

// MemoryStore holds the current generation behind an atomic pointer.
// PutAll builds a fresh generation and swaps the pointer, so readers always
// see a consistent snapshot without locking.
type MemoryStore struct {
	current atomic.Pointer[generation]
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.current.Store(&generation{})
	return s
}

func (s *MemoryStore) PutAll(_ context.Context, meta domain.FeedMetadata, records []domain.EpochRecord) error {
	// Copy so later mutation of the caller's slice cannot leak into the
	// published generation.
	owned := make([]domain.EpochRecord, len(records))
	copy(owned, records)
	s.current.Store(&generation{meta: meta, records: owned})
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	return len(s.current.Load().records), nil
}

func (s *MemoryStore) Get(_ context.Context, index int) (domain.EpochRecord, error) {
	records := s.current.Load().records
	if index < 0 || index >= len(records) {
		return domain.EpochRecord{}, ErrNotFound
	}
	return records[index], nil
}

func (s *MemoryStore) Range(_ context.Context, offset, limit int) ([]domain.EpochRecord, error) {
	records := s.current.Load().records
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) || limit <= 0 {
		return nil, nil
	}
	end := offset + limit
	if end > len(records) || end < 0 { // end < 0 guards offset+limit overflow
		end = len(records)
	}
	return records[offset:end], nil
}

func (s *MemoryStore) Metadata(_ context.Context) (domain.FeedMetadata, error) {
	return s.current.Load().meta, nil
}
