package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/iss-telemetry/internal/domain"
	"github.com/couchcryptid/iss-telemetry/internal/store"
)

var feedStart = time.Date(2024, time.February, 21, 12, 0, 0, 0, time.UTC)

func seededStore(t *testing.T, n int) store.Store {
	t.Helper()
	records := make([]domain.EpochRecord, n)
	for i := range records {
		records[i] = domain.EpochRecord{
			Index:     i,
			Timestamp: feedStart.Add(time.Duration(i) * 4 * time.Minute),
			Position:  domain.Vector3{X: 4000 + float64(i), Y: 1000, Z: 4400},
			Velocity:  domain.Vector3{X: 3, Y: 4, Z: 0},
		}
	}
	s := store.NewMemoryStore()
	require.NoError(t, s.PutAll(context.Background(), domain.FeedMetadata{ObjectName: "ISS"}, records))
	return s
}

type fixedGeocoder struct {
	result domain.GeocodingResult
	err    error
}

func (f *fixedGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	return f.result, f.err
}

func newService(st store.Store, geocoder domain.Geocoder, now time.Time) *Service {
	return New(st, geocoder, clockwork.NewFakeClockAt(now),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListEpochs_Pagination(t *testing.T) {
	svc := newService(seededStore(t, 25), nil, feedStart)
	ctx := context.Background()

	page, err := svc.ListEpochs(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page.Records, 10)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 0, page.Records[0].Index)

	page, err = svc.ListEpochs(ctx, 10, 20)
	require.NoError(t, err)
	assert.Len(t, page.Records, 5)
	assert.Equal(t, 20, page.Records[0].Index)

	page, err = svc.ListEpochs(ctx, 10, 25)
	require.NoError(t, err)
	assert.Empty(t, page.Records)

	page, err = svc.ListEpochs(ctx, 10, 9000)
	require.NoError(t, err)
	assert.Empty(t, page.Records)
}

func TestListEpochs_InvalidArguments(t *testing.T) {
	svc := newService(seededStore(t, 5), nil, feedStart)
	ctx := context.Background()

	_, err := svc.ListEpochs(ctx, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.ListEpochs(ctx, -3, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.ListEpochs(ctx, 10, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetEpoch(t *testing.T) {
	svc := newService(seededStore(t, 5), nil, feedStart)
	ctx := context.Background()

	rec, err := svc.GetEpoch(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Index)

	_, err = svc.GetEpoch(ctx, 5)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.GetEpoch(ctx, -1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetSpeed(t *testing.T) {
	svc := newService(seededStore(t, 5), nil, feedStart)

	speed, err := svc.GetSpeed(context.Background(), 0)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, speed, 1e-12) // 3-4-5 triangle

	_, err = svc.GetSpeed(context.Background(), 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetLocation_WithPlaceName(t *testing.T) {
	geocoder := &fixedGeocoder{result: domain.GeocodingResult{DisplayName: "Lajitas, Brewster County, Texas"}}
	svc := newService(seededStore(t, 5), geocoder, feedStart)

	loc, err := svc.GetLocation(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Lajitas, Brewster County, Texas", loc.Place)
	assert.GreaterOrEqual(t, loc.Latitude, -90.0)
	assert.LessOrEqual(t, loc.Latitude, 90.0)
	assert.Greater(t, loc.Longitude, -180.0)
	assert.LessOrEqual(t, loc.Longitude, 180.0)
}

func TestGetLocation_GeocoderUnavailableDegrades(t *testing.T) {
	geocoder := &fixedGeocoder{err: context.DeadlineExceeded}
	svc := newService(seededStore(t, 5), geocoder, feedStart)

	loc, err := svc.GetLocation(context.Background(), 1)
	require.NoError(t, err, "geocoding failure must not fail the request")
	assert.Equal(t, domain.UnknownPlace, loc.Place)
}

func TestNearest_PicksClosestEpoch(t *testing.T) {
	st := seededStore(t, 3) // epochs at +0, +4, +8 minutes

	tests := []struct {
		name      string
		now       time.Time
		wantIndex int
	}{
		{name: "before first", now: feedStart.Add(-time.Hour), wantIndex: 0},
		{name: "exactly first", now: feedStart, wantIndex: 0},
		{name: "between t1 and t2 closer to t1", now: feedStart.Add(5 * time.Minute), wantIndex: 1},
		{name: "between t1 and t2 closer to t2", now: feedStart.Add(7 * time.Minute), wantIndex: 2},
		{name: "after last", now: feedStart.Add(time.Hour), wantIndex: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(st, nil, tt.now)
			snap, err := svc.Nearest(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndex, snap.Record.Index)
		})
	}
}

func TestNearest_ExactTieKeepsLowestIndex(t *testing.T) {
	st := seededStore(t, 3)
	// Midpoint between epoch 0 and epoch 1: both 2 minutes away.
	svc := newService(st, nil, feedStart.Add(2*time.Minute))

	snap, err := svc.Nearest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Record.Index)
}

func TestNearest_IncludesSpeedAndLocation(t *testing.T) {
	geocoder := &fixedGeocoder{result: domain.GeocodingResult{DisplayName: "Somewhere"}}
	svc := newService(seededStore(t, 3), geocoder, feedStart)

	snap, err := svc.Nearest(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 5.0, snap.Speed, 1e-12)
	assert.Equal(t, "Somewhere", snap.Location.Place)
}

func TestNearest_EmptyStore(t *testing.T) {
	svc := newService(store.NewMemoryStore(), nil, feedStart)

	_, err := svc.Nearest(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)
}
