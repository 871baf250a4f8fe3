package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/couchcryptid/iss-telemetry/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS epochs (
	idx       INTEGER PRIMARY KEY,
	epoch_utc TEXT NOT NULL,
	pos_x     REAL NOT NULL,
	pos_y     REAL NOT NULL,
	pos_z     REAL NOT NULL,
	vel_x     REAL NOT NULL,
	vel_y     REAL NOT NULL,
	vel_z     REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS feed_metadata (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	object_name TEXT NOT NULL,
	object_id   TEXT NOT NULL,
	center      TEXT NOT NULL,
	ref_frame   TEXT NOT NULL,
	time_system TEXT NOT NULL
);`

// SQLiteStore persists epoch records in a SQLite database so ingested data
// survives restarts. PutAll runs in a single transaction, which gives
// readers the same old-or-new generation guarantee as the memory store.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite-backed store at the given
// path. Pass ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// The modernc driver serializes writes per connection; a single
	// connection avoids SQLITE_BUSY during generation swaps.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) PutAll(ctx context.Context, meta domain.FeedMetadata, records []domain.EpochRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM epochs`); err != nil {
		return fmt.Errorf("clear epochs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO feed_metadata (id, object_name, object_id, center, ref_frame, time_system)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			object_name = excluded.object_name,
			object_id   = excluded.object_id,
			center      = excluded.center,
			ref_frame   = excluded.ref_frame,
			time_system = excluded.time_system`,
		meta.ObjectName, meta.ObjectID, meta.Center, meta.RefFrame, meta.TimeSystem,
	); err != nil {
		return fmt.Errorf("put metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO epochs (idx, epoch_utc, pos_x, pos_y, pos_z, vel_x, vel_y, vel_z)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Index, r.Timestamp.UTC().Format(time.RFC3339Nano),
			r.Position.X, r.Position.Y, r.Position.Z,
			r.Velocity.X, r.Velocity.Y, r.Velocity.Z,
		); err != nil {
			return fmt.Errorf("insert epoch %d: %w", r.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM epochs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count epochs: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Get(ctx context.Context, index int) (domain.EpochRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT idx, epoch_utc, pos_x, pos_y, pos_z, vel_x, vel_y, vel_z
		FROM epochs WHERE idx = ?`, index)

	rec, err := scanEpoch(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EpochRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.EpochRecord{}, fmt.Errorf("get epoch %d: %w", index, err)
	}
	return rec, nil
}

func (s *SQLiteStore) Range(ctx context.Context, offset, limit int) ([]domain.EpochRecord, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, epoch_utc, pos_x, pos_y, pos_z, vel_x, vel_y, vel_z
		FROM epochs ORDER BY idx LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("range epochs: %w", err)
	}
	defer rows.Close()

	var records []domain.EpochRecord
	for rows.Next() {
		rec, err := scanEpoch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan epoch: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("range epochs: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Metadata(ctx context.Context) (domain.FeedMetadata, error) {
	var meta domain.FeedMetadata
	err := s.db.QueryRowContext(ctx, `
		SELECT object_name, object_id, center, ref_frame, time_system
		FROM feed_metadata WHERE id = 1`).
		Scan(&meta.ObjectName, &meta.ObjectID, &meta.Center, &meta.RefFrame, &meta.TimeSystem)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FeedMetadata{}, nil
	}
	if err != nil {
		return domain.FeedMetadata{}, fmt.Errorf("get metadata: %w", err)
	}
	return meta, nil
}

func scanEpoch(scan func(dest ...any) error) (domain.EpochRecord, error) {
	var (
		rec      domain.EpochRecord
		epochUTC string
	)
	if err := scan(&rec.Index, &epochUTC,
		&rec.Position.X, &rec.Position.Y, &rec.Position.Z,
		&rec.Velocity.X, &rec.Velocity.Y, &rec.Velocity.Z,
	); err != nil {
		return domain.EpochRecord{}, err
	}

	ts, err := time.Parse(time.RFC3339Nano, epochUTC)
	if err != nil {
		return domain.EpochRecord{}, fmt.Errorf("stored epoch time %q: %w", epochUTC, err)
	}
	rec.Timestamp = ts.UTC()
	return rec, nil
}
