package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/localgaid/pipeline/internal/place"
)

// PlaceRecord is the database shape of a place, independent of the tier
// structs so the store does not care which pipeline stage produced it.
type PlaceRecord struct {
	Name      string
	Latitude  float64
	Longitude float64
	Images    []string
}

// PlaceStore persists places and their audio-guide children.
type PlaceStore interface {
	UpsertPlace(ctx context.Context, record PlaceRecord) (int64, error)
	ReplaceAudioGuides(ctx context.Context, placeID int64, guides []place.AudioGuide) error
}

// PostgresStoreConfig controls the Postgres connection pool used for place
// rows.
type PostgresStoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresPlaceStore is the pgx implementation of PlaceStore. Replacing
// audio guides deletes and re-inserts the children inside one transaction so
// readers never observe a place with a partial guide list.
type PostgresPlaceStore struct {
	pool pgxPool
}

// NewPostgresPlaceStore creates a store backed by a new connection pool.
func NewPostgresPlaceStore(ctx context.Context, cfg PostgresStoreConfig) (*PostgresPlaceStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresPlaceStore{pool: pool}, nil
}

// NewPostgresPlaceStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresPlaceStoreWithPool(pool pgxPool) (*PostgresPlaceStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &PostgresPlaceStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresPlaceStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const upsertPlaceSQL = `
INSERT INTO places (name, tags, latitude, longitude, images)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (name) DO UPDATE SET
	tags = EXCLUDED.tags,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	images = EXCLUDED.images
RETURNING id`

const deleteGuidesSQL = `DELETE FROM audio_guides WHERE place_id = $1`

const insertGuideSQL = `
INSERT INTO audio_guides (place_id, position, title, full_subtitle, audio_url, duration_seconds, subtitle_url)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// UpsertPlace inserts or updates the place row keyed by name and returns its
// id.
func (s *PostgresPlaceStore) UpsertPlace(ctx context.Context, record PlaceRecord) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("place store is not configured")
	}
	if record.Name == "" {
		return 0, fmt.Errorf("place name is required")
	}
	images := record.Images
	if images == nil {
		images = []string{}
	}
	var placeID int64
	err := s.pool.QueryRow(ctx, upsertPlaceSQL,
		record.Name, []string{}, record.Latitude, record.Longitude, images,
	).Scan(&placeID)
	if err != nil {
		return 0, fmt.Errorf("upsert place: %w", err)
	}
	return placeID, nil
}

// ReplaceAudioGuides deletes the place's guide rows and inserts the new set
// in one transaction. Guide URLs must already point at durable storage; the
// store persists them verbatim.
func (s *PostgresPlaceStore) ReplaceAudioGuides(ctx context.Context, placeID int64, guides []place.AudioGuide) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("place store is not configured")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, deleteGuidesSQL, placeID); err != nil {
		return fmt.Errorf("delete audio guides: %w", err)
	}
	for i, guide := range guides {
		_, err := tx.Exec(ctx, insertGuideSQL,
			placeID, i+1, guide.Title, guide.FullSubtitle,
			guide.AudioURL, guide.DurationSeconds, guide.SubtitleURL,
		)
		if err != nil {
			return fmt.Errorf("insert audio guide %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
