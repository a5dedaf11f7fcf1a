package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/micro2move/segment-cli/internal/db"
	"github.com/micro2move/segment-cli/internal/resilience"
	"github.com/micro2move/segment-cli/internal/segment"
)

// PostgresStore implements SegmentStore on PostGIS. Segment geometry is
// copied in as EWKB so it can be queried spatially.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	policy := resilience.DefaultPolicy()
	policy.OnRetry = resilience.LogRetry("store.postgres", "ping")
	err = resilience.Run(ctx, policy, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const segmentsTable = "cycle_segments"

var segmentColumns = []string{
	"run_id", "ord", "id", "road_name", "local_area", "facility_type",
	"is_pop_up", "speed_env_kmh", "comfort_score", "crash_risk_score",
	"perceived_safety_score", "tags", "data", "geom",
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS segment_runs (
	id            TEXT PRIMARY KEY,
	segment_count INTEGER NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cycle_segments (
	run_id                 TEXT NOT NULL REFERENCES segment_runs(id),
	ord                    INTEGER NOT NULL,
	id                     TEXT NOT NULL,
	road_name              TEXT NOT NULL,
	local_area             TEXT NOT NULL,
	facility_type          TEXT NOT NULL,
	is_pop_up              BOOLEAN NOT NULL,
	speed_env_kmh          INTEGER NOT NULL,
	comfort_score          DOUBLE PRECISION NOT NULL,
	crash_risk_score       DOUBLE PRECISION NOT NULL,
	perceived_safety_score DOUBLE PRECISION NOT NULL,
	tags                   TEXT[] NOT NULL,
	data                   JSONB NOT NULL,
	geom                   geometry(Geometry, 4326) NOT NULL,
	PRIMARY KEY (run_id, ord)
);

CREATE INDEX IF NOT EXISTS idx_cycle_segments_id ON cycle_segments(id);
CREATE INDEX IF NOT EXISTS idx_cycle_segments_facility ON cycle_segments(facility_type);
CREATE INDEX IF NOT EXISTS idx_cycle_segments_area ON cycle_segments(lower(local_area));
CREATE INDEX IF NOT EXISTS idx_cycle_segments_geom ON cycle_segments USING gist (geom);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// EncodeGeometry converts coordinates to EWKB with SRID 4326: a Point for one
// coordinate, otherwise a LineString.
func EncodeGeometry(coords []segment.Coordinate) ([]byte, error) {
	if len(coords) == 0 {
		return nil, eris.New("postgres: segment has no coordinates")
	}

	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c.Lng, c.Lat)
	}

	var g geom.T
	if len(coords) == 1 {
		g = geom.NewPointFlat(geom.XY, flat).SetSRID(4326)
	} else {
		g = geom.NewLineStringFlat(geom.XY, flat).SetSRID(4326)
	}

	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: encode geometry")
	}
	return data, nil
}

func segmentRow(runID string, ord int, seg *segment.Segment) ([]any, error) {
	data, err := json.Marshal(seg)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: marshal segment %s", seg.ID)
	}
	g, err := EncodeGeometry(seg.Coordinates)
	if err != nil {
		return nil, eris.Wrapf(err, "segment %s", seg.ID)
	}
	tags := seg.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{
		runID, int32(ord), seg.ID, seg.RoadName, seg.LocalArea, string(seg.FacilityType),
		seg.IsPopUp, int32(seg.SpeedEnvKmh), seg.ComfortScore, seg.CrashRiskScore,
		seg.PerceivedSafetyScore, tags, data, g,
	}, nil
}

func (s *PostgresStore) ReplaceSegments(ctx context.Context, segs []segment.Segment) (string, error) {
	runID := uuid.New().String()

	rows := make([][]any, 0, len(segs))
	for i := range segs {
		row, err := segmentRow(runID, i, &segs[i])
		if err != nil {
			return "", err
		}
		rows = append(rows, row)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM cycle_segments`); err != nil {
		return "", eris.Wrap(err, "postgres: clear segments")
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO segment_runs (id, segment_count) VALUES ($1, $2)`,
		runID, len(segs),
	); err != nil {
		return "", eris.Wrap(err, "postgres: insert run")
	}
	if _, err := db.CopyRows(ctx, tx, segmentsTable, segmentColumns, rows); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", eris.Wrap(err, "postgres: commit")
	}

	zap.L().Info("stored segments",
		zap.String("component", "store.postgres"),
		zap.String("run_id", runID),
		zap.Int("segments", len(segs)),
	)
	return runID, nil
}

func (s *PostgresStore) ListSegments(ctx context.Context, filter SegmentFilter) ([]segment.Segment, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.FacilityType != "" {
		where = append(where, "facility_type = "+arg(string(filter.FacilityType)))
	}
	if filter.LocalArea != "" {
		where = append(where, "lower(local_area) = lower("+arg(filter.LocalArea)+")")
	}
	if filter.Tag != "" {
		where = append(where, arg(filter.Tag)+" = ANY(tags)")
	}

	query := "SELECT data FROM cycle_segments"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ord"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list segments")
	}
	defer rows.Close()

	segs := []segment.Segment{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan segment")
		}
		var seg segment.Segment
		if err := json.Unmarshal(data, &seg); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal segment")
		}
		segs = append(segs, seg)
	}
	return segs, eris.Wrap(rows.Err(), "postgres: iterate segments")
}

func (s *PostgresStore) GetSegment(ctx context.Context, id string) (*segment.Segment, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM cycle_segments WHERE id = $1 ORDER BY ord LIMIT 1`, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get segment %s", id)
	}

	var seg segment.Segment
	if err := json.Unmarshal(data, &seg); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal segment")
	}
	return &seg, nil
}
