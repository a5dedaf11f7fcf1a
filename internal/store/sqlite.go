package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/micro2move/segment-cli/internal/segment"
)

// SQLiteStore implements SegmentStore using modernc.org/sqlite. Segments are
// stored as JSON documents next to the columns used for filtering.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS segment_runs (
	id            TEXT PRIMARY KEY,
	segment_count INTEGER NOT NULL,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS cycle_segments (
	run_id        TEXT NOT NULL REFERENCES segment_runs(id),
	ord           INTEGER NOT NULL,
	id            TEXT NOT NULL,
	road_name     TEXT NOT NULL,
	local_area    TEXT NOT NULL,
	facility_type TEXT NOT NULL,
	is_pop_up     INTEGER NOT NULL,
	comfort_score REAL NOT NULL,
	tags          TEXT NOT NULL,
	data          TEXT NOT NULL,
	PRIMARY KEY (run_id, ord)
);

CREATE INDEX IF NOT EXISTS idx_cycle_segments_id ON cycle_segments(id);
CREATE INDEX IF NOT EXISTS idx_cycle_segments_facility ON cycle_segments(facility_type);
CREATE INDEX IF NOT EXISTS idx_cycle_segments_area ON cycle_segments(local_area COLLATE NOCASE);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceSegments(ctx context.Context, segs []segment.Segment) (string, error) {
	runID := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM cycle_segments`); err != nil {
		return "", eris.Wrap(err, "sqlite: clear segments")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO segment_runs (id, segment_count, created_at) VALUES (?, ?, ?)`,
		runID, len(segs), time.Now().UTC(),
	); err != nil {
		return "", eris.Wrap(err, "sqlite: insert run")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cycle_segments
			(run_id, ord, id, road_name, local_area, facility_type, is_pop_up, comfort_score, tags, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i := range segs {
		seg := &segs[i]
		tags, err := json.Marshal(seg.Tags)
		if err != nil {
			return "", eris.Wrapf(err, "sqlite: marshal tags %s", seg.ID)
		}
		data, err := json.Marshal(seg)
		if err != nil {
			return "", eris.Wrapf(err, "sqlite: marshal segment %s", seg.ID)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, i, seg.ID, seg.RoadName, seg.LocalArea, string(seg.FacilityType),
			seg.IsPopUp, seg.ComfortScore, string(tags), string(data),
		); err != nil {
			return "", eris.Wrapf(err, "sqlite: insert segment %s", seg.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", eris.Wrap(err, "sqlite: commit")
	}

	zap.L().Info("stored segments",
		zap.String("component", "store.sqlite"),
		zap.String("run_id", runID),
		zap.Int("segments", len(segs)),
	)
	return runID, nil
}

func (s *SQLiteStore) ListSegments(ctx context.Context, filter SegmentFilter) ([]segment.Segment, error) {
	var (
		where []string
		args  []any
	)
	if filter.FacilityType != "" {
		where = append(where, "facility_type = ?")
		args = append(args, string(filter.FacilityType))
	}
	if filter.LocalArea != "" {
		where = append(where, "local_area = ? COLLATE NOCASE")
		args = append(args, filter.LocalArea)
	}
	if filter.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(cycle_segments.tags) WHERE json_each.value = ?)")
		args = append(args, filter.Tag)
	}

	query := "SELECT data FROM cycle_segments"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ord"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list segments")
	}
	defer rows.Close() //nolint:errcheck

	segs := []segment.Segment{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan segment")
		}
		var seg segment.Segment
		if err := json.Unmarshal([]byte(data), &seg); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal segment")
		}
		segs = append(segs, seg)
	}
	return segs, eris.Wrap(rows.Err(), "sqlite: iterate segments")
}

func (s *SQLiteStore) GetSegment(ctx context.Context, id string) (*segment.Segment, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM cycle_segments WHERE id = ? ORDER BY ord LIMIT 1`, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get segment %s", id)
	}

	var seg segment.Segment
	if err := json.Unmarshal([]byte(data), &seg); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal segment")
	}
	return &seg, nil
}
