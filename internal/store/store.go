// Package store persists transformed segments and serves them back to the
// API. Each write replaces the previous run's segments wholesale.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/micro2move/segment-cli/internal/config"
	"github.com/micro2move/segment-cli/internal/segment"
)

// SegmentFilter narrows ListSegments. Zero fields match everything.
type SegmentFilter struct {
	FacilityType segment.FacilityType `json:"facility_type,omitempty"`
	LocalArea    string               `json:"local_area,omitempty"`
	Tag          string               `json:"tag,omitempty"`
	Limit        int                  `json:"limit,omitempty"`
}

// Match reports whether s passes the filter. Local areas compare without
// regard to case.
func (f SegmentFilter) Match(s *segment.Segment) bool {
	if f.FacilityType != "" && s.FacilityType != f.FacilityType {
		return false
	}
	if f.LocalArea != "" && !strings.EqualFold(s.LocalArea, f.LocalArea) {
		return false
	}
	if f.Tag != "" && !s.HasTag(f.Tag) {
		return false
	}
	return true
}

// SegmentStore persists segment runs.
type SegmentStore interface {
	// ReplaceSegments swaps the stored segments for segs under a new run id,
	// which it returns.
	ReplaceSegments(ctx context.Context, segs []segment.Segment) (string, error)
	// ListSegments returns stored segments in transform order.
	ListSegments(ctx context.Context, filter SegmentFilter) ([]segment.Segment, error)
	// GetSegment returns nil, nil when id is unknown.
	GetSegment(ctx context.Context, id string) (*segment.Segment, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open connects the store named by cfg.Driver and migrates it. It returns
// nil, nil when no driver is configured.
func Open(ctx context.Context, cfg config.StoreConfig) (SegmentStore, error) {
	var (
		st  SegmentStore
		err error
	)
	switch cfg.Driver {
	case "":
		return nil, nil
	case config.DriverSQLite:
		st, err = NewSQLite(cfg.DatabaseURL)
	case config.DriverPostgres:
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
