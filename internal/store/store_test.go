package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro2move/segment-cli/internal/config"
	"github.com/micro2move/segment-cli/internal/segment"
)

func TestSegmentFilterMatch(t *testing.T) {
	seg := testSegments()[1]

	tests := []struct {
		name   string
		filter SegmentFilter
		want   bool
	}{
		{"empty", SegmentFilter{}, true},
		{"facility match", SegmentFilter{FacilityType: segment.PaintedLane}, true},
		{"facility mismatch", SegmentFilter{FacilityType: segment.SeparatedCycleway}, false},
		{"area ignores case", SegmentFilter{LocalArea: "cbd"}, true},
		{"area mismatch", SegmentFilter{LocalArea: "Newtown"}, false},
		{"tag match", SegmentFilter{Tag: segment.TagNearStation}, true},
		{"tag mismatch", SegmentFilter{Tag: segment.TagGreenSpace}, false},
		{"all match", SegmentFilter{FacilityType: segment.PaintedLane, LocalArea: "CBD", Tag: segment.TagPopUpLane}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(&seg))
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("no driver", func(t *testing.T) {
		st, err := Open(ctx, config.StoreConfig{})
		require.NoError(t, err)
		assert.Nil(t, st)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(ctx, config.StoreConfig{Driver: "mongo"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown driver "mongo"`)
	})

	t.Run("sqlite", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "segments.db")
		st, err := Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, DatabaseURL: dsn})
		require.NoError(t, err)
		defer st.Close() //nolint:errcheck

		_, err = st.ReplaceSegments(ctx, testSegments())
		require.NoError(t, err)
		got, err := st.ListSegments(ctx, SegmentFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(testSegments())
	first := m.RunID()
	assert.NotEmpty(t, first)

	got, err := m.ListSegments(ctx, SegmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"seg_1", "seg_2", "seg_3"}, ids(got))

	got, err = m.ListSegments(ctx, SegmentFilter{FacilityType: segment.MixedTraffic})
	require.NoError(t, err)
	assert.Equal(t, []string{"seg_3"}, ids(got))

	got, err = m.ListSegments(ctx, SegmentFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"seg_1", "seg_2"}, ids(got))

	seg, err := m.GetSegment(ctx, "seg_2")
	require.NoError(t, err)
	require.NotNil(t, seg)
	assert.Equal(t, "Pitt Street", seg.RoadName)

	seg, err = m.GetSegment(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, seg)

	runID, err := m.ReplaceSegments(ctx, testSegments()[:1])
	require.NoError(t, err)
	assert.NotEqual(t, first, runID)
	got, err = m.ListSegments(ctx, SegmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"seg_1"}, ids(got))
}

func TestMemoryStoreEmpty(t *testing.T) {
	got, err := NewMemory(nil).ListSegments(context.Background(), SegmentFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
