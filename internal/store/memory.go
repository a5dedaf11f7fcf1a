package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/micro2move/segment-cli/internal/segment"
)

// MemoryStore keeps the latest run in process. It backs the API when no
// database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	runID string
	segs  []segment.Segment
}

// NewMemory creates a MemoryStore seeded with segs.
func NewMemory(segs []segment.Segment) *MemoryStore {
	m := &MemoryStore{}
	if segs != nil {
		_, _ = m.ReplaceSegments(context.Background(), segs)
	}
	return m
}

func (m *MemoryStore) ReplaceSegments(_ context.Context, segs []segment.Segment) (string, error) {
	cp := make([]segment.Segment, len(segs))
	copy(cp, segs)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runID = uuid.New().String()
	m.segs = cp
	return m.runID, nil
}

func (m *MemoryStore) ListSegments(_ context.Context, filter SegmentFilter) ([]segment.Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []segment.Segment{}
	for i := range m.segs {
		if !filter.Match(&m.segs[i]) {
			continue
		}
		out = append(out, m.segs[i])
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) GetSegment(_ context.Context, id string) (*segment.Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.segs {
		if m.segs[i].ID == id {
			seg := m.segs[i]
			return &seg, nil
		}
	}
	return nil, nil
}

// RunID returns the id of the last ReplaceSegments call.
func (m *MemoryStore) RunID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runID
}

func (m *MemoryStore) Migrate(context.Context) error { return nil }
func (m *MemoryStore) Close() error                  { return nil }
