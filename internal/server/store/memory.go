package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"junqi/internal/junqi"
)

type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemory() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}}
}

func (m *MemoryStore) Save(_ context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	// 历史切片复制一份，调用方之后改不到存档
	rec.History = append([]junqi.HistoryRecord(nil), rec.History...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].FinishedAt.Equal(out[j].FinishedAt) {
			return out[i].FinishedAt.After(out[j].FinishedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
