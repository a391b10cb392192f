package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/EntityEditor/internal/schema"
)

// Memory is a Store that lives as long as the process.
type Memory struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]Snapshot
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{snapshots: make(map[uuid.UUID]Snapshot)}
}

func (m *Memory) Save(_ context.Context, name string, entities []schema.Entity) (Snapshot, error) {
	snap := newSnapshot(name, entities)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.ID] = snap

	return withoutEntities(snap), nil
}

func (m *Memory) List(_ context.Context) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Snapshot, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		out = append(out, withoutEntities(snap))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) Load(_ context.Context, id uuid.UUID) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	out := withoutEntities(snap)
	out.Entities = make([]schema.Entity, len(snap.Entities))
	for i, e := range snap.Entities {
		out.Entities[i] = e.Clone()
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snapshots[id]; !ok {
		return ErrNotFound
	}
	delete(m.snapshots, id)
	return nil
}

func (m *Memory) Close() {}

func withoutEntities(s Snapshot) Snapshot {
	s.Entities = nil
	return s
}
