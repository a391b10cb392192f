// Package store keeps named snapshots of an editor workspace.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/EntityEditor/internal/schema"
)

// ErrNotFound is returned when no snapshot has the requested ID.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is a saved copy of the entity list.
type Snapshot struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt"`
	Entities  []schema.Entity `json:"entities,omitempty"`
}

// Store persists snapshots. List omits the entities of each snapshot.
type Store interface {
	Save(ctx context.Context, name string, entities []schema.Entity) (Snapshot, error)
	List(ctx context.Context) ([]Snapshot, error)
	Load(ctx context.Context, id uuid.UUID) (Snapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close()
}

func newSnapshot(name string, entities []schema.Entity) Snapshot {
	copied := make([]schema.Entity, len(entities))
	for i, e := range entities {
		copied[i] = e.Clone()
	}
	return Snapshot{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Entities:  copied,
	}
}
