package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/JonMunkholm/EntityEditor/internal/schema"
)

const createSnapshotsTable = `
	CREATE TABLE IF NOT EXISTS entity_snapshots (
		id         uuid PRIMARY KEY,
		name       text NOT NULL,
		created_at timestamptz NOT NULL,
		entities   jsonb NOT NULL
	)
`

// Postgres stores snapshots in a PostgreSQL table.
type Postgres struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	log          zerolog.Logger
}

// NewPostgres connects to databaseURL, verifies the connection and creates
// the snapshot table when missing.
func NewPostgres(ctx context.Context, databaseURL string, queryTimeout time.Duration, log zerolog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	p := &Postgres{pool: pool, queryTimeout: queryTimeout, log: log}

	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// withTimeout returns a context with the query timeout applied.
// If the parent context already has a shorter deadline, that deadline is preserved.
func (p *Postgres) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := parent.Deadline(); ok && time.Until(deadline) <= p.queryTimeout {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, p.queryTimeout)
}

func (p *Postgres) migrate(ctx context.Context) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := p.pool.Exec(ctx, createSnapshotsTable); err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, name string, entities []schema.Entity) (Snapshot, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	snap := newSnapshot(name, entities)
	data, err := json.Marshal(snap.Entities)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to encode entities: %w", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO entity_snapshots (id, name, created_at, entities) VALUES ($1::uuid, $2, $3, $4::jsonb)`,
		snap.ID.String(), snap.Name, snap.CreatedAt, string(data),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to save snapshot: %w", err)
	}

	p.log.Info().Str("snapshot", snap.ID.String()).Str("name", name).Int("entities", len(entities)).Msg("snapshot saved")
	return withoutEntities(snap), nil
}

func (p *Postgres) List(ctx context.Context) ([]Snapshot, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.pool.Query(ctx, `
		SELECT id::text, name, created_at
		FROM entity_snapshots
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0, 16)
	for rows.Next() {
		var id string
		var snap Snapshot
		if err := rows.Scan(&id, &snap.Name, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if snap.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot id: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

func (p *Postgres) Load(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var data []byte
	snap := Snapshot{ID: id}
	err := p.pool.QueryRow(ctx,
		`SELECT name, created_at, entities FROM entity_snapshots WHERE id = $1::uuid`,
		id.String(),
	).Scan(&snap.Name, &snap.CreatedAt, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &snap.Entities); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode entities: %w", err)
	}
	return snap, nil
}

func (p *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	tag, err := p.pool.Exec(ctx, `DELETE FROM entity_snapshots WHERE id = $1::uuid`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
