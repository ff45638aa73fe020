// Package store persists a finished graph export to PostgreSQL. The
// pipeline itself never depends on the store being reachable; persistence
// is a separate step over an already-complete export.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/api/schemas"
)

// DBPool abstracts the pgxpool.Pool methods the store needs, so tests can
// substitute a mock pool.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

// Store writes graph exports into the kg_nodes / kg_edges tables.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

func New(pool DBPool, logger *zap.Logger) *Store {
	return &Store{pool: pool, log: logger.Named("store")}
}

// Connect opens a pgx pool against the configured URL.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the backing tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kg_nodes (
			id          TEXT PRIMARY KEY,
			type        TEXT NOT NULL,
			attributes  JSONB NOT NULL DEFAULT '{}',
			source_pages TEXT[] NOT NULL DEFAULT '{}',
			stub        BOOLEAN NOT NULL DEFAULT FALSE,
			run_id      TEXT NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS kg_edges (
			subject_id  TEXT NOT NULL REFERENCES kg_nodes(id),
			predicate   TEXT NOT NULL,
			object_id   TEXT NOT NULL REFERENCES kg_nodes(id),
			run_id      TEXT NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (subject_id, predicate, object_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("ensuring graph tables: %w", err)
	}
	return nil
}

// PersistGraph writes the export in one transaction: all nodes first, then
// all edges, so the foreign keys always resolve. A failed write rolls the
// whole run back.
func (s *Store) PersistGraph(ctx context.Context, export schemas.GraphExport) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	for _, e := range export.Entities {
		attrs, err := json.Marshal(e.Attributes)
		if err != nil {
			return fmt.Errorf("marshaling attributes of %s: %w", e.ID, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO kg_nodes (id, type, attributes, source_pages, stub, run_id, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				type = EXCLUDED.type,
				attributes = EXCLUDED.attributes,
				source_pages = EXCLUDED.source_pages,
				stub = EXCLUDED.stub,
				run_id = EXCLUDED.run_id,
				updated_at = EXCLUDED.updated_at;
		`, e.ID, e.Type, attrs, e.SourcePages, e.Stub, export.RunID, now); err != nil {
			return fmt.Errorf("upserting node %s: %w", e.ID, err)
		}
	}

	for _, rel := range export.Edges {
		if _, err := tx.Exec(ctx, `
			INSERT INTO kg_edges (subject_id, predicate, object_id, run_id, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (subject_id, predicate, object_id) DO UPDATE SET
				run_id = EXCLUDED.run_id,
				updated_at = EXCLUDED.updated_at;
		`, rel.SubjectID, rel.Predicate, rel.ObjectID, export.RunID, now); err != nil {
			return fmt.Errorf("upserting edge (%s, %s, %s): %w", rel.SubjectID, rel.Predicate, rel.ObjectID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing graph: %w", err)
	}
	s.log.Info("graph persisted",
		zap.String("run_id", export.RunID),
		zap.Int("nodes", len(export.Entities)),
		zap.Int("edges", len(export.Edges)))
	return nil
}

// NodeCount returns the number of stored nodes.
func (s *Store) NodeCount(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM kg_nodes;`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting nodes: %w", err)
	}
	return n, nil
}

// NodesByType returns the stored entities of one type, sorted by ID.
func (s *Store) NodesByType(ctx context.Context, t schemas.EntityType) ([]schemas.CanonicalEntity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, attributes, source_pages, stub
		FROM kg_nodes WHERE type = $1 ORDER BY id;
	`, t)
	if err != nil {
		return nil, fmt.Errorf("querying nodes of type %s: %w", t, err)
	}
	defer rows.Close()

	var out []schemas.CanonicalEntity
	for rows.Next() {
		var (
			e     schemas.CanonicalEntity
			attrs []byte
		)
		if err := rows.Scan(&e.ID, &e.Type, &attrs, &e.SourcePages, &e.Stub); err != nil {
			return nil, fmt.Errorf("scanning node row: %w", err)
		}
		if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshaling attributes of %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Node fetches one stored entity.
func (s *Store) Node(ctx context.Context, id string) (schemas.CanonicalEntity, error) {
	var (
		e     schemas.CanonicalEntity
		attrs []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, type, attributes, source_pages, stub
		FROM kg_nodes WHERE id = $1;
	`, id).Scan(&e.ID, &e.Type, &attrs, &e.SourcePages, &e.Stub)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schemas.CanonicalEntity{}, fmt.Errorf("node %q not found", id)
		}
		return schemas.CanonicalEntity{}, err
	}
	if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
		return schemas.CanonicalEntity{}, fmt.Errorf("unmarshaling attributes of %s: %w", id, err)
	}
	return e, nil
}
