// Package pgx implements store.VectorStore on PostgreSQL with pgvector.
package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/OFFIS-RIT/sysmlfuse/internal/util"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
)

var _ store.VectorStore = (*VectorStore)(nil)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

const (
	migrateAttempts = 4
	migrateBackoff  = 250 * time.Millisecond
)

// VectorStore keeps one embedding per canonical key in element_embeddings.
type VectorStore struct {
	conn  pgxIConn
	close func()
}

// Open runs the embedded migrations, retrying with backoff while the
// database comes up, then connects a pool whose connections know the
// pgvector types. A store that cannot be reached is an error.
func Open(ctx context.Context, databaseURL string) (*VectorStore, error) {
	// The extension must exist before connections can register its types.
	_, err := util.RetryWithBackoff(ctx, migrateAttempts, migrateBackoff, func(context.Context) (struct{}, error) {
		return struct{}{}, Migrate(databaseURL)
	})
	if err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgxv5.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &VectorStore{conn: pool, close: pool.Close}, nil
}

// NewWithConnection wraps an existing connection or pool. The caller owns
// the connection's lifecycle.
func NewWithConnection(conn pgxIConn) *VectorStore {
	return &VectorStore{conn: conn}
}

const upsertEmbedding = `
INSERT INTO element_embeddings (key, type, description, embedding, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (key) DO UPDATE
SET type = EXCLUDED.type,
    description = EXCLUDED.description,
    embedding = EXCLUDED.embedding,
    updated_at = now()`

func (s *VectorStore) StoreEmbedding(
	ctx context.Context,
	key, nodeType, description string,
	embedding []float32,
) error {
	_, err := s.conn.Exec(ctx, upsertEmbedding,
		key,
		nodeType,
		util.SanitizeText(description),
		pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to store embedding for %s: %w", key, err)
	}
	return nil
}

// Cosine distance ordering ties resolve to the smallest key.
const nearestEmbedding = `
SELECT key, description, 1 - (embedding <=> $1) AS similarity
FROM element_embeddings
WHERE type = $2 AND key <> $3 AND vector_dims(embedding) = vector_dims($1)
ORDER BY embedding <=> $1, key
LIMIT 1`

func (s *VectorStore) SearchNearest(
	ctx context.Context,
	embedding []float32,
	nodeType, excludeKey string,
	minSimilarity float64,
) (*store.Match, error) {
	var m store.Match
	err := s.conn.QueryRow(ctx, nearestEmbedding,
		pgvector.NewVector(embedding),
		nodeType,
		excludeKey,
	).Scan(&m.Key, &m.Description, &m.Similarity)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search nearest embedding: %w", err)
	}
	if !acceptSimilarity(m.Similarity, minSimilarity) {
		return nil, nil
	}
	return &m, nil
}

func acceptSimilarity(sim, minSimilarity float64) bool {
	return sim >= minSimilarity
}

func (s *VectorStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
