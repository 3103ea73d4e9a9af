// Package store defines the graph and vector persistence used by the fusion
// stage. Both stores are written with upsert semantics so repeated or
// duplicate writes converge to the same state.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups of absent nodes.
var ErrNotFound = errors.New("store: not found")

// Node is a canonical entity keyed by its canonical key.
type Node struct {
	Key        string
	Type       string
	OriginalID string
	Name       string
	Batch      int
	Props      map[string]any
}

// Edge is a typed relationship between two canonical keys. Two edges are the
// same edge when From, To, Type and Disc are equal; Disc separates parallel
// edges of one type (connector ends, behavior slots, list positions).
type Edge struct {
	From  string
	To    string
	Type  string
	Disc  string
	Props map[string]any
}

// GraphStore persists canonical entities and their relationships.
type GraphStore interface {
	InitSchema(ctx context.Context) error

	// MergeNode creates the node when its key is absent. Otherwise the
	// name is updated and props are overlaid on the stored props; type,
	// original id and batch of the first write are kept.
	MergeNode(ctx context.Context, node Node) error
	// EnsureNode creates the node only when its key is absent and reports
	// whether it did.
	EnsureNode(ctx context.Context, node Node) (bool, error)
	HasNode(ctx context.Context, key string) (bool, error)
	GetNode(ctx context.Context, key string) (*Node, error)
	NodesByType(ctx context.Context, nodeType string) ([]Node, error)
	AllNodes(ctx context.Context) ([]Node, error)
	CountByType(ctx context.Context, nodeType string) (int, error)

	// MergeEdge creates the edge when both endpoints exist and the edge is
	// absent, otherwise it replaces the edge props.
	MergeEdge(ctx context.Context, edge Edge) error
	EdgesFrom(ctx context.Context, key string) ([]Edge, error)
	EdgesTo(ctx context.Context, key string) ([]Edge, error)
	AllEdges(ctx context.Context) ([]Edge, error)

	// DetachDelete removes the node and every edge touching it.
	DetachDelete(ctx context.Context, key string) error

	Close() error
}

// Match is the nearest stored embedding returned by a vector search.
type Match struct {
	Key         string
	Description string
	Similarity  float64
}

// VectorStore keeps one embedding per canonical key.
type VectorStore interface {
	StoreEmbedding(ctx context.Context, key, nodeType, description string, embedding []float32) error
	// SearchNearest returns the single most similar embedding of the same
	// type, excluding excludeKey, or nil when none reaches minSimilarity.
	SearchNearest(
		ctx context.Context,
		embedding []float32,
		nodeType, excludeKey string,
		minSimilarity float64,
	) (*Match, error)
	Close() error
}
