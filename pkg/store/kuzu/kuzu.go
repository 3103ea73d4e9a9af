//go:build cgo

// Package kuzu implements store.GraphStore on an embedded KuzuDB database.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
package kuzu

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
)

var _ store.GraphStore = (*GraphStore)(nil)

// GraphStore keeps every canonical entity in a single Element node table and
// every relationship in a single REL table discriminated by rel_type and disc.
type GraphStore struct {
	mu   sync.Mutex
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Open opens a KuzuDB database. An empty path or ":memory:" opens an
// in-memory database; otherwise the parent directory is created and KuzuDB
// creates the database directory itself.
func Open(path string) (*GraphStore, error) {
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
		}
	}
	db, err := kuzu.OpenDatabase(path, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &GraphStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *GraphStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Element(
		key STRING,
		type STRING,
		original_id STRING,
		name STRING,
		batch INT64,
		props STRING,
		PRIMARY KEY(key)
	)`,
	`CREATE REL TABLE IF NOT EXISTS REL(
		FROM Element TO Element,
		rel_type STRING,
		disc STRING,
		props STRING
	)`,
}

// InitSchema creates the tables if they do not exist.
func (s *GraphStore) InitSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

const nodeColumns = "n.key, n.type, n.original_id, n.name, n.batch, n.props"

// MergeNode reads the stored props first so that a match overlays them
// instead of replacing them.
func (s *GraphStore) MergeNode(ctx context.Context, node store.Node) error {
	prev, err := s.GetNode(ctx, node.Key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	props := node.Props
	if prev != nil {
		props = store.MergeProps(prev.Props, node.Props)
	}
	raw, err := store.EncodeProps(props)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec(
		`MERGE (n:Element {key: $key})
		 ON CREATE SET n.type = $type, n.original_id = $oid, n.name = $name, n.batch = $batch, n.props = $props
		 ON MATCH SET n.name = $name, n.props = $props`,
		map[string]any{
			"key":   node.Key,
			"type":  node.Type,
			"oid":   node.OriginalID,
			"name":  node.Name,
			"batch": int64(node.Batch),
			"props": raw,
		},
	)
}

func (s *GraphStore) EnsureNode(ctx context.Context, node store.Node) (bool, error) {
	ok, err := s.HasNode(ctx, node.Key)
	if err != nil || ok {
		return false, err
	}
	raw, err := store.EncodeProps(node.Props)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.exec(
		`CREATE (n:Element {key: $key, type: $type, original_id: $oid, name: $name, batch: $batch, props: $props})`,
		map[string]any{
			"key":   node.Key,
			"type":  node.Type,
			"oid":   node.OriginalID,
			"name":  node.Name,
			"batch": int64(node.Batch),
			"props": raw,
		},
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *GraphStore) HasNode(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query("MATCH (n:Element {key: $key}) RETURN count(n)", map[string]any{"key": key})
	if err != nil {
		return false, err
	}
	return len(rows) > 0 && toInt(rows[0][0]) > 0, nil
}

func (s *GraphStore) GetNode(_ context.Context, key string) (*store.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query("MATCH (n:Element {key: $key}) RETURN "+nodeColumns, map[string]any{"key": key})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return rowToNode(rows[0])
}

func (s *GraphStore) NodesByType(_ context.Context, nodeType string) ([]store.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(
		"MATCH (n:Element) WHERE n.type = $type RETURN "+nodeColumns+" ORDER BY n.key",
		map[string]any{"type": nodeType},
	)
	if err != nil {
		return nil, err
	}
	return rowsToNodes(rows)
}

func (s *GraphStore) AllNodes(_ context.Context) ([]store.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query("MATCH (n:Element) RETURN "+nodeColumns+" ORDER BY n.key", nil)
	if err != nil {
		return nil, err
	}
	return rowsToNodes(rows)
}

func (s *GraphStore) CountByType(_ context.Context, nodeType string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(
		"MATCH (n:Element) WHERE n.type = $type RETURN count(n)",
		map[string]any{"type": nodeType},
	)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// MergeEdge relies on MATCH so edges to missing endpoints are not created.
func (s *GraphStore) MergeEdge(_ context.Context, edge store.Edge) error {
	raw, err := store.EncodeProps(edge.Props)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec(
		`MATCH (a:Element {key: $from}), (b:Element {key: $to})
		 MERGE (a)-[r:REL {rel_type: $type, disc: $disc}]->(b)
		 SET r.props = $props`,
		map[string]any{
			"from":  edge.From,
			"to":    edge.To,
			"type":  edge.Type,
			"disc":  edge.Disc,
			"props": raw,
		},
	)
}

const edgeColumns = "a.key, b.key, r.rel_type, r.disc, r.props"

func (s *GraphStore) EdgesFrom(_ context.Context, key string) ([]store.Edge, error) {
	return s.edges("MATCH (a:Element {key: $key})-[r:REL]->(b:Element) RETURN "+edgeColumns,
		map[string]any{"key": key})
}

func (s *GraphStore) EdgesTo(_ context.Context, key string) ([]store.Edge, error) {
	return s.edges("MATCH (a:Element)-[r:REL]->(b:Element {key: $key}) RETURN "+edgeColumns,
		map[string]any{"key": key})
}

func (s *GraphStore) AllEdges(_ context.Context) ([]store.Edge, error) {
	return s.edges("MATCH (a:Element)-[r:REL]->(b:Element) RETURN "+edgeColumns, nil)
}

func (s *GraphStore) edges(cypher string, params map[string]any) ([]store.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]store.Edge, 0, len(rows))
	for _, r := range rows {
		props, err := store.DecodeProps(toString(r[4]))
		if err != nil {
			return nil, err
		}
		out = append(out, store.Edge{
			From:  toString(r[0]),
			To:    toString(r[1]),
			Type:  toString(r[2]),
			Disc:  toString(r[3]),
			Props: props,
		})
	}
	store.SortEdges(out)
	return out, nil
}

func (s *GraphStore) DetachDelete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec("MATCH (n:Element {key: $key}) DETACH DELETE n", map[string]any{"key": key})
}

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *GraphStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a Cypher statement and collects all result rows in column
// order.
func (s *GraphStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func rowsToNodes(rows [][]any) ([]store.Node, error) {
	out := make([]store.Node, 0, len(rows))
	for _, r := range rows {
		n, err := rowToNode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, nil
}

// rowToNode converts a nodeColumns row.
func rowToNode(r []any) (*store.Node, error) {
	props, err := store.DecodeProps(toString(r[5]))
	if err != nil {
		return nil, err
	}
	return &store.Node{
		Key:        toString(r[0]),
		Type:       toString(r[1]),
		OriginalID: toString(r[2]),
		Name:       toString(r[3]),
		Batch:      toInt(r[4]),
		Props:      props,
	}, nil
}

// KuzuDB returns typed Go values; nulls come back as nil.

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
