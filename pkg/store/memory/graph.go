// Package memory provides map-backed graph and vector stores.
package memory

import (
	"context"
	"sync"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
)

var _ store.GraphStore = (*GraphStore)(nil)

type edgeID struct {
	from, to, relType, disc string
}

// GraphStore implements store.GraphStore using Go maps. Thread-safe via
// sync.RWMutex.
type GraphStore struct {
	mu    sync.RWMutex
	nodes map[string]store.Node
	edges map[edgeID]map[string]any
}

// NewGraphStore returns an empty GraphStore.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		nodes: make(map[string]store.Node),
		edges: make(map[edgeID]map[string]any),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *GraphStore) InitSchema(_ context.Context) error { return nil }

func (m *GraphStore) MergeNode(_ context.Context, node store.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.nodes[node.Key]
	if !ok {
		node.Props = store.MergeProps(nil, node.Props)
		m.nodes[node.Key] = node
		return nil
	}
	prev.Name = node.Name
	prev.Props = store.MergeProps(prev.Props, node.Props)
	m.nodes[node.Key] = prev
	return nil
}

func (m *GraphStore) EnsureNode(_ context.Context, node store.Node) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[node.Key]; ok {
		return false, nil
	}
	node.Props = store.MergeProps(nil, node.Props)
	m.nodes[node.Key] = node
	return true, nil
}

func (m *GraphStore) HasNode(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.nodes[key]
	return ok, nil
}

func (m *GraphStore) GetNode(_ context.Context, key string) (*store.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	n.Props = store.MergeProps(nil, n.Props)
	return &n, nil
}

func (m *GraphStore) NodesByType(_ context.Context, nodeType string) ([]store.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.Node
	for _, n := range m.nodes {
		if n.Type == nodeType {
			out = append(out, n)
		}
	}
	store.SortNodes(out)
	return out, nil
}

func (m *GraphStore) AllNodes(_ context.Context) ([]store.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]store.Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	store.SortNodes(out)
	return out, nil
}

func (m *GraphStore) CountByType(_ context.Context, nodeType string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.nodes {
		if n.Type == nodeType {
			count++
		}
	}
	return count, nil
}

// MergeEdge silently ignores edges whose endpoints are missing, matching
// MATCH ... MERGE in Cypher.
func (m *GraphStore) MergeEdge(_ context.Context, edge store.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[edge.From]; !ok {
		return nil
	}
	if _, ok := m.nodes[edge.To]; !ok {
		return nil
	}
	m.edges[edgeID{edge.From, edge.To, edge.Type, edge.Disc}] = store.MergeProps(nil, edge.Props)
	return nil
}

func (m *GraphStore) EdgesFrom(_ context.Context, key string) ([]store.Edge, error) {
	return m.collect(func(id edgeID) bool { return id.from == key }), nil
}

func (m *GraphStore) EdgesTo(_ context.Context, key string) ([]store.Edge, error) {
	return m.collect(func(id edgeID) bool { return id.to == key }), nil
}

func (m *GraphStore) AllEdges(_ context.Context) ([]store.Edge, error) {
	return m.collect(func(edgeID) bool { return true }), nil
}

func (m *GraphStore) collect(keep func(edgeID) bool) []store.Edge {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.Edge
	for id, props := range m.edges {
		if !keep(id) {
			continue
		}
		out = append(out, store.Edge{
			From:  id.from,
			To:    id.to,
			Type:  id.relType,
			Disc:  id.disc,
			Props: store.MergeProps(nil, props),
		})
	}
	store.SortEdges(out)
	return out
}

func (m *GraphStore) DetachDelete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, key)
	for id := range m.edges {
		if id.from == key || id.to == key {
			delete(m.edges, id)
		}
	}
	return nil
}

func (m *GraphStore) Close() error { return nil }
