package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
)

var _ store.VectorStore = (*VectorStore)(nil)

type vectorEntry struct {
	nodeType    string
	description string
	embedding   []float32
}

// VectorStore is a brute-force cosine similarity index.
type VectorStore struct {
	mu      sync.RWMutex
	entries map[string]vectorEntry
}

// NewVectorStore returns an empty VectorStore.
func NewVectorStore() *VectorStore {
	return &VectorStore{entries: make(map[string]vectorEntry)}
}

func (v *VectorStore) StoreEmbedding(
	_ context.Context,
	key, nodeType, description string,
	embedding []float32,
) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	emb := make([]float32, len(embedding))
	copy(emb, embedding)
	v.entries[key] = vectorEntry{nodeType: nodeType, description: description, embedding: emb}
	return nil
}

// SearchNearest scans keys in sorted order so ties resolve to the smallest
// key.
func (v *VectorStore) SearchNearest(
	_ context.Context,
	embedding []float32,
	nodeType, excludeKey string,
	minSimilarity float64,
) (*store.Match, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	keys := make([]string, 0, len(v.entries))
	for k := range v.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var best *store.Match
	for _, k := range keys {
		if k == excludeKey {
			continue
		}
		e := v.entries[k]
		if e.nodeType != nodeType {
			continue
		}
		sim := store.CosineSimilarity(embedding, e.embedding)
		if sim < minSimilarity {
			continue
		}
		if best == nil || sim > best.Similarity {
			best = &store.Match{Key: k, Description: e.description, Similarity: sim}
		}
	}
	return best, nil
}

// Len returns the number of stored embeddings.
func (v *VectorStore) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

func (v *VectorStore) Close() error { return nil }
