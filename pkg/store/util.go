package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize items.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when the vectors differ in length or either is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MergeProps overlays next on prev and returns a new map.
func MergeProps(prev, next map[string]any) map[string]any {
	out := make(map[string]any, len(prev)+len(next))
	for k, v := range prev {
		out[k] = v
	}
	for k, v := range next {
		out[k] = v
	}
	return out
}

// EncodeProps serializes props for stores that keep them opaque.
func EncodeProps(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to encode props: %w", err)
	}
	return string(b), nil
}

// DecodeProps reverses EncodeProps. Empty input decodes to an empty map.
func DecodeProps(raw string) (map[string]any, error) {
	out := map[string]any{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to decode props: %w", err)
	}
	return out, nil
}

// SortNodes orders nodes by key.
func SortNodes(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Key < nodes[j].Key })
}

// SortEdges orders edges by from, type, disc, to.
func SortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Disc != b.Disc {
			return a.Disc < b.Disc
		}
		return a.To < b.To
	})
}
