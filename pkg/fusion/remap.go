package fusion

import (
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
)

// Remap maps a losing canonical key to the key of the duplicate it was
// merged into. Entries may chain.
type Remap struct {
	m map[string]string
}

// NewRemap returns an empty table.
func NewRemap() *Remap {
	return &Remap{m: make(map[string]string)}
}

// Set records from -> to. Self mappings and mappings that would close a
// cycle are rejected.
func (r *Remap) Set(from, to string) error {
	if from == to {
		return fmt.Errorf("remap %q onto itself", from)
	}
	if r.Resolve(to) == from {
		return fmt.Errorf("remap %q -> %q would create a cycle", from, to)
	}
	r.m[from] = to
	return nil
}

// Has reports whether key has been merged away.
func (r *Remap) Has(key string) bool {
	_, ok := r.m[key]
	return ok
}

// Len returns the number of entries.
func (r *Remap) Len() int { return len(r.m) }

// Resolve follows the chain from key to its fixed point in at most Len()
// hops. A cycle is logged and key itself is returned.
func (r *Remap) Resolve(key string) string {
	cur := key
	visited := map[string]struct{}{key: {}}
	for hops := 0; hops <= len(r.m); hops++ {
		next, ok := r.m[cur]
		if !ok {
			return cur
		}
		if _, seen := visited[next]; seen {
			logger.Warn("[Fusion] Remap cycle detected, using original key", "key", key, "at", next)
			return key
		}
		visited[next] = struct{}{}
		cur = next
	}
	logger.Warn("[Fusion] Remap chain exceeds table size, using original key", "key", key)
	return key
}

// Entries returns a copy of the table.
func (r *Remap) Entries() map[string]string {
	out := make(map[string]string, len(r.m))
	for k, v := range r.m {
		out[k] = v
	}
	return out
}

// Keys returns the merged-away keys in sorted order.
func (r *Remap) Keys() []string {
	keys := make([]string, 0, len(r.m))
	for k := range r.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
