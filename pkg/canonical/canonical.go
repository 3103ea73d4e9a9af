// Package canonical derives path-qualified identities for raw elements so
// that independently extracted batches can refer to the same entity without
// sharing ids.
package canonical

import (
	"strings"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

// MaxDepth bounds ancestor walks. Deeper chains are treated as cycles.
const MaxDepth = 256

// Format builds a canonical key from a type and its ancestor name path.
func Format(elemType string, path []string) string {
	return elemType + "::" + strings.Join(path, ".")
}

// ModelKey is the canonical key of a root model entry.
func ModelKey(name string) string {
	return Format(model.TypeModel, []string{name})
}

// Generator computes canonical keys for one batch of elements. Paths are
// memoized per id for the lifetime of the generator.
type Generator struct {
	index map[string]model.Element
	paths map[string][]string
}

// NewGenerator returns an empty generator.
func NewGenerator() *Generator {
	return &Generator{
		index: make(map[string]model.Element),
		paths: make(map[string][]string),
	}
}

// GenerateAllKeys indexes the elements and returns id -> canonical key for
// every element with an id. Ids must be unique within the slice; the first
// occurrence wins otherwise.
func (g *Generator) GenerateAllKeys(elements []model.Element) map[string]string {
	for _, e := range elements {
		id := e.ID()
		if id == "" {
			continue
		}
		if _, ok := g.index[id]; !ok {
			g.index[id] = e
		}
	}

	keys := make(map[string]string, len(elements))
	for _, e := range elements {
		id := e.ID()
		if id == "" {
			continue
		}
		if k, ok := g.Key(id); ok {
			keys[id] = k
		}
	}
	logger.Debug("[Keys] Generated canonical keys", "elements", len(elements), "keys", len(keys))
	return keys
}

// Key returns the canonical key of an indexed element.
func (g *Generator) Key(id string) (string, bool) {
	e, ok := g.index[id]
	if !ok {
		return "", false
	}
	return Format(e.Type(), g.path(id)), true
}

func segment(e model.Element) string {
	if n := e.Name(); n != "" {
		return n
	}
	return e.ID()
}

// path resolves the name path of id using an explicit work list: walk up
// until a memoized ancestor, a root, a missing parent or a repeated element,
// then fill the memo top-down.
func (g *Generator) path(id string) []string {
	if p, ok := g.paths[id]; ok {
		return p
	}

	chain := []string{id}
	seen := map[string]struct{}{id: {}}
	var base []string
	cur := id
	for {
		parent := g.index[cur].ParentID()
		if parent == "" {
			break
		}
		if p, ok := g.paths[parent]; ok {
			base = p
			break
		}
		if _, ok := g.index[parent]; !ok {
			break
		}
		if _, ok := seen[parent]; ok {
			logger.Warn("[Keys] Parent cycle detected", "id", id, "repeated", parent)
			break
		}
		if len(chain) >= MaxDepth {
			logger.Warn("[Keys] Ancestor chain exceeds depth cap", "id", id, "depth", len(chain))
			break
		}
		seen[parent] = struct{}{}
		chain = append(chain, parent)
		cur = parent
	}

	for i := len(chain) - 1; i >= 0; i-- {
		cid := chain[i]
		p := make([]string, len(base), len(base)+1)
		copy(p, base)
		p = append(p, segment(g.index[cid]))
		g.paths[cid] = p
		base = p
	}
	return g.paths[id]
}
