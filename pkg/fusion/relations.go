package fusion

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
)

// Edge property names written by the relationship rebuild and read back by
// export.
const (
	PropField       = "field"
	PropIndex       = "index"
	PropEnd         = "end"
	PropRefField    = "refField"
	PropOriginalRef = "originalRef"
	PropSlot        = "slot"
)

// RelationStats counts the outcome of a relationship rebuild.
type RelationStats struct {
	Edges   int
	Skipped int
}

// RebuildRelationships turns every reference in every batch into an edge
// between resolved canonical keys. keys[b] maps the original ids of batch b
// to their canonical keys. References whose source or target cannot be
// resolved, or whose endpoints are missing from the graph, are skipped.
// Self loops produced by merging are never written.
func RebuildRelationships(
	ctx context.Context,
	graph store.GraphStore,
	batches []*model.Document,
	keys []map[string]string,
	remap *Remap,
) (RelationStats, error) {
	var stats RelationStats
	exists := make(map[string]bool)
	present := func(key string) (bool, error) {
		if v, ok := exists[key]; ok {
			return v, nil
		}
		ok, err := graph.HasNode(ctx, key)
		if err != nil {
			return false, err
		}
		exists[key] = ok
		return ok, nil
	}

	for b, doc := range batches {
		if b >= len(keys) {
			break
		}
		resolve := func(id string) string {
			key, ok := keys[b][id]
			if !ok {
				return ""
			}
			return remap.Resolve(key)
		}

		for _, e := range doc.Elements {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			from := resolve(e.ID())
			if from == "" {
				continue
			}
			ok, err := present(from)
			if err != nil {
				return stats, err
			}
			if !ok {
				continue
			}

			for _, ref := range e.References(model.RefOptions{IncludeTypeID: true}) {
				to := resolve(ref.Value)
				if to == "" || to == from {
					stats.Skipped++
					continue
				}
				ok, err := present(to)
				if err != nil {
					return stats, err
				}
				if !ok {
					stats.Skipped++
					continue
				}
				if err := graph.MergeEdge(ctx, edgeFor(from, to, ref)); err != nil {
					return stats, fmt.Errorf("merge edge %s -> %s: %w", from, to, err)
				}
				stats.Edges++
			}
		}
	}
	logger.Debug("[Relations] Relationships rebuilt", "edges", stats.Edges, "skipped", stats.Skipped)
	return stats, nil
}

func edgeFor(from, to string, ref model.Ref) store.Edge {
	e := store.Edge{From: from, To: to}
	switch ref.Kind {
	case model.RefSingle:
		e.Type = model.RelationFor(ref.Field)
		e.Props = map[string]any{PropField: ref.Field}
	case model.RefList:
		e.Type = model.RelationFor(ref.Field)
		e.Props = map[string]any{PropField: ref.Field, PropIndex: ref.Index}
	case model.RefEndpoint:
		e.Type = model.RelConnects
		e.Disc = ref.Path()
		e.Props = map[string]any{
			PropEnd:         ref.Field,
			PropRefField:    ref.Key,
			PropOriginalRef: ref.Value,
		}
	case model.RefBehavior:
		e.Type = model.RelCallsBehavior
		e.Disc = ref.Field
		e.Props = map[string]any{PropSlot: ref.Field, PropRefField: ref.Key}
	}
	return e
}
