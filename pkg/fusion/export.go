package fusion

import (
	"context"
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/sysmlfuse/internal/util"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
)

// Export reads the canonical graph back into a flat document. Every node
// becomes one element whose id is its original id; reference fields are
// rewritten from the node's outgoing edges and keep their raw value when no
// edge backs them. Model nodes go to the model list.
func Export(ctx context.Context, graph store.GraphStore, opts UnifyOptions) (*model.Document, error) {
	opts = opts.withDefaults()
	masterKey := MasterKey(opts)

	nodes, err := graph.AllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("export nodes: %w", err)
	}
	store.SortNodes(nodes)
	edges, err := graph.AllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("export edges: %w", err)
	}
	store.SortEdges(edges)

	ids := exportIDs(nodes)
	out := make(map[string][]store.Edge)
	for _, e := range edges {
		if _, ok := ids[e.To]; !ok {
			continue
		}
		out[e.From] = append(out[e.From], e)
	}

	doc := &model.Document{Model: []model.Element{}, Elements: []model.Element{}}
	for _, n := range nodes {
		e := model.Element(n.Props).Clone()
		if e == nil {
			e = model.Element{}
		}
		e.Set("id", ids[n.Key])
		e.Set("type", n.Type)
		if n.Name != "" {
			e.Set("name", n.Name)
		}
		if n.Type == model.TypeModel {
			doc.Model = append(doc.Model, model.Element{
				"id":   ids[n.Key],
				"name": e.Name(),
				"type": model.TypeModel,
			})
			continue
		}
		rewriteRefs(e, out[n.Key], ids, masterKey)
		doc.Elements = append(doc.Elements, e)
	}

	logger.Info("[Export] Exported graph", "models", len(doc.Model), "elements", len(doc.Elements))
	return doc, nil
}

// exportIDs assigns each node its original id. When several nodes share
// one, the first in key order keeps it and the others get a suffix derived
// from their key.
func exportIDs(nodes []store.Node) map[string]string {
	ids := make(map[string]string, len(nodes))
	used := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		id := n.OriginalID
		if id == "" {
			id = util.HashID(n.Key)
		}
		if _, taken := used[id]; taken {
			id = id + "-" + util.HashID(n.Key)[:8]
		}
		used[id] = struct{}{}
		ids[n.Key] = id
	}
	return ids
}

func rewriteRefs(e model.Element, edges []store.Edge, ids map[string]string, masterKey string) {
	for _, f := range model.SingleRefFields {
		var targets []string
		for _, ed := range edges {
			if ed.Type != f.Relation || ed.Disc != "" {
				continue
			}
			if field, ok := ed.Props[PropField].(string); ok && field != f.Field {
				continue
			}
			targets = append(targets, ed.To)
		}
		if len(targets) == 0 {
			continue
		}
		to := targets[0]
		if f.Field == "parentId" && to == masterKey && len(targets) > 1 {
			to = targets[1]
		}
		e.Set(f.Field, ids[to])
	}

	for _, f := range model.ListRefFields {
		type pos struct {
			index int
			to    string
		}
		var ordered []pos
		covered := make(map[int]struct{})
		for _, ed := range edges {
			if ed.Type != f.Relation {
				continue
			}
			idx := toInt(ed.Props[PropIndex])
			ordered = append(ordered, pos{index: idx, to: ed.To})
			covered[idx] = struct{}{}
		}
		if len(ordered) == 0 {
			continue
		}
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].index != ordered[j].index {
				return ordered[i].index < ordered[j].index
			}
			return ordered[i].to < ordered[j].to
		})
		seen := make(map[string]struct{})
		list := make([]any, 0, len(ordered))
		for _, p := range ordered {
			id := ids[p.to]
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			list = append(list, id)
		}
		for i, raw := range e.StringList(f.Field) {
			if _, ok := covered[i]; ok {
				continue
			}
			if _, dup := seen[raw]; dup {
				continue
			}
			seen[raw] = struct{}{}
			list = append(list, raw)
		}
		e.Set(f.Field, list)
	}

	for _, ed := range edges {
		switch ed.Type {
		case model.RelConnects:
			end, _ := ed.Props[PropEnd].(string)
			key, _ := ed.Props[PropRefField].(string)
			if end == "" || key == "" {
				continue
			}
			nestedObject(e, end)[key] = ids[ed.To]
		case model.RelCallsBehavior:
			if ed.Disc == "" {
				continue
			}
			nestedObject(e, ed.Disc)[model.CalledBehaviorKey] = ids[ed.To]
		}
	}
}

func nestedObject(e model.Element, field string) map[string]any {
	if obj := e.Object(field); obj != nil {
		return obj
	}
	obj := map[string]any{}
	e.Set(field, obj)
	return obj
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	}
	return 0
}
