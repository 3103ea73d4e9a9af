package fusion

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/canonical"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
)

const (
	DefaultMasterModelID   = "master-model"
	DefaultMasterModelName = "Master Model"
)

// ErrModelCount is returned when unification does not leave exactly one
// Model node.
var ErrModelCount = errors.New("unexpected model count after unification")

// UnifyOptions names the master model.
type UnifyOptions struct {
	MasterID   string
	MasterName string
}

// UnifyReport describes what unification changed.
type UnifyReport struct {
	MasterKey     string   `json:"masterKey"`
	MasterID      string   `json:"masterId"`
	Created       bool     `json:"created"`
	Reparented    []string `json:"reparented"`
	DeletedModels []string `json:"deletedModels"`
	ModelCount    int      `json:"modelCount"`
}

// MasterKey returns the canonical key of the master model.
func MasterKey(opts UnifyOptions) string {
	return canonical.ModelKey(opts.withDefaults().MasterName)
}

func (o UnifyOptions) withDefaults() UnifyOptions {
	if o.MasterID == "" {
		o.MasterID = DefaultMasterModelID
	}
	if o.MasterName == "" {
		o.MasterName = DefaultMasterModelName
	}
	return o
}

// UnifyModels collapses every Model node into one master model. Elements
// contained in another model and top-level packages are re-parented to the
// master; the other models are deleted with their edges.
func UnifyModels(ctx context.Context, graph store.GraphStore, opts UnifyOptions) (*UnifyReport, error) {
	opts = opts.withDefaults()
	masterKey := canonical.ModelKey(opts.MasterName)
	rep := &UnifyReport{MasterKey: masterKey, MasterID: opts.MasterID}

	created, err := graph.EnsureNode(ctx, store.Node{
		Key:        masterKey,
		Type:       model.TypeModel,
		OriginalID: opts.MasterID,
		Name:       opts.MasterName,
		Props: map[string]any{
			"id":   opts.MasterID,
			"name": opts.MasterName,
			"type": model.TypeModel,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ensure master model: %w", err)
	}
	rep.Created = created

	models, err := graph.NodesByType(ctx, model.TypeModel)
	if err != nil {
		return nil, err
	}
	reparented := make(map[string]struct{})
	for _, m := range models {
		if m.Key == masterKey {
			continue
		}
		incoming, err := graph.EdgesTo(ctx, m.Key)
		if err != nil {
			return nil, err
		}
		for _, e := range incoming {
			if e.Type != model.RelContainedIn || e.From == masterKey {
				continue
			}
			if err := reparent(ctx, graph, e.From, masterKey); err != nil {
				return nil, err
			}
			reparented[e.From] = struct{}{}
		}
	}

	packages, err := graph.NodesByType(ctx, model.TypePackage)
	if err != nil {
		return nil, err
	}
	for _, p := range packages {
		out, err := graph.EdgesFrom(ctx, p.Key)
		if err != nil {
			return nil, err
		}
		if hasParent(out, models, masterKey) {
			continue
		}
		if err := reparent(ctx, graph, p.Key, masterKey); err != nil {
			return nil, err
		}
		reparented[p.Key] = struct{}{}
	}

	for _, m := range models {
		if m.Key == masterKey {
			continue
		}
		if err := graph.DetachDelete(ctx, m.Key); err != nil {
			return nil, fmt.Errorf("delete model %s: %w", m.Key, err)
		}
		rep.DeletedModels = append(rep.DeletedModels, m.Key)
	}
	for key := range reparented {
		rep.Reparented = append(rep.Reparented, key)
	}
	sort.Strings(rep.Reparented)

	count, err := graph.CountByType(ctx, model.TypeModel)
	if err != nil {
		return nil, err
	}
	rep.ModelCount = count
	if count != 1 {
		logger.Error("[Unify] Model unification left wrong model count", "count", count)
		return rep, fmt.Errorf("%w: %d", ErrModelCount, count)
	}
	logger.Info("[Unify] Models unified",
		"master", masterKey,
		"reparented", len(rep.Reparented),
		"deleted", len(rep.DeletedModels),
	)
	return rep, nil
}

func reparent(ctx context.Context, graph store.GraphStore, child, master string) error {
	err := graph.MergeEdge(ctx, store.Edge{
		From:  child,
		To:    master,
		Type:  model.RelContainedIn,
		Props: map[string]any{PropField: "parentId"},
	})
	if err != nil {
		return fmt.Errorf("reparent %s: %w", child, err)
	}
	return nil
}

// hasParent reports whether a package already has a container that survives
// unification.
func hasParent(out []store.Edge, models []store.Node, masterKey string) bool {
	for _, e := range out {
		if e.Type != model.RelContainedIn {
			continue
		}
		if e.To == masterKey {
			return true
		}
		isModel := false
		for _, m := range models {
			if m.Key == e.To {
				isModel = true
				break
			}
		}
		if !isModel {
			return true
		}
	}
	return false
}
