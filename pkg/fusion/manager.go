// Package fusion merges batches of SysML elements into one canonical graph.
//
// Each element is keyed by its canonical key. Elements whose key already
// exists are folded into that node; new elements are compared by embedding
// with stored nodes of the same type and near-duplicates confirmed by an LLM
// judge are remapped onto the stored node. Relationships are rebuilt
// afterwards against the resolved keys.
package fusion

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/canonical"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
)

const (
	DefaultBatchSize           = 50
	DefaultSimilarityThreshold = 0.98
)

// Options tunes a Manager. Zero values fall back to defaults.
type Options struct {
	BatchSize            int
	SimilarityThreshold  float64
	EmbeddingConcurrency int
	JudgeBatchSize       int
	MaxRetries           int
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if o.EmbeddingConcurrency <= 0 {
		o.EmbeddingConcurrency = ai.DefaultEmbeddingConcurrency
	}
	if o.JudgeBatchSize <= 0 {
		o.JudgeBatchSize = ai.DefaultJudgeBatchSize
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	return o
}

// Manager runs identity resolution over input batches. A Manager keeps its
// remap table across calls to Fuse; use one Manager per run.
type Manager struct {
	graph   store.GraphStore
	vectors store.VectorStore
	client  ai.Client
	judge   *ai.Judge
	opts    Options

	remap  *Remap
	report *Report
}

// NewManager returns a Manager. client or vectors may be nil, in which case no
// similarity search happens and every unseen key becomes a new node.
func NewManager(graph store.GraphStore, vectors store.VectorStore, client ai.Client, opts Options) *Manager {
	opts = opts.withDefaults()
	m := &Manager{
		graph:   graph,
		vectors: vectors,
		client:  client,
		opts:    opts,
		remap:   NewRemap(),
		report:  &Report{},
	}
	if client != nil {
		m.judge = ai.NewJudge(client, opts.JudgeBatchSize, opts.MaxRetries)
	}
	return m
}

// Remap returns the remap table built so far.
func (m *Manager) Remap() *Remap { return m.remap }

// Result is the outcome of Fuse.
type Result struct {
	Report *Report
	Remap  *Remap
	// Keys maps batch index -> original id -> canonical key before remap.
	Keys []map[string]string
}

type item struct {
	batch int
	id    string
	key   string
	elem  model.Element
	desc  string
}

// Fuse resolves the identity of every element in batches, in order, and
// then rebuilds relationships between the surviving canonical nodes.
func (m *Manager) Fuse(ctx context.Context, batches []*model.Document) (*Result, error) {
	keys := make([]map[string]string, len(batches))
	for b, doc := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, batchKeys := m.collect(b, doc)
		keys[b] = batchKeys
		m.report.Batches++
		m.report.Elements += len(items)

		logger.Info("[Fusion] Processing batch", "batch", b, "elements", len(items))
		err := store.ChunkRange(len(items), m.opts.BatchSize, func(start, end int) error {
			return m.processChunk(ctx, items[start:end])
		})
		if err != nil {
			return nil, fmt.Errorf("fuse batch %d: %w", b, err)
		}
	}

	stats, err := RebuildRelationships(ctx, m.graph, batches, keys, m.remap)
	if err != nil {
		return nil, err
	}
	m.report.Edges = stats.Edges
	m.report.SkippedRefs = stats.Skipped
	m.report.Remap = m.remap.Entries()

	logger.Info("[Fusion] Done",
		"batches", m.report.Batches,
		"created", m.report.Created,
		"merged", m.report.Merged,
		"existing", m.report.Existing,
		"edges", m.report.Edges,
	)
	return &Result{Report: m.report, Remap: m.remap, Keys: keys}, nil
}

// collect turns one document into work items, model entries first.
func (m *Manager) collect(batch int, doc *model.Document) ([]item, map[string]string) {
	keys := canonical.NewGenerator().GenerateAllKeys(doc.Elements)
	var items []item
	for _, me := range doc.Model {
		id := me.ID()
		if id == "" {
			continue
		}
		name := me.Name()
		if name == "" {
			name = id
		}
		key := canonical.ModelKey(name)
		keys[id] = key
		e := me.Clone()
		e.Set("type", model.TypeModel)
		items = append(items, item{batch: batch, id: id, key: key, elem: e})
	}
	for _, e := range doc.Elements {
		id := e.ID()
		key, ok := keys[id]
		if !ok || e.Type() == model.TypeModel {
			continue
		}
		items = append(items, item{batch: batch, id: id, key: key, elem: e, desc: describe(e)})
	}
	return items, keys
}

// describe builds the text that is embedded and shown to the judge.
func describe(e model.Element) string {
	name := e.Name()
	if name == "" {
		name = e.ID()
	}
	text := fmt.Sprintf("A %s named %s", e.Type(), name)
	if d := e.Description(); d != "" {
		text += ": " + d
	}
	return text
}

func (m *Manager) processChunk(ctx context.Context, items []item) error {
	var fresh []item
	var repeats []item
	pending := make(map[string]struct{})

	for _, it := range items {
		if _, ok := pending[it.key]; ok {
			repeats = append(repeats, it)
			continue
		}
		if m.remap.Has(it.key) {
			m.report.add(m.record(it, DecisionMerged))
			continue
		}
		exists, err := m.graph.HasNode(ctx, it.key)
		if err != nil {
			return err
		}
		if exists {
			if err := m.graph.MergeNode(ctx, toNode(it)); err != nil {
				return err
			}
			m.report.add(m.record(it, DecisionExisting))
			continue
		}
		if it.elem.Type() == model.TypeModel {
			if err := m.graph.MergeNode(ctx, toNode(it)); err != nil {
				return err
			}
			m.report.add(m.record(it, DecisionNew))
			continue
		}
		pending[it.key] = struct{}{}
		fresh = append(fresh, it)
	}

	if err := m.resolveFresh(ctx, fresh); err != nil {
		return err
	}

	// Same key seen twice in one chunk: the first occurrence is settled now.
	for _, it := range repeats {
		if m.remap.Has(it.key) {
			m.report.add(m.record(it, DecisionMerged))
			continue
		}
		if err := m.graph.MergeNode(ctx, toNode(it)); err != nil {
			return err
		}
		m.report.add(m.record(it, DecisionExisting))
	}
	return nil
}

// resolveFresh embeds unseen keys, judges near-duplicates and writes the
// rest as new nodes.
func (m *Manager) resolveFresh(ctx context.Context, fresh []item) error {
	if len(fresh) == 0 {
		return nil
	}

	var embeddings [][]float32
	if m.client != nil && m.vectors != nil {
		texts := make([]string, len(fresh))
		for i, it := range fresh {
			texts[i] = it.desc
		}
		embeddings = ai.GenerateEmbeddingsParallel(ctx, m.client, texts, m.opts.EmbeddingConcurrency)
	} else {
		embeddings = make([][]float32, len(fresh))
	}

	type candidate struct {
		item  int
		match store.Match
	}
	var candidates []candidate
	for i, it := range fresh {
		if embeddings[i] == nil {
			if m.client != nil && m.vectors != nil {
				m.report.EmbeddingFailures++
			}
			continue
		}
		match, err := m.vectors.SearchNearest(
			ctx, embeddings[i], it.elem.Type(), it.key, m.opts.SimilarityThreshold,
		)
		if err != nil {
			logger.Warn("[Fusion] Similarity search failed", "key", it.key, "err", err)
			continue
		}
		if match == nil {
			continue
		}
		ok, err := m.graph.HasNode(ctx, match.Key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{item: i, match: *match})
	}

	merged := make(map[int]Record)
	if len(candidates) > 0 && m.judge != nil {
		pairs := make([]ai.EntityPair, len(candidates))
		for i, c := range candidates {
			pairs[i] = ai.EntityPair{
				KeyA:  fresh[c.item].key,
				DescA: fresh[c.item].desc,
				KeyB:  c.match.Key,
				DescB: c.match.Description,
			}
		}
		m.report.JudgedPairs += len(pairs)
		verdicts := m.judge.BatchJudge(ctx, pairs)
		for i, v := range verdicts {
			c := candidates[i]
			it := fresh[c.item]
			if !v.SameEntity {
				logger.Debug("[Fusion] Judge kept entities apart", "key", it.key, "candidate", c.match.Key)
				continue
			}
			if err := m.remap.Set(it.key, c.match.Key); err != nil {
				logger.Warn("[Fusion] Remap rejected", "err", err)
				continue
			}
			rec := m.record(it, DecisionMerged)
			rec.CandidateKey = c.match.Key
			rec.Similarity = c.match.Similarity
			rec.Reasoning = v.Reasoning
			merged[c.item] = rec
		}
	}

	for i, it := range fresh {
		if rec, ok := merged[i]; ok {
			logger.Info("[Fusion] Merged duplicate", "key", it.key, "into", rec.CandidateKey)
			m.report.add(rec)
			continue
		}
		if err := m.graph.MergeNode(ctx, toNode(it)); err != nil {
			return err
		}
		if embeddings[i] != nil {
			if err := m.vectors.StoreEmbedding(ctx, it.key, it.elem.Type(), it.desc, embeddings[i]); err != nil {
				logger.Warn("[Fusion] Storing embedding failed", "key", it.key, "err", err)
			}
		}
		m.report.add(m.record(it, DecisionNew))
	}
	return nil
}

func (m *Manager) record(it item, d Decision) Record {
	return Record{
		Key:        it.key,
		OriginalID: it.id,
		Batch:      it.batch,
		Type:       it.elem.Type(),
		Decision:   d,
	}
}

func toNode(it item) store.Node {
	return store.Node{
		Key:        it.key,
		Type:       it.elem.Type(),
		OriginalID: it.id,
		Name:       it.elem.Name(),
		Batch:      it.batch,
		Props:      it.elem.Clone(),
	}
}
