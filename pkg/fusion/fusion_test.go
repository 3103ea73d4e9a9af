package fusion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai/aitest"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store/memory"
)

const motorKey = "Block::Vehicle.Drivetrain.Motor"

func TestFuse_SamePathAcrossBatchesIsOneNode(t *testing.T) {
	ctx := context.Background()
	graph := memory.NewGraphStore()
	m := NewManager(graph, memory.NewVectorStore(), nil, Options{})

	res, err := m.Fuse(ctx, motorBatches())
	require.NoError(t, err)

	blocks, err := graph.NodesByType(ctx, model.TypeBlock)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, motorKey, blocks[0].Key)
	assert.Equal(t, "b1", blocks[0].OriginalID)
	assert.Equal(t, 0, blocks[0].Batch)
	assert.Equal(t, "electric motor", blocks[0].Props["description"])

	assert.Equal(t, 3, res.Report.Existing)
	assert.Equal(t, 0, res.Report.Merged)
	assert.Equal(t, motorKey, res.Keys[1]["mot2"])

	edges, err := graph.EdgesFrom(ctx, "Property::Vehicle.motor")
	require.NoError(t, err)
	var typed []string
	for _, e := range edges {
		if e.Type == model.RelTypedBy {
			typed = append(typed, e.To)
		}
	}
	assert.Equal(t, []string{motorKey}, typed)
}

func TestFuse_RerunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	graph := memory.NewGraphStore()

	_, err := NewManager(graph, memory.NewVectorStore(), nil, Options{}).Fuse(ctx, motorBatches())
	require.NoError(t, err)
	nodes1, _ := graph.AllNodes(ctx)
	edges1, _ := graph.AllEdges(ctx)

	_, err = NewManager(graph, memory.NewVectorStore(), nil, Options{}).Fuse(ctx, motorBatches())
	require.NoError(t, err)
	nodes2, _ := graph.AllNodes(ctx)
	edges2, _ := graph.AllEdges(ctx)

	assert.Equal(t, len(nodes1), len(nodes2))
	assert.Equal(t, edges1, edges2)
}

func similarBatches() []*model.Document {
	return []*model.Document{
		doc("m1", "Model",
			el("id", "b1", "type", "Block", "name", "Motor", "parentId", "m1"),
		),
		doc("m2", "Model",
			el("id", "b2", "type", "Block", "name", "MotorUnit", "parentId", "m2"),
			el("id", "p2", "type", "Property", "name", "drive", "parentId", "b2", "typeId", "b2"),
		),
	}
}

func embedder(unit []float32) func(string) ([]float32, error) {
	return func(text string) ([]float32, error) {
		switch text {
		case "A Block named Motor":
			return []float32{1, 0, 0}, nil
		case "A Block named MotorUnit":
			return unit, nil
		}
		return nil, errors.New("no embedding")
	}
}

func TestFuse_JudgedDuplicateIsRemapped(t *testing.T) {
	ctx := context.Background()
	graph := memory.NewGraphStore()
	client := &aitest.Client{
		EmbedFunc: embedder([]float32{0.99, 0.05, 0}),
		CompletionFunc: func(string) (string, error) {
			return `[{"index":0,"same_entity":true,"reasoning":"same motor"}]`, nil
		},
	}
	m := NewManager(graph, memory.NewVectorStore(), client, Options{})

	res, err := m.Fuse(ctx, similarBatches())
	require.NoError(t, err)

	assert.Equal(t, 1, client.CompletionCalls())
	assert.Equal(t, "Block::Motor", res.Remap.Resolve("Block::MotorUnit"))
	ok, _ := graph.HasNode(ctx, "Block::MotorUnit")
	assert.False(t, ok)
	assert.Equal(t, 1, res.Report.Merged)
	assert.Equal(t, 1, res.Report.EmbeddingFailures)

	var merged Record
	for _, r := range res.Report.Records {
		if r.Decision == DecisionMerged {
			merged = r
		}
	}
	assert.Equal(t, "Block::Motor", merged.CandidateKey)
	assert.Equal(t, "same motor", merged.Reasoning)
	assert.GreaterOrEqual(t, merged.Similarity, DefaultSimilarityThreshold)

	// The property was contained in and typed by the merged block.
	edges, err := graph.EdgesFrom(ctx, "Property::MotorUnit.drive")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	for _, e := range edges {
		assert.Equal(t, "Block::Motor", e.To)
	}
}

func TestFuse_BelowThresholdSkipsJudge(t *testing.T) {
	ctx := context.Background()
	graph := memory.NewGraphStore()
	client := &aitest.Client{EmbedFunc: embedder([]float32{0.8, 0.6, 0})}
	m := NewManager(graph, memory.NewVectorStore(), client, Options{})

	res, err := m.Fuse(ctx, similarBatches())
	require.NoError(t, err)

	assert.Zero(t, client.CompletionCalls())
	assert.Zero(t, res.Remap.Len())
	n, _ := graph.CountByType(ctx, model.TypeBlock)
	assert.Equal(t, 2, n)
}

func TestFuse_JudgeRejectionKeepsBoth(t *testing.T) {
	ctx := context.Background()
	graph := memory.NewGraphStore()
	client := &aitest.Client{
		EmbedFunc: embedder([]float32{0.99, 0.05, 0}),
		CompletionFunc: func(string) (string, error) {
			return `{"results":[{"index":0,"same_entity":false,"reasoning":"different parts"}]}`, nil
		},
	}
	res, err := NewManager(graph, memory.NewVectorStore(), client, Options{}).Fuse(ctx, similarBatches())
	require.NoError(t, err)

	assert.Equal(t, 1, client.CompletionCalls())
	assert.Equal(t, 1, res.Report.JudgedPairs)
	assert.Zero(t, res.Remap.Len())
	n, _ := graph.CountByType(ctx, model.TypeBlock)
	assert.Equal(t, 2, n)
}

func TestFuse_JudgeFailureKeepsBoth(t *testing.T) {
	ctx := context.Background()
	graph := memory.NewGraphStore()
	client := &aitest.Client{
		EmbedFunc: embedder([]float32{0.99, 0.05, 0}),
		CompletionFunc: func(string) (string, error) {
			return "", errors.New("model offline")
		},
	}
	res, err := NewManager(graph, memory.NewVectorStore(), client, Options{MaxRetries: 1}).
		Fuse(ctx, similarBatches())
	require.NoError(t, err)
	assert.Zero(t, res.Remap.Len())
}

func TestFuse_RepeatedKeyInOneBatch(t *testing.T) {
	ctx := context.Background()
	graph := memory.NewGraphStore()
	batch := doc("m1", "Model",
		el("id", "a", "type", "Block", "name", "Pump", "parentId", "m1"),
		el("id", "b", "type", "Block", "name", "Pump", "parentId", "m1", "description", "second"),
	)
	res, err := NewManager(graph, memory.NewVectorStore(), nil, Options{}).
		Fuse(ctx, []*model.Document{batch})
	require.NoError(t, err)

	node, err := graph.GetNode(ctx, "Block::Pump")
	require.NoError(t, err)
	assert.Equal(t, "a", node.OriginalID)
	assert.Equal(t, "second", node.Props["description"])
	assert.Equal(t, 1, res.Report.Existing)
}

func TestFuse_DescriptionText(t *testing.T) {
	assert.Equal(t, "A Block named Motor", describe(el("id", "b", "type", "Block", "name", "Motor")))
	assert.Equal(t, "A Block named Motor: spins",
		describe(el("id", "b", "type", "Block", "name", "Motor", "description", "spins")))
	assert.Equal(t, "A ControlFlow named cf-1", describe(el("id", "cf-1", "type", "ControlFlow")))
}

func TestRebuildRelationships_NoSelfLoops(t *testing.T) {
	ctx := context.Background()
	graph := memory.NewGraphStore()
	require.NoError(t, graph.MergeNode(ctx, store.Node{Key: "Block::A", Type: "Block"}))

	remap := NewRemap()
	require.NoError(t, remap.Set("Block::B", "Block::A"))
	batch := &model.Document{Elements: []model.Element{
		el("id", "x", "type", "Block", "name", "A", "typeId", "y"),
		el("id", "y", "type", "Block", "name", "B"),
	}}
	keys := []map[string]string{{"x": "Block::A", "y": "Block::B"}}

	stats, err := RebuildRelationships(ctx, graph, []*model.Document{batch}, keys, remap)
	require.NoError(t, err)
	assert.Zero(t, stats.Edges)
	assert.Equal(t, 1, stats.Skipped)
	edges, _ := graph.AllEdges(ctx)
	assert.Empty(t, edges)
}

func TestRebuildRelationships_EdgeShapes(t *testing.T) {
	ctx := context.Background()
	graph := memory.NewGraphStore()
	for _, k := range []string{"Block::Car", "Port::Car.p", "AssemblyConnector::Car.c", "Activity::Go", "State::S"} {
		require.NoError(t, graph.MergeNode(ctx, store.Node{Key: k}))
	}
	batch := &model.Document{Elements: []model.Element{
		el("id", "car", "type", "Block", "name", "Car"),
		el("id", "p", "type", "Port", "name", "p", "parentId", "car"),
		el("id", "c", "type", "AssemblyConnector", "name", "c", "parentId", "car",
			"end1", map[string]any{"portRefId": "p", "partRefId": "missing"}),
		el("id", "go", "type", "Activity", "name", "Go"),
		el("id", "s", "type", "State", "name", "S", "entry", map[string]any{"calledBehaviorId": "go"}),
	}}
	keys := []map[string]string{{
		"car": "Block::Car", "p": "Port::Car.p", "c": "AssemblyConnector::Car.c",
		"go": "Activity::Go", "s": "State::S",
	}}
	stats, err := RebuildRelationships(ctx, graph, []*model.Document{batch}, keys, NewRemap())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)

	out, _ := graph.EdgesFrom(ctx, "AssemblyConnector::Car.c")
	var connects []store.Edge
	for _, e := range out {
		if e.Type == model.RelConnects {
			connects = append(connects, e)
		}
	}
	require.Len(t, connects, 1)
	assert.Equal(t, "end1.portRefId", connects[0].Disc)
	assert.Equal(t, "end1", connects[0].Props[PropEnd])
	assert.Equal(t, "portRefId", connects[0].Props[PropRefField])
	assert.Equal(t, "p", connects[0].Props[PropOriginalRef])

	calls, _ := graph.EdgesFrom(ctx, "State::S")
	require.Len(t, calls, 1)
	assert.Equal(t, model.RelCallsBehavior, calls[0].Type)
	assert.Equal(t, "entry", calls[0].Disc)
}
