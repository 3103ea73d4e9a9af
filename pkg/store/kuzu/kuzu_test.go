//go:build cgo

package kuzu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
)

func newTestStore(t *testing.T) *GraphStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err, "Open should not fail")
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.InitSchema(context.Background()), "InitSchema should not fail")
	return s
}

func TestGraphStore_InitSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InitSchema(context.Background()))
}

func TestGraphStore_MergeNodeTwiceYieldsOneNode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := store.Node{Key: "Block::Vehicle.Motor", Type: "Block", OriginalID: "blk-motor-1", Name: "Motor",
		Props: map[string]any{"description": "drives wheels"}}
	require.NoError(t, s.MergeNode(ctx, n))
	n.OriginalID = "blk-motor-2"
	n.Props = map[string]any{"mass": 12.5}
	require.NoError(t, s.MergeNode(ctx, n))

	count, err := s.CountByType(ctx, "Block")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := s.GetNode(ctx, n.Key)
	require.NoError(t, err)
	assert.Equal(t, "blk-motor-1", got.OriginalID)
	assert.Equal(t, "drives wheels", got.Props["description"])
	assert.Equal(t, 12.5, got.Props["mass"])
}

func TestGraphStore_EnsureNode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.EnsureNode(ctx, store.Node{Key: "Model::master", Type: "Model", Name: "Master"})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.EnsureNode(ctx, store.Node{Key: "Model::master", Type: "Model", Name: "Other"})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.GetNode(ctx, "Model::master")
	require.NoError(t, err)
	assert.Equal(t, "Master", got.Name)

	_, err = s.GetNode(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGraphStore_EdgesMergeAndDetachDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.MergeNode(ctx, store.Node{Key: k, Type: "Package", Name: k}))
	}

	e := store.Edge{From: "a", To: "b", Type: "CONTAINED_IN", Props: map[string]any{"index": 0}}
	require.NoError(t, s.MergeEdge(ctx, e))
	require.NoError(t, s.MergeEdge(ctx, e))
	require.NoError(t, s.MergeEdge(ctx, store.Edge{From: "c", To: "b", Type: "CONNECTS", Disc: "end1"}))
	require.NoError(t, s.MergeEdge(ctx, store.Edge{From: "c", To: "b", Type: "CONNECTS", Disc: "end2"}))

	all, err := s.AllEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	from, err := s.EdgesFrom(ctx, "c")
	require.NoError(t, err)
	require.Len(t, from, 2)
	assert.Equal(t, "end1", from[0].Disc)

	require.NoError(t, s.DetachDelete(ctx, "b"))
	all, err = s.AllEdges(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	nodes, err := s.AllNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}
