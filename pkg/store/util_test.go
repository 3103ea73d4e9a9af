package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRange(t *testing.T) {
	var windows [][2]int
	err := ChunkRange(7, 3, func(start, end int) error {
		windows = append(windows, [2]int{start, end})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 7}}, windows)

	calls := 0
	require.NoError(t, ChunkRange(0, 3, func(int, int) error { calls++; return nil }))
	assert.Zero(t, calls)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}

func TestPropsRoundTrip(t *testing.T) {
	raw, err := EncodeProps(map[string]any{"name": "Motor", "nodes": []any{"a"}})
	require.NoError(t, err)
	props, err := DecodeProps(raw)
	require.NoError(t, err)
	assert.Equal(t, "Motor", props["name"])

	empty, err := DecodeProps("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMergeProps(t *testing.T) {
	prev := map[string]any{"a": 1, "b": 2}
	out := MergeProps(prev, map[string]any{"b": 3})
	assert.Equal(t, map[string]any{"a": 1, "b": 3}, out)
	assert.Equal(t, 2, prev["b"])
}
