package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai/aitest"
)

func TestGenerateEmbeddingsParallel_FailOpen(t *testing.T) {
	client := &aitest.Client{EmbedFunc: func(text string) ([]float32, error) {
		if text == "bad" {
			return nil, errors.New("boom")
		}
		return []float32{float32(len(text))}, nil
	}}

	got := ai.GenerateEmbeddingsParallel(context.Background(), client, []string{"a", "bad", "ccc"}, 2)

	assert.Equal(t, []float32{1}, got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, []float32{3}, got[2])
	assert.Equal(t, 3, client.EmbedCalls())
}

func TestGenerateEmbeddingsParallel_NilClient(t *testing.T) {
	got := ai.GenerateEmbeddingsParallel(context.Background(), nil, []string{"a"}, 0)
	assert.Equal(t, [][]float32{nil}, got)
}
