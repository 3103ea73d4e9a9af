package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
)

var errNoEmbeddingClient = errors.New("openai: embedding endpoint not configured")

// GenerateEmbedding creates a vector embedding for one input text.
func (c *Client) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	res, err := c.GenerateEmbeddings(ctx, [][]byte{input})
	if err != nil {
		return nil, err
	}
	if len(res) != 1 {
		return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(res))
	}
	return res[0], nil
}

// GenerateEmbeddings embeds several inputs in a single request. Blank
// inputs are rejected because an all-zero vector would match nothing.
func (c *Client) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if c.EmbeddingClient == nil {
		return nil, errNoEmbeddingClient
	}
	texts := make([]string, len(inputs))
	for i, in := range inputs {
		texts[i] = strings.TrimSpace(string(in))
		if texts[i] == "" {
			return nil, fmt.Errorf("embedding input %d is empty", i)
		}
	}

	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	start := time.Now()
	response, err := c.EmbeddingClient.Embeddings.New(rCtx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, err
	}
	c.metrics.Add(ai.ModelMetrics{
		InputTokens: int(response.Usage.PromptTokens),
		TotalTokens: int(response.Usage.TotalTokens),
		DurationMs:  time.Since(start).Milliseconds(),
	})

	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want %d", len(response.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, embedding := range response.Data {
		idx := int(embedding.Index)
		if idx < 0 || idx >= len(texts) {
			return nil, fmt.Errorf("embedding index out of range: %d", embedding.Index)
		}
		out[idx] = fitDims(embedding.Embedding, c.embeddingDims)
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return out, nil
}

// fitDims converts to float32 and truncates or zero-pads to dims when dims
// is positive.
func fitDims(vec []float64, dims int) []float32 {
	n := len(vec)
	if dims > 0 {
		n = dims
	}
	out := make([]float32, n)
	for i := 0; i < n && i < len(vec); i++ {
		out[i] = float32(vec[i])
	}
	return out
}
