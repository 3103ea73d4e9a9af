package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
)

// GenerateEmbedding creates a vector embedding for one input text.
func (c *Client) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	res, err := c.GenerateEmbeddings(ctx, [][]byte{input})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// GenerateEmbeddings embeds several inputs with one Embed call.
func (c *Client) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
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

	res, err := c.Client.Embed(rCtx, &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: texts,
	})
	if err != nil {
		return nil, err
	}
	c.metrics.Add(ai.ModelMetrics{
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want %d", len(res.Embeddings), len(texts))
	}
	out := make([][]float32, len(texts))
	for i, vec := range res.Embeddings {
		out[i] = fitDims(vec, c.embeddingDims)
	}
	return out, nil
}

func fitDims(vec []float32, dims int) []float32 {
	n := len(vec)
	if dims > 0 {
		n = dims
	}
	out := make([]float32, n)
	copy(out, vec)
	return out
}
