package ai

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
)

// DefaultEmbeddingConcurrency caps in-flight embedding requests.
const DefaultEmbeddingConcurrency = 10

type embeddingBatcher interface {
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)
}

// GenerateEmbeddingsParallel embeds every text and returns results in input
// order. A failed embedding leaves a nil entry; failures never abort the
// others. Clients that embed in batches are used directly and fall back to
// per-text requests on error.
func GenerateEmbeddingsParallel(
	ctx context.Context,
	client Client,
	texts []string,
	concurrency int,
) [][]float32 {
	out := make([][]float32, len(texts))
	if client == nil || len(texts) == 0 {
		return out
	}
	if concurrency <= 0 {
		concurrency = DefaultEmbeddingConcurrency
	}

	if b, ok := client.(embeddingBatcher); ok {
		inputs := make([][]byte, len(texts))
		for i, t := range texts {
			inputs[i] = []byte(t)
		}
		embs, err := b.GenerateEmbeddings(ctx, inputs)
		if err == nil && len(embs) == len(texts) {
			copy(out, embs)
			return out
		}
		logger.Warn("[AI] Batched embedding failed, embedding one by one", "texts", len(texts), "err", err)
	}

	var eg errgroup.Group
	eg.SetLimit(concurrency)
	for i := range texts {
		idx := i
		eg.Go(func() error {
			emb, err := client.GenerateEmbedding(ctx, []byte(texts[idx]))
			if err != nil {
				logger.Warn("[AI] Embedding failed", "index", idx, "err", err)
				return nil
			}
			if len(emb) == 0 {
				logger.Warn("[AI] Embedding empty", "index", idx)
				return nil
			}
			out[idx] = emb
			return nil
		})
	}
	_ = eg.Wait()
	return out
}
