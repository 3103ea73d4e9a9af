package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/sysmlfuse/internal/config"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
	oai "github.com/OFFIS-RIT/sysmlfuse/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/sysmlfuse/pkg/ai/openai"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/pipeline"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store/memory"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store/pgx"
)

// newAIClient returns nil when no adapter is configured.
func newAIClient(c config.AIConfig) (ai.Client, error) {
	timeout := time.Duration(c.TimeoutSeconds) * time.Second
	switch c.Adapter {
	case "":
		return nil, nil
	case "ollama":
		client, err := oai.NewClient(oai.NewClientParams{
			ChatModel:             c.ChatModel,
			EmbeddingModel:        c.EmbeddingModel,
			EmbeddingDims:         c.EmbeddingDims,
			BaseURL:               c.ChatURL,
			ApiKey:                c.ChatKey,
			Timeout:               timeout,
			MaxConcurrentRequests: c.ParallelReq,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return client, nil
	default:
		embedURL, embedKey := c.EmbeddingURL, c.EmbeddingKey
		if embedURL == "" && embedKey == "" {
			embedURL, embedKey = c.ChatURL, c.ChatKey
		}
		return gai.NewClient(gai.NewClientParams{
			ChatModel:             c.ChatModel,
			EmbeddingModel:        c.EmbeddingModel,
			EmbeddingDims:         c.EmbeddingDims,
			ChatURL:               c.ChatURL,
			ChatKey:               c.ChatKey,
			EmbeddingURL:          embedURL,
			EmbeddingKey:          embedKey,
			Timeout:               timeout,
			MaxConcurrentRequests: c.ParallelReq,
		}), nil
	}
}

func newGraphStore(c config.StoreConfig) (store.GraphStore, error) {
	switch c.Graph {
	case "kuzu":
		return openKuzu(c.KuzuPath)
	default:
		return memory.NewGraphStore(), nil
	}
}

func newVectorStore(ctx context.Context, c config.StoreConfig) (store.VectorStore, error) {
	switch c.Vector {
	case "pgvector":
		vs, err := pgx.Open(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open pgvector store: %w", err)
		}
		return vs, nil
	default:
		return memory.NewVectorStore(), nil
	}
}

// components is everything a pipeline needs, opened from the config.
type components struct {
	graph   store.GraphStore
	vectors store.VectorStore
	client  ai.Client
}

func openComponents(ctx context.Context, withStores bool) (*components, error) {
	client, err := newAIClient(cfg.AI)
	if err != nil {
		return nil, err
	}
	c := &components{client: client}
	if !withStores {
		return c, nil
	}
	if c.graph, err = newGraphStore(cfg.Store); err != nil {
		return nil, err
	}
	if c.vectors, err = newVectorStore(ctx, cfg.Store); err != nil {
		c.graph.Close()
		return nil, err
	}
	return c, nil
}

func (c *components) pipeline(opts pipeline.Options) *pipeline.Pipeline {
	return pipeline.New(c.graph, c.vectors, c.client, opts)
}

func (c *components) Close() {
	if c.graph != nil {
		if err := c.graph.Close(); err != nil {
			logger.Warn("[Store] Closing graph store failed", "err", err)
		}
	}
	if c.vectors != nil {
		if err := c.vectors.Close(); err != nil {
			logger.Warn("[Store] Closing vector store failed", "err", err)
		}
	}
	if c.client != nil {
		m := c.client.GetMetrics()
		logger.Info("[AI] Usage",
			"requests", m.Requests,
			"input_tokens", m.InputTokens,
			"output_tokens", m.OutputTokens,
			"duration_ms", m.DurationMs,
		)
	}
}

func readDocument(ctx context.Context, location string) (*model.Document, error) {
	data, err := artifacts.Read(ctx, location)
	if err != nil {
		return nil, err
	}
	doc, err := model.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return doc, nil
}

func readBatches(ctx context.Context, locations []string) ([]*model.Document, error) {
	batches := make([]*model.Document, 0, len(locations))
	for _, loc := range locations {
		doc, err := readDocument(ctx, loc)
		if err != nil {
			return nil, err
		}
		batches = append(batches, doc)
	}
	return batches, nil
}

func writeDocument(ctx context.Context, location string, doc *model.Document) error {
	if location == "" || doc == nil {
		return nil
	}
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	return artifacts.Write(ctx, location, data)
}

// writeResult writes whatever artifacts the run produced. The report is
// written even for a failed run.
func writeResult(ctx context.Context, res *pipeline.Result, out outputs) error {
	if res == nil {
		return nil
	}
	if out.report != "" {
		data, err := res.Report.JSON()
		if err != nil {
			return err
		}
		if err := artifacts.Write(ctx, out.report, data); err != nil {
			return err
		}
	}
	if out.xmi != "" && res.XMI != nil {
		if err := artifacts.Write(ctx, out.xmi, res.XMI); err != nil {
			return err
		}
	}
	doc := res.Document
	if doc == nil {
		doc = res.Exported
	}
	return writeDocument(ctx, out.document, doc)
}

// outputs are the artifact locations of one command, flag values first,
// then the config.
type outputs struct {
	xmi      string
	document string
	report   string
}

func (o outputs) withDefaults() outputs {
	if o.xmi == "" {
		o.xmi = cfg.Output.XMI
	}
	if o.document == "" {
		o.document = cfg.Output.Document
	}
	if o.report == "" {
		o.report = cfg.Output.Report
	}
	return o
}
