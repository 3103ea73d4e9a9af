package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sysmlfuse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.98, cfg.Fusion.SimilarityThreshold)
	assert.Equal(t, 8, cfg.Fusion.JudgeBatchSize)
	assert.Equal(t, 50, cfg.Fusion.BatchSize)
	assert.Equal(t, 10, cfg.Remover.MaxIterations)
	assert.Equal(t, 20, cfg.Repair.CandidateLimit)
	assert.Equal(t, "memory", cfg.Store.Graph)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
ai:
  adapter: ollama
  chat_model: llama3
fusion:
  similarity_threshold: 0.9
repair:
  enable_llm: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.AI.Adapter)
	assert.Equal(t, "llama3", cfg.AI.ChatModel)
	assert.Equal(t, 0.9, cfg.Fusion.SimilarityThreshold)
	assert.True(t, cfg.Repair.EnableLLM)
	assert.Equal(t, 8, cfg.Fusion.JudgeBatchSize)
	assert.Equal(t, 3, cfg.Repair.MaxLLMIterations)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "fusion:\n  judge_batch_size: 4\n")
	t.Setenv("FUSION_JUDGE_BATCH_SIZE", "6")
	t.Setenv("GRAPH_STORE", "kuzu")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Fusion.JudgeBatchSize)
	assert.Equal(t, "kuzu", cfg.Store.Graph)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"unknown graph store":   "store:\n  graph: neo4j\n",
		"threshold above one":   "fusion:\n  similarity_threshold: 1.5\n",
		"pgvector without url":  "store:\n  vector: pgvector\n",
		"llm repair without ai": "repair:\n  enable_llm: true\n",
		"unknown adapter":       "ai:\n  adapter: bard\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestPipelineOptions(t *testing.T) {
	cfg := Default()
	cfg.Fusion.SimilarityThreshold = 0.9
	cfg.Remover.CheckTypeID = true
	cfg.AI.MaxRetries = 5

	opts := cfg.PipelineOptions()
	assert.Equal(t, 0.9, opts.Fusion.SimilarityThreshold)
	assert.Equal(t, 5, opts.Fusion.MaxRetries)
	assert.Equal(t, 5, opts.Repair.MaxRetries)
	assert.True(t, opts.Remover.CheckTypeID)
	assert.Equal(t, "master-model", opts.Unify.MasterID)
	assert.False(t, opts.SkipXMI)
}
