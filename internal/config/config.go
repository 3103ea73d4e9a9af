// Package config loads the sysmlfuse configuration: built-in defaults, then a
// YAML file, then environment variables, then validation.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"

	"github.com/OFFIS-RIT/sysmlfuse/internal/util"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/fusion"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/orphan"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/pipeline"
)

// DefaultPath is read when Load is given no path.
const DefaultPath = "sysmlfuse.yaml"

type Config struct {
	Debug   bool          `yaml:"debug"`
	AI      AIConfig      `yaml:"ai"`
	Fusion  FusionConfig  `yaml:"fusion"`
	Remover RemoverConfig `yaml:"remover"`
	Repair  RepairConfig  `yaml:"repair"`
	Store   StoreConfig   `yaml:"store"`
	Output  OutputConfig  `yaml:"output"`
}

// AIConfig selects the LLM and embedding backend. An empty adapter runs
// without any model: fusion merges identical keys only and repair stays
// rule based.
type AIConfig struct {
	Adapter        string `yaml:"adapter" validate:"omitempty,oneof=openai ollama"`
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`
	EmbeddingDims  int    `yaml:"embedding_dims" validate:"gte=0"`
	ChatURL        string `yaml:"chat_url"`
	ChatKey        string `yaml:"chat_key"`
	EmbeddingURL   string `yaml:"embedding_url"`
	EmbeddingKey   string `yaml:"embedding_key"`
	MaxRetries     int    `yaml:"max_retries" validate:"gte=1"`
	ParallelReq    int64  `yaml:"parallel_requests" validate:"gte=1"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1"`
}

type FusionConfig struct {
	BatchSize            int     `yaml:"batch_size" validate:"gte=1"`
	SimilarityThreshold  float64 `yaml:"similarity_threshold" validate:"gt=0,lte=1"`
	JudgeBatchSize       int     `yaml:"judge_batch_size" validate:"gte=1"`
	EmbeddingConcurrency int     `yaml:"embedding_concurrency" validate:"gte=1"`
	MasterModelID        string  `yaml:"master_model_id" validate:"required"`
	MasterModelName      string  `yaml:"master_model_name" validate:"required"`
}

type RemoverConfig struct {
	MaxIterations int  `yaml:"max_iterations" validate:"gte=1"`
	CheckTypeID   bool `yaml:"check_type_id"`
}

type RepairConfig struct {
	MaxRuleIterations int     `yaml:"max_rule_iterations" validate:"gte=1"`
	EnableLLM         bool    `yaml:"enable_llm"`
	MaxLLMIterations  int     `yaml:"max_llm_iterations" validate:"gte=1"`
	CandidateLimit    int     `yaml:"candidate_limit" validate:"gte=1,lte=100"`
	SimilarIDRatio    float64 `yaml:"similar_id_ratio" validate:"gt=0,lte=1"`
	MinPrefix         int     `yaml:"min_prefix" validate:"gte=1"`
}

type StoreConfig struct {
	Graph       string `yaml:"graph" validate:"oneof=kuzu memory"`
	KuzuPath    string `yaml:"kuzu_path"`
	Vector      string `yaml:"vector" validate:"oneof=pgvector memory"`
	DatabaseURL string `yaml:"database_url"`
}

// OutputConfig holds artifact locations. Locations are plain paths, file://
// URLs or s3://bucket/key URLs.
type OutputConfig struct {
	XMI      string `yaml:"xmi"`
	Document string `yaml:"document"`
	Report   string `yaml:"report"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AI: AIConfig{
			MaxRetries:     3,
			ParallelReq:    10,
			TimeoutSeconds: 120,
		},
		Fusion: FusionConfig{
			BatchSize:            fusion.DefaultBatchSize,
			SimilarityThreshold:  fusion.DefaultSimilarityThreshold,
			JudgeBatchSize:       ai.DefaultJudgeBatchSize,
			EmbeddingConcurrency: ai.DefaultEmbeddingConcurrency,
			MasterModelID:        fusion.DefaultMasterModelID,
			MasterModelName:      fusion.DefaultMasterModelName,
		},
		Remover: RemoverConfig{MaxIterations: orphan.DefaultMaxIterations},
		Repair: RepairConfig{
			MaxRuleIterations: orphan.DefaultMaxRuleIterations,
			MaxLLMIterations:  orphan.DefaultMaxLLMIterations,
			CandidateLimit:    ai.MaxRepairCandidates,
			SimilarIDRatio:    orphan.DefaultSimilarIDRatio,
			MinPrefix:         orphan.DefaultMinPrefix,
		},
		Store: StoreConfig{
			Graph:    "memory",
			KuzuPath: ".sysmlfuse/graph",
			Vector:   "memory",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file at DefaultPath is not an error; a
// missing file that was asked for explicitly is.
func Load(path string) (*Config, error) {
	util.LoadEnv()
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Keys absent from the file keep their default.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with the environment variables the worker
// deployments already use.
func (c *Config) applyEnv() {
	c.Debug = util.GetEnvBool("DEBUG", c.Debug)

	c.AI.Adapter = util.GetEnvString("AI_ADAPTER", c.AI.Adapter)
	c.AI.ChatModel = util.GetEnvString("AI_CHAT_MODEL", c.AI.ChatModel)
	c.AI.EmbeddingModel = util.GetEnvString("AI_EMBED_MODEL", c.AI.EmbeddingModel)
	c.AI.EmbeddingDims = util.GetEnvInt("AI_EMBED_DIM", c.AI.EmbeddingDims)
	c.AI.ChatURL = util.GetEnvString("AI_CHAT_URL", c.AI.ChatURL)
	c.AI.ChatKey = util.GetEnvString("AI_CHAT_KEY", c.AI.ChatKey)
	c.AI.EmbeddingURL = util.GetEnvString("AI_EMBED_URL", c.AI.EmbeddingURL)
	c.AI.EmbeddingKey = util.GetEnvString("AI_EMBED_KEY", c.AI.EmbeddingKey)
	c.AI.MaxRetries = util.GetEnvInt("AI_MAX_RETRIES", c.AI.MaxRetries)
	c.AI.ParallelReq = int64(util.GetEnvInt("AI_PARALLEL_REQ", int(c.AI.ParallelReq)))

	c.Fusion.SimilarityThreshold = util.GetEnvFloat("FUSION_SIMILARITY_THRESHOLD", c.Fusion.SimilarityThreshold)
	c.Fusion.JudgeBatchSize = util.GetEnvInt("FUSION_JUDGE_BATCH_SIZE", c.Fusion.JudgeBatchSize)
	c.Repair.EnableLLM = util.GetEnvBool("REPAIR_ENABLE_LLM", c.Repair.EnableLLM)

	c.Store.Graph = util.GetEnvString("GRAPH_STORE", c.Store.Graph)
	c.Store.KuzuPath = util.GetEnvString("KUZU_PATH", c.Store.KuzuPath)
	c.Store.Vector = util.GetEnvString("VECTOR_STORE", c.Store.Vector)
	c.Store.DatabaseURL = util.GetEnvString("DATABASE_URL", c.Store.DatabaseURL)
}

// Validate checks struct tags and the rules that span fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Vector == "pgvector" && c.Store.DatabaseURL == "" {
		return errors.New("invalid config: store.database_url is required for the pgvector store")
	}
	if c.Repair.EnableLLM && c.AI.Adapter == "" {
		return errors.New("invalid config: repair.enable_llm needs ai.adapter")
	}
	return nil
}

// PipelineOptions maps the configuration onto the stage options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Fusion: fusion.Options{
			BatchSize:            c.Fusion.BatchSize,
			SimilarityThreshold:  c.Fusion.SimilarityThreshold,
			EmbeddingConcurrency: c.Fusion.EmbeddingConcurrency,
			JudgeBatchSize:       c.Fusion.JudgeBatchSize,
			MaxRetries:           c.AI.MaxRetries,
		},
		Unify: fusion.UnifyOptions{
			MasterID:   c.Fusion.MasterModelID,
			MasterName: c.Fusion.MasterModelName,
		},
		Remover: orphan.RemoverOptions{
			MaxIterations: c.Remover.MaxIterations,
			CheckTypeID:   c.Remover.CheckTypeID,
		},
		Repair: orphan.RepairOptions{
			MaxRuleIterations: c.Repair.MaxRuleIterations,
			EnableLLM:         c.Repair.EnableLLM,
			MaxLLMIterations:  c.Repair.MaxLLMIterations,
			CandidateLimit:    c.Repair.CandidateLimit,
			SimilarIDRatio:    c.Repair.SimilarIDRatio,
			MinPrefix:         c.Repair.MinPrefix,
			MaxRetries:        c.AI.MaxRetries,
		},
	}
}
