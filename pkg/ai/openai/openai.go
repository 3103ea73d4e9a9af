// Package openai implements ai.Client against any OpenAI-compatible API.
package openai

import (
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
)

var _ ai.Client = (*Client)(nil)

// Client talks to separate chat and embedding endpoints, which may be the
// same server.
//
// A Client should be created using NewClient.
type Client struct {
	chatModel      string
	embeddingModel string
	embeddingDims  int
	chatURL        string
	timeout        time.Duration

	reqLock *semaphore.Weighted
	metrics ai.MetricsRecorder

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewClientParams configures NewClient.
//
// EmbeddingDims truncates or zero-pads embeddings to a fixed length; zero
// keeps the model's native size. MaxConcurrentRequests bounds in-flight
// requests across chat and embeddings.
type NewClientParams struct {
	ChatModel      string
	EmbeddingModel string
	EmbeddingDims  int

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string

	Timeout               time.Duration
	MaxConcurrentRequests int64
}

// NewClient creates a Client.
//
// Example:
//
//	client := openai.NewClient(openai.NewClientParams{
//		ChatModel:      "gpt-4o-mini",
//		EmbeddingModel: "text-embedding-3-small",
//		ChatKey:        os.Getenv("OPENAI_API_KEY"),
//		EmbeddingKey:   os.Getenv("OPENAI_API_KEY"),
//	})
func NewClient(params NewClientParams) *Client {
	if params.Timeout <= 0 {
		params.Timeout = 2 * time.Minute
	}
	if params.MaxConcurrentRequests <= 0 {
		params.MaxConcurrentRequests = int64(ai.DefaultEmbeddingConcurrency)
	}
	return &Client{
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,
		embeddingDims:  params.EmbeddingDims,
		chatURL:        params.ChatURL,
		timeout:        params.Timeout,

		reqLock: semaphore.NewWeighted(params.MaxConcurrentRequests),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(baseURL, apiKey string) *openai.Client {
	if apiKey == "" && baseURL == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(options...)
	return &client
}

// ResetMetrics clears all accumulated token and timing metrics.
func (c *Client) ResetMetrics() { c.metrics.Reset() }

// GetMetrics returns the accumulated metrics since the last reset.
func (c *Client) GetMetrics() ai.ModelMetrics { return c.metrics.Snapshot() }
