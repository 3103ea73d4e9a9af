// Package ollama implements ai.Client against a local or remote Ollama
// server.
package ollama

import (
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
)

var _ ai.Client = (*Client)(nil)

// Client implements ai.Client using Ollama as the backend.
type Client struct {
	chatModel      string
	embeddingModel string
	embeddingDims  int
	timeout        time.Duration

	reqLock *semaphore.Weighted
	metrics ai.MetricsRecorder

	Client *api.Client
}

// NewClientParams contains configuration options for NewClient.
type NewClientParams struct {
	ChatModel      string
	EmbeddingModel string
	EmbeddingDims  int

	BaseURL string
	ApiKey  string

	Timeout               time.Duration
	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient connects to the Ollama server at BaseURL, or the environment's
// default when empty.
func NewClient(params NewClientParams) (*Client, error) {
	var (
		u   *url.URL
		err error
	)
	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	headers := map[string]string{}
	if params.ApiKey != "" {
		headers["Authorization"] = "Bearer " + params.ApiKey
	}
	httpClient := &http.Client{
		Transport: &headerTransport{headers: headers, rt: http.DefaultTransport},
	}

	var cli *api.Client
	if u != nil {
		cli = api.NewClient(u, httpClient)
	} else {
		cli, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
	}

	if params.Timeout <= 0 {
		params.Timeout = 5 * time.Minute
	}
	if params.MaxConcurrentRequests <= 0 {
		params.MaxConcurrentRequests = 4
	}
	return &Client{
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,
		embeddingDims:  params.EmbeddingDims,
		timeout:        params.Timeout,
		reqLock:        semaphore.NewWeighted(params.MaxConcurrentRequests),
		Client:         cli,
	}, nil
}

// ResetMetrics clears all accumulated token and timing metrics to zero.
func (c *Client) ResetMetrics() { c.metrics.Reset() }

// GetMetrics returns the accumulated token usage and timing metrics since the last reset.
func (c *Client) GetMetrics() ai.ModelMetrics { return c.metrics.Snapshot() }
