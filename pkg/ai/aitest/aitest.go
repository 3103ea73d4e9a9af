// Package aitest provides a scripted ai.Client for tests.
package aitest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
)

var _ ai.Client = (*Client)(nil)

// Client answers from the configured funcs and records every call. Unset
// funcs fail, so a test notices calls it did not expect.
type Client struct {
	EmbedFunc      func(text string) ([]float32, error)
	CompletionFunc func(prompt string) (string, error)
	// FormatFunc returns the JSON that is decoded into out.
	FormatFunc func(name, prompt string) (string, error)

	mu              sync.Mutex
	embedCalls      int
	completionCalls int
	formatCalls     int
	prompts         []string
}

func (c *Client) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	c.mu.Lock()
	c.completionCalls++
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()
	if c.CompletionFunc == nil {
		return "", fmt.Errorf("aitest: unexpected completion call")
	}
	return c.CompletionFunc(prompt)
}

func (c *Client) GenerateCompletionWithFormat(
	_ context.Context,
	name, _ string,
	prompt string,
	out any,
	_ ...ai.GenerateOption,
) error {
	c.mu.Lock()
	c.formatCalls++
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()
	if c.FormatFunc == nil {
		return fmt.Errorf("aitest: unexpected format call %q", name)
	}
	raw, err := c.FormatFunc(name, prompt)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func (c *Client) GenerateEmbedding(_ context.Context, input []byte) ([]float32, error) {
	c.mu.Lock()
	c.embedCalls++
	c.mu.Unlock()
	if c.EmbedFunc == nil {
		return nil, fmt.Errorf("aitest: unexpected embedding call")
	}
	return c.EmbedFunc(string(input))
}

func (c *Client) ResetMetrics() {}

func (c *Client) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

// CompletionCalls returns the number of GenerateCompletion calls.
func (c *Client) CompletionCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completionCalls
}

// FormatCalls returns the number of GenerateCompletionWithFormat calls.
func (c *Client) FormatCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formatCalls
}

// EmbedCalls returns the number of GenerateEmbedding calls.
func (c *Client) EmbedCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.embedCalls
}

// Prompts returns every prompt seen so far.
func (c *Client) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}
