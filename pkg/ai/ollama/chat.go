package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
)

// defaultContext is Ollama's num_ctx unless a prompt needs more.
const defaultContext = 4096

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *Client) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.ApplyOptions(ai.GenerateOptions{Model: c.chatModel, Temperature: 0.3}, opts...)
	return c.chat(ctx, chatRequest(options, prompt))
}

// GenerateCompletionWithFormat enforces a JSON schema and unmarshals into out.
func (c *Client) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	rv := reflect.ValueOf(out)
	if out == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}
	formatBytes, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return err
	}

	options := ai.ApplyOptions(ai.GenerateOptions{Model: c.chatModel, Temperature: 0.1}, opts...)
	req := chatRequest(options, prompt)
	req.Format = json.RawMessage(formatBytes)

	content, err := c.chat(ctx, req)
	if err != nil {
		return err
	}
	return ai.UnmarshalFlexible(content, out)
}

func chatRequest(options ai.GenerateOptions, prompt string) *api.ChatRequest {
	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sys := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sys})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}
	if options.Thinking != "" {
		req.Think = &api.ThinkValue{Value: options.Thinking}
	}

	if tokens := contextTokens(msgs); tokens > defaultContext {
		req.Options["num_ctx"] = tokens
	}
	return req
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// contextTokens estimates the context window a request needs, with room for
// the answer. Without the tokenizer it assumes four bytes per token.
func contextTokens(msgs []api.Message) int {
	encOnce.Do(func() {
		var err error
		enc, err = tiktoken.GetEncoding("o200k_base")
		if err != nil {
			logger.Debug("[AI] Tokenizer unavailable, estimating context size", "err", err)
		}
	})
	tokens := 512
	for _, m := range msgs {
		if enc != nil {
			tokens += len(enc.Encode(m.Content, nil, nil))
		} else {
			tokens += len(m.Content)/4 + 1
		}
	}
	return tokens
}

func (c *Client) chat(ctx context.Context, req *api.ChatRequest) (string, error) {
	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(rCtx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", err
	}

	c.metrics.Add(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})
	return final.Message.Content, nil
}
