package ollama

import (
	"strings"
	"testing"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
)

func TestChatRequest_SmallPromptKeepsDefaultContext(t *testing.T) {
	req := chatRequest(ai.GenerateOptions{Model: "m", SystemPrompts: []string{"sys"}}, "hello")
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if _, ok := req.Options["num_ctx"]; ok {
		t.Fatalf("num_ctx set for a small prompt")
	}
	if req.Stream == nil || *req.Stream {
		t.Fatalf("expected non-streaming request")
	}
}

func TestChatRequest_LargePromptRaisesContext(t *testing.T) {
	prompt := strings.Repeat("element reference repair ", 3000)
	req := chatRequest(ai.GenerateOptions{Model: "m"}, prompt)
	n, ok := req.Options["num_ctx"].(int)
	if !ok || n <= defaultContext {
		t.Fatalf("num_ctx = %v, want > %d", req.Options["num_ctx"], defaultContext)
	}
}

func TestFitDims(t *testing.T) {
	if got := fitDims([]float32{1, 2, 3}, 2); len(got) != 2 {
		t.Fatalf("fitDims() truncate len = %d", len(got))
	}
	if got := fitDims([]float32{1}, 3); len(got) != 3 || got[0] != 1 {
		t.Fatalf("fitDims() pad = %v", got)
	}
}
