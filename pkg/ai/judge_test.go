package ai_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai/aitest"
)

func pairs(n int) []ai.EntityPair {
	out := make([]ai.EntityPair, n)
	for i := range out {
		out[i] = ai.EntityPair{
			KeyA: fmt.Sprintf("Block::A%d", i), DescA: "a",
			KeyB: fmt.Sprintf("Block::B%d", i), DescB: "b",
		}
	}
	return out
}

// allSame answers "same" for every index listed in the prompt.
func allSame(prompt string) (string, error) {
	n := strings.Count(prompt, "- index ")
	items := make([]string, n)
	for i := 0; i < n; i++ {
		items[i] = fmt.Sprintf(`{"index":%d,"same_entity":true,"reasoning":"ok"}`, i)
	}
	return "[" + strings.Join(items, ",") + "]", nil
}

func TestBatchJudge_SplitsLargeInput(t *testing.T) {
	client := &aitest.Client{CompletionFunc: allSame}
	j := ai.NewJudge(client, 8, 1)

	got := j.BatchJudge(context.Background(), pairs(20))
	require.Len(t, got, 20)
	for i, v := range got {
		assert.True(t, v.SameEntity, "pair %d", i)
		assert.Equal(t, i, v.Index)
	}
	// 20 -> 10+10 -> 5+5+5+5
	assert.Equal(t, 4, client.CompletionCalls())
}

func TestBatchJudge_MissingIndexMeansDifferent(t *testing.T) {
	client := &aitest.Client{CompletionFunc: func(string) (string, error) {
		return `[{"index":1,"is_same":true}]`, nil
	}}
	got := ai.NewJudge(client, 8, 1).BatchJudge(context.Background(), pairs(3))

	assert.False(t, got[0].SameEntity)
	assert.True(t, got[1].SameEntity)
	assert.False(t, got[2].SameEntity)
	assert.Equal(t, "no verdict returned", got[2].Reasoning)
}

func TestBatchJudge_FailureDegradesToDifferent(t *testing.T) {
	client := &aitest.Client{CompletionFunc: func(string) (string, error) {
		return "", errors.New("upstream down")
	}}
	got := ai.NewJudge(client, 8, 2).BatchJudge(context.Background(), pairs(2))

	for _, v := range got {
		assert.False(t, v.SameEntity)
		assert.Contains(t, v.Reasoning, "upstream down")
	}
	assert.Equal(t, 2, client.CompletionCalls())
}

func TestBatchJudge_Empty(t *testing.T) {
	client := &aitest.Client{}
	assert.Empty(t, ai.NewJudge(client, 0, 0).BatchJudge(context.Background(), nil))
	assert.Zero(t, client.CompletionCalls())
}
