package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	gUtil "github.com/OFFIS-RIT/sysmlfuse/internal/util"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
)

// DefaultJudgeBatchSize caps the number of pairs sent in one judge call.
const DefaultJudgeBatchSize = 8

// EntityPair is one candidate merge: A is the incoming element, B the stored
// nearest neighbour.
type EntityPair struct {
	KeyA  string
	DescA string
	KeyB  string
	DescB string
}

// Verdict is the judge's answer for one pair.
type Verdict struct {
	Index      int    `json:"index"`
	SameEntity bool   `json:"same_entity"`
	Reasoning  string `json:"reasoning"`
}

// sameKeyAliases are spellings models use instead of same_entity.
var sameKeyAliases = []string{"same_entity", "is_same", "isSame", "same", "sameEntity", "is_same_entity"}

// Judge arbitrates candidate merges with batched LLM calls.
type Judge struct {
	client     Client
	batchSize  int
	maxRetries int
}

// NewJudge returns a Judge. Non-positive sizes fall back to defaults.
func NewJudge(client Client, batchSize, maxRetries int) *Judge {
	if batchSize <= 0 {
		batchSize = DefaultJudgeBatchSize
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Judge{client: client, batchSize: batchSize, maxRetries: maxRetries}
}

// BatchJudge returns one verdict per pair, index-aligned with pairs. Inputs
// larger than the batch size are split recursively. Failed calls and missing
// indices yield "not the same".
func (j *Judge) BatchJudge(ctx context.Context, pairs []EntityPair) []Verdict {
	out := make([]Verdict, len(pairs))
	for i := range out {
		out[i] = Verdict{Index: i, Reasoning: "no verdict returned"}
	}
	if len(pairs) == 0 || j.client == nil {
		return out
	}
	j.judgeRange(ctx, pairs, 0, out)
	return out
}

func (j *Judge) judgeRange(ctx context.Context, pairs []EntityPair, offset int, out []Verdict) {
	if len(pairs) > j.batchSize {
		mid := len(pairs) / 2
		j.judgeRange(ctx, pairs[:mid], offset, out)
		j.judgeRange(ctx, pairs[mid:], offset+mid, out)
		return
	}

	verdicts, err := j.judgeChunk(ctx, pairs)
	if err != nil {
		logger.Warn("[AI] Entity judge failed, treating pairs as distinct", "pairs", len(pairs), "err", err)
		for i := range pairs {
			out[offset+i].Reasoning = "judge failed: " + err.Error()
		}
		return
	}
	for _, v := range verdicts {
		if v.Index < 0 || v.Index >= len(pairs) {
			continue
		}
		out[offset+v.Index] = Verdict{Index: offset + v.Index, SameEntity: v.SameEntity, Reasoning: v.Reasoning}
	}
}

func (j *Judge) judgeChunk(ctx context.Context, pairs []EntityPair) ([]Verdict, error) {
	var data strings.Builder
	data.WriteString("Pairs:\n")
	for i, p := range pairs {
		fmt.Fprintf(&data, "- index %d\n  A: %s\n     %s\n  B: %s\n     %s\n", i, p.KeyA, p.DescA, p.KeyB, p.DescB)
	}
	prompt := fmt.Sprintf(JudgePrompt, data.String())

	return gUtil.RetryWithContext(ctx, j.maxRetries, func(ctx context.Context) ([]Verdict, error) {
		res, err := j.client.GenerateCompletion(ctx, prompt,
			WithSystemPrompts(JudgeSystemPrompt),
			WithTemperature(0),
		)
		if err != nil {
			return nil, err
		}
		return ParseVerdicts(res)
	})
}

// ParseVerdicts decodes a judge answer. It accepts a bare array or an object
// wrapping the array, and normalizes alias keys into same_entity.
func ParseVerdicts(raw string) ([]Verdict, error) {
	var items []map[string]any
	if err := UnmarshalFlexible(raw, &items); err != nil {
		var wrapped map[string]any
		if err2 := UnmarshalFlexible(raw, &wrapped); err2 != nil {
			return nil, err
		}
		items = unwrapVerdicts(wrapped)
		if items == nil {
			return nil, fmt.Errorf("no verdict list in response")
		}
	}

	out := make([]Verdict, 0, len(items))
	for _, it := range items {
		idx, ok := toIndex(it["index"])
		if !ok {
			continue
		}
		v := Verdict{Index: idx}
		for _, k := range sameKeyAliases {
			if val, ok := it[k]; ok {
				v.SameEntity = toBool(val)
				break
			}
		}
		if r, ok := it["reasoning"].(string); ok {
			v.Reasoning = r
		} else if r, ok := it["reason"].(string); ok {
			v.Reasoning = r
		}
		out = append(out, v)
	}
	return out, nil
}

func unwrapVerdicts(obj map[string]any) []map[string]any {
	for _, key := range []string{"results", "verdicts", "pairs", "answers"} {
		list, ok := obj[key].([]any)
		if !ok {
			continue
		}
		items := make([]map[string]any, 0, len(list))
		for _, it := range list {
			if m, ok := it.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items
	}
	if _, ok := obj["index"]; ok {
		return []map[string]any{obj}
	}
	return nil
}

func toIndex(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "same", "1":
			return true
		}
	case float64:
		return t != 0
	}
	return false
}
