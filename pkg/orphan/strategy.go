package orphan

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

// Method names how a reference was repaired or cleaned up.
type Method string

const (
	MethodSimilarID        Method = "similar_id"
	MethodNameKeyword      Method = "name_keyword"
	MethodSynthesizeParent Method = "synthesize_parent"
	MethodLLM              Method = "llm"
	MethodNulled           Method = "nulled"
	MethodFiltered         Method = "filtered"
	MethodDeleted          Method = "deleted"
)

// Broken is one unresolved reference of an element.
type Broken struct {
	Element  model.Element
	Ref      model.Ref
	Expected []string
}

// Fix is a strategy's answer. Created, when set, must be added to the
// document before NewID is written.
type Fix struct {
	NewID     string
	Created   model.Element
	Reasoning string
}

// Strategy proposes a replacement for a broken reference.
type Strategy interface {
	Method() Method
	Repair(ctx context.Context, idx *Index, b Broken) (*Fix, bool)
}

// SimilarID matches ids that differ only by separators, case, truncation or
// a short suffix.
type SimilarID struct {
	MinRatio  float64
	MinPrefix int
}

func (SimilarID) Method() Method { return MethodSimilarID }

func (s SimilarID) Repair(_ context.Context, idx *Index, b Broken) (*Fix, bool) {
	broken := normalizeID(b.Ref.Value)
	if broken == "" {
		return nil, false
	}
	best, bestScore := "", 0.0
	for _, c := range idx.Candidates(b.Expected, b.Element.ID()) {
		score := s.score(broken, normalizeID(c.ID()))
		if score > bestScore {
			best, bestScore = c.ID(), score
		}
	}
	if best == "" {
		return nil, false
	}
	return &Fix{NewID: best, Reasoning: fmt.Sprintf("id similarity %.2f", bestScore)}, true
}

// score is the length ratio of the shorter to the longer id when one
// contains the other or both share a long prefix, else 0.
func (s SimilarID) score(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	short, long := len(a), len(b)
	if short > long {
		short, long = long, short
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		ratio := float64(short) / float64(long)
		if ratio >= s.MinRatio {
			return ratio
		}
		return 0
	}
	prefix := commonPrefix(a, b)
	if prefix >= s.MinPrefix {
		ratio := float64(prefix) / float64(long)
		if ratio >= s.MinRatio {
			return ratio
		}
	}
	return 0
}

// NameKeyword matches the meaningful words of a broken id against element
// names.
type NameKeyword struct{}

func (NameKeyword) Method() Method { return MethodNameKeyword }

func (NameKeyword) Repair(_ context.Context, idx *Index, b Broken) (*Fix, bool) {
	words := keywords(b.Ref.Value)
	if len(words) == 0 {
		return nil, false
	}
	best, bestScore := "", 0
	for _, c := range idx.Candidates(b.Expected, b.Element.ID()) {
		score := overlap(words, c.Name())
		if score > bestScore {
			best, bestScore = c.ID(), score
		}
	}
	if best == "" {
		return nil, false
	}
	return &Fix{NewID: best, Reasoning: fmt.Sprintf("%d keyword(s) match the name", bestScore)}, true
}

func overlap(words []string, name string) int {
	if name == "" {
		return 0
	}
	nameWords := make(map[string]struct{})
	for _, w := range splitWords(name) {
		nameWords[w] = struct{}{}
	}
	n := 0
	for _, w := range words {
		if _, ok := nameWords[w]; ok {
			n++
		}
	}
	return n
}

// SynthesizeParent creates the missing container of an element. The new
// container reuses the broken id so every sibling pointing at it is healed
// at once.
type SynthesizeParent struct{}

func (SynthesizeParent) Method() Method { return MethodSynthesizeParent }

func (SynthesizeParent) Repair(_ context.Context, idx *Index, b Broken) (*Fix, bool) {
	if b.Ref.Kind != model.RefSingle || b.Ref.Field != "parentId" {
		return nil, false
	}
	parentType := model.DefaultParentType(b.Element.Type())
	created := model.Element{
		"id":          b.Ref.Value,
		"type":        parentType,
		"name":        inferName(b.Ref.Value, parentType),
		"synthesized": true,
	}
	if idx.MasterID != "" {
		created["parentId"] = idx.MasterID
	}
	return &Fix{
		NewID:     b.Ref.Value,
		Created:   created,
		Reasoning: "synthesized missing " + parentType,
	}, true
}

// LLM asks a language model to choose among candidates of the expected
// type.
type LLM struct {
	Client         ai.Client
	CandidateLimit int
	MaxRetries     int
}

func (LLM) Method() Method { return MethodLLM }

func (l LLM) Repair(ctx context.Context, idx *Index, b Broken) (*Fix, bool) {
	if l.Client == nil {
		return nil, false
	}
	limit := l.CandidateLimit
	if limit <= 0 || limit > ai.MaxRepairCandidates {
		limit = ai.MaxRepairCandidates
	}
	candidates := rankCandidates(idx.Candidates(b.Expected, b.Element.ID()), b.Ref.Value)
	if len(candidates) == 0 {
		return nil, false
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	req := ai.RepairRequest{
		ElementID:   b.Element.ID(),
		ElementType: b.Element.Type(),
		ElementName: b.Element.Name(),
		Description: b.Element.Description(),
		Field:       b.Ref.Path(),
		BrokenValue: b.Ref.Value,
	}
	for _, c := range candidates {
		req.Candidates = append(req.Candidates, ai.RepairCandidate{ID: c.ID(), Type: c.Type(), Name: c.Name()})
	}
	choice, err := ai.ChooseReference(ctx, l.Client, req, l.MaxRetries)
	if err != nil {
		logger.Warn("[Repair] LLM repair failed", "id", b.Element.ID(), "field", b.Ref.Path(), "err", err)
		return nil, false
	}
	if choice.ChosenID == "" || choice.ChosenID == b.Element.ID() || !idx.Known(choice.ChosenID) {
		return nil, false
	}
	return &Fix{NewID: choice.ChosenID, Reasoning: choice.Reasoning}, true
}

// rankCandidates orders candidates by keyword overlap with the broken id,
// then by id.
func rankCandidates(list []model.Element, broken string) []model.Element {
	words := keywords(broken)
	scores := make(map[string]int, len(list))
	for _, c := range list {
		scores[c.ID()] = overlap(words, c.Name())
	}
	sort.SliceStable(list, func(i, j int) bool {
		return scores[list[i].ID()] > scores[list[j].ID()]
	})
	return list
}
