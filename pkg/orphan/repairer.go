package orphan

import (
	"context"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

// Phase names a stage of the repair driver.
type Phase string

const (
	PhaseRule   Phase = "rule"
	PhaseLLM    Phase = "llm"
	PhaseDelete Phase = "delete"
)

const (
	DefaultMaxRuleIterations = 10
	DefaultMaxLLMIterations  = 3
	DefaultSimilarIDRatio    = 0.6
	DefaultMinPrefix         = 6
)

// RepairOptions configures a Repairer. Zero values fall back to defaults.
type RepairOptions struct {
	MaxRuleIterations int
	EnableLLM         bool
	MaxLLMIterations  int
	CandidateLimit    int
	SimilarIDRatio    float64
	MinPrefix         int
	MaxRetries        int
}

func (o RepairOptions) withDefaults() RepairOptions {
	if o.MaxRuleIterations <= 0 {
		o.MaxRuleIterations = DefaultMaxRuleIterations
	}
	if o.MaxLLMIterations <= 0 {
		o.MaxLLMIterations = DefaultMaxLLMIterations
	}
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = ai.MaxRepairCandidates
	}
	if o.SimilarIDRatio <= 0 {
		o.SimilarIDRatio = DefaultSimilarIDRatio
	}
	if o.MinPrefix <= 0 {
		o.MinPrefix = DefaultMinPrefix
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	return o
}

// Change is one logged modification.
type Change struct {
	Phase       Phase  `json:"phase"`
	Iteration   int    `json:"iteration"`
	ElementID   string `json:"elementId"`
	ElementType string `json:"elementType"`
	Field       string `json:"field,omitempty"`
	OldValue    string `json:"oldValue,omitempty"`
	NewValue    string `json:"newValue,omitempty"`
	Method      Method `json:"method"`
	Reasoning   string `json:"reasoning,omitempty"`
}

// RepairReport records every change made by a Repairer.
type RepairReport struct {
	RuleIterations int      `json:"ruleIterations"`
	LLMIterations  int      `json:"llmIterations"`
	Repaired       int      `json:"repaired"`
	Synthesized    int      `json:"synthesized"`
	Unresolved     int      `json:"unresolved"`
	Cleared        int      `json:"cleared"`
	Deleted        int      `json:"deleted"`
	Changes        []Change `json:"changes"`
}

// Repairer converges a document to one where every reference resolves.
type Repairer struct {
	opts RepairOptions
	rule []Strategy
	llm  []Strategy
}

// NewRepairer builds the strategy chains. client is only used when
// EnableLLM is set.
func NewRepairer(client ai.Client, opts RepairOptions) *Repairer {
	opts = opts.withDefaults()
	rule := []Strategy{
		SimilarID{MinRatio: opts.SimilarIDRatio, MinPrefix: opts.MinPrefix},
		NameKeyword{},
		SynthesizeParent{},
	}
	r := &Repairer{opts: opts, rule: rule}
	if opts.EnableLLM && client != nil {
		r.llm = append(append([]Strategy{}, rule...), LLM{
			Client:         client,
			CandidateLimit: opts.CandidateLimit,
			MaxRetries:     opts.MaxRetries,
		})
	}
	return r
}

// Repair runs the rule phase, the LLM phase when enabled, then deletes or
// clears whatever is still broken. doc is not modified.
func (r *Repairer) Repair(ctx context.Context, doc *model.Document) (*model.Document, *RepairReport, error) {
	out := doc.Clone()
	rep := &RepairReport{}

	n, err := r.runPhase(ctx, out, PhaseRule, r.rule, r.opts.MaxRuleIterations, rep)
	if err != nil {
		return nil, nil, err
	}
	rep.RuleIterations = n

	if len(r.llm) > 0 {
		n, err = r.runPhase(ctx, out, PhaseLLM, r.llm, r.opts.MaxLLMIterations, rep)
		if err != nil {
			return nil, nil, err
		}
		rep.LLMIterations = n
	}

	idx := NewIndex(out)
	for _, e := range out.Elements {
		rep.Unresolved += len(idx.Broken(e))
	}
	r.cleanup(out, rep)

	logger.Info("[Repair] Done",
		"repaired", rep.Repaired,
		"synthesized", rep.Synthesized,
		"cleared", rep.Cleared,
		"deleted", rep.Deleted,
	)
	return out, rep, nil
}

// runPhase repeats repair passes until one makes no repair or the bound is
// hit, and returns the number of passes run.
func (r *Repairer) runPhase(
	ctx context.Context,
	doc *model.Document,
	phase Phase,
	chain []Strategy,
	maxIter int,
	rep *RepairReport,
) (int, error) {
	iter := 0
	for iter < maxIter {
		if err := ctx.Err(); err != nil {
			return iter, err
		}
		iter++
		repaired := r.pass(ctx, doc, phase, iter, chain, rep)
		logger.Debug("[Repair] Pass finished", "phase", phase, "iteration", iter, "repaired", repaired)
		if repaired == 0 {
			break
		}
	}
	return iter, nil
}

// pass tries every broken reference of every element once. The index is
// rebuilt at the start so parents synthesized in the previous pass count as
// known.
func (r *Repairer) pass(
	ctx context.Context,
	doc *model.Document,
	phase Phase,
	iter int,
	chain []Strategy,
	rep *RepairReport,
) int {
	idx := NewIndex(doc)
	repaired := 0
	// Elements appended during the pass are complete and need no repair.
	count := len(doc.Elements)
	for i := 0; i < count; i++ {
		e := doc.Elements[i]
		for _, ref := range idx.Broken(e) {
			// An earlier repair in this pass may have created the target.
			if idx.Known(ref.Value) {
				continue
			}
			// List repairs replace every occurrence of the value at once.
			if ref.Kind == model.RefList && !model.Contains(e.StringList(ref.Field), ref.Value) {
				continue
			}
			b := Broken{
				Element:  e,
				Ref:      ref,
				Expected: model.ExpectedTargetTypes(e.Type(), ref.TargetField()),
			}
			for _, s := range chain {
				fix, ok := s.Repair(ctx, idx, b)
				if !ok {
					continue
				}
				if fix.Created != nil {
					doc.Elements = append(doc.Elements, fix.Created)
					idx.Register(fix.Created)
					rep.Synthesized++
					logger.Info("[Repair] Synthesized parent",
						"id", fix.Created.ID(), "type", fix.Created.Type(), "name", fix.Created.Name())
				}
				e.SetReference(ref, fix.NewID)
				repaired++
				rep.Repaired++
				rep.Changes = append(rep.Changes, Change{
					Phase:       phase,
					Iteration:   iter,
					ElementID:   e.ID(),
					ElementType: e.Type(),
					Field:       ref.Path(),
					OldValue:    ref.Value,
					NewValue:    fix.NewID,
					Method:      s.Method(),
					Reasoning:   fix.Reasoning,
				})
				break
			}
		}
	}
	return repaired
}

// cleanup deletes relationships with a broken critical reference and clears
// broken references everywhere else, repeating until nothing is broken.
func (r *Repairer) cleanup(doc *model.Document, rep *RepairReport) {
	for round := 1; round <= len(doc.Elements)+1; round++ {
		idx := NewIndex(doc)
		changed := false
		kept := doc.Elements[:0:0]
		for _, e := range doc.Elements {
			broken := idx.Broken(e)
			if len(broken) == 0 {
				kept = append(kept, e)
				continue
			}
			changed = true
			if crit, ok := criticalBreak(e, broken); ok {
				rep.Deleted++
				rep.Changes = append(rep.Changes, Change{
					Phase:       PhaseDelete,
					Iteration:   round,
					ElementID:   e.ID(),
					ElementType: e.Type(),
					Field:       crit.Path(),
					OldValue:    crit.Value,
					Method:      MethodDeleted,
				})
				logger.Warn("[Repair] Deleted relationship with broken endpoint",
					"id", e.ID(), "type", e.Type(), "field", crit.Path())
				continue
			}
			for _, ref := range broken {
				method := MethodNulled
				if ref.Kind == model.RefList {
					method = MethodFiltered
				}
				e.ClearReference(ref)
				rep.Cleared++
				rep.Changes = append(rep.Changes, Change{
					Phase:       PhaseDelete,
					Iteration:   round,
					ElementID:   e.ID(),
					ElementType: e.Type(),
					Field:       ref.Path(),
					OldValue:    ref.Value,
					Method:      method,
				})
			}
			kept = append(kept, e)
		}
		doc.Elements = kept
		if !changed {
			return
		}
	}
}

func criticalBreak(e model.Element, broken []model.Ref) (model.Ref, bool) {
	if !model.IsRelationship(e.Type()) {
		return model.Ref{}, false
	}
	for _, ref := range broken {
		if model.IsCritical(ref.Field) {
			return ref, true
		}
	}
	return model.Ref{}, false
}
