// Package orphan removes and repairs elements whose references point at
// ids that do not exist.
package orphan

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

const DefaultMaxIterations = 10

// RemoverOptions controls RemoveOrphans.
type RemoverOptions struct {
	MaxIterations int
	// CheckTypeID also validates typeId. Off by default because typeId
	// usually holds a primitive sentinel.
	CheckTypeID bool
}

// Removal is one element dropped by the remover.
type Removal struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	Iteration int    `json:"iteration"`
}

// RemovalReport summarizes a remover run.
type RemovalReport struct {
	Input      int       `json:"input"`
	Output     int       `json:"output"`
	Iterations int       `json:"iterations"`
	Removed    []Removal `json:"removed"`
}

// RemoveOrphans drops every element that misses a required field or holds a
// single, list or endpoint reference to an unknown id. Removal repeats until
// nothing changes or MaxIterations is reached. doc is not modified.
func RemoveOrphans(doc *model.Document, opts RemoverOptions) (*model.Document, *RemovalReport) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	out := doc.Clone()
	rep := &RemovalReport{Input: len(out.Elements)}

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		rep.Iterations = iter
		known := out.KnownIDs()
		kept := make([]model.Element, 0, len(out.Elements))
		removed := 0
		for _, e := range out.Elements {
			reason := removalReason(e, known, opts)
			if reason == "" {
				kept = append(kept, e)
				continue
			}
			removed++
			rep.Removed = append(rep.Removed, Removal{
				ID:        e.ID(),
				Type:      e.Type(),
				Reason:    reason,
				Iteration: iter,
			})
			logger.Debug("[Remover] Removed element", "id", e.ID(), "type", e.Type(), "reason", reason)
		}
		out.Elements = kept
		if removed == 0 {
			break
		}
	}

	rep.Output = len(out.Elements)
	logger.Info("[Remover] Done",
		"input", rep.Input,
		"output", rep.Output,
		"removed", len(rep.Removed),
		"iterations", rep.Iterations,
	)
	return out, rep
}

func removalReason(e model.Element, known map[string]struct{}, opts RemoverOptions) string {
	if missing := model.MissingRequired(e); len(missing) > 0 {
		return "missing required " + strings.Join(missing, ", ")
	}
	for _, ref := range e.References(model.RefOptions{IncludeTypeID: opts.CheckTypeID}) {
		if ref.Kind == model.RefBehavior {
			continue
		}
		if _, ok := known[ref.Value]; ok {
			continue
		}
		return fmt.Sprintf("%s references unknown id %q", ref.Path(), ref.Value)
	}
	return ""
}
