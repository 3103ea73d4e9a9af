package ai

import (
	"context"
	"fmt"
	"strings"

	gUtil "github.com/OFFIS-RIT/sysmlfuse/internal/util"
)

// MaxRepairCandidates bounds the candidate list shown to the model.
const MaxRepairCandidates = 20

// RepairCandidate is an existing element offered as a reference target.
type RepairCandidate struct {
	ID   string
	Type string
	Name string
}

// RepairRequest describes one broken reference.
type RepairRequest struct {
	ElementID   string
	ElementType string
	ElementName string
	Description string
	Field       string
	BrokenValue string
	Candidates  []RepairCandidate
}

// RepairChoice is the structured answer of a repair call.
type RepairChoice struct {
	ChosenID  string `json:"chosenId" jsonschema_description:"The id of the chosen candidate, copied verbatim, or empty when none fits."`
	Reasoning string `json:"reasoning" jsonschema_description:"One sentence explaining the choice."`
}

// ChooseReference asks the model to pick a replacement for a broken
// reference. The caller must still check the chosen id against known ids.
func ChooseReference(
	ctx context.Context,
	client Client,
	req RepairRequest,
	maxRetries int,
) (*RepairChoice, error) {
	if client == nil {
		return nil, fmt.Errorf("ai client is nil")
	}
	if len(req.Candidates) == 0 {
		return &RepairChoice{}, nil
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	candidates := req.Candidates
	if len(candidates) > MaxRepairCandidates {
		candidates = candidates[:MaxRepairCandidates]
	}
	var list strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&list, "- %s | %s | %s\n", c.ID, c.Type, c.Name)
	}
	prompt := fmt.Sprintf(RepairPrompt,
		req.ElementID,
		req.ElementType,
		orNone(req.ElementName),
		orNone(req.Description),
		req.Field,
		req.BrokenValue,
		list.String(),
	)

	var res RepairChoice
	err := gUtil.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		return client.GenerateCompletionWithFormat(
			ctx, "repair_reference", "Choose the element a broken reference meant.", prompt, &res,
			WithSystemPrompts(RepairSystemPrompt),
			WithTemperature(0),
		)
	})
	if err != nil {
		return nil, err
	}
	res.ChosenID = strings.TrimSpace(res.ChosenID)
	return &res, nil
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
