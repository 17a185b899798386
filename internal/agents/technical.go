package agents

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/spigell/rfp-responder/internal/rfperr"
)

//go:embed prompts/technical.md
var technicalTemplate string

const (
	maxFallbackMatched = 5
	maxFallbackMissing = 3
)

// TechnicalPrompt builds the technical-fit prompt for the selected match.
func TechnicalPrompt(in Input) string {
	return render(technicalTemplate, map[string]string{
		"RFP_TITLE":            in.RFP.Title,
		"RFP_DESCRIPTION":      in.RFP.Description,
		"RFP_REQUIREMENTS":     strings.Join(in.RFP.Requirements, ", "),
		"PRODUCT_NAME":         in.Match.ProductName,
		"MATCH_SCORE":          fmt.Sprintf("%.2f", in.Match.MatchScore),
		"MATCHED_SPECS":        joinOrNone(in.Match.MatchedSpecs, 0),
		"MISSING_REQUIREMENTS": joinOrNone(in.Match.MissingRequirements, 0),
		"SUITABILITY":          in.suitability(),
		"SUITABILITY_REASON":   in.SuitabilityReason,
	})
}

// TechnicalFallback summarises the match without the generator.
func TechnicalFallback(in Input) string {
	return fmt.Sprintf(
		"Technical Analysis for %s:\nMatch Score: %.0f%%\nSuitability: %s\nMatched Specs: %s\nMissing Requirements: %s",
		in.Match.ProductName,
		in.Match.MatchScore*100,
		in.suitability(),
		joinOrNone(in.Match.MatchedSpecs, maxFallbackMatched),
		joinOrNone(in.Match.MissingRequirements, maxFallbackMissing),
	)
}

func (o *Orchestrator) technical(ctx context.Context, in Input) (string, error) {
	text, err := o.generator.GenerateContent(ctx, TechnicalPrompt(in))
	if err != nil {
		return TechnicalFallback(in), fmt.Errorf("%w: technical analysis: %w", rfperr.ErrAgent, err)
	}
	return text, nil
}
