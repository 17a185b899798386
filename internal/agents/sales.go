package agents

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/spigell/rfp-responder/internal/rfperr"
	"github.com/spigell/rfp-responder/internal/utils"
)

//go:embed prompts/sales.md
var salesTemplate string

const (
	// maxPitchContext bounds the technical analysis handed to the pitch.
	maxPitchContext    = 500
	maxFallbackContext = 300
)

// SalesPrompt builds the proposal prompt. It consumes the technical analysis.
func SalesPrompt(in Input, technical string) string {
	return render(salesTemplate, map[string]string{
		"RFP_TITLE":          in.RFP.Title,
		"RFP_DESCRIPTION":    in.RFP.Description,
		"BUDGET":             money(in.RFP.BudgetOrZero()),
		"PRODUCT_NAME":       in.Match.ProductName,
		"MATCH_PERCENT":      fmt.Sprintf("%.0f", in.Match.MatchScore*100),
		"TOTAL_PRICE":        money(in.Pricing.TotalPrice),
		"SUITABILITY":        in.suitability(),
		"SUITABILITY_REASON": in.SuitabilityReason,
		"TECHNICAL_ANALYSIS": utils.TruncateRunes(technical, maxPitchContext),
		"PRICING_BREAKDOWN": fmt.Sprintf("Base: %s, Tests: %s, Markup: %s",
			money(in.Pricing.BasePrice), money(in.Pricing.TotalTestCost), money(in.Pricing.MarkupAmount)),
	})
}

// SalesFallback drafts a plain proposal without the generator.
func SalesFallback(in Input, technical string) string {
	return fmt.Sprintf(
		"Proposal for %s\n\nProposed Solution: %s\nMatch Score: %.0f%%\nSuitability: %s\nTotal Price: %s\n\nTechnical Analysis:\n%s",
		in.RFP.Title,
		in.Match.ProductName,
		in.Match.MatchScore*100,
		in.suitability(),
		money(in.Pricing.TotalPrice),
		utils.TruncateRunes(technical, maxFallbackContext),
	)
}

func (o *Orchestrator) sales(ctx context.Context, in Input, technical string) (string, error) {
	text, err := o.generator.GenerateContent(ctx, SalesPrompt(in, technical))
	if err != nil {
		return SalesFallback(in, technical), fmt.Errorf("%w: sales pitch: %w", rfperr.ErrAgent, err)
	}
	return text, nil
}
