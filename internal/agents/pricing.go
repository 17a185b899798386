package agents

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/spigell/rfp-responder/internal/rfperr"
	"github.com/spigell/rfp-responder/internal/types"
)

//go:embed prompts/pricing.md
var pricingTemplate string

// PricingPrompt builds the pricing explanation prompt.
func PricingPrompt(b *types.PricingBreakdown) string {
	return render(pricingTemplate, map[string]string{
		"PRODUCT_NAME":      b.ProductName,
		"BASE_PRICE":        money(b.BasePrice),
		"TEST_COSTS":        money(b.TotalTestCost),
		"SUBTOTAL":          money(b.Subtotal),
		"MARKUP_PERCENTAGE": percentage(b.MarkupPercentage),
		"MARKUP":            money(b.MarkupAmount),
		"TOTAL_PRICE":       money(b.TotalPrice),
	})
}

// PricingFallback lists the breakdown without the generator.
func PricingFallback(b *types.PricingBreakdown) string {
	return fmt.Sprintf(
		"Pricing for %s:\nBase Price: %s\nTesting Costs: %s\nMarkup (%s%%): %s\nTotal: %s",
		b.ProductName,
		money(b.BasePrice),
		money(b.TotalTestCost),
		percentage(b.MarkupPercentage),
		money(b.MarkupAmount),
		money(b.TotalPrice),
	)
}

func (o *Orchestrator) pricing(ctx context.Context, b *types.PricingBreakdown) (string, error) {
	text, err := o.generator.GenerateContent(ctx, PricingPrompt(b))
	if err != nil {
		return PricingFallback(b), fmt.Errorf("%w: pricing explanation: %w", rfperr.ErrAgent, err)
	}
	return text, nil
}
