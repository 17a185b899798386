// Package pricing computes the cost breakdown for selected products.
package pricing

import (
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/config"
	"github.com/spigell/rfp-responder/internal/types"
)

type Calculator struct {
	settings *config.Settings
	logger   *zap.Logger
}

func New(settings *config.Settings, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{settings: settings.OrDefault(), logger: logger}
}

// Calculate prices every match whose product exists in the catalog.
// Unknown products and unresolved test names are skipped with a warning.
func (c *Calculator) Calculate(matches []types.MatchResult, products *types.Products, tests []types.TestCost) []types.PricingBreakdown {
	results := make([]types.PricingBreakdown, 0, len(matches))

	if len(matches) == 0 {
		c.logger.Warn("no matches to price")
		return results
	}
	if products.Len() == 0 {
		c.logger.Warn("no products to price against")
		return results
	}

	resolved, testTotal := c.resolveTests(tests)

	for _, match := range matches {
		product := products.FindByID(match.ProductID)
		if product == nil {
			c.logger.Warn("product not found", zap.String("product_id", match.ProductID))
			continue
		}

		breakdown := Price(product, resolved, testTotal, c.settings.MarkupPercentage)
		c.logger.Info("pricing calculated",
			zap.String("product_id", product.ID),
			zap.Float64("total_price", breakdown.TotalPrice),
		)
		results = append(results, breakdown)
	}

	return results
}

// resolveTests looks up the configured test names by exact name, in order.
func (c *Calculator) resolveTests(tests []types.TestCost) ([]types.TestCost, float64) {
	byName := make(map[string]types.TestCost, len(tests))
	for _, test := range tests {
		if _, dup := byName[test.TestName]; !dup {
			byName[test.TestName] = test
		}
	}

	resolved := make([]types.TestCost, 0, len(c.settings.DefaultTests))
	var total float64
	for _, name := range c.settings.DefaultTests {
		test, ok := byName[name]
		if !ok {
			c.logger.Warn("pricing test not found", zap.String("test_name", name))
			continue
		}
		resolved = append(resolved, test)
		total += test.Cost
	}
	return resolved, total
}

// Price applies the markup to base price plus test costs.
func Price(product *types.Product, tests []types.TestCost, testTotal, markupPercentage float64) types.PricingBreakdown {
	subtotal := product.BasePrice + testTotal
	markup := subtotal * markupPercentage / 100
	total := subtotal + markup

	return types.PricingBreakdown{
		ProductID:        product.ID,
		ProductName:      product.Name,
		BasePrice:        product.BasePrice,
		TestCosts:        append([]types.TestCost{}, tests...),
		TotalTestCost:    testTotal,
		Subtotal:         subtotal,
		MarkupPercentage: markupPercentage,
		MarkupAmount:     markup,
		TotalPrice:       total,
		Breakdown: map[string]float64{
			types.BreakdownBasePrice: product.BasePrice,
			types.BreakdownTestCosts: testTotal,
			types.BreakdownSubtotal:  subtotal,
			types.BreakdownMarkup:    markup,
			types.BreakdownTotal:     total,
		},
	}
}
