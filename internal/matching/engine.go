// Package matching scores catalog products against the requirements of an RFP.
package matching

import (
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/types"
)

// minFallbackTokenLen is the length a requirement token must exceed to be
// looked up in the joined specs.
const minFallbackTokenLen = 3

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "for": {}, "with": {},
	"support": {}, "system": {}, "a": {}, "an": {},
}

// Engine scores products with a three tier keyword matcher.
type Engine struct {
	threshold float64
	logger    *zap.Logger
}

func New(threshold float64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{threshold: threshold, logger: logger}
}

func (e *Engine) Threshold() float64 { return e.threshold }

// Match returns a result for every product scoring at or above the threshold,
// sorted by score descending. Equal scores keep catalog order.
func (e *Engine) Match(rfp *types.RFP, products *types.Products) []types.MatchResult {
	matches := make([]types.MatchResult, 0)

	if products.Len() == 0 {
		e.logger.Warn("no products available")
		return matches
	}
	if rfp == nil || len(rfp.Requirements) == 0 {
		e.logger.Warn("rfp has no requirements")
		return matches
	}

	for _, product := range products.Items {
		if product == nil {
			continue
		}

		result := e.Score(rfp, product)
		if result.MatchScore < e.threshold {
			e.logger.Debug("product below threshold",
				zap.String("product_id", product.ID),
				zap.Float64("score", result.MatchScore),
				zap.Float64("threshold", e.threshold),
			)
			continue
		}

		e.logger.Info("product matched",
			zap.String("product_id", product.ID),
			zap.Float64("score", result.MatchScore),
		)
		matches = append(matches, result)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})

	e.logger.Info("matching completed",
		zap.String("rfp_id", rfp.ID),
		zap.Int("products", products.Len()),
		zap.Int("matches", len(matches)),
	)

	return matches
}

// Score classifies each requirement of the RFP as matched or missing for one product.
func (e *Engine) Score(rfp *types.RFP, product *types.Product) types.MatchResult {
	result := types.MatchResult{
		ProductID:           product.ID,
		ProductName:         product.Name,
		MatchedSpecs:        make([]string, 0),
		MissingRequirements: make([]string, 0),
	}

	specsLower := make([]string, len(product.Specs))
	for i, spec := range product.Specs {
		specsLower[i] = strings.ToLower(spec)
	}
	specsText := strings.Join(specsLower, " ")

	seen := make(map[string]struct{})
	for _, requirement := range rfp.Requirements {
		spec, ok := matchRequirement(strings.ToLower(requirement), product.Specs, specsLower, specsText)
		if !ok {
			result.MissingRequirements = append(result.MissingRequirements, requirement)
			continue
		}
		if _, dup := seen[spec]; dup {
			continue
		}
		seen[spec] = struct{}{}
		result.MatchedSpecs = append(result.MatchedSpecs, spec)
	}

	total := len(rfp.Requirements)
	if total > 0 {
		result.MatchScore = float64(total-len(result.MissingRequirements)) / float64(total)
	}

	return result
}

// matchRequirement returns the spec credited for the requirement.
func matchRequirement(requirement string, specs, specsLower []string, specsText string) (string, bool) {
	for i, spec := range specsLower {
		if keywordMatch(requirement, spec) {
			return specs[i], true
		}
	}

	for _, word := range strings.Fields(requirement) {
		if utf8.RuneCountInString(word) <= minFallbackTokenLen || !strings.Contains(specsText, word) {
			continue
		}
		for i, spec := range specsLower {
			if strings.Contains(spec, word) {
				return specs[i], true
			}
		}
	}

	return "", false
}

// keywordMatch runs the substring tier and then the token overlap tier.
// Both arguments must already be lower-cased.
func keywordMatch(requirement, spec string) bool {
	if strings.Contains(spec, requirement) || strings.Contains(requirement, spec) {
		return true
	}

	reqWords := significantTokens(requirement)
	specWords := significantTokens(spec)

	overlap := 0
	for word := range reqWords {
		if _, ok := specWords[word]; ok {
			overlap++
		}
	}

	minOverlap := 2
	if len(reqWords) <= 2 {
		minOverlap = 1
	}
	return overlap >= minOverlap
}

func significantTokens(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		if _, stop := stopWords[word]; stop {
			continue
		}
		tokens[word] = struct{}{}
	}
	return tokens
}
