// Package selection picks the best scored product and classifies its suitability.
package selection

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/types"
)

const (
	strongScore   = 0.8
	moderateScore = 0.6

	maxCriticalListed  = 3
	maxMatchedListed   = 5
	maxMissingListed   = 3
	maxRejectedMissing = 2

	reasonNoProducts        = "No products meet minimum requirements"
	justificationNoProducts = "No products matched the RFP requirements."
	// NoteBelowThreshold annotates a decision whose best candidate was discarded.
	NoteBelowThreshold = "No suitable products meet the minimum requirements"
)

// criticalKeywords mark a missing requirement as a compliance or security gap.
var criticalKeywords = []string{
	"compliance", "compliant", "regulatory", "regulation",
	"security", "secure", "encryption", "authentication",
	"mandatory", "required", "must have", "critical",
	"certification", "certified", "audit", "sox", "hipaa",
	"gdpr", "pci", "iso", "soc 2", "soc2",
}

// Decision is the outcome of a selection.
type Decision struct {
	// Selected is nil when no candidate qualified.
	Selected      *types.MatchResult
	Suitability   types.Suitability
	Reason        string
	Justification string
	Rejected      []types.RejectedCandidate
	// Note is set when the best candidate fell below the threshold.
	Note string
}

// Selection returns the selected match as a slice of zero or one element.
func (d Decision) Selection() []types.MatchResult {
	if d.Selected == nil {
		return []types.MatchResult{}
	}
	return []types.MatchResult{*d.Selected}
}

type Policy struct {
	threshold float64
	logger    *zap.Logger
}

func New(threshold float64, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{threshold: threshold, logger: logger}
}

// Select expects matches sorted by score descending.
func (p *Policy) Select(matches []types.MatchResult) Decision {
	if len(matches) == 0 {
		p.logger.Warn("no matches to select from")
		return Decision{
			Suitability:   types.NotSuitable,
			Reason:        reasonNoProducts,
			Justification: justificationNoProducts,
			Rejected:      []types.RejectedCandidate{},
		}
	}

	best := matches[0]
	score := best.MatchScore

	if score < p.threshold {
		p.logger.Warn("best match below threshold",
			zap.String("product_id", best.ProductID),
			zap.Float64("score", score),
			zap.Float64("threshold", p.threshold),
		)
		return Decision{
			Suitability: types.NotSuitable,
			Reason:      fmt.Sprintf("Best match score (%.2f) below threshold (%.2f)", score, p.threshold),
			Justification: fmt.Sprintf(
				"No suitable product found. Best match (%s) scored %.2f, below required threshold of %.2f.",
				best.ProductName, score, p.threshold,
			),
			Rejected: []types.RejectedCandidate{},
			Note:     NoteBelowThreshold,
		}
	}

	suitability, reason := Classify(score, best.MissingRequirements)

	p.logger.Info("product selected",
		zap.String("product_id", best.ProductID),
		zap.Float64("score", score),
		zap.String("suitability", suitability.String()),
		zap.String("reason", reason),
	)

	rejected := Rejections(matches[1:])
	if len(rejected) > 0 {
		p.logger.Info("products rejected", zap.Int("count", len(rejected)))
	}

	return Decision{
		Selected:      &best,
		Suitability:   suitability,
		Reason:        reason,
		Justification: Justify(best),
		Rejected:      rejected,
	}
}

// Classify applies the suitability rules in precedence order.
func Classify(score float64, missing []string) (types.Suitability, string) {
	critical := CriticalGaps(missing)
	hasCritical := len(critical) > 0
	pct := percent(score)

	switch {
	case score >= strongScore && !hasCritical:
		return types.Suitable, fmt.Sprintf("Strong match (%d%%) with no critical missing requirements", pct)
	case score >= moderateScore && !hasCritical:
		return types.Suitable, fmt.Sprintf("Moderate match (%d%%) with acceptable gaps", pct)
	case hasCritical:
		return types.NotSuitable, "Missing critical requirements: " + strings.Join(critical, ", ")
	case score < moderateScore:
		return types.Partial, fmt.Sprintf("Weak match (%d%%), significant gaps exist", pct)
	default:
		// unreachable with the rules above
		return types.Partial, fmt.Sprintf("Moderate match (%d%%) with some gaps", pct)
	}
}

// CriticalGaps returns up to three missing requirements that contain a
// critical keyword, in their original casing.
func CriticalGaps(missing []string) []string {
	hits := make([]string, 0, maxCriticalListed)
	for _, requirement := range missing {
		lower := strings.ToLower(requirement)
		for _, keyword := range criticalKeywords {
			if strings.Contains(lower, keyword) {
				hits = append(hits, requirement)
				break
			}
		}
		if len(hits) == maxCriticalListed {
			break
		}
	}
	return hits
}

// Justify describes why the match was selected.
func Justify(match types.MatchResult) string {
	return fmt.Sprintf(
		"Selected: %s\nMatch Score: %.2f (%d%%) - %s Match\nKey Matched Requirements: %s\nMissing Requirements: %s",
		match.ProductName,
		match.MatchScore,
		percent(match.MatchScore),
		category(match.MatchScore),
		joinOrNone(match.MatchedSpecs, maxMatchedListed),
		joinOrNone(match.MissingRequirements, maxMissingListed),
	)
}

// Rejections annotates every non-selected match.
func Rejections(matches []types.MatchResult) []types.RejectedCandidate {
	rejected := make([]types.RejectedCandidate, 0, len(matches))
	for _, match := range matches {
		reason := fmt.Sprintf("Lower match score (%.2f)", match.MatchScore)
		if len(match.MissingRequirements) > 0 {
			reason += ", missing: " + strings.Join(head(match.MissingRequirements, maxRejectedMissing), ", ")
		}
		rejected = append(rejected, types.RejectedCandidate{
			ProductName: match.ProductName,
			MatchScore:  match.MatchScore,
			Reason:      reason,
		})
	}
	return rejected
}

func category(score float64) string {
	switch {
	case score >= strongScore:
		return "Strong"
	case score >= moderateScore:
		return "Moderate"
	default:
		return "Weak"
	}
}

func percent(score float64) int {
	return int(math.Round(score * 100))
}

func joinOrNone(items []string, limit int) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(head(items, limit), ", ")
}

func head(items []string, limit int) []string {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
