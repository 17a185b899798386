// Package proposal assembles the final RFP response and writes it to disk.
package proposal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/rfperr"
	"github.com/spigell/rfp-responder/internal/types"
)

// Defaults for text outputs that were never produced.
const (
	NoTechnicalAnalysis  = "No technical analysis available."
	NoPricingExplanation = "No pricing explanation available."
	NoSalesPitch         = "No sales pitch available."
)

// ErrMissingRFP is returned by Assemble when no RFP reached the output stage.
var ErrMissingRFP = fmt.Errorf("%w: rfp is missing", rfperr.ErrOutput)

type Proposal struct {
	ID                     string                    `json:"id" validate:"required"`
	RFPID                  string                    `json:"rfp_id" validate:"required"`
	RFPTitle               string                    `json:"rfp_title"`
	Matches                []types.MatchResult       `json:"matches" validate:"max=1"`
	SelectionJustification string                    `json:"selection_justification,omitempty"`
	Suitability            types.Suitability         `json:"suitability,omitempty" validate:"omitempty,oneof=suitable partial not_suitable"`
	SuitabilityReason      string                    `json:"suitability_reason,omitempty"`
	RejectedProducts       []types.RejectedCandidate `json:"rejected_products,omitempty"`
	Pricing                []types.PricingBreakdown  `json:"pricing"`
	TechnicalAnalysis      string                    `json:"technical_analysis" validate:"required"`
	PricingExplanation     string                    `json:"pricing_explanation" validate:"required"`
	SalesPitch             string                    `json:"sales_pitch" validate:"required"`
	TotalValue             float64                   `json:"total_value" validate:"gte=0"`
	GeneratedAt            time.Time                 `json:"generated_at"`
	// Errors lists the stages that degraded while producing the proposal.
	Errors []string `json:"errors,omitempty"`
}

// Degraded reports whether any stage fell back to defaults.
func (p *Proposal) Degraded() bool {
	return p != nil && len(p.Errors) > 0
}

// Parts are the workflow outputs a proposal is built from.
// Empty text fields are replaced by the "No ... available." defaults.
type Parts struct {
	ID                     string
	RFP                    *types.RFP
	Matches                []types.MatchResult
	SelectionJustification string
	Suitability            types.Suitability
	SuitabilityReason      string
	Rejected               []types.RejectedCandidate
	Pricing                []types.PricingBreakdown
	TechnicalAnalysis      string
	PricingExplanation     string
	SalesPitch             string
	Errors                 []string
}

type Assembler struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewAssembler(logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{logger: logger, now: time.Now}
}

// Assemble builds a structurally complete proposal.
func (a *Assembler) Assemble(parts Parts) (*Proposal, error) {
	if parts.RFP == nil {
		return nil, ErrMissingRFP
	}

	if len(parts.Matches) == 0 {
		a.logger.Warn("proposal has no selected product", zap.String("rfp_id", parts.RFP.ID))
	}
	if len(parts.Pricing) == 0 {
		a.logger.Warn("proposal has no pricing", zap.String("rfp_id", parts.RFP.ID))
	}

	p := &Proposal{
		ID:                     parts.ID,
		RFPID:                  parts.RFP.ID,
		RFPTitle:               parts.RFP.Title,
		Matches:                orEmpty(parts.Matches),
		SelectionJustification: parts.SelectionJustification,
		Suitability:            parts.Suitability,
		SuitabilityReason:      parts.SuitabilityReason,
		RejectedProducts:       parts.Rejected,
		Pricing:                orEmpty(parts.Pricing),
		TechnicalAnalysis:      orDefault(parts.TechnicalAnalysis, NoTechnicalAnalysis),
		PricingExplanation:     orDefault(parts.PricingExplanation, NoPricingExplanation),
		SalesPitch:             orDefault(parts.SalesPitch, NoSalesPitch),
		TotalValue:             TotalValue(parts.Pricing),
		GeneratedAt:            a.now().UTC(),
		Errors:                 parts.Errors,
	}

	a.logger.Info("proposal assembled",
		zap.String("rfp_id", p.RFPID),
		zap.Int("products", len(p.Matches)),
		zap.Float64("total_value", p.TotalValue),
	)

	return p, nil
}

// Validate checks the structural invariants of a proposal.
func Validate(p *Proposal) error {
	if p == nil {
		return rfperr.InvalidData(nil, "proposal is nil")
	}
	if err := validator.New().Struct(p); err != nil {
		return rfperr.InvalidData(err, "proposal %s", p.ID)
	}
	return nil
}

// TotalValue sums the total price of every pricing entry.
func TotalValue(pricing []types.PricingBreakdown) float64 {
	var total float64
	for _, p := range pricing {
		total += p.TotalPrice
	}
	return total
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
