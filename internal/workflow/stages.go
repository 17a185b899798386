package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/spigell/rfp-responder/internal/agents"
	"github.com/spigell/rfp-responder/internal/matching"
	"github.com/spigell/rfp-responder/internal/pricing"
	"github.com/spigell/rfp-responder/internal/proposal"
	"github.com/spigell/rfp-responder/internal/selection"
	"github.com/spigell/rfp-responder/internal/types"
)

const (
	StageMatch   = "match"
	StageSelect  = "select"
	StagePricing = "pricing"
	StageAgent   = "agent"
	StageOutput  = "output"
)

const (
	noteNoMatches       = "No suitable products found for the RFP requirements"
	reasonSelectFailure = "Selection failed"
)

// Stage is one step of the workflow.
type Stage interface {
	Name() string
	// Run returns the changes to merge into the state.
	Run(ctx context.Context, s State) (Delta, error)
	// Fallback returns safe defaults used when Run fails.
	Fallback(s State, err error) Delta
}

type matchStage struct {
	engine *matching.Engine
}

func (st *matchStage) Name() string { return StageMatch }

func (st *matchStage) Run(_ context.Context, s State) (Delta, error) {
	matches := st.engine.Match(s.RFP, s.Products)

	d := Delta{Matches: ptr(matches), AllMatches: ptr(matches)}
	if len(matches) == 0 {
		d.Errors = []string{noteNoMatches}
	}
	return d, nil
}

func (st *matchStage) Fallback(State, error) Delta {
	return Delta{
		Matches:    ptr([]types.MatchResult{}),
		AllMatches: ptr([]types.MatchResult{}),
	}
}

type selectStage struct {
	policy *selection.Policy
}

func (st *selectStage) Name() string { return StageSelect }

func (st *selectStage) Run(_ context.Context, s State) (Delta, error) {
	decision := st.policy.Select(s.Matches)

	d := Delta{
		Matches:                ptr(decision.Selection()),
		SelectionJustification: ptr(decision.Justification),
		Suitability:            ptr(decision.Suitability),
		SuitabilityReason:      ptr(decision.Reason),
		Rejected:               ptr(decision.Rejected),
	}
	if decision.Note != "" {
		d.Errors = []string{decision.Note}
	}
	return d, nil
}

func (st *selectStage) Fallback(State, error) Delta {
	return Delta{
		Matches:           ptr([]types.MatchResult{}),
		Suitability:       ptr(types.NotSuitable),
		SuitabilityReason: ptr(reasonSelectFailure),
		Rejected:          ptr([]types.RejectedCandidate{}),
	}
}

type pricingStage struct {
	calculator *pricing.Calculator
}

func (st *pricingStage) Name() string { return StagePricing }

func (st *pricingStage) Run(_ context.Context, s State) (Delta, error) {
	return Delta{Pricing: ptr(st.calculator.Calculate(s.Matches, s.Products, s.Tests))}, nil
}

func (st *pricingStage) Fallback(State, error) Delta {
	return Delta{Pricing: ptr([]types.PricingBreakdown{})}
}

type agentStage struct {
	orchestrator *agents.Orchestrator
}

func (st *agentStage) Name() string { return StageAgent }

func (st *agentStage) Run(ctx context.Context, s State) (Delta, error) {
	in := agents.Input{
		RFP:               s.RFP,
		Match:             s.Selected(),
		Suitability:       s.Suitability,
		SuitabilityReason: s.SuitabilityReason,
	}
	if len(s.Pricing) > 0 {
		in.Pricing = &s.Pricing[0]
	}

	res := st.orchestrator.Run(ctx, in)

	d := Delta{
		TechnicalAnalysis:  ptr(res.TechnicalAnalysis),
		PricingExplanation: ptr(res.PricingExplanation),
		SalesPitch:         ptr(res.SalesPitch),
	}
	for _, err := range res.Errors {
		d.Errors = append(d.Errors, fmt.Sprintf("%s: %v", StageAgent, err))
	}
	return d, nil
}

func (st *agentStage) Fallback(State, error) Delta {
	return Delta{
		TechnicalAnalysis:  ptr(agents.TechnicalUnavailable),
		PricingExplanation: ptr(agents.PricingUnavailable),
		SalesPitch:         ptr(agents.SalesUnavailable),
	}
}

type outputStage struct {
	assembler *proposal.Assembler
}

func (st *outputStage) Name() string { return StageOutput }

func (st *outputStage) Run(_ context.Context, s State) (Delta, error) {
	p, err := st.assembler.Assemble(parts(s))
	if err != nil {
		return Delta{}, err
	}
	return Delta{Proposal: p}, nil
}

// Fallback builds the proposal without the assembler so that a run always
// ends with one.
func (st *outputStage) Fallback(s State, err error) Delta {
	pt := parts(s)

	p := &proposal.Proposal{
		ID:                     pt.ID,
		Matches:                nonNil(pt.Matches),
		SelectionJustification: pt.SelectionJustification,
		Suitability:            pt.Suitability,
		SuitabilityReason:      pt.SuitabilityReason,
		RejectedProducts:       pt.Rejected,
		Pricing:                nonNil(pt.Pricing),
		TechnicalAnalysis:      orDefault(pt.TechnicalAnalysis, proposal.NoTechnicalAnalysis),
		PricingExplanation:     orDefault(pt.PricingExplanation, proposal.NoPricingExplanation),
		SalesPitch:             orDefault(pt.SalesPitch, proposal.NoSalesPitch),
		TotalValue:             proposal.TotalValue(pt.Pricing),
		GeneratedAt:            time.Now().UTC(),
		Errors:                 append(append([]string{}, pt.Errors...), fmt.Sprintf("%s: %v", StageOutput, err)),
	}
	if s.RFP != nil {
		p.RFPID = s.RFP.ID
		p.RFPTitle = s.RFP.Title
	}

	return Delta{Proposal: p}
}

func parts(s State) proposal.Parts {
	return proposal.Parts{
		ID:                     s.RunID,
		RFP:                    s.RFP,
		Matches:                s.Matches,
		SelectionJustification: s.SelectionJustification,
		Suitability:            s.Suitability,
		SuitabilityReason:      s.SuitabilityReason,
		Rejected:               s.Rejected,
		Pricing:                s.Pricing,
		TechnicalAnalysis:      s.TechnicalAnalysis,
		PricingExplanation:     s.PricingExplanation,
		SalesPitch:             s.SalesPitch,
		Errors:                 s.Errors,
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
