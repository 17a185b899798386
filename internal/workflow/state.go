package workflow

import (
	"github.com/spigell/rfp-responder/internal/proposal"
	"github.com/spigell/rfp-responder/internal/types"
)

// State is the snapshot threaded through the stages. Stages never modify it;
// they return a Delta that the engine merges into a new snapshot.
type State struct {
	RunID    string
	RFP      *types.RFP
	Products *types.Products
	Tests    []types.TestCost

	// Matches is nil until the match stage ran. After selection it holds
	// the selected match only.
	Matches    []types.MatchResult
	AllMatches []types.MatchResult

	SelectionJustification string
	Suitability            types.Suitability
	SuitabilityReason      string
	Rejected               []types.RejectedCandidate

	Pricing []types.PricingBreakdown

	TechnicalAnalysis  string
	PricingExplanation string
	SalesPitch         string

	Proposal *proposal.Proposal

	// Errors collects annotations from degraded stages.
	Errors []string
	// Steps records every executed stage in order.
	Steps []Step
}

// Selected returns the selected match or nil.
func (s State) Selected() *types.MatchResult {
	if len(s.Matches) == 0 {
		return nil
	}
	m := s.Matches[0]
	return &m
}

// Path returns the names of the executed stages.
func (s State) Path() []string {
	path := make([]string, 0, len(s.Steps))
	for _, step := range s.Steps {
		path = append(path, step.Stage)
	}
	return path
}

// candidates is the number of products still in play.
func (s State) candidates() int {
	if s.Matches == nil {
		return s.Products.Len()
	}
	return len(s.Matches)
}

// Delta is the output of one stage. Nil fields leave the state untouched,
// Errors are appended.
type Delta struct {
	Matches                *[]types.MatchResult
	AllMatches             *[]types.MatchResult
	SelectionJustification *string
	Suitability            *types.Suitability
	SuitabilityReason      *string
	Rejected               *[]types.RejectedCandidate
	Pricing                *[]types.PricingBreakdown
	TechnicalAnalysis      *string
	PricingExplanation     *string
	SalesPitch             *string
	Proposal               *proposal.Proposal
	Errors                 []string
}

// Apply merges d into a copy of s field by field.
func (s State) Apply(d Delta) State {
	next := s

	if d.Matches != nil {
		next.Matches = *d.Matches
	}
	if d.AllMatches != nil {
		next.AllMatches = *d.AllMatches
	}
	if d.SelectionJustification != nil {
		next.SelectionJustification = *d.SelectionJustification
	}
	if d.Suitability != nil {
		next.Suitability = *d.Suitability
	}
	if d.SuitabilityReason != nil {
		next.SuitabilityReason = *d.SuitabilityReason
	}
	if d.Rejected != nil {
		next.Rejected = *d.Rejected
	}
	if d.Pricing != nil {
		next.Pricing = *d.Pricing
	}
	if d.TechnicalAnalysis != nil {
		next.TechnicalAnalysis = *d.TechnicalAnalysis
	}
	if d.PricingExplanation != nil {
		next.PricingExplanation = *d.PricingExplanation
	}
	if d.SalesPitch != nil {
		next.SalesPitch = *d.SalesPitch
	}
	if d.Proposal != nil {
		next.Proposal = d.Proposal
	}
	if len(d.Errors) > 0 {
		next.Errors = append(append(make([]string, 0, len(s.Errors)+len(d.Errors)), s.Errors...), d.Errors...)
	}

	return next
}

func (s State) withStep(step Step) State {
	next := s
	next.Steps = append(append(make([]Step, 0, len(s.Steps)+1), s.Steps...), step)
	return next
}

func ptr[T any](v T) *T {
	return &v
}
