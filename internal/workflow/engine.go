// Package workflow runs an RFP through matching, selection, pricing, text
// generation and proposal assembly.
//
// Only ErrNotFound and ErrInvalidData abort a run. Any other stage failure,
// including a panic, is replaced by the stage's fallback delta and recorded
// in State.Errors, so a run always ends with a proposal.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/agents"
	"github.com/spigell/rfp-responder/internal/ai"
	"github.com/spigell/rfp-responder/internal/config"
	"github.com/spigell/rfp-responder/internal/logger"
	"github.com/spigell/rfp-responder/internal/matching"
	"github.com/spigell/rfp-responder/internal/pricing"
	"github.com/spigell/rfp-responder/internal/proposal"
	"github.com/spigell/rfp-responder/internal/rfperr"
	"github.com/spigell/rfp-responder/internal/selection"
	"github.com/spigell/rfp-responder/internal/types"
)

// Step describes the result of executing a stage.
type Step struct {
	Stage    string
	Initial  int
	Left     int
	Degraded bool
	Duration time.Duration
}

// Deps aggregates the collaborators shared by all stages.
type Deps struct {
	Settings  *config.Settings
	Generator ai.Generator
	// PricingTests is the pricing-test catalog.
	PricingTests []types.TestCost
	Logger       *zap.Logger
}

// kinds maps a stage to the error kind its failures are reported as.
var kinds = map[string]error{
	StageMatch:   rfperr.ErrMatching,
	StageSelect:  rfperr.ErrSelection,
	StagePricing: rfperr.ErrPricing,
	StageAgent:   rfperr.ErrAgent,
	StageOutput:  rfperr.ErrOutput,
}

type Engine struct {
	stages map[string]Stage
	tests  []types.TestCost
	logger *zap.Logger
	newID  func() string
}

func New(deps Deps) (*Engine, error) {
	settings := deps.Settings.OrDefault()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	stages := []Stage{
		&matchStage{engine: matching.New(settings.MatchingThreshold, log.Named(StageMatch))},
		&selectStage{policy: selection.New(settings.MatchingThreshold, log.Named(StageSelect))},
		&pricingStage{calculator: pricing.New(settings, log.Named(StagePricing))},
		&agentStage{orchestrator: agents.New(deps.Generator, log.Named(StageAgent))},
		&outputStage{assembler: proposal.NewAssembler(log.Named(StageOutput))},
	}

	return newEngine(stages, deps.PricingTests, log), nil
}

func newEngine(stages []Stage, tests []types.TestCost, log *zap.Logger) *Engine {
	byName := make(map[string]Stage, len(stages))
	for _, stage := range stages {
		byName[stage.Name()] = stage
	}
	return &Engine{stages: byName, tests: tests, logger: log, newID: uuid.NewString}
}

// Run executes the workflow and returns the proposal. It fails only when
// the input is missing or invalid.
func (e *Engine) Run(ctx context.Context, rfp *types.RFP, products *types.Products) (*proposal.Proposal, error) {
	s, err := e.Execute(ctx, rfp, products)
	if err != nil {
		return nil, err
	}
	return s.Proposal, nil
}

// Execute executes the workflow and returns the final state.
func (e *Engine) Execute(ctx context.Context, rfp *types.RFP, products *types.Products) (State, error) {
	if rfp == nil {
		return State{}, rfperr.InvalidData(nil, "rfp is required")
	}

	s := State{
		RunID:    e.newID(),
		RFP:      rfp,
		Products: products,
		Tests:    e.tests,
	}

	log := logger.WithRunFields(e.logger, s.RunID, rfp.ID)
	log.Info("workflow started", zap.Int("products", products.Len()), zap.Int("requirements", len(rfp.Requirements)))

	for name := StageMatch; name != ""; name = next(name, s) {
		stage, ok := e.stages[name]
		if !ok {
			return s, fmt.Errorf("workflow stage %q is not registered", name)
		}

		step := Step{Stage: name, Initial: s.candidates()}
		start := time.Now()

		delta, err := runStage(ctx, stage, s)
		if err != nil {
			if rfperr.IsFatal(err) {
				log.Error("workflow aborted", zap.String(logger.FieldStage, name), zap.Error(err))
				return s, fmt.Errorf("%s: %w", name, err)
			}

			log.Warn("stage degraded", zap.String(logger.FieldStage, name), zap.Error(err))
			delta = stage.Fallback(s, err)
			delta.Errors = append(delta.Errors, fmt.Sprintf("%s: %v", name, err))
			step.Degraded = true
		}

		s = s.Apply(delta)

		step.Left = s.candidates()
		step.Duration = time.Since(start)
		s = s.withStep(step)

		log.Info("workflow step",
			zap.String(logger.FieldStage, step.Stage),
			zap.Int("initial", step.Initial),
			zap.Int("left", step.Left),
			zap.Bool("degraded", step.Degraded),
			zap.Duration("duration", step.Duration),
		)
	}

	log.Info("workflow completed",
		zap.Strings("path", s.Path()),
		zap.String("suitability", s.Suitability.String()),
		zap.Int("errors", len(s.Errors)),
	)

	return s, nil
}

// next returns the stage after name, or "" when the run is over.
func next(name string, s State) string {
	switch name {
	case StageMatch:
		return StageSelect
	case StageSelect:
		if len(s.Matches) == 0 {
			return StageOutput
		}
		return StagePricing
	case StagePricing:
		return StageAgent
	case StageAgent:
		return StageOutput
	default:
		return ""
	}
}

// runStage runs one stage and classifies its failure. A panic becomes an
// error of the stage's kind.
func runStage(ctx context.Context, stage Stage, s State) (d Delta, err error) {
	kind := kinds[stage.Name()]
	if kind == nil {
		kind = errors.New(stage.Name() + " failed")
	}

	defer func() {
		if r := recover(); r != nil {
			d = Delta{}
			err = rfperr.Panic(kind, r)
		}
	}()

	d, err = stage.Run(ctx, s)
	if err != nil && !rfperr.IsFatal(err) && !errors.Is(err, kind) {
		err = fmt.Errorf("%w: %w", kind, err)
	}
	return d, err
}
