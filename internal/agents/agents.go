// Package agents produces the prose parts of a proposal: a technical-fit
// analysis, a pricing explanation and a sales pitch.
//
// The technical analysis and the pricing explanation are generated
// concurrently. The pitch waits for the technical analysis because it quotes
// it. A failing call never affects the other two; it is replaced by a
// deterministic fallback text and reported in Result.Errors.
package agents

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/rfp-responder/internal/ai"
	"github.com/spigell/rfp-responder/internal/rfperr"
	"github.com/spigell/rfp-responder/internal/types"
)

// Texts used when a call cannot produce anything, not even a fallback.
const (
	TechnicalUnavailable = "Technical analysis unavailable due to an error."
	PricingUnavailable   = "Pricing explanation unavailable due to an error."
	SalesUnavailable     = "Sales proposal unavailable due to an error."
)

// Placeholders used when there is no selected product or no pricing.
const (
	InsufficientTechnical = "Insufficient data for technical analysis."
	InsufficientPricing   = "Insufficient data for pricing explanation."
	InsufficientSales     = "Unable to generate proposal due to insufficient data."
)

const unknownSuitability = "unknown"

// Input is the structured context shared by the three calls.
type Input struct {
	RFP               *types.RFP
	Match             *types.MatchResult
	Pricing           *types.PricingBreakdown
	Suitability       types.Suitability
	SuitabilityReason string
}

func (in Input) sufficient() bool {
	return in.RFP != nil && in.Match != nil && in.Pricing != nil
}

func (in Input) suitability() string {
	if in.Suitability == "" {
		return unknownSuitability
	}
	return in.Suitability.String()
}

type Result struct {
	TechnicalAnalysis  string
	PricingExplanation string
	SalesPitch         string
	// Errors holds one entry per failed call, in technical, pricing, sales order.
	Errors []error
}

// Insufficient returns the placeholders used without calling the generator.
func Insufficient() Result {
	return Result{
		TechnicalAnalysis:  InsufficientTechnical,
		PricingExplanation: InsufficientPricing,
		SalesPitch:         InsufficientSales,
	}
}

type Orchestrator struct {
	generator ai.Generator
	logger    *zap.Logger
}

func New(generator ai.Generator, logger *zap.Logger) *Orchestrator {
	if generator == nil {
		generator = ai.Unavailable{Reason: "no generator configured"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{generator: generator, logger: logger}
}

// Run never fails. Call errors are reported in Result.Errors.
func (o *Orchestrator) Run(ctx context.Context, in Input) Result {
	if !in.sufficient() {
		o.logger.Warn("insufficient data for agents")
		return Insufficient()
	}

	o.logger.Info("running agents", zap.String("product_id", in.Match.ProductID))

	var (
		res                           Result
		techErr, pricingErr, salesErr error
		g                             errgroup.Group
	)

	g.Go(func() error {
		res.TechnicalAnalysis, techErr = o.call(ctx, "technical", TechnicalUnavailable, func(ctx context.Context) (string, error) {
			return o.technical(ctx, in)
		})
		res.SalesPitch, salesErr = o.call(ctx, "sales", SalesUnavailable, func(ctx context.Context) (string, error) {
			return o.sales(ctx, in, res.TechnicalAnalysis)
		})
		return nil
	})

	g.Go(func() error {
		res.PricingExplanation, pricingErr = o.call(ctx, "pricing", PricingUnavailable, func(ctx context.Context) (string, error) {
			return o.pricing(ctx, in.Pricing)
		})
		return nil
	})

	// goroutines report through their own variables and always return nil
	_ = g.Wait()

	for _, err := range []error{techErr, pricingErr, salesErr} {
		if err != nil {
			res.Errors = append(res.Errors, err)
		}
	}

	o.logger.Info("agents completed", zap.Int("failed", len(res.Errors)))

	return res
}

// call runs one agent, converting a panic or an empty result into the
// unavailable text.
func (o *Orchestrator) call(ctx context.Context, agent, unavailable string, fn func(context.Context) (string, error)) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = unavailable
			err = rfperr.Panic(rfperr.ErrAgent, r)
			o.logger.Error("agent panicked", zap.String("agent", agent), zap.Error(err))
		}
	}()

	text, err = fn(ctx)
	if err != nil {
		o.logger.Warn("agent failed, using fallback", zap.String("agent", agent), zap.Error(err))
	}
	if text == "" {
		text = unavailable
	}

	o.logger.Debug("agent completed",
		zap.String("agent", agent),
		zap.Int("length", utf8.RuneCountInString(text)),
	)

	return text, err
}
