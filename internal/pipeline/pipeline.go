// Package pipeline loads an RFP and the catalog and runs the workflow on them.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/catalog"
	"github.com/spigell/rfp-responder/internal/logger"
	"github.com/spigell/rfp-responder/internal/proposal"
	"github.com/spigell/rfp-responder/internal/types"
)

// RFPLoader resolves an RFP by id.
type RFPLoader interface {
	LoadRFP(id string) (*types.RFP, error)
}

// Runner turns an RFP and a catalog into a proposal.
type Runner interface {
	Run(ctx context.Context, rfp *types.RFP, products *types.Products) (*proposal.Proposal, error)
}

type Pipeline struct {
	rfps    RFPLoader
	catalog catalog.Source
	runner  Runner
	logger  *zap.Logger
}

func New(rfps RFPLoader, source catalog.Source, runner Runner, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{rfps: rfps, catalog: source, runner: runner, logger: log}
}

// Process returns the proposal for the RFP with the given id. Loading
// errors keep their kind, so a missing RFP is still rfperr.ErrNotFound.
func (p *Pipeline) Process(ctx context.Context, rfpID string) (*proposal.Proposal, error) {
	log := logger.WithRunFields(p.logger, "", rfpID)
	start := time.Now()

	log.Info("loading rfp")
	rfp, err := p.rfps.LoadRFP(rfpID)
	if err != nil {
		return nil, fmt.Errorf("loading rfp: %w", err)
	}

	log.Info("loading products")
	products, err := p.catalog.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}

	result, err := p.runner.Run(ctx, rfp, products)
	if err != nil {
		return nil, fmt.Errorf("processing rfp %s: %w", rfpID, err)
	}

	log.Info("proposal generated",
		zap.String("proposal_id", result.ID),
		zap.String("suitability", result.Suitability.String()),
		zap.Float64("total_value", result.TotalValue),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}
