package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/rfp-responder/internal/ai"
	"github.com/spigell/rfp-responder/internal/rfperr"
	"github.com/spigell/rfp-responder/internal/types"
	"github.com/spigell/rfp-responder/internal/workflow"
)

type fakeRFPs map[string]*types.RFP

func (f fakeRFPs) LoadRFP(id string) (*types.RFP, error) {
	rfp, ok := f[id]
	if !ok {
		return nil, rfperr.NotFound("rfp %s", id)
	}
	return rfp, nil
}

type fakeSource struct {
	products *types.Products
	err      error
}

func (f fakeSource) Products(context.Context) (*types.Products, error) {
	return f.products, f.err
}

func newEngine(t *testing.T) *workflow.Engine {
	t.Helper()
	e, err := workflow.New(workflow.Deps{
		Generator: ai.Unavailable{Reason: "disabled"},
		PricingTests: []types.TestCost{
			{TestName: "security_audit", Cost: 2500},
			{TestName: "integration_test", Cost: 1500},
		},
	})
	require.NoError(t, err)
	return e
}

var rfps = fakeRFPs{
	"rfp1": {ID: "rfp1", Title: "Network Security Upgrade", Requirements: []string{"firewall", "VPN"}},
}

var catalogue = &types.Products{Items: []*types.Product{
	{ID: "p1", Name: "CloudGuard", Specs: []string{"next-generation firewall", "VPN support"}, BasePrice: 15000},
}}

func TestProcess(t *testing.T) {
	p := New(rfps, fakeSource{products: catalogue}, newEngine(t), nil)

	result, err := p.Process(context.Background(), "rfp1")
	require.NoError(t, err)

	assert.Equal(t, "rfp1", result.RFPID)
	assert.Equal(t, types.Suitable, result.Suitability)
	assert.Equal(t, 23750.0, result.TotalValue)
	assert.True(t, result.Degraded())
}

func TestProcessErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rfpID  string
		source fakeSource
		want   error
	}{
		{name: "unknown rfp", rfpID: "rfp404", source: fakeSource{products: catalogue}, want: rfperr.ErrNotFound},
		{name: "missing catalog", rfpID: "rfp1", source: fakeSource{err: rfperr.NotFound("products file")}, want: rfperr.ErrNotFound},
		{name: "broken catalog", rfpID: "rfp1", source: fakeSource{err: rfperr.InvalidData(errors.New("eof"), "products file")}, want: rfperr.ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := New(rfps, tt.source, newEngine(t), nil)

			result, err := p.Process(context.Background(), tt.rfpID)

			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
