package proposal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/rfperr"
	"github.com/spigell/rfp-responder/internal/types"
)

var fixedNow = time.Date(2024, 3, 5, 12, 30, 45, 123456789, time.UTC)

func testAssembler() *Assembler {
	a := NewAssembler(zap.NewNop())
	a.now = func() time.Time { return fixedNow }
	return a
}

func fullParts() Parts {
	return Parts{
		ID:  "run-1",
		RFP: &types.RFP{ID: "rfp1", Title: "Network Security Upgrade"},
		Matches: []types.MatchResult{{
			ProductID: "p1", ProductName: "CloudGuard", MatchScore: 1,
			MatchedSpecs: []string{"firewall"}, MissingRequirements: []string{},
		}},
		SelectionJustification: "Selected: CloudGuard",
		Suitability:            types.Suitable,
		SuitabilityReason:      "Strong match (100%) with no critical missing requirements",
		Rejected:               []types.RejectedCandidate{{ProductName: "Edge", MatchScore: 0.4, Reason: "Lower match score (0.40)"}},
		Pricing: []types.PricingBreakdown{
			{ProductID: "p1", TotalPrice: 23750},
			{ProductID: "p2", TotalPrice: 1250.5},
		},
		TechnicalAnalysis:  "tech",
		PricingExplanation: "pricing",
		SalesPitch:         "pitch",
	}
}

func TestAssemble(t *testing.T) {
	p, err := testAssembler().Assemble(fullParts())
	require.NoError(t, err)

	assert.Equal(t, "run-1", p.ID)
	assert.Equal(t, "rfp1", p.RFPID)
	assert.Equal(t, "Network Security Upgrade", p.RFPTitle)
	assert.Equal(t, types.Suitable, p.Suitability)
	assert.InDelta(t, 25000.5, p.TotalValue, 1e-9)
	assert.Equal(t, fixedNow, p.GeneratedAt)
	assert.Equal(t, "tech", p.TechnicalAnalysis)
	assert.False(t, p.Degraded())
	assert.NoError(t, Validate(p))
}

func TestAssembleDefaults(t *testing.T) {
	p, err := testAssembler().Assemble(Parts{
		ID:          "run-2",
		RFP:         &types.RFP{ID: "rfp2"},
		Suitability: types.NotSuitable,
		Errors:      []string{"matching: boom"},
	})
	require.NoError(t, err)

	assert.NotNil(t, p.Matches)
	assert.Empty(t, p.Matches)
	assert.NotNil(t, p.Pricing)
	assert.Empty(t, p.Pricing)
	assert.Equal(t, 0.0, p.TotalValue)
	assert.Equal(t, NoTechnicalAnalysis, p.TechnicalAnalysis)
	assert.Equal(t, NoPricingExplanation, p.PricingExplanation)
	assert.Equal(t, NoSalesPitch, p.SalesPitch)
	assert.True(t, p.Degraded())
	assert.NoError(t, Validate(p))
}

func TestAssembleRequiresRFP(t *testing.T) {
	_, err := testAssembler().Assemble(Parts{ID: "run-3"})

	assert.ErrorIs(t, err, ErrMissingRFP)
	assert.ErrorIs(t, err, rfperr.ErrOutput)
	assert.False(t, rfperr.IsFatal(err))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Proposal {
		p, _ := testAssembler().Assemble(fullParts())
		return p
	}

	tests := []struct {
		name   string
		mutate func(p *Proposal)
	}{
		{name: "missing id", mutate: func(p *Proposal) { p.ID = "" }},
		{name: "missing rfp id", mutate: func(p *Proposal) { p.RFPID = "" }},
		{name: "two selections", mutate: func(p *Proposal) { p.Matches = append(p.Matches, p.Matches[0]) }},
		{name: "unknown suitability", mutate: func(p *Proposal) { p.Suitability = "great" }},
		{name: "empty pitch", mutate: func(p *Proposal) { p.SalesPitch = "" }},
		{name: "negative total", mutate: func(p *Proposal) { p.TotalValue = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := valid()
			tt.mutate(p)
			assert.ErrorIs(t, Validate(p), rfperr.ErrInvalidData)
		})
	}

	assert.ErrorIs(t, Validate(nil), rfperr.ErrInvalidData)
}

func TestFilename(t *testing.T) {
	p := &Proposal{RFPID: "rfp1", GeneratedAt: fixedNow}
	assert.Equal(t, "proposal_rfp1_2024-03-05T12-30-45-123456.json", Filename(p))

	p.RFPID = "../etc/rfp 1"
	assert.Equal(t, "proposal____etc_rfp_1_2024-03-05T12-30-45-123456.json", Filename(p))
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	p, err := testAssembler().Assemble(fullParts())
	require.NoError(t, err)
	p.SalesPitch = "Budget <= $30,000 & on time"

	path, err := Export(p, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, Filename(p)), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Budget <= $30,000 & on time")
	assert.Contains(t, string(data), "\n  \"rfp_id\": \"rfp1\"")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "suitable", decoded["suitability"])
	assert.InDelta(t, 25000.5, decoded["total_value"], 1e-9)
	assert.Len(t, decoded["pricing"], 2)
}

func TestExportRejectsInvalidProposal(t *testing.T) {
	dir := t.TempDir()

	_, err := Export(&Proposal{RFPID: "rfp1"}, dir)

	assert.ErrorIs(t, err, rfperr.ErrInvalidData)
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}
