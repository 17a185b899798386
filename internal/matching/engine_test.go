package matching

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/rfp-responder/internal/types"
)

func catalog(products ...*types.Product) *types.Products {
	return &types.Products{Items: products}
}

func TestScoreSubstringTier(t *testing.T) {
	e := New(0.3, zap.NewNop())
	rfp := &types.RFP{ID: "rfp1", Requirements: []string{"firewall", "VPN"}}
	product := &types.Product{ID: "p1", Name: "CloudGuard", Specs: []string{"next-generation firewall", "VPN support"}}

	result := e.Score(rfp, product)

	assert.Equal(t, 1.0, result.MatchScore)
	assert.Empty(t, result.MissingRequirements)
	assert.Equal(t, []string{"next-generation firewall", "VPN support"}, result.MatchedSpecs)
}

func TestScoreNoTierMatches(t *testing.T) {
	e := New(0.3, zap.NewNop())
	rfp := &types.RFP{ID: "rfp1", Requirements: []string{"multi-factor authentication"}}
	product := &types.Product{ID: "p1", Name: "Basic", Specs: []string{"basic login"}}

	result := e.Score(rfp, product)

	assert.Equal(t, 0.0, result.MatchScore)
	assert.Equal(t, []string{"multi-factor authentication"}, result.MissingRequirements)
	assert.Empty(t, result.MatchedSpecs)

	assert.Empty(t, e.Match(rfp, catalog(product)))
}

func TestKeywordMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		requirement string
		spec        string
		want        bool
	}{
		{name: "requirement inside spec", requirement: "firewall", spec: "next-generation firewall", want: true},
		{name: "spec inside requirement", requirement: "vpn support for branches", spec: "vpn", want: true},
		{name: "two token overlap", requirement: "real time threat monitoring dashboard", spec: "threat dashboard monitoring", want: true},
		{name: "one token overlap on long requirement", requirement: "real time threat analytics", spec: "threat feeds", want: false},
		{name: "one token overlap on short requirement", requirement: "cloud backup", spec: "offsite backup", want: true},
		{name: "stop words do not count", requirement: "support for the system", spec: "system support", want: false},
		{name: "stop words shrink requirement", requirement: "support for logging", spec: "central logging", want: true},
		{name: "no overlap", requirement: "load balancing", spec: "intrusion detection", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, keywordMatch(tt.requirement, tt.spec))
		})
	}
}

func TestScoreFallbackTier(t *testing.T) {
	e := New(0.3, zap.NewNop())
	// tiers 1-2 fail: three significant tokens, only "intrusion" is shared
	rfp := &types.RFP{Requirements: []string{"advanced network intrusion"}}
	product := &types.Product{ID: "p1", Name: "IDS", Specs: []string{"firewall", "intrusion prevention"}}

	result := e.Score(rfp, product)

	assert.Equal(t, 1.0, result.MatchScore)
	assert.Equal(t, []string{"intrusion prevention"}, result.MatchedSpecs)
}

func TestScoreFallbackIgnoresShortTokens(t *testing.T) {
	e := New(0.3, zap.NewNop())
	rfp := &types.RFP{Requirements: []string{"api for sso and iam"}}
	product := &types.Product{ID: "p1", Name: "Gateway", Specs: []string{"rest api gateway, sso, iam-roles"}}

	// "api", "sso" and "iam" are substrings of the spec but too short for the
	// fallback, and only "api" survives tokenization as a shared token
	result := e.Score(rfp, product)

	assert.Equal(t, 0.0, result.MatchScore)
	assert.Equal(t, []string{"api for sso and iam"}, result.MissingRequirements)
}

func TestScoreFallbackCountsRunes(t *testing.T) {
	t.Parallel()
	e := New(0.3, zap.NewNop())

	tests := []struct {
		name        string
		requirement string
		spec        string
		score       float64
		missing     []string
	}{
		// "эвм" is three runes but six bytes
		{name: "three runes stay missing", requirement: "щит эвм", spec: "эвмка", score: 0, missing: []string{"щит эвм"}},
		{name: "four runes match", requirement: "щит сеть", spec: "сетьпро", score: 1, missing: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rfp := &types.RFP{Requirements: []string{tt.requirement}}
			product := &types.Product{ID: "p1", Name: "Щит", Specs: []string{tt.spec}}

			result := e.Score(rfp, product)

			assert.Equal(t, tt.score, result.MatchScore)
			assert.ElementsMatch(t, tt.missing, result.MissingRequirements)
		})
	}
}

func TestScoreDeduplicatesMatchedSpecs(t *testing.T) {
	e := New(0.3, zap.NewNop())
	rfp := &types.RFP{Requirements: []string{"firewall", "firewall rules", "threat intelligence"}}
	product := &types.Product{ID: "p1", Name: "FW", Specs: []string{"firewall"}}

	result := e.Score(rfp, product)

	assert.Equal(t, []string{"firewall"}, result.MatchedSpecs)
	assert.Equal(t, []string{"threat intelligence"}, result.MissingRequirements)
	assert.InDelta(t, 2.0/3.0, result.MatchScore, 1e-9)
}

func TestScoreClassifiesEveryRequirement(t *testing.T) {
	e := New(0, zap.NewNop())
	requirements := []string{
		"firewall", "VPN", "intrusion detection", "SIEM integration", "HIPAA compliance",
		"24/7 support", "encryption at rest", "zero trust network access",
	}
	products := []*types.Product{
		{ID: "p1", Specs: []string{"next-generation firewall", "VPN support", "intrusion prevention"}},
		{ID: "p2", Specs: []string{"SIEM connectors", "encryption at rest and in transit"}},
		{ID: "p3", Specs: nil},
		{ID: "p4", Specs: []string{"zero trust", "network access control", "compliance reporting"}},
	}

	for _, product := range products {
		for n := 0; n <= len(requirements); n++ {
			rfp := &types.RFP{Requirements: requirements[:n]}
			result := e.Score(rfp, product)

			missing := make(map[string]bool)
			for _, m := range result.MissingRequirements {
				missing[m] = true
			}

			matched := 0
			for _, req := range rfp.Requirements {
				if !missing[req] {
					matched++
				}
			}

			require.Equal(t, n, matched+len(result.MissingRequirements), "product %s n=%d", product.ID, n)
			if n == 0 {
				assert.Equal(t, 0.0, result.MatchScore)
				continue
			}
			assert.InDelta(t, float64(n-len(result.MissingRequirements))/float64(n), result.MatchScore, 1e-12)
			assert.GreaterOrEqual(t, result.MatchScore, 0.0)
			assert.LessOrEqual(t, result.MatchScore, 1.0)
		}
	}
}

func TestScorePreservesMissingOrder(t *testing.T) {
	e := New(0.3, zap.NewNop())
	rfp := &types.RFP{Requirements: []string{"zeta", "firewall", "alpha", "beta"}}
	product := &types.Product{ID: "p1", Specs: []string{"firewall"}}

	result := e.Score(rfp, product)

	assert.Equal(t, []string{"zeta", "alpha", "beta"}, result.MissingRequirements)
}

func TestMatchSortsAndFilters(t *testing.T) {
	e := New(0.3, zap.NewNop())
	rfp := &types.RFP{ID: "rfp1", Requirements: []string{"firewall", "VPN", "intrusion detection", "load balancing"}}
	products := catalog(
		&types.Product{ID: "low", Specs: []string{"load balancing"}},                                // 0.25
		&types.Product{ID: "mid-a", Specs: []string{"firewall", "vpn"}},                             // 0.5
		&types.Product{ID: "top", Specs: []string{"firewall", "vpn", "ids", "intrusion detection"}}, // 0.75
		&types.Product{ID: "mid-b", Specs: []string{"intrusion detection", "load balancing"}},       // 0.5
	)

	matches := e.Match(rfp, products)

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ProductID)
	}
	assert.Equal(t, []string{"top", "mid-a", "mid-b"}, ids)

	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].MatchScore, matches[i].MatchScore)
	}
}

func TestMatchKeepsCatalogOrderOnTies(t *testing.T) {
	e := New(0, zap.NewNop())
	rfp := &types.RFP{Requirements: []string{"firewall"}}

	items := make([]*types.Product, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, &types.Product{ID: fmt.Sprintf("p%d", i), Specs: []string{"firewall"}})
	}

	matches := e.Match(rfp, catalog(items...))

	require.Len(t, matches, 10)
	for i, m := range matches {
		assert.Equal(t, fmt.Sprintf("p%d", i), m.ProductID)
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	e := New(0.3, zap.New(core))

	matches := e.Match(&types.RFP{Requirements: []string{"firewall"}}, catalog())
	assert.NotNil(t, matches)
	assert.Empty(t, matches)

	matches = e.Match(&types.RFP{}, catalog(&types.Product{ID: "p1", Specs: []string{"firewall"}}))
	assert.NotNil(t, matches)
	assert.Empty(t, matches)

	matches = e.Match(nil, nil)
	assert.Empty(t, matches)

	assert.Equal(t, 3, observed.Len())
}

func TestMatchSkipsNilProducts(t *testing.T) {
	e := New(0.3, zap.NewNop())
	rfp := &types.RFP{Requirements: []string{"firewall"}}

	matches := e.Match(rfp, catalog(nil, &types.Product{ID: "p1", Specs: []string{"firewall"}}))

	require.Len(t, matches, 1)
	assert.Equal(t, "p1", matches[0].ProductID)
}
