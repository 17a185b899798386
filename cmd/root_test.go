package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/ai"
	"github.com/spigell/rfp-responder/internal/catalog"
	"github.com/spigell/rfp-responder/internal/config"
	"github.com/spigell/rfp-responder/internal/proposal"
	"github.com/spigell/rfp-responder/internal/server"
	"github.com/spigell/rfp-responder/internal/types"
)

func decodeConfig(t *testing.T, values map[string]any) *Config {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	for key, value := range values {
		v.Set(key, value)
	}

	var cfg *Config
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	cfg := decodeConfig(t, nil)

	assert.Equal(t, catalog.Paths{
		RFPDir:       catalog.DefaultRFPDir,
		ProductsFile: catalog.DefaultProductsFile,
		PricingFile:  catalog.DefaultPricingFile,
	}, cfg.Data)
	assert.Equal(t, config.Default(), cfg.Settings())
	assert.Equal(t, defaultOutputDir, cfg.OutputDir())
	assert.Equal(t, server.DefaultAddress, cfg.Server.Address)
	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, defaultModel, cfg.AI.Gemini.Model)
}

func TestConfigOverrides(t *testing.T) {
	cfg := decodeConfig(t, map[string]any{
		"matching.threshold":        0.5,
		"pricing.markup-percentage": 10,
		"pricing.default-tests":     []string{"load_test"},
		"catalog.url":               "http://catalog.local",
		"catalog.page-delay":        "250ms",
		"output.dir":                "proposals",
		"ai.gemini.temperature":     0.2,
		"server.write-timeout":      "2m",
		"data.products-file":        "catalog.json",
	})

	settings := cfg.Settings()
	assert.Equal(t, 0.5, settings.MatchingThreshold)
	assert.Equal(t, 10.0, settings.MarkupPercentage)
	assert.Equal(t, []string{"load_test"}, settings.DefaultTests)
	assert.Equal(t, "http://catalog.local", cfg.Catalog.URL)
	assert.Equal(t, 250*time.Millisecond, cfg.Catalog.PageDelay)
	assert.Equal(t, "proposals", cfg.OutputDir())
	require.NotNil(t, cfg.AI.Gemini.Temperature)
	assert.InDelta(t, 0.2, *cfg.AI.Gemini.Temperature, 1e-6)
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "catalog.json", cfg.Data.ProductsFile)
}

func TestNilConfig(t *testing.T) {
	var cfg *Config

	assert.Equal(t, config.Default(), cfg.Settings())
	assert.Equal(t, defaultOutputDir, cfg.OutputDir())
}

func TestNewGenerator(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	tests := []struct {
		name        string
		cfg         *AIConfig
		unavailable bool
		wantErr     string
	}{
		{name: "no section", cfg: nil, unavailable: true},
		{name: "disabled", cfg: &AIConfig{Provider: "gemini"}, unavailable: true},
		{name: "unsupported provider", cfg: &AIConfig{Enabled: true, Provider: "openai"}, wantErr: "unsupported ai provider: openai"},
		{name: "missing gemini section", cfg: &AIConfig{Enabled: true}, wantErr: "ai.gemini section is required"},
		{name: "missing key", cfg: &AIConfig{Enabled: true, Gemini: &GeminiConfig{}}, wantErr: "GEMINI_API_KEY_FILE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := newGenerator(context.Background(), tt.cfg, zap.NewNop())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, generator)
				return
			}

			require.NoError(t, err)
			_, genErr := generator.GenerateContent(context.Background(), "prompt")
			assert.Equal(t, tt.unavailable, errors.Is(genErr, ai.ErrUnavailable))
		})
	}
}

func TestNewSource(t *testing.T) {
	store := catalog.NewStore(catalog.Paths{}, nil)

	assert.Same(t, store, newSource(&Config{}, store, zap.NewNop()))

	source := newSource(&Config{Catalog: &CatalogConfig{URL: "http://catalog.local/", PageDelay: time.Second}}, store, zap.NewNop())
	client, ok := source.(*catalog.Client)
	require.True(t, ok)
	assert.Equal(t, "http://catalog.local", client.BaseURL)
	assert.Equal(t, time.Second, client.PageDelay)
}

func TestSummary(t *testing.T) {
	p := &proposal.Proposal{
		RFPID:       "rfp1",
		RFPTitle:    "Network Security Upgrade",
		Matches:     []types.MatchResult{{ProductName: "CloudGuard", MatchScore: 1}},
		Suitability: types.Suitable,
		RejectedProducts: []types.RejectedCandidate{
			{ProductName: "EdgeWall"},
		},
		TotalValue: 23750,
	}

	s := summary(p)

	assert.Equal(t, "CloudGuard", s.Selected)
	assert.Equal(t, 1.0, s.Score)
	assert.Equal(t, "suitable", s.Suitability)
	assert.Equal(t, []string{"EdgeWall"}, s.Rejected)
	assert.Len(t, summaryFields(p), 6)
}

func TestHandleActionSave(t *testing.T) {
	dir := t.TempDir()
	app := &application{
		config: &Config{Output: &OutputConfig{Dir: dir}},
		logger: zap.NewNop(),
	}
	p := &proposal.Proposal{
		ID:                 "run-1",
		RFPID:              "rfp1",
		Matches:            []types.MatchResult{},
		Pricing:            []types.PricingBreakdown{},
		Suitability:        types.NotSuitable,
		TechnicalAnalysis:  proposal.NoTechnicalAnalysis,
		PricingExplanation: proposal.NoPricingExplanation,
		SalesPitch:         proposal.NoSalesPitch,
		GeneratedAt:        time.Date(2024, 3, 5, 12, 30, 45, 0, time.UTC),
	}

	require.NoError(t, handleAction(PromptSave, app, p))
	assert.FileExists(t, dir+"/"+proposal.Filename(p))

	assert.ErrorIs(t, handleAction(PromptExit, app, p), errExit)
	assert.EqualError(t, handleAction("dance", app, p), "invalid action: dance")
}

func TestBuildVersion(t *testing.T) {
	saved := version
	t.Cleanup(func() { version = saved })

	version = "v1.2.3"
	assert.Equal(t, "v1.2.3", buildVersion())

	version = "unknown"
	assert.NotEmpty(t, buildVersion())
}
