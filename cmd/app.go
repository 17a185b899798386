package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/ai"
	"github.com/spigell/rfp-responder/internal/ai/gemini"
	"github.com/spigell/rfp-responder/internal/catalog"
	"github.com/spigell/rfp-responder/internal/logger"
	"github.com/spigell/rfp-responder/internal/pipeline"
	"github.com/spigell/rfp-responder/internal/secrets"
	"github.com/spigell/rfp-responder/internal/workflow"
)

// application bundles the components shared by the commands.
type application struct {
	config   *Config
	logger   *zap.Logger
	store    *catalog.Store
	pipeline *pipeline.Pipeline
}

// mustLogger builds the logger from the persistent flags.
func mustLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func newApplication(ctx context.Context, l *zap.Logger) (*application, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}
	if cfg == nil {
		cfg = &Config{}
	}

	settings := cfg.Settings()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	l.Debug("starting with settings",
		zap.Float64("threshold", settings.MatchingThreshold),
		zap.Float64("markup_percentage", settings.MarkupPercentage),
		zap.Strings("default_tests", settings.DefaultTests),
	)

	store := catalog.NewStore(cfg.Data, l.Named("catalog"))

	generator, err := newGenerator(ctx, cfg.AI, l)
	if err != nil {
		l.Warn("text generation disabled, fallback texts will be used", zap.Error(err))
		generator = ai.Unavailable{Reason: err.Error()}
	}

	engine, err := workflow.New(workflow.Deps{
		Settings:     settings,
		Generator:    generator,
		PricingTests: store.LoadPricingTests(),
		Logger:       l.Named("workflow"),
	})
	if err != nil {
		return nil, err
	}

	return &application{
		config:   cfg,
		logger:   l,
		store:    store,
		pipeline: pipeline.New(store, newSource(cfg, store, l), engine, l.Named("pipeline")),
	}, nil
}

// newSource picks the HTTP catalog when a URL is configured.
func newSource(cfg *Config, store *catalog.Store, l *zap.Logger) catalog.Source {
	if cfg.Catalog == nil || strings.TrimSpace(cfg.Catalog.URL) == "" {
		return store
	}

	client := catalog.NewClient(cfg.Catalog.URL, l.Named("catalog"))
	client.PageDelay = cfg.Catalog.PageDelay
	l.Info("using http catalog", zap.String("url", client.BaseURL))

	return client
}

func newGenerator(ctx context.Context, cfg *AIConfig, l *zap.Logger) (ai.Generator, error) {
	if cfg == nil || !cfg.Enabled {
		return ai.Unavailable{Reason: "ai is disabled"}, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != ai.ProviderGemini {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, fmt.Errorf("ai.gemini section is required for provider %s", ai.ProviderGemini)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:       apiKey,
		Model:        cfg.Gemini.Model,
		Temperature:  cfg.Gemini.Temperature,
		MaxLogLength: cfg.Gemini.MaxLogLength,
	}, l.Named("gemini"))
	if err != nil {
		return nil, err
	}

	return generator, nil
}
