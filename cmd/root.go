package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/rfp-responder/internal/ai"
	"github.com/spigell/rfp-responder/internal/catalog"
	"github.com/spigell/rfp-responder/internal/config"
	"github.com/spigell/rfp-responder/internal/server"
)

const (
	app       = "rfp-responder"
	envPrefix = "RFP"

	defaultOutputDir = "output"
	defaultModel     = "gemini-2.5-pro"
)

type Config struct {
	Data     catalog.Paths   `mapstructure:"data"`
	Catalog  *CatalogConfig  `mapstructure:"catalog"`
	Matching *MatchingConfig `mapstructure:"matching"`
	Pricing  *PricingConfig  `mapstructure:"pricing"`
	AI       *AIConfig       `mapstructure:"ai"`
	Output   *OutputConfig   `mapstructure:"output"`
	Server   server.Config   `mapstructure:"server"`
}

type CatalogConfig struct {
	// URL of a paged JSON catalog. The products file is used when empty.
	URL       string        `mapstructure:"url"`
	PageDelay time.Duration `mapstructure:"page-delay"`
}

type MatchingConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

type PricingConfig struct {
	MarkupPercentage float64  `mapstructure:"markup-percentage"`
	DefaultTests     []string `mapstructure:"default-tests"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string   `mapstructure:"api-key-file"`
	Model        string   `mapstructure:"model"`
	Temperature  *float32 `mapstructure:"temperature"`
	MaxLogLength int      `mapstructure:"max-log-length"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// Settings returns the pipeline settings described by the config.
func (c *Config) Settings() *config.Settings {
	settings := config.Default()
	if c == nil {
		return settings
	}

	if c.Matching != nil {
		settings.MatchingThreshold = c.Matching.Threshold
	}
	if c.Pricing != nil {
		settings.MarkupPercentage = c.Pricing.MarkupPercentage
		if c.Pricing.DefaultTests != nil {
			settings.DefaultTests = append([]string(nil), c.Pricing.DefaultTests...)
		}
	}

	return settings
}

func (c *Config) OutputDir() string {
	if c == nil || c.Output == nil || strings.TrimSpace(c.Output.Dir) == "" {
		return defaultOutputDir
	}
	return c.Output.Dir
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "rfp-responder matches RFP requirements against a product catalog and drafts a priced proposal",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is rfp-responder.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// setDefaults registers every key so that the tool runs without a config
// file and every key can be overridden with an RFP_ variable.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data.rfp-dir", catalog.DefaultRFPDir)
	v.SetDefault("data.products-file", catalog.DefaultProductsFile)
	v.SetDefault("data.pricing-file", catalog.DefaultPricingFile)
	v.SetDefault("catalog.url", "")
	v.SetDefault("catalog.page-delay", time.Duration(0))
	v.SetDefault("matching.threshold", config.DefaultMatchingThreshold)
	v.SetDefault("pricing.markup-percentage", config.DefaultMarkupPercentage)
	v.SetDefault("pricing.default-tests", config.DefaultTests)
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", ai.ProviderGemini)
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", defaultModel)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("output.dir", defaultOutputDir)
	v.SetDefault("server.address", server.DefaultAddress)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	// Defaults are enough to run when no config file is present.
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return
	}

	// We can't proceed if the config file parsed with error.
	log.Fatal(err)
}

func getConfig() (*Config, error) {
	var cfg *Config
	err := viper.Unmarshal(&cfg)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}
