package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/catalog"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available RFP ids",
	Run: func(_ *cobra.Command, _ []string) {
		list()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func list() {
	logger := mustLogger()

	cfg, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if cfg == nil {
		cfg = &Config{}
	}

	ids, err := catalog.NewStore(cfg.Data, logger).ListRFPs()
	if err != nil {
		logger.Fatal("listing rfps", zap.Error(err))
	}

	for _, id := range ids {
		fmt.Println(id)
	}
}
