package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/catalog"
	"github.com/spigell/rfp-responder/internal/proposal"
)

const (
	PromptSave      = "Save proposal"
	PromptSummary   = "Show summary"
	PromptPitch     = "Show sales pitch"
	PromptPricing   = "Show pricing explanation"
	PromptTechnical = "Show technical analysis"
	PromptExit      = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proposal is ready. What next?",
	Items: []string{PromptSave, PromptSummary, PromptPitch, PromptPricing, PromptTechnical, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate a proposal for an RFP",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("rfp", "r", "", "rfp id to process. An interactive picker is shown when unset.")
	runCmd.Flags().BoolP("auto-save", "y", false, "save the proposal without asking")
	runCmd.Flags().StringP("output-dir", "o", "", "directory for generated proposals")

	viper.BindPFlag("output.dir", runCmd.Flags().Lookup("output-dir"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger := mustLogger()
	logger.Info("starting the rfp-responder", zap.String("version", version))

	app, err := newApplication(ctx, logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}

	rfpID, err := cmd.Flags().GetString("rfp")
	if err != nil {
		logger.Fatal("reading flags", zap.Error(err))
	}

	if rfpID == "" {
		rfpID, err = chooseRFP(app.store)
		if err != nil {
			logger.Fatal("choosing an rfp", zap.Error(err),
				zap.String("hint", "pass --rfp or put rfp files into "+app.store.Paths().RFPDir),
			)
		}
	}

	result, err := app.pipeline.Process(ctx, rfpID)
	if err != nil {
		logger.Fatal("processing rfp", zap.String("rfp_id", rfpID), zap.Error(err))
	}

	logger.Info("proposal generated", summaryFields(result)...)

	if autoSave, _ := cmd.Flags().GetBool("auto-save"); autoSave {
		if err := handleAction(PromptSave, app, result); err != nil {
			logger.Fatal("saving proposal", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("prompt failed", zap.Error(err))
		}

		if err := handleAction(action, app, result); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, app *application, p *proposal.Proposal) error {
	switch action {
	case PromptSave:
		path, err := proposal.Export(p, app.config.OutputDir())
		if err != nil {
			return fmt.Errorf("export proposal: %w", err)
		}
		app.logger.Info("proposal saved", zap.String("filename", path))
		return nil
	case PromptSummary:
		pretty, _ := json.MarshalIndent(summary(p), "", "  ")
		app.logger.Info(string(pretty))
		return nil
	case PromptPitch:
		fmt.Println(p.SalesPitch)
		return nil
	case PromptPricing:
		fmt.Println(p.PricingExplanation)
		return nil
	case PromptTechnical:
		fmt.Println(p.TechnicalAnalysis)
		return nil
	case PromptExit:
		app.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// chooseRFP asks the user to pick one of the available RFPs.
func chooseRFP(store *catalog.Store) (string, error) {
	ids, err := store.ListRFPs()
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", errors.New("no rfp files found")
	}

	rfpPrompt := promptui.Select{
		Label: "Choose an RFP and press ENTER",
		Items: ids,
	}

	_, id, err := rfpPrompt.Run()
	if err != nil {
		return "", err
	}

	return id, nil
}

type proposalSummary struct {
	RFPID       string   `json:"rfp_id"`
	Title       string   `json:"title"`
	Selected    string   `json:"selected,omitempty"`
	Score       float64  `json:"match_score"`
	Suitability string   `json:"suitability"`
	Reason      string   `json:"reason"`
	TotalValue  float64  `json:"total_value"`
	Rejected    []string `json:"rejected,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

func summary(p *proposal.Proposal) proposalSummary {
	s := proposalSummary{
		RFPID:       p.RFPID,
		Title:       p.RFPTitle,
		Suitability: p.Suitability.String(),
		Reason:      p.SuitabilityReason,
		TotalValue:  p.TotalValue,
		Errors:      p.Errors,
	}
	if len(p.Matches) > 0 {
		s.Selected = p.Matches[0].ProductName
		s.Score = p.Matches[0].MatchScore
	}
	for _, r := range p.RejectedProducts {
		s.Rejected = append(s.Rejected, r.ProductName)
	}
	return s
}

func summaryFields(p *proposal.Proposal) []zap.Field {
	s := summary(p)
	return []zap.Field{
		zap.String("rfp_id", s.RFPID),
		zap.String("selected", s.Selected),
		zap.Float64("match_score", s.Score),
		zap.String("suitability", s.Suitability),
		zap.Float64("total_value", s.TotalValue),
		zap.Int("errors", len(s.Errors)),
	}
}
