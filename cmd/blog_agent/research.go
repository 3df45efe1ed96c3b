package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/blog-autopilot/internal/search"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Print the web research the pipeline would use for a topic",
	Long:  "Queries the configured search provider. An unconfigured or failing provider logs a warning and prints an empty result, as the pipeline would proceed.",
	RunE:  runResearch,
}

var researchTopic string

func init() {
	researchCmd.Flags().StringVarP(&researchTopic, "topic", "t", "", "Topic to research (required)")

	if err := researchCmd.MarkFlagRequired("topic"); err != nil {
		panic(fmt.Sprintf("failed to mark topic flag as required: %v", err))
	}

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	provider, err := search.New(ctx, cfg.SearchConfig())
	if err != nil {
		log.Warn("web search unavailable", "error", err)
		provider = nil
	}

	result, err := search.Degraded(provider, log).Search(ctx, researchTopic)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), "", result)
}
