package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/blog-autopilot/internal/config"
	"github.com/jonathan/blog-autopilot/internal/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Summarize LLM token usage and estimated cost",
	RunE:  runUsage,
}

var (
	usageHistory string
	usageJSON    bool
)

func init() {
	usageCmd.Flags().StringVar(&usageHistory, "history", "", "Usage history file (defaults to pipeline.usage_path)")
	usageCmd.Flags().BoolVar(&usageJSON, "json", false, "Print the summary as JSON")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, _ []string) error {
	path := usageHistory
	if path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		path = cfg.Pipeline.UsagePath
	}

	tracker, err := usage.Open(path, nil)
	if err != nil {
		return err
	}
	summary := tracker.Summary()

	out := cmd.OutOrStdout()
	if usageJSON {
		return writeJSON(out, "", summary)
	}

	_, _ = fmt.Fprintf(out, "Calls: %d  Tokens: %d  Estimated cost: $%.4f\n",
		summary.Count, summary.TotalTokens, summary.EstimatedCost)
	if summary.Count == 0 {
		return nil
	}
	_, _ = fmt.Fprintln(out, "\nBy operation:")
	for _, op := range summary.Operations() {
		t := summary.ByOperation[op]
		_, _ = fmt.Fprintf(out, "  %-22s %5d calls %9d tokens  $%.4f\n", op, t.Count, t.TotalTokens, t.EstimatedCost)
	}
	return nil
}
