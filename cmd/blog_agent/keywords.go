package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/blog-autopilot/internal/config"
	"github.com/jonathan/blog-autopilot/internal/keywords"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Select the catalog keywords relevant to a topic",
	RunE:  runKeywords,
}

var (
	keywordsTopic   string
	keywordsCatalog string
	keywordsMin     int
	keywordsMax     int
)

func init() {
	keywordsCmd.Flags().StringVarP(&keywordsTopic, "topic", "t", "", "Article topic (required)")
	keywordsCmd.Flags().StringVar(&keywordsCatalog, "catalog", "", "Keyword catalog JSON (defaults to pipeline.keywords_path)")
	keywordsCmd.Flags().IntVar(&keywordsMin, "min", keywords.DefaultMin, "Minimum keywords to select")
	keywordsCmd.Flags().IntVar(&keywordsMax, "max", keywords.DefaultMax, "Maximum keywords to select")

	if err := keywordsCmd.MarkFlagRequired("topic"); err != nil {
		panic(fmt.Sprintf("failed to mark topic flag as required: %v", err))
	}

	rootCmd.AddCommand(keywordsCmd)
}

func runKeywords(cmd *cobra.Command, _ []string) error {
	path := keywordsCatalog
	if path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		path = cfg.Pipeline.KeywordsPath
	}

	catalog, err := keywords.LoadCatalog(path)
	if err != nil {
		return err
	}
	if len(catalog) == 0 {
		return fmt.Errorf("keyword catalog %s is empty or missing", path)
	}

	for _, kw := range keywords.Select(keywordsTopic, catalog, keywordsMin, keywordsMax) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), kw)
	}
	return nil
}
