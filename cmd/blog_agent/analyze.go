package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/blog-autopilot/internal/config"
	"github.com/jonathan/blog-autopilot/internal/observability"
	"github.com/jonathan/blog-autopilot/internal/pipeline"
	"github.com/jonathan/blog-autopilot/internal/seo"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a finished article for SEO",
	Long:  "Computes keyword density, French readability, title and meta lengths, internal and external links and heading structure, then prints the report with a score out of 100.",
	RunE:  runAnalyze,
}

var (
	analyzeInput           string
	analyzeKeywords        []string
	analyzeMainKeyword     string
	analyzeTitle           string
	analyzeMetaTitle       string
	analyzeMetaDescription string
	analyzeBaseDomain      string
	analyzeJSON            bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "in", "i", "", "Path to the markdown article (required)")
	analyzeCmd.Flags().StringSliceVarP(&analyzeKeywords, "keywords", "k", nil, "Target keywords, comma separated")
	analyzeCmd.Flags().StringVar(&analyzeMainKeyword, "main-keyword", "", "Main keyword (defaults to the first keyword)")
	analyzeCmd.Flags().StringVar(&analyzeTitle, "title", "", "Article title")
	analyzeCmd.Flags().StringVar(&analyzeMetaTitle, "meta-title", "", "SEO title")
	analyzeCmd.Flags().StringVar(&analyzeMetaDescription, "meta-description", "", "Meta description")
	analyzeCmd.Flags().StringVar(&analyzeBaseDomain, "base-domain", "", "Domain whose links count as internal (defaults to site.base_domain)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the report as JSON")

	if err := analyzeCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(analyzeInput)
	if err != nil {
		return fmt.Errorf("failed to read input file %s: %w", analyzeInput, err)
	}

	domain := analyzeBaseDomain
	if domain == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		domain = cfg.Site.BaseDomain
	}

	report := seo.Analyze(seo.Input{
		Text:            string(raw),
		Title:           analyzeTitle,
		MetaTitle:       analyzeMetaTitle,
		MetaDescription: analyzeMetaDescription,
		Keywords:        analyzeKeywords,
		MainKeyword:     analyzeMainKeyword,
	}, seo.Options{BaseDomain: domain, LSISuggestions: pipeline.DefaultLSISuggestions})

	if analyzeJSON {
		return writeJSON(cmd.OutOrStdout(), "", report)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintSEOReport(report)
	return nil
}
