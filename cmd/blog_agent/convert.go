package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/blog-autopilot/internal/cms"
	"github.com/jonathan/blog-autopilot/internal/document"
	"github.com/jonathan/blog-autopilot/internal/review"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a markdown, plain text or HTML article into a structured document",
	Long:  "Segments the input into headings, paragraphs and bullet items, parses bold and link marks, and prints the Document JSON (or its CMS portable-text form with --portable).",
	RunE:  runConvert,
}

var (
	convertInput    string
	convertFormat   string
	convertPortable bool
	convertOutput   string
	convertHTML     bool
)

func init() {
	convertCmd.Flags().StringVarP(&convertInput, "in", "i", "", "Path to the article file (required)")
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "auto", "Input format: auto, plain or html")
	convertCmd.Flags().BoolVar(&convertPortable, "portable", false, "Print CMS portable-text blocks instead of the Document")
	convertCmd.Flags().BoolVar(&convertHTML, "html", false, "Print an HTML preview of the markdown input instead of JSON")
	convertCmd.Flags().StringVarP(&convertOutput, "out", "o", "", "Write the JSON to this file instead of stdout")

	if err := convertCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, _ []string) error {
	format, err := document.ParseFormat(convertFormat)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(convertInput)
	if err != nil {
		return fmt.Errorf("failed to read input file %s: %w", convertInput, err)
	}

	if convertHTML {
		html, err := review.Preview(string(raw))
		if err != nil {
			return err
		}
		return writeText(cmd.OutOrStdout(), convertOutput, html)
	}

	doc := document.ToDocument(string(raw), format)
	if convertPortable {
		return writeJSON(cmd.OutOrStdout(), convertOutput, cms.ToPortableText(doc, cms.NewKey))
	}
	return writeJSON(cmd.OutOrStdout(), convertOutput, doc)
}
