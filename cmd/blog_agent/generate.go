package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/blog-autopilot/internal/observability"
	"github.com/jonathan/blog-autopilot/internal/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full article pipeline for a topic",
	Long: `Checks the topic against published articles, researches it, writes a French draft,
scores and improves it, builds the SEO metadata, translates it to English, analyzes it and
writes a review file. With --publish both languages are sent to the CMS.`,
	RunE: runGenerate,
}

var (
	generateTopic         string
	generatePublish       bool
	generateSkipGuard     bool
	generateMaxIterations int
	generateReviewDir     string
	generateJSON          bool
	generateVerbose       bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateTopic, "topic", "t", "", "Article topic (required)")
	generateCmd.Flags().BoolVar(&generatePublish, "publish", false, "Publish both languages to the CMS after review file generation")
	generateCmd.Flags().BoolVar(&generateSkipGuard, "skip-guard", false, "Write the article even if a similar one is already published")
	generateCmd.Flags().IntVar(&generateMaxIterations, "max-iterations", 0, "Improvement attempts (defaults to pipeline.max_iterations)")
	generateCmd.Flags().StringVar(&generateReviewDir, "review-dir", "", "Directory for the review file (defaults to pipeline.review_dir)")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Print the full run result as JSON")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print keywords, research, scores and the SEO report")

	if err := generateCmd.MarkFlagRequired("topic"); err != nil {
		panic(fmt.Sprintf("failed to mark topic flag as required: %v", err))
	}

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	topic := strings.TrimSpace(generateTopic)
	if topic == "" {
		return fmt.Errorf("--topic must not be empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	if generatePublish {
		if err := cfg.RequireSanity(); err != nil {
			return err
		}
	}

	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	opts := rt.options()
	opts.Topic = topic
	opts.Publish = generatePublish
	opts.SkipGuard = generateSkipGuard
	if generateMaxIterations > 0 {
		opts.MaxIterations = generateMaxIterations
	}
	if generateReviewDir != "" {
		opts.ReviewDir = generateReviewDir
	}
	if !generateJSON {
		opts.OnProgress = progressPrinter(out)
	}

	result, err := pipeline.Run(ctx, opts, rt.deps)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	if generateJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(result)
	}
	if generateVerbose {
		printDetails(out, result)
	}
	printResult(out, result)
	return nil
}

// printDetails writes the boxed intermediate artifacts of a run
func printDetails(w io.Writer, r *pipeline.Result) {
	p := observability.NewPrinter(w)
	_, _ = fmt.Fprintln(w)
	p.PrintKeywords(r.Topic, r.Keywords)
	p.PrintResearch(r.Research)
	p.PrintScoreReport("INITIAL SCORE", r.InitialScore)
	p.PrintImprovement(r.InitialScore, r.Improvement)
	p.PrintSEOReport(r.SEO)
}

// progressPrinter writes one line per progress event
func progressPrinter(w io.Writer) pipeline.ProgressCallback {
	return func(e pipeline.ProgressEvent) {
		if e.Total > 0 {
			_, _ = fmt.Fprintf(w, "[%d/%d] %-12s %s\n", e.Position, e.Total, e.Step, e.Message)
			return
		}
		_, _ = fmt.Fprintf(w, "%-18s %s\n", e.Step, e.Message)
	}
}

// printResult writes the run summary
func printResult(w io.Writer, r *pipeline.Result) {
	_, _ = fmt.Fprintf(w, "\nTitle:     %s\n", r.FR.Title)
	_, _ = fmt.Fprintf(w, "Slug:      %s\n", r.FR.Slug)
	_, _ = fmt.Fprintf(w, "Keywords:  %s\n", strings.Join(r.Keywords, ", "))

	score := r.FinalScore()
	if score.HasScore() {
		_, _ = fmt.Fprintf(w, "Quality:   %d/100", *score.GlobalScore)
		if r.Improvement != nil && r.Improvement.Improved {
			_, _ = fmt.Fprintf(w, " (from %d after %d iteration(s))", r.InitialScore.GlobalOrZero(), r.Improvement.Iterations)
		}
		_, _ = fmt.Fprintln(w)
	} else {
		_, _ = fmt.Fprintln(w, "Quality:   not scored")
	}
	if r.SEO != nil {
		_, _ = fmt.Fprintf(w, "SEO:       %d/100\n", r.SEO.OverallScore)
	}
	if r.EN != nil {
		_, _ = fmt.Fprintf(w, "English:   %s (%s)\n", r.EN.Title, r.EN.Slug)
	}
	if r.ReviewPath != "" {
		_, _ = fmt.Fprintf(w, "Review:    %s\n", r.ReviewPath)
	}
	for _, p := range r.Published {
		_, _ = fmt.Fprintf(w, "Published: %s [%s] %s\n", p.Slug, p.Language, p.DocumentID)
	}
	if len(r.Warnings) > 0 {
		_, _ = fmt.Fprintln(w)
		observability.NewPrinter(w).PrintWarnings(r.Warnings)
	}
}
