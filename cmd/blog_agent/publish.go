package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/blog-autopilot/internal/cms"
	"github.com/jonathan/blog-autopilot/internal/logger"
	"github.com/jonathan/blog-autopilot/internal/review"
	"github.com/jonathan/blog-autopilot/internal/topics"
	"github.com/jonathan/blog-autopilot/internal/types"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a reviewed article file to the CMS",
	Long:  "Reads a review file written by generate, possibly edited by a reviewer, and publishes the French article then its English translation when present.",
	RunE:  runPublish,
}

var (
	publishReview  string
	publishFROnly  bool
	publishCatalog bool
)

func init() {
	publishCmd.Flags().StringVarP(&publishReview, "review", "r", "", "Path to the review file (required)")
	publishCmd.Flags().BoolVar(&publishFROnly, "fr-only", false, "Skip the English translation")
	publishCmd.Flags().BoolVar(&publishCatalog, "record", true, "Add the published article to the local article catalog")

	if err := publishCmd.MarkFlagRequired("review"); err != nil {
		panic(fmt.Sprintf("failed to mark review flag as required: %v", err))
	}

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	draft, err := review.Parse(publishReview)
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := cfg.RequireSanity(); err != nil {
		return err
	}
	client, err := cms.New(cfg.SanityConfig(), log)
	if err != nil {
		return fmt.Errorf("failed to create CMS client: %w", err)
	}

	refs, err := client.FetchReferences(ctx, cfg.Sanity.CategorySlug)
	if err != nil {
		log.Warn("publishing without author and category references", "error", err)
	}

	articles := []types.ArticleMetadata{draft.FR}
	if draft.EN != nil && !publishFROnly {
		articles = append(articles, *draft.EN)
	}

	out := cmd.OutOrStdout()
	for _, meta := range articles {
		lang := meta.Language
		if lang == "" {
			lang = types.LanguageFR
		}
		res, err := client.PublishDocument(ctx, cms.DocumentFromMetadata(meta), meta, lang, refs)
		if err != nil {
			return fmt.Errorf("failed to publish %s article: %w", lang, err)
		}
		_, _ = fmt.Fprintf(out, "Published %s: %s (document %s)\n", lang, res.Slug, res.DocumentID)
		if !res.Revalidated {
			_, _ = fmt.Fprintln(out, "  site revalidation skipped or failed")
		}
	}

	if publishCatalog {
		recordArticle(cfg.Pipeline.CatalogPath, draft.FR, log)
	}
	return nil
}

// recordArticle adds fr to the catalog used by the topic check; failures only warn
func recordArticle(path string, fr types.ArticleMetadata, log *logger.Logger) {
	catalog, err := topics.LoadCatalog(path)
	if err != nil {
		log.Warn("article catalog not updated", "error", err)
		return
	}
	if !catalog.Add(topics.Article{Title: fr.Title, Slug: fr.Slug, Description: fr.Summary}) {
		return
	}
	if err := catalog.Save(); err != nil {
		log.Warn("article catalog not updated", "error", err)
	}
}
