// Package generation writes, rewrites, SEO-packages and translates articles with an LLM.
package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/blog-autopilot/internal/llm"
	"github.com/jonathan/blog-autopilot/internal/logger"
	"github.com/jonathan/blog-autopilot/internal/prompts"
	"github.com/jonathan/blog-autopilot/internal/seo"
	"github.com/jonathan/blog-autopilot/internal/types"
)

// Writer drives the LLM for every text-producing step of the pipeline
type Writer struct {
	client     llm.Client
	log        *logger.Logger
	baseDomain string
}

// New creates a writer. baseDomain builds canonical URLs; empty uses seo.DefaultBaseDomain.
// A nil client makes Generate, Regenerate and Translate fail and OptimizeSEO fall back.
func New(client llm.Client, log *logger.Logger, baseDomain string) *Writer {
	if baseDomain == "" {
		baseDomain = seo.DefaultBaseDomain
	}
	return &Writer{client: client, log: logger.OrNop(log), baseDomain: baseDomain}
}

// Generate writes a first draft about topic from the research notes
func (w *Writer) Generate(ctx context.Context, topic string, research *types.SearchResult, keywords []string) (string, error) {
	prompt := prompts.MustGet("article.json", "generate-article").Render("generate_article", map[string]string{
		"Topic":    topic,
		"Keywords": strings.Join(keywords, ", "),
		"Research": researchNotes(research),
	})
	return w.text(ctx, "generate", prompt, llm.TierAdvanced)
}

// Regenerate rewrites article using the quality feedback
func (w *Writer) Regenerate(ctx context.Context, article, feedback, topic string, keywords []string) (string, error) {
	if strings.TrimSpace(feedback) == "" {
		feedback = "No detailed review available. Improve clarity, structure, keyword usage and the call to action."
	}
	prompt := prompts.MustGet("article.json", "regenerate-with-feedback").Render("regenerate_article", map[string]string{
		"Topic":    topic,
		"Keywords": strings.Join(keywords, ", "),
		"Feedback": feedback,
		"Article":  article,
	})
	return w.text(ctx, "regenerate", prompt, llm.TierStandard)
}

func (w *Writer) text(ctx context.Context, op string, prompt llm.Prompt, tier llm.ModelTier) (string, error) {
	if w.client == nil {
		return "", &Error{Operation: op, Message: "no LLM client configured"}
	}
	out, err := w.client.GenerateText(ctx, prompt, tier)
	if err != nil {
		return "", &Error{Operation: op, Message: "LLM call failed", Cause: err}
	}
	out = strings.TrimSpace(stripFence(out))
	if out == "" {
		return "", &Error{Operation: op, Message: "LLM returned an empty article"}
	}
	return out, nil
}

// researchNotes renders search results for the prompt, sources listed after the content
func researchNotes(r *types.SearchResult) string {
	if r.IsEmpty() {
		return "(no research available: rely on general knowledge and do not invent sources)"
	}
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(r.Content))
	if len(r.Sources) > 0 {
		sb.WriteString("\n\nSources:\n")
		for _, s := range r.Sources {
			label := s.Title
			if label == "" {
				label = s.Name
			}
			fmt.Fprintf(&sb, "- %s: %s\n", label, s.URL)
		}
	}
	return strings.TrimSpace(sb.String())
}

// stripFence removes a ```markdown fence wrapped around the whole reply
func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	t = strings.TrimSuffix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		return t[nl+1:]
	}
	return s
}
