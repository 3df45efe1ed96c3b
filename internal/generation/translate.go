// Package generation writes, rewrites, SEO-packages and translates articles with an LLM.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jonathan/blog-autopilot/internal/llm"
	"github.com/jonathan/blog-autopilot/internal/prompts"
	"github.com/jonathan/blog-autopilot/internal/schemas"
	"github.com/jonathan/blog-autopilot/internal/types"
)

// translationInput is the subset of French metadata handed to the translator
type translationInput struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	BlogPost        string   `json:"blog_post"`
	OriginalContent string   `json:"original_content,omitempty"`
	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
	Keywords        []string `json:"keywords"`
	FocusKeyword    string   `json:"focusKeyword,omitempty"`
}

// Translate produces the English version of a French article. The English
// article shares the French translation group and its slug ends in "-en".
func (w *Writer) Translate(ctx context.Context, fr types.ArticleMetadata) (*types.ArticleMetadata, error) {
	if w.client == nil {
		return nil, &Error{Operation: "translate", Message: "no LLM client configured"}
	}

	var payload bytes.Buffer
	enc := json.NewEncoder(&payload)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(translationInput{
		Title:           fr.Title,
		Summary:         fr.Summary,
		BlogPost:        fr.BodyHTML,
		OriginalContent: fr.BodyMarkdown,
		MetaTitle:       fr.MetaTitle,
		MetaDescription: fr.MetaDescription,
		Keywords:        fr.Keywords,
		FocusKeyword:    fr.FocusKeyword,
	})
	if err != nil {
		return nil, &Error{Operation: "translate", Message: "failed to encode article", Cause: err}
	}

	prompt := prompts.MustGet("translation.json", "translate-article").Render("translate_article", map[string]string{
		"Article": strings.TrimSpace(payload.String()),
	})
	prompt.Temperature = llm.Temp(0.3)

	raw, err := w.client.GenerateStructured(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &Error{Operation: "translate", Message: "LLM call failed", Cause: err}
	}
	if err := schemas.Validate(schemas.ArticleMetadata, raw); err != nil {
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			w.log.Warn("translation reply violates contract", "fields", verr.Fields())
		}
	}

	var en types.ArticleMetadata
	if err := json.Unmarshal([]byte(raw), &en); err != nil {
		return nil, &Error{Operation: "translate", Message: "failed to parse reply", Cause: err}
	}
	if strings.TrimSpace(en.Title) == "" || strings.TrimSpace(en.Body()) == "" {
		return nil, &Error{Operation: "translate", Message: "reply has no title or body"}
	}

	w.normalizeTranslation(&en, fr)
	return &en, nil
}

func (w *Writer) normalizeTranslation(en *types.ArticleMetadata, fr types.ArticleMetadata) {
	en.Title = collapse(en.Title)
	en.Summary = collapse(en.Summary)
	en.Slug = EnglishSlug(en.Slug, fr.Slug)
	en.CanonicalURL = w.CanonicalURL(en.Slug)

	en.TranslationGroup = fr.TranslationGroup
	if en.TranslationGroup == "" {
		en.TranslationGroup = fr.Slug
	}
	en.Language = types.LanguageEN

	if en.MetaTitle == "" {
		en.MetaTitle = en.Title
	}
	en.MetaTitle = truncateRunes(collapse(en.MetaTitle), maxMetaTitle)
	if en.MetaDescription == "" {
		en.MetaDescription = en.Summary
	}
	en.MetaDescription = truncateRunes(collapse(en.MetaDescription), maxMetaDescription)
	if en.OGTitle == "" {
		en.OGTitle = en.MetaTitle
	}
	if en.OGDescription == "" {
		en.OGDescription = en.MetaDescription
	}

	if len(en.Keywords) == 0 {
		en.Keywords = fr.Keywords
	}
	if en.FocusKeyword == "" {
		en.FocusKeyword = fr.FocusKeyword
	}
	if en.Tag == "" {
		en.Tag = fr.Tag
	}
	if en.ReadTime == "" {
		en.ReadTime = fr.ReadTime
	}
}
