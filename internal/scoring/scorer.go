// Package scoring asks an LLM to judge an article on five bounded dimensions.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/jonathan/blog-autopilot/internal/llm"
	"github.com/jonathan/blog-autopilot/internal/logger"
	"github.com/jonathan/blog-autopilot/internal/prompts"
	"github.com/jonathan/blog-autopilot/internal/schemas"
	"github.com/jonathan/blog-autopilot/internal/types"
)

// Request is one article snapshot to score
type Request struct {
	Article  string
	Topic    string
	Keywords []string
	// Title is optional
	Title string
}

// Scorer delegates quality judgment to an LLM and enforces the score contract
type Scorer struct {
	client llm.Client
	log    *logger.Logger
	tier   llm.ModelTier
}

// New creates a scorer. A nil client yields a scorer that always reports absent scores.
func New(client llm.Client, log *logger.Logger) *Scorer {
	return &Scorer{client: client, log: logger.OrNop(log), tier: llm.TierLite}
}

// Score returns the capability's judgment of req.Article.
// Any failure degrades to a report with every score absent and an empty report text.
func (s *Scorer) Score(ctx context.Context, req Request) types.ScoreReport {
	if s.client == nil {
		s.log.Warn("quality scoring unavailable: no LLM client configured")
		return types.ScoreReport{}
	}

	title := req.Title
	if title == "" {
		title = "(none)"
	}
	prompt := prompts.MustGet("scoring.json", "score-article").Render("score_article", map[string]string{
		"Topic":    req.Topic,
		"Keywords": strings.Join(req.Keywords, ", "),
		"Title":    title,
		"Article":  req.Article,
	})
	prompt.Temperature = llm.Temp(0.3)

	raw, err := s.client.GenerateStructured(ctx, prompt, s.tier)
	if err != nil {
		s.log.Warn("quality scoring failed", "error", err, "topic", req.Topic)
		return types.ScoreReport{}
	}

	if err := schemas.Validate(schemas.ScoreReport, raw); err != nil {
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			s.log.Warn("score reply violates contract", "fields", verr.Fields())
		}
	}

	report, err := ParseReport(raw)
	if err != nil {
		s.log.Warn("quality scoring returned unusable output", "error", err)
		return types.ScoreReport{}
	}
	return report
}

// replyField is the JSON field carrying each dimension in a scorer reply
var replyField = map[types.Dimension]string{
	types.DimensionContent:     "content_score",
	types.DimensionReadability: "readability_score",
	types.DimensionSEO:         "seo_score",
	types.DimensionConversion:  "conversion_score",
	types.DimensionCredibility: "credibility_score",
}

// ParseReport decodes a scorer reply. Numbers are rounded and clamped to their
// dimension bounds; missing or non-numeric fields stay absent.
func ParseReport(raw string) (types.ScoreReport, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &fields); err != nil {
		return types.ScoreReport{}, &ParseError{Message: "reply is not a JSON object", Cause: err}
	}

	var report types.ScoreReport
	if v, ok := number(fields["global_score"]); ok {
		report.GlobalScore = types.IntPtr(clamp(v, types.MaxGlobalScore))
	}

	for _, d := range types.Dimensions() {
		v, ok := number(fields[replyField[d]])
		if !ok {
			continue
		}
		if report.DimensionScores == nil {
			report.DimensionScores = make(map[types.Dimension]int, len(replyField))
		}
		report.DimensionScores[d] = clamp(v, types.DimensionMax[d])
	}

	for _, key := range []string{"markdown_report", "report"} {
		var text string
		if err := json.Unmarshal(fields[key], &text); err == nil && text != "" {
			report.ReportText = text
			break
		}
	}

	return report, nil
}

func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	// null decodes without error and leaves the pointer nil
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return 0, false
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

func clamp(v float64, upper int) int {
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > upper {
		return upper
	}
	return n
}
