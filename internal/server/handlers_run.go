package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/blog-autopilot/internal/cms"
	"github.com/jonathan/blog-autopilot/internal/pipeline"
)

// RunRequest represents the request body for /run/stream
type RunRequest struct {
	Topic         string `json:"topic" validate:"required,max=300"`
	Publish       bool   `json:"publish,omitempty"`
	SkipGuard     bool   `json:"skip_guard,omitempty"`
	MaxIterations int    `json:"max_iterations,omitempty" validate:"gte=0,lte=5"`
}

// RunSummary is the payload of the "result" event sent when a run succeeds
type RunSummary struct {
	RunID        string               `json:"run_id,omitempty"`
	Topic        string               `json:"topic"`
	Title        string               `json:"title"`
	Slug         string               `json:"slug"`
	Keywords     []string             `json:"keywords"`
	QualityScore *int                 `json:"quality_score,omitempty"`
	Iterations   int                  `json:"iterations"`
	SEOScore     *int                 `json:"seo_score,omitempty"`
	Translated   bool                 `json:"translated"`
	ReviewPath   string               `json:"review_path,omitempty"`
	Published    []*cms.PublishResult `json:"published,omitempty"`
	Warnings     []string             `json:"warnings,omitempty"`
}

func summarize(result *pipeline.Result) RunSummary {
	summary := RunSummary{
		Topic:        result.Topic,
		Title:        result.FR.Title,
		Slug:         result.FR.Slug,
		Keywords:     result.Keywords,
		QualityScore: result.FinalScore().GlobalScore,
		Translated:   result.EN != nil,
		ReviewPath:   result.ReviewPath,
		Published:    result.Published,
		Warnings:     result.Warnings,
	}
	if result.RunID != uuid.Nil {
		summary.RunID = result.RunID.String()
	}
	if result.Improvement != nil {
		summary.Iterations = result.Improvement.Iterations
	}
	if result.SEO != nil {
		score := result.SEO.OverallScore
		summary.SEOScore = &score
	}
	return summary
}

// handleRunStream runs the pipeline and streams progress via SSE: one "step"
// event per progress update, then "result" and "complete", or a single "error".
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	if s.deps.Run == nil {
		s.writeError(w, r, &ErrUnavailable{Capability: "pipeline"})
		return
	}

	var req RunRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := s.deps.RunDefaults
	opts.Topic = req.Topic
	opts.Publish = req.Publish
	opts.SkipGuard = req.SkipGuard
	if req.MaxIterations > 0 {
		opts.MaxIterations = req.MaxIterations
	}
	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("step", event); err != nil {
			s.log.Warn("failed to write SSE event", "step", event.Step, "error", err)
		}
	}

	log := s.log.With("topic", req.Topic)
	log.Info("starting streaming pipeline run")

	result, err := s.deps.Run(r.Context(), opts)
	if err != nil {
		log.Warn("pipeline run failed", "error", err)
		sse.WriteError(err)
		return
	}

	summary := summarize(result)
	if err := sse.WriteEvent("result", summary); err != nil {
		log.Warn("failed to write SSE result", "error", err)
	}
	sse.WriteComplete(summary.RunID, "completed")
	log.Info("streaming pipeline run completed", "run_id", summary.RunID, "warnings", len(summary.Warnings))
}
