package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/blog-autopilot/internal/cms"
	"github.com/jonathan/blog-autopilot/internal/db"
	"github.com/jonathan/blog-autopilot/internal/document"
	"github.com/jonathan/blog-autopilot/internal/keywords"
	"github.com/jonathan/blog-autopilot/internal/pipeline"
	"github.com/jonathan/blog-autopilot/internal/pipeline/steps"
	"github.com/jonathan/blog-autopilot/internal/scoring"
	"github.com/jonathan/blog-autopilot/internal/seo"
	"github.com/jonathan/blog-autopilot/internal/types"
)

// ConvertRequest represents the request body for /convert
type ConvertRequest struct {
	Text   string `json:"text" validate:"required"`
	Format string `json:"format,omitempty"`
	// Portable adds the CMS portable-text rendering of the document
	Portable bool `json:"portable,omitempty"`
}

// ConvertResponse represents the response for /convert
type ConvertResponse struct {
	Format   document.Format     `json:"format"`
	Document types.Document      `json:"document"`
	Markdown string              `json:"markdown"`
	Portable []cms.PortableBlock `json:"portable,omitempty"`
}

// AnalyzeRequest represents the request body for /analyze
type AnalyzeRequest struct {
	Text            string   `json:"text" validate:"required"`
	Title           string   `json:"title"`
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	Keywords        []string `json:"keywords" validate:"dive,required"`
	MainKeyword     string   `json:"main_keyword,omitempty"`
	LSISuggestions  int      `json:"lsi_suggestions,omitempty" validate:"gte=0,lte=20"`
}

// KeywordsRequest represents the request body for /keywords/select.
// Keywords defaults to the server catalog.
type KeywordsRequest struct {
	Topic    string   `json:"topic" validate:"required"`
	Keywords []string `json:"keywords,omitempty"`
	Min      int      `json:"min,omitempty" validate:"gte=0"`
	Max      int      `json:"max,omitempty" validate:"gte=0,lte=50"`
}

// KeywordsResponse represents the response for /keywords/select
type KeywordsResponse struct {
	Topic    string   `json:"topic"`
	Keywords []string `json:"keywords"`
}

// ScoreRequest represents the request body for /score
type ScoreRequest struct {
	Article  string   `json:"article" validate:"required"`
	Topic    string   `json:"topic" validate:"required"`
	Keywords []string `json:"keywords,omitempty"`
	Title    string   `json:"title,omitempty"`
}

// RunDetailResponse represents the response for /runs/{id}
type RunDetailResponse struct {
	Run    *db.Run      `json:"run"`
	Steps  []db.RunStep `json:"steps"`
	Scores []db.Score   `json:"scores"`
}

// handleSteps lists the pipeline steps in execution order
func (s *Server) handleSteps(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, steps.Definitions())
}

// handleConvert turns raw text or HTML into a structured document
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	format, err := document.ParseFormat(req.Format)
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "format", Message: err.Error()})
		return
	}
	if format == document.FormatAuto {
		format = document.DetectFormat(req.Text)
	}

	doc := document.ToDocument(req.Text, format)
	resp := ConvertResponse{
		Format:   format,
		Document: doc,
		Markdown: document.Flatten(doc),
	}
	if req.Portable {
		resp.Portable = cms.ToPortableText(doc, cms.NewKey)
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleAnalyze runs the SEO analysis on a finished article
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	lsi := req.LSISuggestions
	if lsi == 0 {
		lsi = pipeline.DefaultLSISuggestions
	}
	report := seo.Analyze(seo.Input{
		Text:            req.Text,
		Title:           req.Title,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		Keywords:        req.Keywords,
		MainKeyword:     req.MainKeyword,
	}, seo.Options{BaseDomain: s.deps.BaseDomain, LSISuggestions: lsi})

	s.jsonResponse(w, http.StatusOK, report)
}

// handleSelectKeywords picks the catalog keywords relevant to a topic
func (s *Server) handleSelectKeywords(w http.ResponseWriter, r *http.Request) {
	var req KeywordsRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	catalog := req.Keywords
	if len(catalog) == 0 {
		catalog = s.deps.KeywordCatalog
	}
	minCount, maxCount := req.Min, req.Max
	if minCount == 0 {
		minCount = keywords.DefaultMin
	}
	if maxCount == 0 {
		maxCount = keywords.DefaultMax
	}

	selected := keywords.Select(req.Topic, catalog, minCount, maxCount)
	if selected == nil {
		selected = []string{}
	}
	s.jsonResponse(w, http.StatusOK, KeywordsResponse{Topic: req.Topic, Keywords: selected})
}

// handleScore asks the quality scorer to judge an article
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scorer == nil {
		s.writeError(w, r, &ErrUnavailable{Capability: "scorer"})
		return
	}

	var req ScoreRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	report := s.deps.Scorer.Score(r.Context(), scoring.Request{
		Article:  req.Article,
		Topic:    req.Topic,
		Keywords: req.Keywords,
		Title:    req.Title,
	})
	s.jsonResponse(w, http.StatusOK, report)
}

// handleListRuns returns recent runs, newest first
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		s.writeError(w, r, &ErrUnavailable{Capability: "run history"})
		return
	}

	filters := db.RunFilters{
		Topic:  r.URL.Query().Get("topic"),
		Status: r.URL.Query().Get("status"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			s.writeError(w, r, &ErrValidation{Field: "limit", Message: "must be between 1 and 500"})
			return
		}
		filters.Limit = limit
	}

	runs, err := s.deps.Runs.ListRuns(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// handleGetRun returns a run with its steps and score history
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runID(w, r)
	if !ok {
		return
	}

	run, err := s.deps.Runs.GetRun(r.Context(), runID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if run == nil {
		s.writeError(w, r, &ErrNotFound{Resource: "run", ID: runID.String()})
		return
	}

	runSteps, err := s.deps.Runs.ListRunSteps(r.Context(), runID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	scores, err := s.deps.Runs.ListScores(r.Context(), runID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, RunDetailResponse{Run: run, Steps: runSteps, Scores: scores})
}

// handleGetArtifact returns the JSON artifact a run stored for a step
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runID(w, r)
	if !ok {
		return
	}

	step := r.PathValue("step")
	content, err := s.deps.Runs.GetArtifact(r.Context(), runID, step)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if content == nil {
		s.writeError(w, r, &ErrNotFound{Resource: "artifact", ID: runID.String() + "/" + step})
		return
	}

	s.jsonResponse(w, http.StatusOK, json.RawMessage(content))
}

// handleUsage returns the LLM usage summary
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Usage == nil {
		s.writeError(w, r, &ErrUnavailable{Capability: "usage tracking"})
		return
	}
	s.jsonResponse(w, http.StatusOK, s.deps.Usage.Summary())
}

// runID parses the {id} path value; it writes the error response itself
func (s *Server) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if s.deps.Runs == nil {
		s.writeError(w, r, &ErrUnavailable{Capability: "run history"})
		return uuid.Nil, false
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "id", Message: "invalid run ID format"})
		return uuid.Nil, false
	}
	return runID, true
}
