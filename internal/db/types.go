package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/blog-autopilot/internal/types"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run represents a pipeline run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Topic       string     `json:"topic"`
	Title       string     `json:"title,omitempty"`
	Slug        string     `json:"slug,omitempty"`
	Status      string     `json:"status"`
	FinalScore  *int       `json:"final_score,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunOutcome is what CompleteRun stores about a finished run
type RunOutcome struct {
	Status     string
	Title      string
	Slug       string
	FinalScore *int
}

// Pipeline step names. Steps that store an artifact use the same name for it.
const (
	StepGuard          = "guard"
	StepScore          = "score"
	StepImprove        = "improve"
	StepTranslate      = "translate"
	StepReview         = "review"
	StepPublish        = "publish"
	StepSearch         = "search"
	StepKeywords       = "keywords"
	StepDraft          = "draft"
	StepMetadataFR     = "metadata_fr"
	StepMetadataEN     = "metadata_en"
	StepDocumentFR     = "document_fr"
	StepDocumentEN     = "document_en"
	StepSEOReport      = "seo_report"
	StepPublishResults = "publish_results"
)

// Artifact categories
const (
	CategoryResearch   = "research"
	CategoryContent    = "content"
	CategoryAnalysis   = "analysis"
	CategoryPublishing = "publishing"
)

// Score is one stored quality judgment. Iteration 0 is the baseline.
type Score struct {
	ID              uuid.UUID               `json:"id"`
	RunID           uuid.UUID               `json:"run_id"`
	Iteration       int                     `json:"iteration"`
	GlobalScore     *int                    `json:"global_score,omitempty"`
	DimensionScores map[types.Dimension]int `json:"dimension_scores,omitempty"`
	ReportText      string                  `json:"report_text,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

// Report converts the stored row back into a ScoreReport
func (s Score) Report() types.ScoreReport {
	return types.ScoreReport{
		GlobalScore:     s.GlobalScore,
		DimensionScores: s.DimensionScores,
		ReportText:      s.ReportText,
	}
}

// Step statuses
const (
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
	StepStatusSkipped    = "skipped"
)

// RunStep represents a single step execution for a pipeline run
type RunStep struct {
	ID          uuid.UUID  `json:"id"`
	RunID       uuid.UUID  `json:"run_id"`
	Step        string     `json:"step"`
	Status      string     `json:"status"`
	Message     *string    `json:"message,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMs  *int       `json:"duration_ms,omitempty"`
}

// IsTerminal reports whether status ends a step
func IsTerminal(status string) bool {
	switch status {
	case StepStatusCompleted, StepStatusFailed, StepStatusSkipped:
		return true
	default:
		return false
	}
}
