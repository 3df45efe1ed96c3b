// Package types provides type definitions for structured data used throughout the blog pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Dimension names a quality sub-score
type Dimension string

const (
	DimensionContent     Dimension = "content"
	DimensionReadability Dimension = "readability"
	DimensionSEO         Dimension = "seo"
	DimensionConversion  Dimension = "conversion"
	DimensionCredibility Dimension = "credibility"
)

// MaxGlobalScore is the upper bound of the global score
const MaxGlobalScore = 100

// DimensionMax maps each dimension to its maximum score. The maxima sum to MaxGlobalScore.
var DimensionMax = map[Dimension]int{
	DimensionContent:     20,
	DimensionReadability: 20,
	DimensionSEO:         30,
	DimensionConversion:  20,
	DimensionCredibility: 10,
}

// Dimensions lists the dimensions in report order
func Dimensions() []Dimension {
	return []Dimension{
		DimensionContent,
		DimensionReadability,
		DimensionSEO,
		DimensionConversion,
		DimensionCredibility,
	}
}

// ScoreReport is a multi-dimensional quality judgment of one article snapshot.
// A nil score means the capability did not provide it.
type ScoreReport struct {
	GlobalScore     *int              `json:"global_score,omitempty"`
	DimensionScores map[Dimension]int `json:"dimension_scores,omitempty"`
	ReportText      string            `json:"report_text"`
}

// HasScore reports whether a global score is present
func (r ScoreReport) HasScore() bool {
	return r.GlobalScore != nil
}

// GlobalOrZero returns the global score, or 0 when absent
func (r ScoreReport) GlobalOrZero() int {
	if r.GlobalScore == nil {
		return 0
	}
	return *r.GlobalScore
}

// Dimension returns one dimension score and whether it was reported
func (r ScoreReport) Dimension(d Dimension) (int, bool) {
	v, ok := r.DimensionScores[d]
	return v, ok
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
