// Package improve runs the score-driven rewrite loop over a generated article.
package improve

import (
	"context"
	"strings"

	"github.com/jonathan/blog-autopilot/internal/logger"
	"github.com/jonathan/blog-autopilot/internal/scoring"
	"github.com/jonathan/blog-autopilot/internal/types"
)

// DefaultMaxIterations bounds a run when the request leaves MaxIterations unset
const DefaultMaxIterations = 3

// Regenerator rewrites an article using a reviewer's feedback
type Regenerator interface {
	Regenerate(ctx context.Context, article, feedback, topic string, keywords []string) (string, error)
}

// Scorer judges one article snapshot. It never fails; an unusable judgment
// comes back with every score absent.
type Scorer interface {
	Score(ctx context.Context, req scoring.Request) types.ScoreReport
}

// Request is the input of one improvement run
type Request struct {
	Article       string
	Score         types.ScoreReport
	Topic         string
	Keywords      []string
	Title         string
	MaxIterations int
}

// Attempt records one executed iteration
type Attempt struct {
	Iteration int               `json:"iteration"`
	Article   string            `json:"article"`
	Score     types.ScoreReport `json:"score"`
	Improved  bool              `json:"improved"`
}

// Result is the terminal state of a run.
// Article and Score come from the last executed iteration, or from the
// request when no iteration completed.
type Result struct {
	Article    string            `json:"article"`
	Score      types.ScoreReport `json:"score"`
	Iterations int               `json:"iterations"`
	Improved   bool              `json:"improved"`
	Attempts   []Attempt         `json:"attempts"`
}

// Improver drives the Scored -> Done state machine
type Improver struct {
	regen  Regenerator
	scorer Scorer
	log    *logger.Logger
}

// New creates an improver
func New(regen Regenerator, scorer Scorer, log *logger.Logger) *Improver {
	return &Improver{regen: regen, scorer: scorer, log: logger.OrNop(log)}
}

type phase int

const (
	phaseScored phase = iota
	phaseDone
)

// state is the transient improvement state. The baseline is always the
// latest attempt, never the best one seen so far.
type state struct {
	phase     phase
	article   string
	score     types.ScoreReport
	iteration int
	improved  bool
}

// Improve regenerates and re-scores req.Article until a new score beats its
// baseline or the iteration budget runs out. Running out of budget is a
// normal outcome: the last attempt is shipped even if it scored lower.
//
// A regeneration failure, an empty regeneration or a cancelled context
// aborts the run; the last successfully scored state is returned together
// with an *Error.
func (im *Improver) Improve(ctx context.Context, req Request) (*Result, error) {
	maxIterations := req.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	result := &Result{}
	st := state{phase: phaseScored, article: req.Article, score: req.Score}

	for st.phase != phaseDone {
		next, attempt, err := im.step(ctx, st, req, maxIterations)
		if err != nil {
			im.log.Warn("improvement run aborted", "iteration", st.iteration+1, "error", err)
			fill(result, st)
			return result, err
		}
		result.Attempts = append(result.Attempts, attempt)
		st = next
	}

	fill(result, st)
	return result, nil
}

// step executes one Scored transition
func (im *Improver) step(ctx context.Context, st state, req Request, maxIterations int) (state, Attempt, error) {
	iteration := st.iteration + 1
	if err := ctx.Err(); err != nil {
		return st, Attempt{}, &Error{Iteration: iteration, Message: "run cancelled", Cause: err}
	}

	article, err := im.regen.Regenerate(ctx, st.article, st.score.ReportText, req.Topic, req.Keywords)
	if err != nil {
		return st, Attempt{}, &Error{Iteration: iteration, Message: "failed to regenerate article", Cause: err}
	}
	if strings.TrimSpace(article) == "" {
		return st, Attempt{}, &Error{Iteration: iteration, Message: "regeneration returned an empty article"}
	}

	score := im.scorer.Score(ctx, scoring.Request{
		Article:  article,
		Topic:    req.Topic,
		Keywords: req.Keywords,
		Title:    req.Title,
	})

	before, after := st.score.GlobalOrZero(), score.GlobalOrZero()
	next := state{phase: phaseScored, article: article, score: score, iteration: iteration}
	switch {
	case after > before:
		next.phase = phaseDone
		next.improved = true
	case iteration >= maxIterations:
		next.phase = phaseDone
	}

	im.log.Info("improvement iteration",
		"iteration", iteration,
		"before", before,
		"after", after,
		"done", next.phase == phaseDone,
	)

	return next, Attempt{Iteration: iteration, Article: article, Score: score, Improved: next.improved}, nil
}

func fill(result *Result, st state) {
	result.Article = st.article
	result.Score = st.score
	result.Iterations = st.iteration
	result.Improved = st.improved
}
