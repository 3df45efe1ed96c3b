// Package pipeline orchestrates the blog pipeline from topic to published article.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/blog-autopilot/internal/cms"
	"github.com/jonathan/blog-autopilot/internal/db"
	"github.com/jonathan/blog-autopilot/internal/improve"
	"github.com/jonathan/blog-autopilot/internal/keywords"
	"github.com/jonathan/blog-autopilot/internal/logger"
	"github.com/jonathan/blog-autopilot/internal/pipeline/steps"
	"github.com/jonathan/blog-autopilot/internal/review"
	"github.com/jonathan/blog-autopilot/internal/scoring"
	"github.com/jonathan/blog-autopilot/internal/search"
	"github.com/jonathan/blog-autopilot/internal/seo"
	"github.com/jonathan/blog-autopilot/internal/topics"
	"github.com/jonathan/blog-autopilot/internal/types"
)

// DefaultLSISuggestions is the number of related terms requested from the analyzer
const DefaultLSISuggestions = 5

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Position int    `json:"position,omitempty"`
	Total    int    `json:"total,omitempty"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Writer produces and packages article text
type Writer interface {
	improve.Regenerator
	Generate(ctx context.Context, topic string, research *types.SearchResult, keywords []string) (string, error)
	OptimizeSEO(ctx context.Context, article string, keywords []string) types.ArticleMetadata
	Translate(ctx context.Context, fr types.ArticleMetadata) (*types.ArticleMetadata, error)
}

// TopicGuard reports published articles close to a topic
type TopicGuard interface {
	Check(ctx context.Context, topic string) *topics.Report
}

// Publisher stores finished articles in the CMS
type Publisher interface {
	FetchReferences(ctx context.Context, categorySlug string) (types.References, error)
	PublishDocument(ctx context.Context, doc types.Document, meta types.ArticleMetadata, lang types.Language, refs types.References) (*cms.PublishResult, error)
}

// Store keeps the run history. *db.DB implements it.
type Store interface {
	CreateRun(ctx context.Context, topic string) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, outcome db.RunOutcome) error
	SaveScore(ctx context.Context, runID uuid.UUID, iteration int, report types.ScoreReport) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error
	RecordStep(ctx context.Context, runID uuid.UUID, step, status, message string) error
}

// TopicLabeler attributes subsequent LLM usage to a topic. *usage.Tracker implements it.
type TopicLabeler interface {
	SetTopic(topic string)
}

// Options holds configuration for one pipeline run
type Options struct {
	Topic string
	// KeywordCatalog is the list keywords are selected from
	KeywordCatalog []string
	MinKeywords    int
	MaxKeywords    int
	MaxIterations  int
	SkipGuard      bool
	Publish        bool
	CategorySlug   string
	// ReviewDir receives the review file; empty skips it
	ReviewDir  string
	BaseDomain string
	OnProgress ProgressCallback
}

// Deps are the collaborators of a run. Writer and Scorer are required;
// every other dependency is optional and skipped when nil.
type Deps struct {
	Writer    Writer
	Scorer    improve.Scorer
	Search    search.Provider
	Guard     TopicGuard
	Publisher Publisher
	Store     Store
	Usage     TopicLabeler
	// Catalog records published articles for future topic checks
	Catalog *topics.Catalog
	Log     *logger.Logger
}

// Result holds everything a run produced
type Result struct {
	RunID        uuid.UUID              `json:"run_id,omitempty"`
	Topic        string                 `json:"topic"`
	Keywords     []string               `json:"keywords"`
	Research     *types.SearchResult    `json:"research,omitempty"`
	Draft        string                 `json:"draft"`
	InitialScore types.ScoreReport      `json:"initial_score"`
	Improvement  *improve.Result        `json:"improvement,omitempty"`
	FR           types.ArticleMetadata  `json:"fr"`
	EN           *types.ArticleMetadata `json:"en,omitempty"`
	DocumentFR   types.Document         `json:"document_fr"`
	DocumentEN   *types.Document        `json:"document_en,omitempty"`
	SEO          *seo.Report            `json:"seo,omitempty"`
	ReviewPath   string                 `json:"review_path,omitempty"`
	Published    []*cms.PublishResult   `json:"published,omitempty"`
	Warnings     []string               `json:"warnings,omitempty"`
	Completed    map[string]bool        `json:"-"`
}

// Article returns the final French article text
func (r *Result) Article() string {
	if r.Improvement != nil && r.Improvement.Article != "" {
		return r.Improvement.Article
	}
	return r.Draft
}

// FinalScore returns the quality score of the final article
func (r *Result) FinalScore() types.ScoreReport {
	if r.Improvement != nil {
		return r.Improvement.Score
	}
	return r.InitialScore
}

// runner carries the state of one run
type runner struct {
	opts   Options
	deps   Deps
	log    *logger.Logger
	result *Result
	store  Store
	mu     sync.Mutex
}

// Run executes the pipeline for opts.Topic. Degraded capabilities (search,
// scoring, translation, review file, run history) become warnings; a known
// topic, a failed generation and any publishing failure stop the run.
func Run(ctx context.Context, opts Options, deps Deps) (*Result, error) {
	topic := strings.TrimSpace(opts.Topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if deps.Writer == nil || deps.Scorer == nil {
		return nil, fmt.Errorf("a writer and a scorer are required")
	}
	opts.Topic = topic
	if opts.BaseDomain == "" {
		opts.BaseDomain = seo.DefaultBaseDomain
	}

	r := &runner{
		opts:   opts,
		deps:   deps,
		log:    logger.OrNop(deps.Log).With("topic", topic),
		result: &Result{Topic: topic, Completed: make(map[string]bool)},
		store:  deps.Store,
	}
	if deps.Usage != nil {
		deps.Usage.SetTopic(topic)
	}

	if err := r.run(ctx); err != nil {
		r.finish(ctx, db.RunStatusFailed)
		return r.result, err
	}
	r.finish(ctx, db.RunStatusCompleted)
	return r.result, nil
}

func (r *runner) run(ctx context.Context) error {
	r.startRun(ctx)
	if err := r.guard(ctx); err != nil {
		return err
	}

	r.selectKeywords(ctx)
	r.research(ctx)
	if err := r.generate(ctx); err != nil {
		return err
	}
	r.score(ctx)
	if err := r.improve(ctx); err != nil {
		return err
	}

	r.optimize(ctx)
	refs := r.finishInParallel(ctx)
	r.writeReview(ctx)

	if r.opts.Publish {
		if err := r.publish(ctx, refs); err != nil {
			return err
		}
	}
	return nil
}

// guard refuses topics already covered by a published article
func (r *runner) guard(ctx context.Context) error {
	if r.opts.SkipGuard || r.deps.Guard == nil {
		r.skip(ctx, db.StepGuard, "Topic check skipped")
		return nil
	}

	report := r.deps.Guard.Check(ctx, r.opts.Topic)
	if report.Exists() {
		r.record(ctx, db.StepGuard, db.StepStatusFailed, "topic already covered")
		return &TopicExistsError{Topic: r.opts.Topic, Similar: report.Similar}
	}
	r.complete(ctx, db.StepGuard, fmt.Sprintf("Topic is new (%d known titles checked)", report.Known), nil)
	return nil
}

func (r *runner) startRun(ctx context.Context) {
	if r.store == nil {
		return
	}
	runID, err := r.store.CreateRun(ctx, r.opts.Topic)
	if err != nil {
		r.warn("run history unavailable", err)
		r.store = nil
		return
	}
	r.result.RunID = runID
	r.log = r.log.With("run_id", runID.String())
}

func (r *runner) selectKeywords(ctx context.Context) {
	minCount, maxCount := r.opts.MinKeywords, r.opts.MaxKeywords
	if minCount == 0 {
		minCount = keywords.DefaultMin
	}
	if maxCount == 0 {
		maxCount = keywords.DefaultMax
	}

	selected := keywords.Select(r.opts.Topic, r.opts.KeywordCatalog, minCount, maxCount)
	if len(selected) == 0 {
		selected = []string{r.opts.Topic}
		r.warn("keyword catalog is empty, using the topic as keyword", nil)
	}
	r.result.Keywords = selected
	r.save(ctx, db.StepKeywords, selected)
	r.complete(ctx, db.StepKeywords, fmt.Sprintf("Selected %d keywords: %s", len(selected), strings.Join(selected, ", ")), selected)
}

func (r *runner) research(ctx context.Context) {
	r.result.Research = &types.SearchResult{}
	if r.deps.Search == nil {
		r.warn("no search provider configured, writing without research", nil)
		r.skip(ctx, db.StepSearch, "No search provider")
		return
	}

	res, err := r.deps.Search.Search(ctx, r.opts.Topic)
	if err != nil || res == nil {
		r.warn("search failed, writing without research", err)
		r.skip(ctx, db.StepSearch, "Search failed")
		return
	}
	r.result.Research = res
	if res.IsEmpty() {
		r.warn("search returned no results", nil)
	}
	r.save(ctx, db.StepSearch, res)
	r.complete(ctx, db.StepSearch, fmt.Sprintf("Found %d sources", len(res.Sources)), nil)
}

func (r *runner) generate(ctx context.Context) error {
	if err := r.ready(db.StepDraft); err != nil {
		return err
	}
	draft, err := r.deps.Writer.Generate(ctx, r.opts.Topic, r.result.Research, r.result.Keywords)
	if err != nil {
		r.fail(ctx, db.StepDraft, err)
		return &StepError{Step: db.StepDraft, Message: "article generation failed", Cause: err}
	}
	r.result.Draft = draft
	r.saveText(ctx, db.StepDraft, draft)
	r.complete(ctx, db.StepDraft, fmt.Sprintf("Generated a %d-word draft", len(strings.Fields(draft))), nil)
	return nil
}

func (r *runner) score(ctx context.Context) {
	report := r.deps.Scorer.Score(ctx, scoring.Request{
		Article:  r.result.Draft,
		Topic:    r.opts.Topic,
		Keywords: r.result.Keywords,
	})
	r.result.InitialScore = report
	if !report.HasScore() {
		r.warn("quality score unavailable for the draft", nil)
	}
	r.saveScore(ctx, 0, report)
	r.complete(ctx, db.StepScore, fmt.Sprintf("Draft scored %s", scoreLabel(report)), report)
}

// improve runs the rewrite loop. An aborted loop keeps its last scored state.
// Without a draft score there is no feedback to rewrite against, so the draft is kept.
func (r *runner) improve(ctx context.Context) error {
	if !r.result.InitialScore.HasScore() {
		r.warn("improvement skipped: the draft has no quality score", nil)
		r.skip(ctx, db.StepImprove, "No score to improve against")
		return nil
	}

	improver := improve.New(r.deps.Writer, r.deps.Scorer, r.log)
	res, err := improver.Improve(ctx, improve.Request{
		Article:       r.result.Draft,
		Score:         r.result.InitialScore,
		Topic:         r.opts.Topic,
		Keywords:      r.result.Keywords,
		MaxIterations: r.opts.MaxIterations,
	})
	r.result.Improvement = res
	if res != nil {
		for _, attempt := range res.Attempts {
			r.saveScore(ctx, attempt.Iteration, attempt.Score)
		}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			r.fail(ctx, db.StepImprove, ctxErr)
			return &StepError{Step: db.StepImprove, Message: "run cancelled", Cause: ctxErr}
		}
		r.warn("improvement stopped early", err)
	}

	msg := fmt.Sprintf("Kept the draft scored %s", scoreLabel(r.result.InitialScore))
	if res != nil && res.Iterations > 0 {
		msg = fmt.Sprintf("Final score %s after %d iteration(s)", scoreLabel(res.Score), res.Iterations)
	}
	r.complete(ctx, db.StepImprove, msg, res)
	return nil
}

func (r *runner) optimize(ctx context.Context) {
	meta := r.deps.Writer.OptimizeSEO(ctx, r.result.Article(), r.result.Keywords)
	r.result.FR = meta
	r.result.DocumentFR = cms.DocumentFromMetadata(meta)
	r.save(ctx, db.StepMetadataFR, meta)
	r.saveAs(ctx, db.StepDocumentFR, db.CategoryContent, r.result.DocumentFR)
	r.complete(ctx, db.StepMetadataFR, fmt.Sprintf("Packaged %q (%s)", meta.Title, meta.Slug), nil)
}

// finishInParallel translates the article, analyzes it and looks up the CMS
// references concurrently. None of the branches fails the run.
func (r *runner) finishInParallel(ctx context.Context) types.References {
	var refs types.References
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.translate(gCtx)
		return nil
	})

	g.Go(func() error {
		r.analyze(gCtx)
		return nil
	})

	if r.opts.Publish && r.deps.Publisher != nil {
		g.Go(func() error {
			got, err := r.deps.Publisher.FetchReferences(gCtx, r.opts.CategorySlug)
			if err != nil {
				r.warn("CMS references unavailable, publishing without author and category", err)
				return nil
			}
			refs = got
			return nil
		})
	}

	_ = g.Wait()
	return refs
}

func (r *runner) translate(ctx context.Context) {
	en, err := r.deps.Writer.Translate(ctx, r.result.FR)
	if err != nil {
		r.warn("translation failed, continuing with French only", err)
		r.fail(ctx, db.StepTranslate, err)
		return
	}
	doc := cms.DocumentFromMetadata(*en)

	r.mu.Lock()
	r.result.EN = en
	r.result.DocumentEN = &doc
	r.mu.Unlock()

	r.save(ctx, db.StepMetadataEN, en)
	r.saveAs(ctx, db.StepDocumentEN, db.CategoryContent, doc)
	r.complete(ctx, db.StepTranslate, fmt.Sprintf("Translated to %q (%s)", en.Title, en.Slug), nil)
}

func (r *runner) analyze(ctx context.Context) {
	fr := r.result.FR
	report := seo.Analyze(seo.Input{
		Text:            r.result.Article(),
		Title:           fr.Title,
		MetaTitle:       fr.MetaTitle,
		MetaDescription: fr.MetaDescription,
		Keywords:        fr.Keywords,
		MainKeyword:     fr.MainKeyword(),
	}, seo.Options{BaseDomain: r.opts.BaseDomain, LSISuggestions: DefaultLSISuggestions})

	r.mu.Lock()
	r.result.SEO = report
	r.mu.Unlock()

	r.save(ctx, db.StepSEOReport, report)
	r.complete(ctx, db.StepSEOReport, fmt.Sprintf("SEO score %d/100", report.OverallScore), report)
}

func (r *runner) writeReview(ctx context.Context) {
	if r.opts.ReviewDir == "" {
		r.skip(ctx, db.StepReview, "No review directory")
		return
	}

	draft := review.Draft{
		Topic:        r.opts.Topic,
		FR:           r.result.FR,
		EN:           r.result.EN,
		QualityScore: r.result.FinalScore().GlobalScore,
		GeneratedAt:  time.Now(),
	}
	if r.result.SEO != nil {
		draft.SEOScore = types.IntPtr(r.result.SEO.OverallScore)
	}

	path, err := review.Write(r.opts.ReviewDir, draft)
	if err != nil {
		r.warn("review file not written", err)
		r.fail(ctx, db.StepReview, err)
		return
	}
	r.result.ReviewPath = path
	r.complete(ctx, db.StepReview, "Review file written to "+path, nil)
}

// publish sends the French then the English article to the CMS
func (r *runner) publish(ctx context.Context, refs types.References) error {
	if err := r.ready(db.StepPublish); err != nil {
		return err
	}
	if r.deps.Publisher == nil {
		err := errors.New("publishing requested but no CMS is configured")
		r.fail(ctx, db.StepPublish, err)
		return &StepError{Step: db.StepPublish, Message: "no publisher", Cause: err}
	}

	res, err := r.deps.Publisher.PublishDocument(ctx, r.result.DocumentFR, r.result.FR, types.LanguageFR, refs)
	if err != nil {
		r.fail(ctx, db.StepPublish, err)
		return &StepError{Step: db.StepPublish, Message: "French article not published", Cause: err}
	}
	r.result.Published = append(r.result.Published, res)

	if r.result.EN != nil && r.result.DocumentEN != nil {
		res, err := r.deps.Publisher.PublishDocument(ctx, *r.result.DocumentEN, *r.result.EN, types.LanguageEN, refs)
		if err != nil {
			r.save(ctx, db.StepPublishResults, r.result.Published)
			r.fail(ctx, db.StepPublish, err)
			return &StepError{Step: db.StepPublish, Message: "English article not published", Cause: err}
		}
		r.result.Published = append(r.result.Published, res)
	}

	r.recordPublished()
	r.save(ctx, db.StepPublishResults, r.result.Published)
	r.complete(ctx, db.StepPublish, fmt.Sprintf("Published %d document(s)", len(r.result.Published)), r.result.Published)
	return nil
}

// recordPublished adds the French article to the local catalog
func (r *runner) recordPublished() {
	if r.deps.Catalog == nil {
		return
	}
	fr := r.result.FR
	if !r.deps.Catalog.Add(topics.Article{Title: fr.Title, Slug: fr.Slug, Description: fr.Summary}) {
		return
	}
	if err := r.deps.Catalog.Save(); err != nil {
		r.warn("article catalog not updated", err)
	}
}

func (r *runner) finish(ctx context.Context, status string) {
	if r.store == nil {
		return
	}
	outcome := db.RunOutcome{
		Status:     status,
		Title:      r.result.FR.Title,
		Slug:       r.result.FR.Slug,
		FinalScore: r.result.FinalScore().GlobalScore,
	}
	if err := r.store.CompleteRun(context.WithoutCancel(ctx), r.result.RunID, outcome); err != nil {
		r.log.Warn("failed to complete run record", "error", err)
	}
}

// ready checks the step's dependencies against the completed steps
func (r *runner) ready(step string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return steps.ValidateDependencies(step, r.result.Completed)
}

func (r *runner) warn(msg string, err error) {
	text := msg
	if err != nil {
		text = fmt.Sprintf("%s: %v", msg, err)
		r.log.Warn(msg, "error", err)
	} else {
		r.log.Warn(msg)
	}
	r.mu.Lock()
	r.result.Warnings = append(r.result.Warnings, text)
	r.mu.Unlock()
}

// emit calls the progress callback if configured
func (r *runner) emit(step, message string, content any) {
	if r.opts.OnProgress == nil {
		return
	}
	pos, total := steps.Position(step)
	event := ProgressEvent{
		Step:     step,
		Category: steps.Category(step),
		Message:  message,
		Position: pos,
		Total:    total,
		Content:  content,
	}
	if r.result.RunID != uuid.Nil {
		event.RunID = r.result.RunID.String()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts.OnProgress(event)
}

func (r *runner) complete(ctx context.Context, step, message string, content any) {
	r.mu.Lock()
	r.result.Completed[step] = true
	r.mu.Unlock()
	r.record(ctx, step, db.StepStatusCompleted, message)
	r.emit(step, message, content)
}

func (r *runner) skip(ctx context.Context, step, message string) {
	r.record(ctx, step, db.StepStatusSkipped, message)
	r.emit(step, message, nil)
}

func (r *runner) fail(ctx context.Context, step string, err error) {
	r.record(ctx, step, db.StepStatusFailed, err.Error())
	r.emit(step, "Failed: "+err.Error(), nil)
}

func (r *runner) record(ctx context.Context, step, status, message string) {
	if r.store == nil {
		return
	}
	if err := r.store.RecordStep(context.WithoutCancel(ctx), r.result.RunID, step, status, message); err != nil {
		r.log.Warn("failed to record step", "step", step, "error", err)
	}
}

func (r *runner) save(ctx context.Context, step string, content any) {
	r.saveAs(ctx, step, steps.Category(step), content)
}

func (r *runner) saveAs(ctx context.Context, step, category string, content any) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveArtifact(ctx, r.result.RunID, step, category, content); err != nil {
		r.log.Warn("failed to save artifact", "step", step, "error", err)
	}
}

func (r *runner) saveText(ctx context.Context, step, text string) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveTextArtifact(ctx, r.result.RunID, step, steps.Category(step), text); err != nil {
		r.log.Warn("failed to save artifact", "step", step, "error", err)
	}
}

func (r *runner) saveScore(ctx context.Context, iteration int, report types.ScoreReport) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveScore(ctx, r.result.RunID, iteration, report); err != nil {
		r.log.Warn("failed to save score", "iteration", iteration, "error", err)
	}
}

func scoreLabel(report types.ScoreReport) string {
	if report.GlobalScore == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d/100", *report.GlobalScore)
}
