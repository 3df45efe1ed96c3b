package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/blog-autopilot/internal/db"
	"github.com/jonathan/blog-autopilot/internal/improve"
	"github.com/jonathan/blog-autopilot/internal/pipeline"
	"github.com/jonathan/blog-autopilot/internal/scoring"
	"github.com/jonathan/blog-autopilot/internal/seo"
	"github.com/jonathan/blog-autopilot/internal/server/ratelimit"
	"github.com/jonathan/blog-autopilot/internal/topics"
	"github.com/jonathan/blog-autopilot/internal/types"
	"github.com/jonathan/blog-autopilot/internal/usage"
)

type fakeScorer struct {
	got scoring.Request
}

func (f *fakeScorer) Score(_ context.Context, req scoring.Request) types.ScoreReport {
	f.got = req
	return types.ScoreReport{GlobalScore: types.IntPtr(78), ReportText: "Bon article"}
}

type fakeRuns struct {
	runs      map[uuid.UUID]*db.Run
	artifacts map[string][]byte
	filters   db.RunFilters
}

func (f *fakeRuns) GetRun(_ context.Context, runID uuid.UUID) (*db.Run, error) {
	return f.runs[runID], nil
}

func (f *fakeRuns) ListRuns(_ context.Context, filters db.RunFilters) ([]db.Run, error) {
	f.filters = filters
	var out []db.Run
	for _, r := range f.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRuns) ListRunSteps(_ context.Context, runID uuid.UUID) ([]db.RunStep, error) {
	return []db.RunStep{{RunID: runID, Step: db.StepGuard, Status: db.StepStatusCompleted}}, nil
}

func (f *fakeRuns) ListScores(_ context.Context, runID uuid.UUID) ([]db.Score, error) {
	return []db.Score{{RunID: runID, Iteration: 0, GlobalScore: types.IntPtr(70)}}, nil
}

func (f *fakeRuns) GetArtifact(_ context.Context, runID uuid.UUID, step string) ([]byte, error) {
	return f.artifacts[runID.String()+"/"+step], nil
}

type fakeUsage struct{}

func (fakeUsage) Summary() usage.Summary {
	return usage.Summary{Totals: usage.Totals{Count: 3, TotalTokens: 1200}}
}

func newTestServer(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	s := New(Config{}, deps)
	t.Cleanup(s.rateLimiter.Stop)
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:4321"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, Deps{})

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, w)["status"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, Deps{})

	w := do(t, h, http.MethodOptions, "/convert", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestSteps(t *testing.T) {
	h := newTestServer(t, Deps{})

	w := do(t, h, http.MethodGet, "/steps", nil)
	require.Equal(t, http.StatusOK, w.Code)
	defs := decodeBody[[]map[string]any](t, w)
	require.NotEmpty(t, defs)
	assert.Equal(t, "guard", defs[0]["name"])
}

func TestConvert(t *testing.T) {
	h := newTestServer(t, Deps{})

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantFormat string
		wantFirst  types.BlockStyle
		portable   bool
	}{
		{
			name:       "plain markdown",
			body:       ConvertRequest{Text: "## Pourquoi automatiser\n\nLes appels **saturent** le secrétariat."},
			wantStatus: http.StatusOK,
			wantFormat: "plain",
			wantFirst:  types.StyleHeading2,
		},
		{
			name:       "html detected",
			body:       ConvertRequest{Text: "<h3>Les bénéfices</h3><p>Moins d'attente</p>", Portable: true},
			wantStatus: http.StatusOK,
			wantFormat: "html",
			wantFirst:  types.StyleHeading3,
			portable:   true,
		},
		{
			name:       "markdown alias",
			body:       ConvertRequest{Text: "Une phrase.", Format: "markdown"},
			wantStatus: http.StatusOK,
			wantFormat: "plain",
			wantFirst:  types.StyleNormal,
		},
		{name: "unknown format", body: ConvertRequest{Text: "x", Format: "docx"}, wantStatus: http.StatusBadRequest},
		{name: "missing text", body: ConvertRequest{}, wantStatus: http.StatusBadRequest},
		{name: "malformed json", body: "{", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/convert", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, decodeBody[map[string]string](t, w)["error"])
				return
			}

			resp := decodeBody[ConvertResponse](t, w)
			assert.Equal(t, tt.wantFormat, string(resp.Format))
			require.NotEmpty(t, resp.Document.Blocks)
			assert.Equal(t, tt.wantFirst, resp.Document.Blocks[0].Style)
			assert.NotEmpty(t, resp.Markdown)
			if tt.portable {
				assert.Len(t, resp.Portable, len(resp.Document.Blocks))
			} else {
				assert.Empty(t, resp.Portable)
			}
		})
	}
}

func TestConvert_ValidationNamesJSONField(t *testing.T) {
	h := newTestServer(t, Deps{})

	w := do(t, h, http.MethodPost, "/convert", ConvertRequest{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation error: text - required", decodeBody[map[string]string](t, w)["error"])
}

func TestAnalyze(t *testing.T) {
	h := newTestServer(t, Deps{BaseDomain: "callrounded.com"})

	w := do(t, h, http.MethodPost, "/analyze", AnalyzeRequest{
		Text:     "## Agent vocal\n\nUn agent vocal répond aux patients. Voir [nos cas](https://callrounded.com/cas-usage).",
		Title:    "Agent vocal pour cabinet médical",
		Keywords: []string{"agent vocal"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := decodeBody[seo.Report](t, w)
	assert.Equal(t, "agent vocal", report.MainKeyword)
	assert.Contains(t, report.KeywordDensity, "agent vocal")
	assert.Equal(t, 1, report.Links.InternalCount)

	w = do(t, h, http.MethodPost, "/analyze", AnalyzeRequest{Keywords: []string{"x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/analyze", AnalyzeRequest{Text: "x", LSISuggestions: 99})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectKeywords(t *testing.T) {
	h := newTestServer(t, Deps{KeywordCatalog: []string{"agent vocal", "comptabilité", "secrétariat médical"}})

	tests := []struct {
		name string
		body KeywordsRequest
		want []string
	}{
		{
			name: "server catalog",
			body: KeywordsRequest{Topic: "Agent vocal pour secrétariat médical"},
			want: []string{"agent vocal", "secrétariat médical"},
		},
		{
			name: "request catalog",
			body: KeywordsRequest{Topic: "La comptabilité du cabinet", Keywords: []string{"comptabilité"}, Min: 1, Max: 1},
			want: []string{"comptabilité"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/keywords/select", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			resp := decodeBody[KeywordsResponse](t, w)
			assert.ElementsMatch(t, tt.want, resp.Keywords)
		})
	}

	w := do(t, h, http.MethodPost, "/keywords/select", KeywordsRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScore(t *testing.T) {
	w := do(t, newTestServer(t, Deps{}), http.MethodPost, "/score", ScoreRequest{Article: "a", Topic: "b"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	scorer := &fakeScorer{}
	h := newTestServer(t, Deps{Scorer: scorer})

	w = do(t, h, http.MethodPost, "/score", ScoreRequest{Article: "Texte", Topic: "IA", Keywords: []string{"IA"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decodeBody[types.ScoreReport](t, w)
	require.NotNil(t, report.GlobalScore)
	assert.Equal(t, 78, *report.GlobalScore)
	assert.Equal(t, "IA", scorer.got.Topic)

	w = do(t, h, http.MethodPost, "/score", ScoreRequest{Article: "Texte"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type sseEvent struct {
	Name string
	Data string
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.Data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if current.Name != "" {
				events = append(events, current)
			}
			current = sseEvent{}
		}
	}
	return events
}

func TestRunStream(t *testing.T) {
	runID := uuid.New()
	var got pipeline.Options
	run := func(_ context.Context, opts pipeline.Options) (*pipeline.Result, error) {
		got = opts
		opts.OnProgress(pipeline.ProgressEvent{Step: "guard", Category: "research", Message: "topic is new"})
		opts.OnProgress(pipeline.ProgressEvent{Step: "draft", Category: "content", Message: "article generated"})
		return &pipeline.Result{
			RunID:        runID,
			Topic:        opts.Topic,
			Keywords:     []string{"agent vocal"},
			InitialScore: types.ScoreReport{GlobalScore: types.IntPtr(70)},
			Improvement:  &improve.Result{Score: types.ScoreReport{GlobalScore: types.IntPtr(82)}, Iterations: 2},
			FR:           types.ArticleMetadata{Title: "Agent vocal", Slug: "agent-vocal"},
			EN:           &types.ArticleMetadata{Title: "Voice agent"},
			SEO:          &seo.Report{OverallScore: 64},
			Warnings:     []string{"search unavailable"},
		}, nil
	}

	h := newTestServer(t, Deps{Run: run, RunDefaults: pipeline.Options{MaxIterations: 3, CategorySlug: "actualites"}})

	w := do(t, h, http.MethodPost, "/run/stream", RunRequest{Topic: "Agent vocal", Publish: true, MaxIterations: 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	assert.Equal(t, "Agent vocal", got.Topic)
	assert.True(t, got.Publish)
	assert.Equal(t, 2, got.MaxIterations)
	assert.Equal(t, "actualites", got.CategorySlug)

	events := readEvents(t, w.Body.String())
	require.Len(t, events, 4)
	assert.Equal(t, []string{"step", "step", "result", "complete"},
		[]string{events[0].Name, events[1].Name, events[2].Name, events[3].Name})

	var step pipeline.ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(events[1].Data), &step))
	assert.Equal(t, "draft", step.Step)

	var summary RunSummary
	require.NoError(t, json.Unmarshal([]byte(events[2].Data), &summary))
	assert.Equal(t, runID.String(), summary.RunID)
	assert.Equal(t, "agent-vocal", summary.Slug)
	require.NotNil(t, summary.QualityScore)
	assert.Equal(t, 82, *summary.QualityScore)
	assert.Equal(t, 2, summary.Iterations)
	require.NotNil(t, summary.SEOScore)
	assert.Equal(t, 64, *summary.SEOScore)
	assert.True(t, summary.Translated)
	assert.Equal(t, []string{"search unavailable"}, summary.Warnings)

	assert.Contains(t, events[3].Data, runID.String())
}

func TestRunStream_Errors(t *testing.T) {
	exists := func(context.Context, pipeline.Options) (*pipeline.Result, error) {
		return nil, &pipeline.TopicExistsError{Topic: "IA", Similar: []topics.Match{{Title: "L'IA au cabinet", Similarity: 0.9}}}
	}

	t.Run("no pipeline", func(t *testing.T) {
		w := do(t, newTestServer(t, Deps{}), http.MethodPost, "/run/stream", RunRequest{Topic: "IA"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("invalid request", func(t *testing.T) {
		h := newTestServer(t, Deps{Run: exists})
		w := do(t, h, http.MethodPost, "/run/stream", RunRequest{Topic: "IA", MaxIterations: 9})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("run failure becomes an error event", func(t *testing.T) {
		h := newTestServer(t, Deps{Run: exists})
		w := do(t, h, http.MethodPost, "/run/stream", RunRequest{Topic: "IA"})
		require.Equal(t, http.StatusOK, w.Code)

		events := readEvents(t, w.Body.String())
		require.Len(t, events, 1)
		assert.Equal(t, "error", events[0].Name)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(events[0].Data), &payload))
		assert.EqualValues(t, http.StatusConflict, payload["status"])
		assert.Contains(t, payload["error"], "L'IA au cabinet")
	})
}

func TestRuns(t *testing.T) {
	runID := uuid.New()
	store := &fakeRuns{
		runs: map[uuid.UUID]*db.Run{
			runID: {ID: runID, Topic: "Agent vocal", Status: db.RunStatusCompleted, CreatedAt: time.Now()},
		},
		artifacts: map[string][]byte{
			runID.String() + "/" + db.StepSEOReport: []byte(`{"overall_score":64}`),
		},
	}
	h := newTestServer(t, Deps{Runs: store})

	t.Run("list", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/runs?topic=agent&limit=10", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 1, decodeBody[map[string]any](t, w)["count"])
		assert.Equal(t, "agent", store.filters.Topic)
		assert.Equal(t, 10, store.filters.Limit)
	})

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "bad limit", path: "/runs?limit=0", wantStatus: http.StatusBadRequest},
		{name: "detail", path: "/runs/" + runID.String(), wantStatus: http.StatusOK},
		{name: "unknown run", path: "/runs/" + uuid.NewString(), wantStatus: http.StatusNotFound},
		{name: "invalid id", path: "/runs/not-a-uuid", wantStatus: http.StatusBadRequest},
		{name: "artifact", path: "/runs/" + runID.String() + "/artifacts/seo_report", wantStatus: http.StatusOK},
		{name: "missing artifact", path: "/runs/" + runID.String() + "/artifacts/metadata_en", wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}

	t.Run("detail payload", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/runs/"+runID.String(), nil)
		resp := decodeBody[RunDetailResponse](t, w)
		require.NotNil(t, resp.Run)
		assert.Equal(t, "Agent vocal", resp.Run.Topic)
		assert.Len(t, resp.Steps, 1)
		assert.Len(t, resp.Scores, 1)
	})

	t.Run("artifact is returned verbatim", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/runs/"+runID.String()+"/artifacts/seo_report", nil)
		assert.JSONEq(t, `{"overall_score":64}`, w.Body.String())
	})

	t.Run("no history", func(t *testing.T) {
		bare := newTestServer(t, Deps{})
		assert.Equal(t, http.StatusServiceUnavailable, do(t, bare, http.MethodGet, "/runs", nil).Code)
		assert.Equal(t, http.StatusServiceUnavailable, do(t, bare, http.MethodGet, "/runs/"+runID.String(), nil).Code)
	})
}

func TestUsage(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, do(t, newTestServer(t, Deps{}), http.MethodGet, "/usage", nil).Code)

	w := do(t, newTestServer(t, Deps{Usage: fakeUsage{}}), http.MethodGet, "/usage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1200, decodeBody[map[string]any](t, w)["total_tokens"])
}

func TestRateLimit(t *testing.T) {
	cfg := ratelimit.DefaultConfig(true, nil)
	cfg.CleanupInterval = 0
	cfg.EndpointConfigs = []ratelimit.EndpointConfig{
		{Path: "/convert", Method: http.MethodPost, Limit: 1, Window: time.Hour},
	}
	s := New(Config{RateLimit: cfg}, Deps{})
	t.Cleanup(s.rateLimiter.Stop)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/convert", ConvertRequest{Text: "Bonjour"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = do(t, h, http.MethodPost, "/convert", ConvertRequest{Text: "Bonjour"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeBody[map[string]any](t, w)["error"])

	// health checks are never limited
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil).Code)
	}
}

func TestRetrySeconds(t *testing.T) {
	assert.Equal(t, 0, retrySeconds(0))
	assert.Equal(t, 1, retrySeconds(200*time.Millisecond))
	assert.Equal(t, 360, retrySeconds(6*time.Minute))
}
