package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/blog-autopilot/internal/cms"
	"github.com/jonathan/blog-autopilot/internal/improve"
	"github.com/jonathan/blog-autopilot/internal/pipeline"
	"github.com/jonathan/blog-autopilot/internal/seo"
	"github.com/jonathan/blog-autopilot/internal/types"
)

func TestGenerateCommand_EmptyTopic(t *testing.T) {
	setVar(t, &generateTopic, "   ")
	cmd, _ := newTestCmd()
	assert.EqualError(t, runGenerate(cmd, nil), "--topic must not be empty")
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	printEvent := progressPrinter(&buf)

	printEvent(pipeline.ProgressEvent{Step: "draft", Message: "Article generated", Position: 4, Total: 11})
	printEvent(pipeline.ProgressEvent{Step: "run", Message: "Run started"})

	assert.Equal(t, "[4/11] draft        Article generated\nrun                Run started\n", buf.String())
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name     string
		result   *pipeline.Result
		contains []string
		excludes []string
	}{
		{
			name: "improved and published",
			result: &pipeline.Result{
				Keywords:     []string{"agent vocal", "IA"},
				InitialScore: types.ScoreReport{GlobalScore: types.IntPtr(68)},
				Improvement:  &improve.Result{Score: types.ScoreReport{GlobalScore: types.IntPtr(81)}, Iterations: 2, Improved: true},
				FR:           types.ArticleMetadata{Title: "Agent vocal IA", Slug: "agent-vocal-ia"},
				EN:           &types.ArticleMetadata{Title: "AI voice agent", Slug: "ai-voice-agent-en"},
				SEO:          &seo.Report{OverallScore: 72},
				ReviewPath:   "articles/agent.md",
				Published:    []*cms.PublishResult{{DocumentID: "agent_vocal_ia", Slug: "agent-vocal-ia", Language: types.LanguageFR}},
				Warnings:     []string{"search failed"},
			},
			contains: []string{
				"Slug:      agent-vocal-ia",
				"Keywords:  agent vocal, IA",
				"Quality:   81/100 (from 68 after 2 iteration(s))",
				"SEO:       72/100",
				"English:   AI voice agent (ai-voice-agent-en)",
				"Review:    articles/agent.md",
				"Published: agent-vocal-ia [fr] agent_vocal_ia",
				"WARNINGS (1)",
				"⚠ search failed",
			},
		},
		{
			name:     "not scored",
			result:   &pipeline.Result{FR: types.ArticleMetadata{Title: "Agent"}},
			contains: []string{"Quality:   not scored"},
			excludes: []string{"SEO:", "English:", "WARNINGS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printResult(&buf, tt.result)
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestPrintDetails(t *testing.T) {
	var buf bytes.Buffer
	printDetails(&buf, &pipeline.Result{
		Topic:        "agent vocal",
		Keywords:     []string{"agent vocal"},
		InitialScore: types.ScoreReport{GlobalScore: types.IntPtr(64)},
		SEO:          &seo.Report{OverallScore: 70},
	})

	out := buf.String()
	assert.Contains(t, out, "SELECTED KEYWORDS")
	assert.Contains(t, out, "No research available")
	assert.Contains(t, out, "Global: 64/100")
	assert.Contains(t, out, "SEO ANALYSIS")
	assert.NotContains(t, out, "IMPROVEMENT LOOP")
}
