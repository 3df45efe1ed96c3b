package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/blog-autopilot/internal/seo"
)

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	setVar(t, &analyzeInput, writeFile(t, dir, "article.md", sampleArticle))
	setVar(t, &analyzeKeywords, []string{"agent", "secrétariat"})
	setVar(t, &analyzeMainKeyword, "")
	setVar(t, &analyzeTitle, "Pourquoi automatiser l'accueil du cabinet")
	setVar(t, &analyzeBaseDomain, "callrounded.com")

	t.Run("json", func(t *testing.T) {
		setVar(t, &analyzeJSON, true)
		cmd, out := newTestCmd()
		require.NoError(t, runAnalyze(cmd, nil))

		var report seo.Report
		require.NoError(t, json.Unmarshal(out.Bytes(), &report))
		assert.Equal(t, "agent", report.MainKeyword)
		assert.Equal(t, 1, report.Links.InternalCount)
		assert.Equal(t, 1, report.Structure.H2)
	})

	t.Run("text", func(t *testing.T) {
		setVar(t, &analyzeJSON, false)
		cmd, out := newTestCmd()
		require.NoError(t, runAnalyze(cmd, nil))

		assert.Contains(t, out.String(), "Score:")
		assert.Contains(t, out.String(), "SEO ANALYSIS")
		assert.Contains(t, out.String(), "Main keyword: agent")
		assert.Contains(t, out.String(), "Links: 1 internal, 0 external")
	})
}

func TestAnalyzeCommand_MissingFile(t *testing.T) {
	setVar(t, &analyzeInput, filepath.Join(t.TempDir(), "missing.md"))
	cmd, _ := newTestCmd()
	assert.Error(t, runAnalyze(cmd, nil))
}
