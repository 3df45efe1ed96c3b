//go:build integration
// +build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/blog-autopilot/internal/types"
)

func setupTestDB(t *testing.T) *DB {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestRunLifecycle_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	runID, err := db.CreateRun(ctx, "agent vocal cabinet médical")
	require.NoError(t, err)
	defer func() { _ = db.DeleteRun(ctx, runID) }()

	require.NoError(t, db.SaveScore(ctx, runID, 0, types.ScoreReport{GlobalScore: types.IntPtr(60), ReportText: "baseline"}))
	require.NoError(t, db.SaveScore(ctx, runID, 1, types.ScoreReport{
		GlobalScore:     types.IntPtr(75),
		DimensionScores: map[types.Dimension]int{types.DimensionSEO: 24},
	}))
	require.NoError(t, db.SaveScore(ctx, runID, 2, types.ScoreReport{ReportText: "degraded"}))

	scores, err := db.ListScores(ctx, runID)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, 60, *scores[0].GlobalScore)
	assert.Equal(t, 24, scores[1].DimensionScores[types.DimensionSEO])
	assert.Nil(t, scores[2].GlobalScore)

	meta := types.ArticleMetadata{Title: "Titre", Slug: "titre"}
	require.NoError(t, db.SaveArtifact(ctx, runID, StepMetadataFR, CategoryContent, meta))
	var loaded types.ArticleMetadata
	found, err := db.LoadArtifact(ctx, runID, StepMetadataFR, &loaded)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "titre", loaded.Slug)

	found, err = db.LoadArtifact(ctx, runID, StepMetadataEN, &loaded)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, db.SaveTextArtifact(ctx, runID, StepDraft, CategoryContent, "## draft"))
	text, err := db.GetTextArtifact(ctx, runID, StepDraft)
	require.NoError(t, err)
	assert.Equal(t, "## draft", text)

	artifacts, err := db.ListArtifacts(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, artifacts, 2)

	require.NoError(t, db.RecordStep(ctx, runID, "search", StepStatusInProgress, ""))
	require.NoError(t, db.RecordStep(ctx, runID, "search", StepStatusCompleted, "3 sources"))
	steps, err := db.ListRunSteps(ctx, runID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, StepStatusCompleted, steps[0].Status)
	assert.NotNil(t, steps[0].CompletedAt)

	require.NoError(t, db.CompleteRun(ctx, runID, RunOutcome{Title: "Titre", Slug: "titre", FinalScore: types.IntPtr(75)}))
	run, err := db.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.Equal(t, 75, *run.FinalScore)
	assert.NotNil(t, run.CompletedAt)

	runs, err := db.ListRuns(ctx, RunFilters{Topic: "agent vocal", Limit: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, runs)
}
