package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nikshitha/signup-harness/logger"
	"github.com/nikshitha/signup-harness/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)

	db, err := NewDatabase(filepath.Join(t.TempDir(), "nested", "harness.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.StartRun("https://example.test")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	run, err := db.GetRun(runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "https://example.test", run.Target)
	assert.Nil(t, run.FinishedAt)

	results := []result.ScenarioResult{
		result.Success("navigation:home", "https://example.test/"),
		result.Success("legal:privacy", "page loaded").WithWarnings(`keyword "privacy" not found on /privacy-policy`),
		result.Failure("contact", "field contactName: target unavailable"),
		result.Indeterminate("registration", "no submission signal before timeout within 10s"),
	}
	for _, r := range results {
		require.NoError(t, db.SaveResult(runID, r))
	}

	counts, err := db.GetStatusCounts(runID)
	require.NoError(t, err)
	assert.Equal(t, result.Tally(results), counts)

	require.NoError(t, db.FinishRun(runID, counts))

	run, err = db.GetRun(runID)
	require.NoError(t, err)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, 2, run.Success)
	assert.Equal(t, 1, run.Failure)
	assert.Equal(t, 1, run.Indeterminate)

	stored, err := db.GetRunResults(runID)
	require.NoError(t, err)
	require.Len(t, stored, len(results))
	for i, r := range stored {
		assert.Equal(t, results[i].Scenario, r.Scenario)
		assert.Equal(t, results[i].Status, r.Status)
		assert.Equal(t, results[i].Message, r.Message)
		assert.Equal(t, results[i].Warnings, r.Warnings)
		assert.WithinDuration(t, results[i].Time, r.Time, time.Millisecond)
	}
}

func TestGetRunUnknown(t *testing.T) {
	db := openTestDB(t)

	run, err := db.GetRun("missing")
	require.NoError(t, err)
	assert.Nil(t, run)

	assert.Error(t, db.FinishRun("missing", map[string]int{}))
}

func TestDailyStatsAccumulate(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 2; i++ {
		runID, err := db.StartRun("https://example.test")
		require.NoError(t, err)
		require.NoError(t, db.FinishRun(runID, map[string]int{"success": 3, "failure": 1}))
	}

	stats, err := db.GetTodayStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Runs)
	assert.Equal(t, 6, stats.Success)
	assert.Equal(t, 2, stats.Failure)
	assert.Zero(t, stats.Indeterminate)
}

func TestGetRecentRuns(t *testing.T) {
	db := openTestDB(t)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := db.StartRun("https://example.test")
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := db.GetRecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}
