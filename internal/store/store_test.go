package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate())
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)

	started := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.InsertRun(&Run{
		ID:         "run-1",
		StartedAt:  started,
		LeftLabel:  "geth",
		RightLabel: "reth",
	}))

	run, err := s.RunByID("run-1")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "geth", run.LeftLabel)
	assert.Equal(t, "reth", run.RightLabel)
	assert.Nil(t, run.FinishedAt)
	assert.Equal(t, 0, run.Passed)

	require.NoError(t, s.FinishRun("run-1", 15, 2))

	run, err = s.RunByID("run-1")
	require.NoError(t, err)
	assert.Equal(t, 15, run.Passed)
	assert.Equal(t, 2, run.Failed)
	assert.NotNil(t, run.FinishedAt)
}

func TestRunByID_NotFound(t *testing.T) {
	s := newTestStore(t)
	run, err := s.RunByID("missing")
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestFinishRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.FinishRun("missing", 1, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRecentRuns(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, s.InsertRun(&Run{
			ID:         id,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			LeftLabel:  "geth",
			RightLabel: "reth",
		}))
	}

	runs, err := s.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].ID, "newest first")
	assert.Equal(t, "run-b", runs[1].ID)
}

func TestComparisons(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertRun(&Run{
		ID: "run-1", StartedAt: time.Now(), LeftLabel: "geth", RightLabel: "reth",
	}))

	id1, err := s.InsertComparison(&Comparison{
		RunID:      "run-1",
		Scenario:   "SimpleTransfer",
		TxHash:     "0xabc",
		IsMatch:    true,
		DurationMS: 12,
	})
	require.NoError(t, err)
	assert.NotZero(t, id1)

	id2, err := s.InsertComparison(&Comparison{
		RunID:     "run-1",
		Scenario:  "HelperRevert",
		TxHash:    "0xdef",
		DiffCount: 3,
		Error:     "fetch failed",
	})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	cmps, err := s.ComparisonsByRun("run-1")
	require.NoError(t, err)
	require.Len(t, cmps, 2)

	assert.Equal(t, "SimpleTransfer", cmps[0].Scenario)
	assert.True(t, cmps[0].IsMatch)
	assert.Empty(t, cmps[0].Error)

	assert.Equal(t, "HelperRevert", cmps[1].Scenario)
	assert.False(t, cmps[1].IsMatch)
	assert.Equal(t, 3, cmps[1].DiffCount)
	assert.Equal(t, "fetch failed", cmps[1].Error)
}

func TestComparisonsByRun_Empty(t *testing.T) {
	s := newTestStore(t)
	cmps, err := s.ComparisonsByRun("nothing")
	require.NoError(t, err)
	assert.Empty(t, cmps)
}

func TestDiffs(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertRun(&Run{
		ID: "run-1", StartedAt: time.Now(), LeftLabel: "geth", RightLabel: "reth",
	}))
	cmpID, err := s.InsertComparison(&Comparison{RunID: "run-1", Scenario: "ContractCall"})
	require.NoError(t, err)

	require.NoError(t, s.InsertDiff(&DiffRow{
		ComparisonID: cmpID,
		Ordinal:      0,
		Path:         "root.gasUsed",
		Kind:         "value_mismatch",
		LeftJSON:     `"0x5208"`,
		RightJSON:    `"0x5209"`,
	}))
	require.NoError(t, s.InsertDiff(&DiffRow{
		ComparisonID: cmpID,
		Ordinal:      1,
		Path:         "root.error",
		Kind:         "missing_in_right",
		LeftJSON:     `"execution reverted"`,
	}))

	diffs, err := s.DiffsByComparison(cmpID)
	require.NoError(t, err)
	require.Len(t, diffs, 2)

	assert.Equal(t, "root.gasUsed", diffs[0].Path)
	assert.Equal(t, `"0x5209"`, diffs[0].RightJSON)
	assert.Equal(t, "root.error", diffs[1].Path)
	assert.Empty(t, diffs[1].RightJSON)
}
