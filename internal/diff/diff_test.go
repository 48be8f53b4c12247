package diff

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/litmus/internal/models"
)

func TestClassify_Table(t *testing.T) {
	for _, l := range models.Statuses {
		for _, r := range models.Statuses {
			want := Unchanged
			if l == models.StatusPass && r == models.StatusFail {
				want = Regression
			}
			if l == models.StatusFail && r == models.StatusPass {
				want = Fix
			}
			assert.Equal(t, want, Classify(l, r), "%s -> %s", l, r)
		}
	}
}

func result(testID int64, name string, s models.Status) models.TestResult {
	return models.TestResult{TestID: testID, Status: s, Test: models.Test{ID: testID, Name: name}, CategoryName: "C"}
}

func TestCompare(t *testing.T) {
	left := []models.TestResult{
		result(1, "t1", models.StatusPass),
		result(2, "t2", models.StatusFail),
		result(3, "t3", models.StatusPass),
		result(4, "t4", models.StatusBlocked),
		result(5, "gone", models.StatusPass),
	}
	right := []models.TestResult{
		result(1, "t1", models.StatusFail),
		result(2, "t2", models.StatusPass),
		result(3, "t3", models.StatusPass),
		result(4, "t4", models.StatusFail),
		result(6, "new", models.StatusFail),
	}

	regressions, fixes, unchanged := Compare(left, right)
	require.Len(t, regressions, 1)
	assert.Equal(t, int64(1), regressions[0].TestID)
	require.Len(t, fixes, 1)
	assert.Equal(t, int64(2), fixes[0].TestID)
	require.Len(t, unchanged, 2)
	assert.Equal(t, []string{"t3", "t4"}, []string{unchanged[0].TestName, unchanged[1].TestName})
	assert.Equal(t, models.StatusBlocked, unchanged[1].Left)

	for _, bucket := range [][]Item{regressions, fixes, unchanged} {
		for _, it := range bucket {
			assert.NotEqual(t, int64(6), it.TestID, "tests missing on the left never appear")
		}
	}
}

func TestTally(t *testing.T) {
	c := Tally([]models.TestResult{
		result(1, "a", models.StatusPass),
		result(2, "b", models.StatusPass),
		result(3, "c", models.StatusFail),
		result(4, "d", models.StatusBlocked),
	})
	assert.Equal(t, 2, c.Passed)
	assert.Equal(t, 1, c.Failed)
	assert.Equal(t, 1, c.Blocked)
	assert.Equal(t, 4, c.Total())
	assert.InDelta(t, 50.0, c.PassRate(), 0.001)
	assert.Equal(t, 0.0, Tally(nil).PassRate())
}

type fakeStore struct {
	runs    map[int64]models.TestRun
	results map[int64][]models.TestResult
}

func (f fakeStore) GetRun(_ context.Context, id int64) (*models.TestRun, error) {
	r, ok := f.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %d missing", id)
	}
	return &r, nil
}

func (f fakeStore) ListResults(_ context.Context, runID int64) ([]models.TestResult, error) {
	return f.results[runID], nil
}

func TestEngine_CompareRuns(t *testing.T) {
	store := fakeStore{
		runs: map[int64]models.TestRun{
			1: {ID: 1, Version: models.Version{Major: 1}},
			2: {ID: 2, Version: models.Version{Major: 1, Patch: 1}},
		},
		results: map[int64][]models.TestResult{
			1: {result(10, "a", models.StatusPass)},
			2: {result(10, "a", models.StatusFail), result(11, "b", models.StatusPass)},
		},
	}
	e := NewEngine(store)

	_, err := e.CompareRuns(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrSameRun)

	res, err := e.CompareRuns(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", res.Left.Run.BuildVersion())
	assert.Equal(t, 1, res.Left.Counts.Total())
	assert.Equal(t, 2, res.Right.Counts.Total())
	assert.Len(t, res.Regressions, 1)
	assert.Empty(t, res.Fixes)
	assert.Empty(t, res.Unchanged)

	_, err = e.CompareRuns(context.Background(), 1, 99)
	assert.Error(t, err)
}

func TestBaseline(t *testing.T) {
	runs := []models.TestRun{{ID: 9}, {ID: 7}, {ID: 3}}
	assert.Equal(t, int64(7), Baseline(runs, 9))
	assert.Equal(t, int64(3), Baseline(runs, 7))
	assert.Equal(t, int64(0), Baseline(runs, 3))
	assert.Equal(t, int64(0), Baseline(runs, 42))
}
