package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/litmus/internal/db"
	"github.com/tgienger/litmus/internal/models"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	db      *db.DB
	project *models.Project
	tests   []models.Test
	runs    []*models.TestRun
}

// setup creates one project with three tests and two runs:
// run 1: pass, fail, pass; run 2: pass, pass, fail (notes on the failure)
func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "litmus.db"), zerolog.New(zerolog.NewTestWriter(t)))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	tick := 0
	database.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	f := &fixture{db: database}
	f.project, err = database.CreateProject(ctx, "Shop", "")
	require.NoError(t, err)
	c, err := database.CreateCategory(ctx, f.project.ID, "Checkout")
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c"} {
		tt, err := database.CreateTest(ctx, models.Test{CategoryID: c.ID, Name: name})
		require.NoError(t, err)
		f.tests = append(f.tests, *tt)
	}

	statuses := [][]models.Status{
		{models.StatusPass, models.StatusFail, models.StatusPass},
		{models.StatusPass, models.StatusPass, models.StatusFail},
	}
	for i, row := range statuses {
		run, err := database.CreateRun(ctx, f.project.ID, models.Version{Major: 1, Patch: i}, "")
		require.NoError(t, err)
		f.runs = append(f.runs, run)
		var results []models.TestResult
		for j, s := range row {
			notes := ""
			if s == models.StatusFail {
				notes = "**broken** <script>x</script>"
			}
			results = append(results, models.TestResult{RunID: run.ID, TestID: f.tests[j].ID, Status: s, Notes: notes})
		}
		require.NoError(t, database.AddResults(ctx, results))
	}
	return f
}

func newBuilder(f *fixture) *Builder {
	b := NewBuilder(f.db)
	b.now = func() time.Time { return base.AddDate(0, 0, 10) }
	return b
}

func TestDashboard(t *testing.T) {
	f := setup(t)
	d, err := newBuilder(f).Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, d.ActiveProjects)
	assert.Equal(t, 3, d.TotalTests)
	assert.Equal(t, 2, d.RecentRuns)
	assert.InDelta(t, 66.67, d.PassRate, 0.01, "latest results are pass, pass, fail")
	require.Len(t, d.LatestProjects, 1)
	require.Len(t, d.LatestRuns, 2)
	assert.Equal(t, f.runs[1].ID, d.LatestRuns[0].Run.ID)
}

func TestDashboard_OldRunsExcluded(t *testing.T) {
	f := setup(t)
	b := NewBuilder(f.db)
	b.now = func() time.Time { return base.AddDate(0, 2, 0) }
	d, err := b.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, d.RecentRuns)
}

func TestProjectReport(t *testing.T) {
	f := setup(t)
	r, err := newBuilder(f).Project(context.Background(), f.project.ID)
	require.NoError(t, err)

	assert.Equal(t, "Shop", r.Title())
	assert.Equal(t, 2, r.Counts.Passed)
	assert.Equal(t, 1, r.Counts.Failed)

	require.Len(t, r.Trend, 2)
	assert.Equal(t, "1.0.0", r.Trend[0].Label, "oldest first")
	assert.Equal(t, "1.0.1", r.Trend[1].Label)

	require.Len(t, r.Failing, 1)
	assert.Equal(t, "c", r.Failing[0].TestName)

	all, err := newBuilder(f).Project(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "All Projects", all.Title())
	assert.Equal(t, r.Counts, all.Counts)
}

func TestTrend_KeepsLastTen(t *testing.T) {
	var runs []models.RunSummary
	for i := 12; i >= 1; i-- {
		runs = append(runs, models.RunSummary{Run: models.TestRun{ID: int64(i)}})
	}
	points := trend(runs)
	require.Len(t, points, 10)
	assert.Equal(t, int64(3), points[0].RunID)
	assert.Equal(t, int64(12), points[9].RunID)
}

func TestRunReport(t *testing.T) {
	f := setup(t)
	r, err := newBuilder(f).Run(context.Background(), f.runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Shop", r.ProjectName)
	assert.Len(t, r.Results, 3)
	require.Len(t, r.Failed, 1)
	assert.Equal(t, "b", r.Failed[0].Test.Name)
}

func TestWriters(t *testing.T) {
	f := setup(t)
	b := newBuilder(f)
	ctx := context.Background()

	d, err := b.Dashboard(ctx)
	require.NoError(t, err)
	var buf bytes.Buffer
	WriteDashboard(&buf, d)
	assert.Contains(t, buf.String(), "Dashboard")
	assert.Contains(t, buf.String(), "Shop")
	assert.Contains(t, buf.String(), "67%")

	p, err := b.Project(ctx, f.project.ID)
	require.NoError(t, err)
	buf.Reset()
	WriteProject(&buf, p)
	assert.Contains(t, buf.String(), "Failing Tests (1)")

	run, err := b.Run(ctx, f.runs[1].ID)
	require.NoError(t, err)
	buf.Reset()
	WriteRun(&buf, run)
	assert.Contains(t, buf.String(), "Failed Tests (1)")

	buf.Reset()
	require.NoError(t, WriteRunHTML(&buf, run))
	html := buf.String()
	assert.Contains(t, html, "<strong>broken</strong>")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `class="fail"`)

	buf.Reset()
	require.NoError(t, WriteProjectHTML(&buf, p))
	assert.Contains(t, buf.String(), "Failing Tests (1)")
	assert.Contains(t, buf.String(), "Report: Shop")
}
