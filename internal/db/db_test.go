package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/litmus/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "litmus.db")
	db, err := Open(context.Background(), dbPath, zerolog.New(zerolog.NewTestWriter(t)))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// strictly increasing timestamps so newest-first ordering is deterministic
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	db.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	return db
}

// seedProject builds a project with one category per name, each holding the given tests
func seedProject(t *testing.T, db *DB, name string, categories map[string][]string) (*models.Project, map[string]models.Test) {
	t.Helper()
	ctx := context.Background()
	p, err := db.CreateProject(ctx, name, "")
	require.NoError(t, err)

	tests := make(map[string]models.Test)
	for catName, testNames := range categories {
		c, err := db.CreateCategory(ctx, p.ID, catName)
		require.NoError(t, err)
		for _, tn := range testNames {
			tt, err := db.CreateTest(ctx, models.Test{CategoryID: c.ID, Name: tn, Priority: models.PriorityMedium})
			require.NoError(t, err)
			tests[tn] = *tt
		}
	}
	return p, tests
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open(context.Background(), ":memory:", zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	exists, err := db.tableExists(context.Background(), "projects")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "litmus.db")
	db, err := Open(context.Background(), dbPath, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
	assert.Equal(t, dbPath, db.Path())
}

func TestSettings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	v, err := db.GetSetting(ctx, "last_project_id")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, db.SetSetting(ctx, "last_project_id", "7"))
	require.NoError(t, db.SetSetting(ctx, "last_project_id", "9"))

	v, err = db.GetSetting(ctx, "last_project_id")
	require.NoError(t, err)
	assert.Equal(t, "9", v)
}

func TestProjects_CRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p, err := db.CreateProject(ctx, "  Alpha  ", "first")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", p.Name)
	assert.False(t, p.Archived)

	_, err = db.CreateProject(ctx, "Beta", "")
	require.NoError(t, err)

	found, err := db.GetProjectByName(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	require.NoError(t, db.UpdateProject(ctx, p.ID, "Alpha 2", "changed"))
	require.NoError(t, db.SetProjectArchived(ctx, p.ID, true))

	active, err := db.ListProjects(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Beta", active[0].Name)

	all, err := db.ListProjects(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	count, err := db.ProjectCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = db.GetProject(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjects_Overviews(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p, _ := seedProject(t, db, "Alpha", map[string][]string{
		"UI":  {"login", "logout"},
		"API": {"health"},
	})
	_, err := db.CreateRun(ctx, p.ID, models.DefaultVersion, "")
	require.NoError(t, err)
	empty, err := db.CreateProject(ctx, "Empty", "")
	require.NoError(t, err)
	require.NoError(t, db.SetProjectArchived(ctx, empty.ID, true))

	active, err := db.ListProjectOverviews(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Alpha", active[0].Project.Name)
	assert.Equal(t, 2, active[0].Categories)
	assert.Equal(t, 3, active[0].Tests)
	assert.Equal(t, 1, active[0].Runs)

	all, err := db.ListProjectOverviews(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Empty", all[0].Project.Name)
	assert.True(t, all[0].Project.Archived)
	assert.Zero(t, all[0].Tests)
}

func TestProjects_Validation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		pname   string
		desc    string
		wantErr error
	}{
		{"blank name", "   ", "", ErrNameRequired},
		{"long name", string(make([]rune, models.MaxProjectName+1)), "", ErrTooLong},
		{"long description", "ok", string(make([]rune, models.MaxProjectDescription+1)), ErrTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.CreateProject(ctx, tt.pname, tt.desc)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	projects, err := db.ListProjects(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, projects, "no partial writes")
}

func TestCategories_SortOrderAndCounts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p, err := db.CreateProject(ctx, "P", "")
	require.NoError(t, err)

	c1, err := db.CreateCategory(ctx, p.ID, "Zeta")
	require.NoError(t, err)
	c2, err := db.CreateCategory(ctx, p.ID, "Alpha")
	require.NoError(t, err)
	assert.Equal(t, 1, c1.SortOrder)
	assert.Equal(t, 2, c2.SortOrder)

	_, err = db.CreateTest(ctx, models.Test{CategoryID: c2.ID, Name: "t"})
	require.NoError(t, err)

	cats, err := db.ListCategories(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Zeta", cats[0].Name)
	assert.Equal(t, 0, cats[0].TestCount)
	assert.Equal(t, 1, cats[1].TestCount)

	got, err := db.GetCategoryByName(ctx, p.ID, "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, c2.ID, got.ID)

	require.NoError(t, db.RenameCategory(ctx, c2.ID, "Beta"))
	got, err = db.GetCategory(ctx, c2.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beta", got.Name)
}

func TestTests_CreateUpdateSearch(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p, tests := seedProject(t, db, "Shop", map[string][]string{"Checkout": {"Pay by card", "Pay by cash"}})
	card := tests["Pay by card"]
	assert.Equal(t, 1, card.SortOrder)
	assert.Equal(t, 2, tests["Pay by cash"].SortOrder)

	card.Command = "curl /PAY?x_1"
	card.Automated = true
	card.Priority = models.PriorityCritical
	require.NoError(t, db.UpdateTest(ctx, card))

	reloaded, err := db.GetTest(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Automated)
	assert.Equal(t, models.PriorityCritical, reloaded.Priority)

	hits, err := db.SearchTests(ctx, "pay?X_")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Pay by card", hits[0].Test.Name)
	assert.Equal(t, "Shop", hits[0].ProjectName)
	assert.Equal(t, "Checkout", hits[0].CategoryName)

	hits, err = db.SearchTests(ctx, "PAY BY")
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	require.NoError(t, db.SetProjectArchived(ctx, p.ID, true))
	hits, err = db.SearchTests(ctx, "pay")
	require.NoError(t, err)
	assert.Empty(t, hits)

	maxOrder, err := db.MaxProjectSortOrder(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, maxOrder)
}

func TestTests_ListInCategoriesWithAutomationFilter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p, err := db.CreateProject(ctx, "P", "")
	require.NoError(t, err)
	c, err := db.CreateCategory(ctx, p.ID, "C")
	require.NoError(t, err)
	_, err = db.CreateTest(ctx, models.Test{CategoryID: c.ID, Name: "manual"})
	require.NoError(t, err)
	_, err = db.CreateTest(ctx, models.Test{CategoryID: c.ID, Name: "auto", Automated: true})
	require.NoError(t, err)

	yes, no := true, false
	all, err := db.ListTestsInCategories(ctx, []int64{c.ID}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	auto, err := db.ListTestsInCategories(ctx, []int64{c.ID}, &yes)
	require.NoError(t, err)
	require.Len(t, auto, 1)
	assert.Equal(t, "auto", auto[0].Name)

	manual, err := db.ListTestsInCategories(ctx, []int64{c.ID}, &no)
	require.NoError(t, err)
	require.Len(t, manual, 1)
	assert.Equal(t, "manual", manual[0].Name)

	none, err := db.ListTestsInCategories(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTests_Move(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p, tests := seedProject(t, db, "Shop", map[string][]string{"Checkout": {"Pay"}, "Cart": {"Add", "Remove"}})
	cart, err := db.GetCategoryByName(ctx, p.ID, "Cart")
	require.NoError(t, err)

	require.NoError(t, db.MoveTest(ctx, tests["Pay"].ID, cart.ID))
	moved, err := db.GetTest(ctx, tests["Pay"].ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, moved.CategoryID)
	assert.Equal(t, 3, moved.SortOrder, "appended after the category's tests")

	other, _ := seedProject(t, db, "Other", map[string][]string{"Misc": nil})
	misc, err := db.GetCategoryByName(ctx, other.ID, "Misc")
	require.NoError(t, err)
	err = db.MoveTest(ctx, tests["Add"].ID, misc.ID)
	require.ErrorIs(t, err, ErrNotFound, "categories of another project are refused")

	err = db.MoveTest(ctx, 9999, cart.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResults_PriorAndLatest(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p, tests := seedProject(t, db, "P", map[string][]string{"C": {"T1"}})
	t1 := tests["T1"]

	run1, err := db.CreateRun(ctx, p.ID, models.Version{Major: 1}, "")
	require.NoError(t, err)
	run2, err := db.CreateRun(ctx, p.ID, models.Version{Major: 1, Minor: 1}, "")
	require.NoError(t, err)
	run3, err := db.CreateRun(ctx, p.ID, models.Version{Major: 1, Minor: 2}, "")
	require.NoError(t, err)

	for _, r := range []struct {
		run    int64
		status models.Status
	}{{run1.ID, models.StatusFail}, {run2.ID, models.StatusPass}, {run3.ID, models.StatusNotRun}} {
		require.NoError(t, db.AddResults(ctx, []models.TestResult{{RunID: r.run, TestID: t1.ID, Status: r.status}}))
	}

	prior, err := db.PriorResult(ctx, t1.ID, run3.ID)
	require.NoError(t, err)
	require.NotNil(t, prior)
	assert.Equal(t, models.StatusPass, prior.Status)
	assert.Equal(t, "1.1.0", prior.BuildVersion)

	prior, err = db.PriorResult(ctx, t1.ID, run2.ID)
	require.NoError(t, err)
	assert.Equal(t, run3.ID, prior.RunID)

	latest, err := db.LatestResults(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, models.StatusNotRun, latest[0].Status)
	assert.Equal(t, run3.CreatedAt.UTC(), latest[0].LastRunDate().UTC())

	other, tests2 := seedProject(t, db, "Q", map[string][]string{"C": {"Solo"}})
	solo := tests2["Solo"]
	runQ, err := db.CreateRun(ctx, other.ID, models.DefaultVersion, "")
	require.NoError(t, err)
	require.NoError(t, db.AddResults(ctx, []models.TestResult{{RunID: runQ.ID, TestID: solo.ID}}))
	prior, err = db.PriorResult(ctx, solo.ID, runQ.ID)
	require.NoError(t, err)
	assert.Nil(t, prior)
}

func TestResults_WithStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p, tests := seedProject(t, db, "P", map[string][]string{"C": {"A", "B", "C"}})
	run, err := db.CreateRun(ctx, p.ID, models.DefaultVersion, "")
	require.NoError(t, err)
	require.NoError(t, db.AddResults(ctx, []models.TestResult{
		{RunID: run.ID, TestID: tests["A"].ID, Status: models.StatusFail},
		{RunID: run.ID, TestID: tests["B"].ID, Status: models.StatusPass},
		{RunID: run.ID, TestID: tests["C"].ID, Status: models.StatusFail},
	}))

	failed, err := db.ListResultsWithStatus(ctx, run.ID, models.StatusFail)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, "A", failed[0].Test.Name)
	assert.Equal(t, "C", failed[1].Test.Name)
	assert.Equal(t, "C", failed[1].CategoryName)

	blocked, err := db.ListResultsWithStatus(ctx, run.ID, models.StatusBlocked)
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestResults_UniquePerRunAndTest(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p, tests := seedProject(t, db, "P", map[string][]string{"C": {"T1"}})
	run, err := db.CreateRun(ctx, p.ID, models.DefaultVersion, "")
	require.NoError(t, err)

	dup := []models.TestResult{
		{RunID: run.ID, TestID: tests["T1"].ID},
		{RunID: run.ID, TestID: tests["T1"].ID},
	}
	require.Error(t, db.AddResults(ctx, dup))

	results, err := db.ListResults(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, results, "batch insert rolls back as a whole")
}

func TestRunSummaries_Filters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p, tests := seedProject(t, db, "P", map[string][]string{"C": {"A", "B"}})
	mk := func(a, b models.Status) *models.TestRun {
		run, err := db.CreateRun(ctx, p.ID, models.DefaultVersion, "")
		require.NoError(t, err)
		require.NoError(t, db.AddResults(ctx, []models.TestResult{
			{RunID: run.ID, TestID: tests["A"].ID, Status: a},
			{RunID: run.ID, TestID: tests["B"].ID, Status: b},
		}))
		return run
	}
	failing := mk(models.StatusPass, models.StatusFail)
	passing := mk(models.StatusPass, models.StatusPass)
	progress := mk(models.StatusPass, models.StatusNotRun)

	tests2 := []struct {
		filter models.RunFilter
		want   []int64
	}{
		{models.RunFilterAll, []int64{progress.ID, passing.ID, failing.ID}},
		{models.RunFilterHasFailures, []int64{failing.ID}},
		{models.RunFilterAllPassed, []int64{passing.ID}},
		{models.RunFilterInProgress, []int64{progress.ID}},
	}
	for _, tt := range tests2 {
		t.Run(tt.filter.String(), func(t *testing.T) {
			summaries, err := db.ListRunSummaries(ctx, p.ID, tt.filter)
			require.NoError(t, err)
			var ids []int64
			for _, s := range summaries {
				ids = append(ids, s.Run.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	summaries, err := db.ListRunSummaries(ctx, 0, models.RunFilterAll)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "P", summaries[0].ProjectName)
	assert.Equal(t, 50.0, summaries[0].Counts.CompletionPercent())
}

func TestFailureTemplates_Seeded(t *testing.T) {
	db := setupTestDB(t)

	templates, err := db.ListFailureTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 8)
	assert.Equal(t, "Timeout", templates[0].Name)
	assert.Equal(t, "Operation timed out", templates[0].Description)
	assert.Equal(t, "Memory Error", templates[7].Name)
}
