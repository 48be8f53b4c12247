package rungen

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/litmus/internal/db"
	"github.com/tgienger/litmus/internal/models"
)

func tests(ids ...int64) []models.Test {
	out := make([]models.Test, len(ids))
	for i, id := range ids {
		out[i] = models.Test{ID: id}
	}
	return out
}

func TestBuild(t *testing.T) {
	source := map[int64]models.TestResult{
		1: {TestID: 1, Status: models.StatusPass, Notes: "ok"},
		2: {TestID: 2, Status: models.StatusFail, Notes: "boom"},
		3: {TestID: 3, Status: models.StatusBlocked, Notes: "env"},
	}
	selected := tests(1, 2, 3, 4)

	t.Run("full includes every test as not run", func(t *testing.T) {
		entries := Build(selected, ModeFull, source)
		require.Len(t, entries, 4)
		for _, e := range entries {
			assert.Equal(t, models.StatusNotRun, e.Status)
			assert.Empty(t, e.Notes)
		}
	})

	t.Run("copy previous keeps status and notes", func(t *testing.T) {
		entries := Build(selected, ModeCopyPrevious, source)
		require.Len(t, entries, 4)
		got := map[int64]Entry{}
		for _, e := range entries {
			got[e.Test.ID] = e
		}
		assert.Equal(t, models.StatusPass, got[1].Status)
		assert.Equal(t, "ok", got[1].Notes)
		assert.Equal(t, models.StatusFail, got[2].Status)
		assert.Equal(t, models.StatusBlocked, got[3].Status)
		assert.Equal(t, models.StatusNotRun, got[4].Status)
		assert.Empty(t, got[4].Notes)
	})

	t.Run("retest failed keeps only failures reset to not run", func(t *testing.T) {
		entries := Build(selected, ModeRetestFailed, source)
		require.Len(t, entries, 1)
		assert.Equal(t, int64(2), entries[0].Test.ID)
		assert.Equal(t, models.StatusNotRun, entries[0].Status)
		assert.Empty(t, entries[0].Notes)
	})

	t.Run("empty selection", func(t *testing.T) {
		assert.Empty(t, Build(nil, ModeFull, nil))
	})
}

func TestParseModeAndAutomation(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeFull, "full": ModeFull, "Copy": ModeCopyPrevious, "retest-failed": ModeRetestFailed} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("partial")
	assert.Error(t, err)

	a, err := ParseAutomation("manual")
	require.NoError(t, err)
	require.NotNil(t, a.Flag())
	assert.False(t, *a.Flag())
	assert.Nil(t, AutomationAll.Flag())
	assert.True(t, *AutomationOnly.Flag())
}

func TestSuggestVersion(t *testing.T) {
	assert.Equal(t, models.DefaultVersion, SuggestVersion(nil))
	runs := []models.TestRun{{Version: models.Version{Major: 2, Minor: 3, Patch: 4}}, {Version: models.Version{Major: 1}}}
	assert.Equal(t, models.Version{Major: 2, Minor: 3, Patch: 5}, SuggestVersion(runs))
}

type env struct {
	db    *db.DB
	gen   *Generator
	proj  *models.Project
	cats  map[string]models.Category
	tests map[string]models.Test
}

func setup(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	store, err := db.Open(ctx, filepath.Join(t.TempDir(), "litmus.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	e := env{db: store, gen: New(store, zerolog.New(zerolog.NewTestWriter(t))),
		cats: map[string]models.Category{}, tests: map[string]models.Test{}}
	e.proj, err = store.CreateProject(ctx, "P", "")
	require.NoError(t, err)

	for _, def := range []struct {
		cat, name string
		auto      bool
	}{{"UI", "login", false}, {"UI", "logout", true}, {"API", "health", true}} {
		c, ok := e.cats[def.cat]
		if !ok {
			created, err := store.CreateCategory(ctx, e.proj.ID, def.cat)
			require.NoError(t, err)
			c = *created
			e.cats[def.cat] = c
		}
		tt, err := store.CreateTest(ctx, models.Test{CategoryID: c.ID, Name: def.name, Automated: def.auto})
		require.NoError(t, err)
		e.tests[def.name] = *tt
	}
	return e
}

func TestGenerate_FullWithFilters(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	run, entries, err := e.gen.Generate(ctx, Request{
		ProjectID:   e.proj.ID,
		CategoryIDs: []int64{e.cats["UI"].ID},
		Automation:  AutomationManual,
		Version:     models.Version{Major: 3, Minor: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "3.1.0", run.BuildVersion())
	require.Len(t, entries, 1)

	results, err := e.db.ListResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "login", results[0].Test.Name)
	assert.Equal(t, models.StatusNotRun, results[0].Status)
}

func TestGenerate_AllCategoriesByDefault(t *testing.T) {
	e := setup(t)
	run, _, err := e.gen.Generate(context.Background(), Request{ProjectID: e.proj.ID, Version: models.DefaultVersion})
	require.NoError(t, err)

	results, err := e.db.ListResults(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestGenerate_ForeignCategoriesIgnored(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	other, err := e.db.CreateProject(ctx, "Other", "")
	require.NoError(t, err)
	foreign, err := e.db.CreateCategory(ctx, other.ID, "X")
	require.NoError(t, err)
	_, err = e.db.CreateTest(ctx, models.Test{CategoryID: foreign.ID, Name: "leak"})
	require.NoError(t, err)

	plan, err := e.gen.Plan(ctx, Request{ProjectID: e.proj.ID, CategoryIDs: []int64{foreign.ID}})
	require.NoError(t, err)
	assert.Empty(t, plan.Entries)
}

func TestGenerate_SeededModes(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	source, _, err := e.gen.Generate(ctx, Request{ProjectID: e.proj.ID, Version: models.DefaultVersion})
	require.NoError(t, err)
	results, err := e.db.ListResults(ctx, source.ID)
	require.NoError(t, err)
	for _, r := range results {
		status := models.StatusPass
		if r.Test.Name == "health" {
			status = models.StatusFail
		}
		require.NoError(t, e.db.UpdateResult(ctx, r.ID, status, "note "+r.Test.Name, nil))
	}

	t.Run("retest failed", func(t *testing.T) {
		run, _, err := e.gen.Generate(ctx, Request{ProjectID: e.proj.ID, Mode: ModeRetestFailed, SourceRunID: source.ID, Version: models.DefaultVersion})
		require.NoError(t, err)
		got, err := e.db.ListResults(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "health", got[0].Test.Name)
		assert.Equal(t, models.StatusNotRun, got[0].Status)
	})

	t.Run("copy previous", func(t *testing.T) {
		run, _, err := e.gen.Generate(ctx, Request{ProjectID: e.proj.ID, Mode: ModeCopyPrevious, SourceRunID: source.ID, Version: models.DefaultVersion})
		require.NoError(t, err)
		got, err := e.db.ResultsByTest(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, models.StatusFail, got[e.tests["health"].ID].Status)
		assert.Equal(t, "note login", got[e.tests["login"].ID].Notes)
	})

	t.Run("plan summary", func(t *testing.T) {
		plan, err := e.gen.Plan(ctx, Request{ProjectID: e.proj.ID, Mode: ModeRetestFailed, SourceRunID: source.ID})
		require.NoError(t, err)
		assert.Equal(t, 3, plan.Selected)
		assert.Equal(t, "Will create 1 test results for tests that failed in build 1.0.0.", plan.Summary)
	})
}

func TestGenerate_SourceValidation(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, _, err := e.gen.Generate(ctx, Request{ProjectID: e.proj.ID, Mode: ModeCopyPrevious})
	assert.ErrorIs(t, err, ErrSourceRunRequired)

	other, err := e.db.CreateProject(ctx, "Other", "")
	require.NoError(t, err)
	foreignRun, err := e.db.CreateRun(ctx, other.ID, models.DefaultVersion, "")
	require.NoError(t, err)
	_, _, err = e.gen.Generate(ctx, Request{ProjectID: e.proj.ID, Mode: ModeRetestFailed, SourceRunID: foreignRun.ID})
	assert.ErrorIs(t, err, ErrSourceRunProject)

	runs, err := e.db.ListRuns(ctx, e.proj.ID)
	require.NoError(t, err)
	assert.Empty(t, runs, "validation happens before the run is created")
}
