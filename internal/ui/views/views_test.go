package views

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/litmus/internal/attach"
	"github.com/tgienger/litmus/internal/db"
	"github.com/tgienger/litmus/internal/models"
	"github.com/tgienger/litmus/internal/rungen"
	"github.com/tgienger/litmus/internal/settings"
	"github.com/tgienger/litmus/internal/ui/nav"
)

func newTestEnv(t *testing.T) Env {
	t.Helper()
	dir := t.TempDir()
	store, err := db.Open(context.Background(), filepath.Join(dir, "litmus.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	store.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	return Env{
		DB:           store,
		Files:        attach.NewStore(filepath.Join(dir, "attachments")),
		Log:          zerolog.Nop(),
		SettingsPath: filepath.Join(dir, "settings.json"),
		RecentRuns:   10,
	}
}

// seed creates a project with one category holding the named tests
func seed(t *testing.T, env Env, tests ...string) (models.Project, models.Category) {
	t.Helper()
	ctx := context.Background()
	p, err := env.DB.CreateProject(ctx, "Alpha", "")
	require.NoError(t, err)
	c, err := env.DB.CreateCategory(ctx, p.ID, "Core")
	require.NoError(t, err)
	for _, name := range tests {
		_, err := env.DB.CreateTest(ctx, models.Test{CategoryID: c.ID, Name: name, Priority: models.PriorityMedium})
		require.NoError(t, err)
	}
	return *p, *c
}

// newRun creates a full run over every test of the project
func newRun(t *testing.T, env Env, projectID int64) *models.TestRun {
	t.Helper()
	run, _, err := rungen.New(env.DB, zerolog.Nop()).Generate(context.Background(), rungen.Request{
		ProjectID: projectID,
		Mode:      rungen.ModeFull,
		Version:   models.Version{Major: 1},
	})
	require.NoError(t, err)
	return run
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends each key in turn and returns the command of the last one
func press(m tea.Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(keyMsg(k))
	}
	return cmd
}

// run executes cmd and returns the messages it produced, flattening batches
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// deliver runs cmd and feeds the results back into m
func deliver(m tea.Model, cmd tea.Cmd) {
	for _, msg := range run(cmd) {
		m.Update(msg)
	}
}

// load runs the view's Init and delivers the result
func load(m tea.Model) {
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	deliver(m, m.Init())
}

func TestLicenseView_Accept(t *testing.T) {
	env := newTestEnv(t)
	accepted := time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC)

	v := NewLicenseView(env, func() tea.Model { return NewProjectListView(env) })
	v.now = func() time.Time { return accepted }

	msgs := run(press(v, "y"))
	require.Len(t, msgs, 1)
	replace, ok := msgs[0].(nav.ReplaceMsg)
	require.True(t, ok)
	assert.IsType(t, &ProjectListView{}, replace.Screen)

	s := settings.Load(env.SettingsPath)
	assert.True(t, s.LicenseAccepted)
	require.NotNil(t, s.LicenseAcceptedDate)
	assert.True(t, accepted.Equal(*s.LicenseAcceptedDate))
}

func TestLicenseView_DeclineQuits(t *testing.T) {
	env := newTestEnv(t)
	v := NewLicenseView(env, func() tea.Model { return nil })

	msgs := run(press(v, "n"))
	require.Len(t, msgs, 1)
	assert.IsType(t, tea.QuitMsg{}, msgs[0])
	assert.False(t, settings.Load(env.SettingsPath).LicenseAccepted)
}

func TestProjectListView_CreateOpensProject(t *testing.T) {
	env := newTestEnv(t)
	v := NewProjectListView(env)
	load(v)
	assert.Empty(t, v.list.Items())

	press(v, "n", "Alpha")
	assert.Equal(t, listForm, v.mode)

	msgs := run(press(v, "ctrl+s"))
	require.Len(t, msgs, 1)
	push, ok := msgs[0].(nav.PushMsg)
	require.True(t, ok)
	pv, ok := push.Screen.(*ProjectView)
	require.True(t, ok)
	assert.Equal(t, "Alpha", pv.project.Name)

	ctx := context.Background()
	projects, err := env.DB.ListProjects(ctx, false)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	last, err := env.DB.GetSetting(ctx, LastProjectKey)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(projects[0].ID, 10), last)
}

func TestProjectListView_EmptyNameIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	v := NewProjectListView(env)
	load(v)

	cmd := press(v, "n", "ctrl+s")
	assert.Nil(t, cmd)
	assert.Equal(t, listForm, v.mode)
}

func TestProjectListView_Delete(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env, "Login")
	v := NewProjectListView(env)
	load(v)
	require.Len(t, v.list.Items(), 1)

	press(v, "d")
	assert.Equal(t, listConfirmDelete, v.mode)
	deliver(v, press(v, "y"))

	assert.Empty(t, v.list.Items())
	projects, err := env.DB.ListProjects(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestProjectListView_ArchiveHidesProject(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env)
	v := NewProjectListView(env)
	load(v)

	deliver(v, press(v, "a"))
	assert.Empty(t, v.list.Items())

	deliver(v, press(v, "A"))
	require.Len(t, v.list.Items(), 1)
	assert.True(t, v.list.Items()[0].(projectItem).Project.Archived)
}

func TestProjectView_CreateAndDeleteTest(t *testing.T) {
	env := newTestEnv(t)
	p, c := seed(t, env)
	v := NewProjectView(env, p)
	load(v)
	require.Len(t, v.rows, 1)

	press(v, "n", "Login")
	assert.Equal(t, modeEditTest, v.mode)
	deliver(v, press(v, "ctrl+s"))
	assert.Equal(t, modeBrowse, v.mode)

	tests, err := env.DB.ListTests(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "Login", tests[0].Name)
	assert.Equal(t, models.PriorityMedium, tests[0].Priority)
	require.Len(t, v.rows, 2)

	press(v, "down", "d")
	assert.Equal(t, modeConfirmDelete, v.mode)
	deliver(v, press(v, "y"))

	tests, err = env.DB.ListTests(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, tests)
	assert.Len(t, v.rows, 1)
}

func TestProjectView_TestFormPriorityAndAutomation(t *testing.T) {
	env := newTestEnv(t)
	p, c := seed(t, env)
	v := NewProjectView(env, p)
	load(v)

	press(v, "n", "Nightly")
	for v.editFocusIdx != fieldPriority {
		press(v, "tab")
	}
	press(v, "right", "right")
	press(v, "tab", " ")
	deliver(v, press(v, "ctrl+s"))

	tests, err := env.DB.ListTests(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, models.PriorityCritical, tests[0].Priority)
	assert.True(t, tests[0].Automated)
}

func TestProjectView_NewCategory(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env)
	v := NewProjectView(env, p)
	load(v)

	press(v, "c", "Edge")
	deliver(v, press(v, "enter"))

	require.Len(t, v.categories, 2)
	names := []string{v.categories[0].Name, v.categories[1].Name}
	assert.ElementsMatch(t, []string{"Core", "Edge"}, names)
}

func TestProjectView_NewTestNeedsCategory(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.DB.CreateProject(context.Background(), "Empty", "")
	require.NoError(t, err)
	v := NewProjectView(env, *p)
	load(v)

	press(v, "n")
	assert.Equal(t, modeBrowse, v.mode)
	require.Error(t, v.err)
	assert.Contains(t, v.err.Error(), "create a category first")
}

func TestProjectView_MoveTest(t *testing.T) {
	env := newTestEnv(t)
	p, core := seed(t, env, "Login")
	ctx := context.Background()
	edge, err := env.DB.CreateCategory(ctx, p.ID, "Edge")
	require.NoError(t, err)
	v := NewProjectView(env, p)
	load(v)

	for {
		r, ok := v.selected()
		require.True(t, ok)
		if r.test != nil {
			break
		}
		press(v, "down")
	}
	press(v, "M")
	require.Equal(t, modeMoveTest, v.mode)
	for v.categories[v.moveCursor].ID != edge.ID {
		press(v, "down")
	}
	deliver(v, press(v, "enter"))
	assert.Equal(t, modeBrowse, v.mode)
	assert.NoError(t, v.err)

	moved, err := env.DB.ListTests(ctx, edge.ID)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, "Login", moved[0].Name)
	left, err := env.DB.ListTests(ctx, core.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestProjectView_MoveNeedsSecondCategory(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env, "Login")
	v := NewProjectView(env, p)
	load(v)

	press(v, "down", "M")
	assert.Equal(t, modeBrowse, v.mode)
	require.Error(t, v.err)
}

func TestProjectView_BackForgetsProject(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env)
	ctx := context.Background()
	require.NoError(t, env.DB.SetSetting(ctx, LastProjectKey, strconv.FormatInt(p.ID, 10)))

	v := NewProjectView(env, p)
	load(v)
	msgs := run(press(v, "esc"))
	require.Len(t, msgs, 1)
	assert.Equal(t, nav.PopMsg{}, msgs[0])

	last, err := env.DB.GetSetting(ctx, LastProjectKey)
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestNewRunView_CreateOpensExecution(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env, "A", "B", "C")
	v := NewNewRunView(env, p)
	load(v)

	require.NotNil(t, v.plan)
	assert.Len(t, v.plan.Entries, 3)
	assert.Equal(t, "1.0.0", v.version.Value())

	msgs := run(press(v, "ctrl+s"))
	require.Len(t, msgs, 1)
	replace, ok := msgs[0].(nav.ReplaceMsg)
	require.True(t, ok)
	exec, ok := replace.Screen.(*ExecutionView)
	require.True(t, ok)

	runs, err := env.DB.ListRuns(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runs[0].ID, exec.runID)
}

func TestNewRunView_NothingSelected(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env, "A")
	v := NewNewRunView(env, p)
	load(v)

	press(v, " ")
	assert.Nil(t, v.plan)

	cmd := press(v, "ctrl+s")
	assert.Nil(t, cmd)
	require.Error(t, v.err)
	assert.Equal(t, "no tests match the current selection", v.err.Error())
}

func TestNewRunView_SeededModeNeedsSource(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env, "A")
	v := NewNewRunView(env, p)
	load(v)

	press(v, "tab", "tab", "right")
	assert.Equal(t, newRunMode, v.focus)
	assert.Equal(t, 0, v.mode)
	require.Error(t, v.err)
	assert.Equal(t, rungen.NoSourceMessage, v.err.Error())
}

func TestNewRunView_SuggestsNextVersion(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env, "A")
	newRun(t, env, p.ID)

	v := NewNewRunView(env, p)
	load(v)
	require.Len(t, v.sources, 1)
	assert.Equal(t, "1.0.1", v.version.Value())

	press(v, "tab", "tab", "right")
	assert.Equal(t, rungen.ModeCopyPrevious, runModes[v.mode])
	assert.NoError(t, v.err)
}

func TestExecutionView_MarkAdvances(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env, "A", "B", "C")
	r := newRun(t, env, p.ID)

	v := NewExecutionView(env, r.ID)
	load(v)
	sess := v.Session()
	require.NotNil(t, sess)
	require.Equal(t, 3, sess.Len())
	assert.Equal(t, "Alpha", v.project)

	press(v, "p")
	assert.Equal(t, 1, sess.Index())
	press(v, "f")
	assert.Equal(t, 2, sess.Index())
	press(v, "b")
	assert.Equal(t, 2, sess.Index())
	assert.Equal(t, "All tests completed!", v.status)

	results, err := env.DB.ListResults(context.Background(), r.ID)
	require.NoError(t, err)
	byName := map[string]models.Status{}
	for _, res := range results {
		byName[res.Test.Name] = res.Status
	}
	assert.Equal(t, models.StatusPass, byName["A"])
	assert.Equal(t, models.StatusFail, byName["B"])
	assert.Equal(t, models.StatusBlocked, byName["C"])
}

func TestExecutionView_EndOfListReportsRemaining(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env, "A", "B")
	r := newRun(t, env, p.ID)

	v := NewExecutionView(env, r.ID)
	load(v)

	press(v, "right", "p")
	assert.Equal(t, "End of list. 1 test(s) still not run.", v.status)

	press(v, "n")
	assert.Equal(t, 0, v.Session().Index())
}

func TestExecutionView_SaveNotes(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env, "A")
	r := newRun(t, env, p.ID)

	v := NewExecutionView(env, r.ID)
	load(v)

	press(v, "i")
	assert.Equal(t, execNotes, v.mode)
	press(v, "flaky on ci", "ctrl+s")
	assert.Equal(t, "Notes saved.", v.status)

	cur := v.Session().Current()
	require.NotNil(t, cur)
	got, err := env.DB.GetResult(context.Background(), cur.ID)
	require.NoError(t, err)
	assert.Equal(t, "flaky on ci", got.Notes)
	assert.Equal(t, models.StatusNotRun, got.Status)

	press(v, "esc")
	assert.Equal(t, execNormal, v.mode)
}

func TestExecutionView_Jump(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env, "A", "B", "C")
	r := newRun(t, env, p.ID)

	v := NewExecutionView(env, r.ID)
	load(v)

	press(v, "g", "3", "enter")
	assert.Equal(t, execNormal, v.mode)
	assert.Equal(t, 2, v.Session().Index())

	press(v, "g", "x", "enter")
	assert.Equal(t, `"x" is not a number.`, v.status)
	assert.Equal(t, 2, v.Session().Index())
}

func TestExecutionView_QuickFail(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env, "A", "B")
	r := newRun(t, env, p.ID)

	v := NewExecutionView(env, r.ID)
	load(v)
	require.NotEmpty(t, v.templates)
	first := v.Session().Current().ID

	press(v, "t", "down", "enter")
	assert.Equal(t, execNormal, v.mode)
	assert.Equal(t, 1, v.Session().Index())

	got, err := env.DB.GetResult(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFail, got.Status)
	assert.Contains(t, got.Notes, v.templates[1].Description)
}

func TestExecutionView_RemoveWithoutAttachments(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env, "A")
	r := newRun(t, env, p.ID)

	v := NewExecutionView(env, r.ID)
	load(v)

	press(v, "x")
	assert.Equal(t, execNormal, v.mode)
	assert.Equal(t, "No attachments to remove.", v.status)
}

func TestExecutionView_EmptyRun(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.DB.CreateProject(context.Background(), "Empty", "")
	require.NoError(t, err)
	r, err := env.DB.CreateRun(context.Background(), p.ID, models.Version{Major: 1}, "")
	require.NoError(t, err)

	v := NewExecutionView(env, r.ID)
	load(v)
	assert.Equal(t, "This run has no test results.", v.status)

	assert.Nil(t, press(v, "p"))
	msgs := run(press(v, "esc"))
	require.Len(t, msgs, 1)
	assert.Equal(t, nav.PopMsg{}, msgs[0])
}

// twoRuns creates a passing run and a newer run where B fails
func twoRuns(t *testing.T, env Env) (models.Project, *models.TestRun, *models.TestRun) {
	t.Helper()
	ctx := context.Background()
	p, _ := seed(t, env, "A", "B")

	mark := func(r *models.TestRun, statuses map[string]models.Status) {
		results, err := env.DB.ListResults(ctx, r.ID)
		require.NoError(t, err)
		for _, res := range results {
			now := time.Now()
			require.NoError(t, env.DB.UpdateResult(ctx, res.ID, statuses[res.Test.Name], "", &now))
		}
	}

	first := newRun(t, env, p.ID)
	mark(first, map[string]models.Status{"A": models.StatusPass, "B": models.StatusPass})
	second := newRun(t, env, p.ID)
	mark(second, map[string]models.Status{"A": models.StatusPass, "B": models.StatusFail})
	return p, first, second
}

func TestRunsView_FilterCycles(t *testing.T) {
	env := newTestEnv(t)
	p, _, second := twoRuns(t, env)

	v := NewRunsView(env, &p)
	load(v)
	require.Len(t, v.runs, 2)

	deliver(v, press(v, "f"))
	assert.Equal(t, models.RunFilterHasFailures, runFilters[v.filter])
	require.Len(t, v.runs, 1)
	assert.Equal(t, second.ID, v.runs[0].Run.ID)
}

func TestRunsView_CompareWithPrevious(t *testing.T) {
	env := newTestEnv(t)
	p, first, second := twoRuns(t, env)

	v := NewRunsView(env, &p)
	load(v)
	require.Equal(t, second.ID, v.runs[0].Run.ID, "newest first")

	msgs := run(press(v, "D"))
	require.Len(t, msgs, 1)
	push, ok := msgs[0].(nav.PushMsg)
	require.True(t, ok)
	dv, ok := push.Screen.(*DiffView)
	require.True(t, ok)
	assert.Equal(t, first.ID, dv.left)
	assert.Equal(t, second.ID, dv.right)
}

func TestRunsView_CompareOldestHasNoBaseline(t *testing.T) {
	env := newTestEnv(t)
	p, _ := seed(t, env, "A")
	newRun(t, env, p.ID)

	v := NewRunsView(env, &p)
	load(v)

	assert.Nil(t, press(v, "D"))
	assert.Equal(t, "No earlier run to compare with.", v.status)
}

func TestRunsView_MarkedBaseline(t *testing.T) {
	env := newTestEnv(t)
	p, first, second := twoRuns(t, env)

	v := NewRunsView(env, nil)
	load(v)
	require.Len(t, v.runs, 2)

	// mark the older run, then compare the newer one against it
	press(v, "down", "c")
	assert.Equal(t, first.ID, v.mark)
	msgs := run(press(v, "up", "D"))
	require.Len(t, msgs, 1)
	dv := msgs[0].(nav.PushMsg).Screen.(*DiffView)
	assert.Equal(t, first.ID, dv.left)
	assert.Equal(t, second.ID, dv.right)
	assert.Zero(t, v.mark)
	assert.Equal(t, p.Name, v.runs[0].ProjectName)
}

func TestRunsView_Delete(t *testing.T) {
	env := newTestEnv(t)
	p, first, _ := twoRuns(t, env)

	v := NewRunsView(env, &p)
	load(v)
	deliver(v, press(v, "d", "y"))

	require.Len(t, v.runs, 1)
	assert.Equal(t, first.ID, v.runs[0].Run.ID)
}

func TestDiffView_Regressions(t *testing.T) {
	env := newTestEnv(t)
	_, first, second := twoRuns(t, env)

	v := NewDiffView(env, first.ID, second.ID)
	load(v)
	require.NoError(t, v.err)
	require.NotNil(t, v.result)
	require.Len(t, v.result.Regressions, 1)
	assert.Equal(t, "B", v.result.Regressions[0].TestName)
	assert.Empty(t, v.result.Fixes)
	assert.Len(t, v.result.Unchanged, 1)

	assert.Contains(t, v.View(), "1 unchanged (press u to show)")
	press(v, "u")
	assert.True(t, v.showUnchanged)
	assert.Contains(t, v.View(), "Unchanged (1)")
}

func TestDiffView_SameRun(t *testing.T) {
	env := newTestEnv(t)
	_, first, _ := twoRuns(t, env)

	v := NewDiffView(env, first.ID, first.ID)
	load(v)
	assert.Contains(t, v.View(), "Select two different runs to compare.")
}
