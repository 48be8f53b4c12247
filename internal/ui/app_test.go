package ui

import (
	"context"
	"os"
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
	"github.com/tgienger/litmus/internal/logging"
	"github.com/tgienger/litmus/internal/settings"
	"github.com/tgienger/litmus/internal/ui/nav"
	"github.com/tgienger/litmus/internal/ui/views"
)

func newEnv(t *testing.T, accepted bool) views.Env {
	t.Helper()
	dir := t.TempDir()
	store, err := db.Open(context.Background(), filepath.Join(dir, "litmus.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	env := views.Env{
		DB:           store,
		Files:        attach.NewStore(filepath.Join(dir, "attachments")),
		Log:          zerolog.Nop(),
		SettingsPath: filepath.Join(dir, "settings.json"),
		RecentRuns:   10,
	}
	if accepted {
		var s settings.Settings
		s.Accept(time.Now())
		require.NoError(t, settings.Save(env.SettingsPath, s))
	}
	return env
}

// pushes runs cmd and returns the screens it pushes
func pushes(cmd tea.Cmd) []tea.Model {
	if cmd == nil {
		return nil
	}
	var out []tea.Model
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, pushes(c)...)
		}
	case nav.PushMsg:
		out = append(out, msg.Screen)
	}
	return out
}

func TestApp_LicenseGate(t *testing.T) {
	app := NewApp(newEnv(t, false))
	assert.IsType(t, &views.LicenseView{}, app.Nav().Active())
}

func TestApp_StartsOnProjectList(t *testing.T) {
	app := NewApp(newEnv(t, true))
	assert.IsType(t, &views.ProjectListView{}, app.Nav().Active())
	assert.Empty(t, pushes(app.Init()))
}

func TestApp_ReopensLastProject(t *testing.T) {
	env := newEnv(t, true)
	ctx := context.Background()
	p, err := env.DB.CreateProject(ctx, "Alpha", "")
	require.NoError(t, err)
	require.NoError(t, env.DB.SetSetting(ctx, views.LastProjectKey, strconv.FormatInt(p.ID, 10)))

	app := NewApp(env)
	screens := pushes(app.Init())
	require.Len(t, screens, 1)
	assert.IsType(t, &views.ProjectView{}, screens[0])
}

func TestApp_SkipsArchivedLastProject(t *testing.T) {
	env := newEnv(t, true)
	ctx := context.Background()
	p, err := env.DB.CreateProject(ctx, "Alpha", "")
	require.NoError(t, err)
	require.NoError(t, env.DB.SetProjectArchived(ctx, p.ID, true))
	require.NoError(t, env.DB.SetSetting(ctx, views.LastProjectKey, strconv.FormatInt(p.ID, 10)))

	app := NewApp(env)
	assert.Empty(t, pushes(app.Init()))
}

func TestApp_LastProjectGone(t *testing.T) {
	env := newEnv(t, true)
	require.NoError(t, env.DB.SetSetting(context.Background(), views.LastProjectKey, "999"))

	app := NewApp(env)
	assert.Empty(t, pushes(app.Init()))
}

// explodingScreen writes to a nil map on the first key press
type explodingScreen struct{}

func (s *explodingScreen) Init() tea.Cmd { return nil }
func (s *explodingScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		var counts map[string]int
		counts["keys"]++
	}
	return s, nil
}
func (s *explodingScreen) View() string { return "" }

func recordingApp(t *testing.T) (*App, *logging.ErrorLog) {
	t.Helper()
	app := NewApp(newEnv(t, true))
	errLog := logging.NewErrorLog(filepath.Join(t.TempDir(), "error.log"))
	app.OnPanic(func(r any, stack []byte) {
		require.NoError(t, errLog.RecordPanic(r, stack))
	})
	return app, errLog
}

func TestApp_ScreenPanicIsRecordedWithStack(t *testing.T) {
	app, errLog := recordingApp(t)
	app.Update(nav.PushMsg{Screen: &explodingScreen{}})

	assert.Panics(t, func() {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	}, "the panic still reaches the program")

	data, err := os.ReadFile(errLog.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "assignment to entry in nil map")
	assert.Contains(t, string(data), "goroutine")
	assert.Contains(t, string(data), "explodingScreen")
}

func TestApp_CommandPanicIsRecorded(t *testing.T) {
	app, errLog := recordingApp(t)
	cmd := app.guard(tea.Batch(
		func() tea.Msg { return nil },
		func() tea.Msg { panic("lost the database") },
	))

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)
	assert.Panics(t, func() { batch[1]() })

	data, err := os.ReadFile(errLog.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "lost the database")
	assert.Contains(t, string(data), "goroutine")
}

func TestApp_NoPanicNoRecord(t *testing.T) {
	app, errLog := recordingApp(t)
	app.View()
	_, err := os.Stat(errLog.Path())
	assert.True(t, os.IsNotExist(err))
}
