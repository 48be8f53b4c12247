package ui

import (
	"context"
	"runtime/debug"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/litmus/internal/settings"
	"github.com/tgienger/litmus/internal/ui/nav"
	"github.com/tgienger/litmus/internal/ui/views"
)

// App is the root model. It owns the navigation controller and hands
// every message to it.
type App struct {
	env     views.Env
	nav     *nav.Controller
	onPanic func(r any, stack []byte)
}

// NewApp creates the application. Until the license is accepted the
// license screen is shown first.
func NewApp(env views.Env) *App {
	a := &App{env: env}

	var root tea.Model
	if settings.Load(env.SettingsPath).LicenseAccepted {
		root = a.home()
	} else {
		root = views.NewLicenseView(env, a.home)
	}
	a.nav = nav.New(root)
	return a
}

// home is the project list
func (a *App) home() tea.Model {
	return views.NewProjectListView(a.env)
}

// Nav exposes the navigation controller
func (a *App) Nav() *nav.Controller {
	return a.nav
}

// OnPanic registers fn to receive a panic raised by a screen, with its
// stack, before the panic continues to the program
func (a *App) OnPanic(fn func(r any, stack []byte)) {
	a.onPanic = fn
}

// capture is deferred by every entry point of the model
func (a *App) capture() {
	if r := recover(); r != nil {
		if a.onPanic != nil {
			a.onPanic(r, debug.Stack())
		}
		panic(r)
	}
}

// guard wraps cmd so a panic while it runs reaches onPanic too
func (a *App) guard(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		defer a.capture()
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			guarded := make(tea.BatchMsg, len(batch))
			for i, c := range batch {
				guarded[i] = a.guard(c)
			}
			return guarded
		}
		return msg
	}
}

func (a *App) Init() tea.Cmd {
	defer a.capture()
	return a.guard(a.init())
}

func (a *App) init() tea.Cmd {
	if _, ok := a.nav.Active().(*views.ProjectListView); ok {
		if cmd := a.reopenLastProject(); cmd != nil {
			return tea.Batch(a.nav.Init(), cmd)
		}
	}
	return a.nav.Init()
}

// reopenLastProject returns a push of the last opened project, nil when
// there is none or it no longer exists
func (a *App) reopenLastProject() tea.Cmd {
	ctx := context.Background()
	lastProjectID, err := a.env.DB.GetSetting(ctx, views.LastProjectKey)
	if err != nil || lastProjectID == "" {
		return nil
	}
	id, err := strconv.ParseInt(lastProjectID, 10, 64)
	if err != nil {
		return nil
	}
	project, err := a.env.DB.GetProject(ctx, id)
	if err != nil || project.Archived {
		return nil
	}
	return nav.Push(views.NewProjectView(a.env, *project))
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer a.capture()
	return a, a.guard(a.nav.Update(msg))
}

func (a *App) View() string {
	defer a.capture()
	return a.nav.View()
}
