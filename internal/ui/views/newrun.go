package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/litmus/internal/models"
	"github.com/tgienger/litmus/internal/rungen"
	"github.com/tgienger/litmus/internal/ui/keys"
	"github.com/tgienger/litmus/internal/ui/nav"
	"github.com/tgienger/litmus/internal/ui/styles"
)

const (
	newRunCategories = iota
	newRunAutomation
	newRunMode
	newRunSource
	newRunVersion
	newRunNotes
	newRunCreate
	newRunFields
)

var (
	runModes    = []rungen.Mode{rungen.ModeFull, rungen.ModeCopyPrevious, rungen.ModeRetestFailed}
	automations = []rungen.Automation{rungen.AutomationAll, rungen.AutomationOnly, rungen.AutomationManual}
)

func modeLabel(m rungen.Mode) string {
	switch m {
	case rungen.ModeCopyPrevious:
		return "Copy Previous"
	case rungen.ModeRetestFailed:
		return "Retest Failed"
	}
	return "Full Run"
}

func automationLabel(a rungen.Automation) string {
	switch a {
	case rungen.AutomationOnly:
		return "Automated only"
	case rungen.AutomationManual:
		return "Manual only"
	}
	return "All tests"
}

// NewRunView collects the options for a new test run
type NewRunView struct {
	env     Env
	project models.Project
	gen     *rungen.Generator
	styles  *styles.Styles
	keys    keys.KeyMap

	categories []models.Category
	selected   map[int64]bool
	sources    []models.TestRun
	loaded     bool

	focus      int
	catCursor  int
	automation int
	mode       int
	source     int
	version    textinput.Model
	notes      textinput.Model

	plan   *rungen.Plan
	err    error
	width  int
	height int
}

// NewNewRunView creates the run setup screen for project
func NewNewRunView(env Env, project models.Project) *NewRunView {
	version := textinput.New()
	version.Placeholder = "1.0.0"
	version.CharLimit = 32

	notes := textinput.New()
	notes.Placeholder = "Run notes (optional)"
	notes.CharLimit = models.MaxTestText

	return &NewRunView{
		env:      env,
		project:  project,
		gen:      rungen.New(env.DB, env.Log),
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		selected: map[int64]bool{},
		version:  version,
		notes:    notes,
	}
}

type newRunDataMsg struct {
	categories []models.Category
	sources    []models.TestRun
}

func (v *NewRunView) Init() tea.Cmd {
	return v.load
}

func (v *NewRunView) load() tea.Msg {
	ctx := context.Background()
	categories, err := v.env.DB.ListCategories(ctx, v.project.ID)
	if err != nil {
		return errMsg{err}
	}
	sources, err := v.gen.SourceRuns(ctx, v.project.ID, v.env.RecentRuns)
	if err != nil {
		return errMsg{err}
	}
	return newRunDataMsg{categories: categories, sources: sources}
}

// request builds the generator request from the form
func (v *NewRunView) request() rungen.Request {
	req := rungen.Request{
		ProjectID:  v.project.ID,
		Automation: automations[v.automation],
		Mode:       runModes[v.mode],
		Version:    models.ParseVersionOrDefault(v.version.Value()),
		Notes:      strings.TrimSpace(v.notes.Value()),
	}
	for _, c := range v.categories {
		if v.selected[c.ID] {
			req.CategoryIDs = append(req.CategoryIDs, c.ID)
		}
	}
	if req.Mode.NeedsSource() && len(v.sources) > 0 {
		req.SourceRunID = v.sources[v.source].ID
	}
	return req
}

// selectedCount is the number of checked categories
func (v *NewRunView) selectedCount() int {
	n := 0
	for _, c := range v.categories {
		if v.selected[c.ID] {
			n++
		}
	}
	return n
}

// refreshPlan recomputes the preview. With no category checked there is
// nothing to plan; an empty request would mean every category.
func (v *NewRunView) refreshPlan() {
	v.plan = nil
	if v.selectedCount() == 0 {
		return
	}
	plan, err := v.gen.Plan(context.Background(), v.request())
	if err != nil {
		v.err = err
		return
	}
	v.err = nil
	v.plan = plan
}

// canCreate guards the create button
func (v *NewRunView) canCreate() bool {
	return v.plan != nil && len(v.plan.Entries) > 0
}

func (v *NewRunView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		return v, nil

	case newRunDataMsg:
		v.categories = msg.categories
		v.sources = msg.sources
		for _, c := range v.categories {
			v.selected[c.ID] = true
		}
		v.version.SetValue(rungen.SuggestVersion(v.sources).String())
		v.loaded = true
		v.refreshPlan()
		return v, nil

	case errMsg:
		v.err = msg.err
		v.loaded = true
		return v, nil

	case tea.KeyMsg:
		return v.updateKeys(msg)
	}
	return v, nil
}

func (v *NewRunView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		return v, nav.Pop()
	case key.Matches(msg, v.keys.Save):
		return v, v.create()
	case key.Matches(msg, v.keys.Tab):
		v.setFocus((v.focus + 1) % newRunFields)
		return v, nil
	case msg.String() == "shift+tab":
		v.setFocus((v.focus + newRunFields - 1) % newRunFields)
		return v, nil
	}

	switch v.focus {
	case newRunCategories:
		switch {
		case key.Matches(msg, v.keys.Up):
			if v.catCursor > 0 {
				v.catCursor--
			}
		case key.Matches(msg, v.keys.Down):
			if v.catCursor < len(v.categories)-1 {
				v.catCursor++
			}
		case key.Matches(msg, v.keys.Toggle):
			if v.catCursor < len(v.categories) {
				id := v.categories[v.catCursor].ID
				v.selected[id] = !v.selected[id]
				v.refreshPlan()
			}
		case msg.String() == "a":
			all := v.selectedCount() < len(v.categories)
			for _, c := range v.categories {
				v.selected[c.ID] = all
			}
			v.refreshPlan()
		case key.Matches(msg, v.keys.Enter):
			v.setFocus(v.focus + 1)
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		}
		return v, nil

	case newRunAutomation, newRunMode, newRunSource:
		switch {
		case key.Matches(msg, v.keys.Left):
			v.cycle(-1)
		case key.Matches(msg, v.keys.Right), key.Matches(msg, v.keys.Toggle):
			v.cycle(1)
		case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Down):
			v.setFocus(v.focus + 1)
		case key.Matches(msg, v.keys.Up):
			v.setFocus(v.focus - 1)
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		}
		return v, nil

	case newRunCreate:
		switch {
		case key.Matches(msg, v.keys.Enter):
			return v, v.create()
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		}
		return v, nil
	}

	if key.Matches(msg, v.keys.Enter) {
		v.setFocus(v.focus + 1)
		return v, nil
	}
	var cmd tea.Cmd
	switch v.focus {
	case newRunVersion:
		v.version, cmd = v.version.Update(msg)
		v.refreshPlan()
	case newRunNotes:
		v.notes, cmd = v.notes.Update(msg)
	}
	return v, cmd
}

// cycle steps the focused option by dir
func (v *NewRunView) cycle(dir int) {
	switch v.focus {
	case newRunAutomation:
		v.automation = (v.automation + dir + len(automations)) % len(automations)
	case newRunMode:
		if len(v.sources) == 0 {
			// seeded modes need an earlier run
			v.mode = 0
			v.err = errors.New(rungen.NoSourceMessage)
			return
		}
		v.mode = (v.mode + dir + len(runModes)) % len(runModes)
	case newRunSource:
		if len(v.sources) == 0 {
			return
		}
		v.source = (v.source + dir + len(v.sources)) % len(v.sources)
	}
	v.refreshPlan()
}

func (v *NewRunView) setFocus(i int) {
	v.focus = clamp(i, 0, newRunFields-1)
	v.version.Blur()
	v.notes.Blur()
	switch v.focus {
	case newRunVersion:
		v.version.Focus()
	case newRunNotes:
		v.notes.Focus()
	}
}

// create generates the run and opens it for execution
func (v *NewRunView) create() tea.Cmd {
	v.refreshPlan()
	if !v.canCreate() {
		if v.err == nil {
			v.err = errors.New("no tests match the current selection")
		}
		return nil
	}
	run, _, err := v.gen.Generate(context.Background(), v.request())
	if err != nil {
		v.err = err
		return nil
	}
	return nav.Replace(NewExecutionView(v.env, run.ID))
}

func (v *NewRunView) View() string {
	s := v.styles
	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}
	contentWidth := styles.ContentWidth(v.width)
	width := clamp(contentWidth-6, 20, 60)

	section := func(idx int, label string, body string) string {
		style := s.Input
		if v.focus == idx {
			style = s.InputFocused
		}
		return s.Label.Render(label) + "\n" + style.Width(width).Render(body)
	}

	var cats []string
	if len(v.categories) == 0 {
		cats = append(cats, s.TitleMuted.Render("No categories in this project"))
	}
	for i, c := range v.categories {
		box := "[ ]"
		if v.selected[c.ID] {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s (%d)", box, c.Name, c.TestCount)
		if v.focus == newRunCategories && i == v.catCursor {
			line = s.ListSelected.Render(line)
		}
		cats = append(cats, line)
	}

	source := s.TitleMuted.Render("No previous runs")
	if len(v.sources) > 0 {
		r := v.sources[v.source]
		source = fmt.Sprintf("◂ Run #%d  %s  %s ▸", r.ID, r.BuildVersion(), r.CreatedAt.Local().Format("2006-01-02 15:04"))
		if !runModes[v.mode].NeedsSource() {
			source = s.TitleMuted.Render(source + " (unused)")
		}
	}

	btn := s.Button
	if v.focus == newRunCreate {
		btn = s.ButtonFocused
	}
	if v.canCreate() && v.focus == newRunCreate {
		btn = s.ButtonPrimary
	}

	summary := s.TitleMuted.Render("Select at least one category.")
	if v.plan != nil {
		summary = v.plan.Summary
	}

	parts := []string{
		s.Title.Render("New Test Run: " + v.project.Name),
		"",
		section(newRunCategories, "Categories", lipgloss.JoinVertical(lipgloss.Left, cats...)),
		section(newRunAutomation, "Tests", "◂ "+automationLabel(automations[v.automation])+" ▸"),
		section(newRunMode, "Mode", "◂ "+modeLabel(runModes[v.mode])+" ▸"),
		section(newRunSource, "Source run", source),
		section(newRunVersion, "Build version", v.version.View()),
		section(newRunNotes, "Notes", v.notes.View()),
		"",
		summary,
		"",
		btn.Render(" Create Run "),
	}
	if v.err != nil {
		parts = append(parts, s.Error.Render(v.err.Error()))
	}
	parts = append(parts, helpBar(s, "tab", "next", "space", "toggle", "a", "all", "←→", "change", "ctrl+s", "create", "esc", "cancel"))

	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, parts...), v.width, v.height)
}
