package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/litmus/internal/models"
	"github.com/tgienger/litmus/internal/ui/keys"
	"github.com/tgienger/litmus/internal/ui/nav"
	"github.com/tgienger/litmus/internal/ui/styles"
)

type projectItem struct {
	models.ProjectOverview
}

func (i projectItem) FilterValue() string { return i.Project.Name }

// meta is the second line of a row: sizes, then the description
func (i projectItem) meta() string {
	parts := []string{
		plural(i.Categories, "category", "categories"),
		plural(i.Tests, "test", "tests"),
		plural(i.Runs, "run", "runs"),
	}
	if desc := firstLine(i.Project.Description); desc != "" {
		parts = append(parts, desc)
	}
	return strings.Join(parts, " · ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d *projectDelegate) Height() int                         { return 2 }
func (d *projectDelegate) Spacing() int                        { return 1 }
func (d *projectDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d *projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}
	width := max(d.width-4, 20)
	row := d.styles.ListItem
	if index == m.Index() {
		row = d.styles.ListSelected
	}

	name := truncate(p.Project.Name, width-16)
	if p.Project.Archived {
		name += "  " + d.styles.TitleMuted.Render("archived")
	}
	meta := row.Foreground(styles.Current.ForegroundDim).Width(width).Render(truncate(p.meta(), width-4))
	fmt.Fprintf(w, "%s\n%s", row.Width(width).Render(name), meta)
}

type listMode int

const (
	listBrowse listMode = iota
	listForm
	listConfirmDelete
)

// projectForm edits a project's name and description
type projectForm struct {
	id    int64 // 0 while creating
	name  textinput.Model
	desc  textinput.Model
	focus int // formName, formDesc or formSubmit
}

const (
	formName = iota
	formDesc
	formSubmit
	formFields
)

func newProjectForm() projectForm {
	name := textinput.New()
	name.Placeholder = "Project name"
	name.CharLimit = models.MaxProjectName

	desc := textinput.New()
	desc.Placeholder = "Description (optional)"
	desc.CharLimit = models.MaxProjectDescription

	return projectForm{name: name, desc: desc}
}

// reset loads p into the form, or clears it for a new project when p is nil
func (f *projectForm) reset(p *models.Project) {
	f.id = 0
	f.name.Reset()
	f.desc.Reset()
	if p != nil {
		f.id = p.ID
		f.name.SetValue(p.Name)
		f.desc.SetValue(p.Description)
	}
	f.setFocus(formName)
}

func (f *projectForm) setFocus(i int) {
	f.focus = (i + formFields) % formFields
	f.name.Blur()
	f.desc.Blur()
	switch f.focus {
	case formName:
		f.name.Focus()
	case formDesc:
		f.desc.Focus()
	}
}

func (f *projectForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case formName:
		f.name, cmd = f.name.Update(msg)
	case formDesc:
		f.desc, cmd = f.desc.Update(msg)
	}
	return cmd
}

func (f *projectForm) values() (name, desc string) {
	return strings.TrimSpace(f.name.Value()), strings.TrimSpace(f.desc.Value())
}

// ProjectListView is the start screen
type ProjectListView struct {
	env          Env
	list         list.Model
	delegate     *projectDelegate
	styles       *styles.Styles
	keys         keys.KeyMap
	width        int
	height       int
	loaded       bool
	showArchived bool
	err          error

	mode    listMode
	form    projectForm
	pending *models.Project // delete target

	showHelpPopup bool
}

// NewProjectListView creates the project list
func NewProjectListView(env Env) *ProjectListView {
	s := styles.NewStyles()
	delegate := &projectDelegate{styles: s, width: styles.MaxWidth}

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Projects"
	l.Styles.Title = s.Title
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)

	return &ProjectListView{
		env:      env,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		form:     newProjectForm(),
	}
}

func (v *ProjectListView) Init() tea.Cmd {
	return v.loadProjects
}

type projectsLoadedMsg struct {
	projects []models.ProjectOverview
}

func (v *ProjectListView) loadProjects() tea.Msg {
	projects, err := v.env.DB.ListProjectOverviews(context.Background(), v.showArchived)
	if err != nil {
		return errMsg{err}
	}
	return projectsLoadedMsg{projects: projects}
}

func (v *ProjectListView) selected() (*models.Project, bool) {
	item, ok := v.list.SelectedItem().(projectItem)
	if !ok {
		return nil, false
	}
	return &item.Project, true
}

// open remembers the project and shows its detail screen
func (v *ProjectListView) open(p models.Project) tea.Cmd {
	if err := v.env.DB.SetSetting(context.Background(), LastProjectKey, strconv.FormatInt(p.ID, 10)); err != nil {
		v.env.Log.Warn().Err(err).Msg("save last project")
	}
	return nav.Push(NewProjectView(v.env, p))
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		v.delegate.width = styles.ContentWidth(msg.Width)
		v.list.SetSize(v.delegate.width-4, msg.Height-6)
		return v, nil

	case projectsLoadedMsg:
		items := make([]list.Item, 0, len(msg.projects))
		for _, p := range msg.projects {
			items = append(items, projectItem{p})
		}
		v.list.SetItems(items)
		v.loaded = true
		v.err = nil
		return v, nil

	case errMsg:
		v.err = msg.err
		v.loaded = true
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		switch v.mode {
		case listConfirmDelete:
			return v, v.updateConfirmDelete(msg)
		case listForm:
			return v, v.updateForm(msg)
		}
		if v.list.FilterState() != list.Filtering {
			if handled, cmd := v.updateBrowse(msg); handled {
				return v, cmd
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// updateBrowse handles the list shortcuts; unhandled keys go to the list
func (v *ProjectListView) updateBrowse(msg tea.KeyMsg) (bool, tea.Cmd) {
	p, hasSelection := v.selected()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return true, tea.Quit
	case key.Matches(msg, v.keys.Back):
		v.list.ResetFilter()
		return true, nil
	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return true, nil
	case key.Matches(msg, v.keys.New):
		return true, v.startForm(nil)
	case key.Matches(msg, v.keys.Runs):
		return true, nav.Push(NewRunsView(v.env, nil))
	case msg.String() == "A":
		v.showArchived = !v.showArchived
		return true, v.loadProjects
	}

	if !hasSelection {
		return false, nil
	}
	switch {
	case key.Matches(msg, v.keys.Enter):
		return true, v.open(*p)
	case key.Matches(msg, v.keys.Edit):
		return true, v.startForm(p)
	case key.Matches(msg, v.keys.Archive):
		if err := v.env.DB.SetProjectArchived(context.Background(), p.ID, !p.Archived); err != nil {
			v.err = err
			return true, nil
		}
		return true, v.loadProjects
	case key.Matches(msg, v.keys.Delete):
		v.mode = listConfirmDelete
		v.pending = p
		return true, nil
	}
	return false, nil
}

func (v *ProjectListView) startForm(p *models.Project) tea.Cmd {
	v.mode = listForm
	v.form.reset(p)
	return textinput.Blink
}

func (v *ProjectListView) updateConfirmDelete(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		v.mode = listBrowse
		if err := v.env.DB.DeleteProject(context.Background(), v.pending.ID); err != nil {
			v.err = err
			return nil
		}
		v.env.Log.Info().Int64("project_id", v.pending.ID).Msg("deleted project")
		v.pending = nil
		return v.loadProjects
	case "n", "N", "esc":
		v.mode = listBrowse
		v.pending = nil
	}
	return nil
}

func (v *ProjectListView) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = listBrowse
		return nil
	case key.Matches(msg, v.keys.Save):
		return v.submit()
	case msg.String() == "shift+tab":
		v.form.setFocus(v.form.focus - 1)
		return nil
	case key.Matches(msg, v.keys.Tab):
		v.form.setFocus(v.form.focus + 1)
		return nil
	case key.Matches(msg, v.keys.Enter):
		if v.form.focus == formSubmit {
			return v.submit()
		}
		v.form.setFocus(v.form.focus + 1)
		return nil
	}
	return v.form.update(msg)
}

// submit saves the form; a new project is opened right away
func (v *ProjectListView) submit() tea.Cmd {
	name, desc := v.form.values()
	if name == "" {
		return nil
	}
	ctx := context.Background()
	if v.form.id != 0 {
		if err := v.env.DB.UpdateProject(ctx, v.form.id, name, desc); err != nil {
			v.err = err
			return nil
		}
		v.mode = listBrowse
		return v.loadProjects
	}
	project, err := v.env.DB.CreateProject(ctx, name, desc)
	if err != nil {
		v.err = err
		return nil
	}
	v.mode = listBrowse
	return v.open(*project)
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return helpPopup(v.styles, v.width, v.height,
			"↵", "open project",
			"n", "new project",
			"e", "edit project",
			"a", "archive / restore",
			"A", "show archived",
			"r", "all runs",
			"d", "delete project",
			"/", "filter",
			"q", "quit",
		)
	}

	switch v.mode {
	case listConfirmDelete:
		return confirmBox(v.styles, v.width, v.height, "Delete Project?",
			fmt.Sprintf("\"%s\" and all of its tests, runs and attachments will be deleted.", v.pending.Name))
	case listForm:
		return v.renderForm()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}
	if len(v.list.Items()) == 0 && !v.showArchived {
		return v.renderEmpty()
	}

	parts := []string{v.list.View()}
	if v.showArchived {
		parts = append(parts, v.styles.StatusBar.Render("showing archived projects"))
	}
	if v.err != nil {
		parts = append(parts, v.styles.Error.Render(v.err.Error()))
	}
	parts = append(parts, footerHelp(v.styles, v.width,
		"↵", "open", "n", "new", "e", "edit", "r", "runs", "d", "del", "q", "quit"))
	return styles.CenterView(strings.Join(parts, "\n"), v.width, v.height)
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	parts := []string{
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("Press 'n' to create your first project"),
		s.TitleMuted.Render("or run 'litmus import <file>'"),
		"",
		s.ButtonPrimary.Render(" New Project "),
	}
	if v.err != nil {
		parts = append(parts, "", s.Error.Render(v.err.Error()))
	}
	centered := lipgloss.Place(styles.ContentWidth(v.width), v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, parts...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderForm() string {
	s := v.styles
	f := &v.form
	inputWidth := clamp(styles.ContentWidth(v.width)-6, 20, 50)

	field := func(i int, label string, in textinput.Model) string {
		box := s.Input
		if f.focus == i {
			box = s.InputFocused
		}
		return label + "\n" + box.Width(inputWidth).Render(in.View())
	}
	title, button := "New Project", " Create "
	if f.id != 0 {
		title, button = "Edit Project", " Save "
	}
	btn := s.Button
	if f.focus == formSubmit {
		btn = s.ButtonFocused
	}

	parts := []string{
		s.Title.Render(title),
		"",
		field(formName, "Name:", f.name),
		"",
		field(formDesc, "Description:", f.desc),
		"",
		btn.Render(button),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	}
	if v.err != nil {
		parts = append(parts, s.Error.Render(v.err.Error()))
	}
	centered := lipgloss.Place(styles.ContentWidth(v.width), v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
	return styles.CenterView(centered, v.width, v.height)
}
