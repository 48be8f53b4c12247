package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/litmus/internal/models"
	"github.com/tgienger/litmus/internal/ui/keys"
	"github.com/tgienger/litmus/internal/ui/nav"
	"github.com/tgienger/litmus/internal/ui/styles"
)

// row is one line of the category/test tree
type row struct {
	category *models.Category
	test     *models.Test // nil for category headers
}

type projectMode int

const (
	modeBrowse projectMode = iota
	modeViewTest
	modeEditTest
	modeEditCategory
	modeConfirmDelete
	modeMoveTest
)

// test form focus order
const (
	fieldName = iota
	fieldDescription
	fieldCommand
	fieldExpected
	fieldPrep
	fieldPriority
	fieldAutomated
	fieldSave
	fieldCount
)

// ProjectView shows a project's categories and tests
type ProjectView struct {
	env     Env
	project models.Project
	styles  *styles.Styles
	keys    keys.KeyMap

	categories []models.Category
	tests      map[int64][]models.Test
	collapsed  map[int64]bool
	rows       []row
	loaded     bool

	width   int
	height  int
	cursor  int
	scrollY int
	mode    projectMode
	err     error

	// category form
	categoryInput textinput.Model
	categoryID    int64 // 0 while creating

	// test form
	editTest      models.Test
	editName      textinput.Model
	editDesc      textarea.Model
	editCommand   textinput.Model
	editExpected  textarea.Model
	editPrep      textarea.Model
	editPriority  models.Priority
	editAutomated bool
	editFocusIdx  int

	deleteTarget row
	moveCursor   int // category picked as the move target

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewProjectView creates the detail screen for project
func NewProjectView(env Env, project models.Project) *ProjectView {
	newArea := func(placeholder string, height int) textarea.Model {
		ta := textarea.New()
		ta.Placeholder = placeholder
		ta.CharLimit = models.MaxTestText
		ta.SetWidth(50)
		ta.SetHeight(height)
		ta.ShowLineNumbers = false
		return ta
	}

	categoryInput := textinput.New()
	categoryInput.Placeholder = "Category name"
	categoryInput.CharLimit = models.MaxCategoryName

	editName := textinput.New()
	editName.Placeholder = "Test name"
	editName.CharLimit = models.MaxTestName

	editCommand := textinput.New()
	editCommand.Placeholder = "Command (optional)"
	editCommand.CharLimit = models.MaxTestText

	return &ProjectView{
		env:           env,
		project:       project,
		styles:        styles.NewStyles(),
		keys:          keys.DefaultKeyMap(),
		collapsed:     map[int64]bool{},
		categoryInput: categoryInput,
		editName:      editName,
		editDesc:      newArea("Description", 3),
		editCommand:   editCommand,
		editExpected:  newArea("Expected result", 2),
		editPrep:      newArea("Preparation steps", 2),
	}
}

type projectDataMsg struct {
	categories []models.Category
	tests      map[int64][]models.Test
}

// Init initializes the view
func (v *ProjectView) Init() tea.Cmd {
	return v.load
}

func (v *ProjectView) load() tea.Msg {
	ctx := context.Background()
	categories, err := v.env.DB.ListCategories(ctx, v.project.ID)
	if err != nil {
		return errMsg{err}
	}
	tests := make(map[int64][]models.Test, len(categories))
	for _, c := range categories {
		list, err := v.env.DB.ListTests(ctx, c.ID)
		if err != nil {
			return errMsg{err}
		}
		tests[c.ID] = list
	}
	return projectDataMsg{categories: categories, tests: tests}
}

func (v *ProjectView) rebuildRows() {
	v.rows = v.rows[:0]
	for i := range v.categories {
		c := &v.categories[i]
		v.rows = append(v.rows, row{category: c})
		if v.collapsed[c.ID] {
			continue
		}
		tests := v.tests[c.ID]
		for j := range tests {
			v.rows = append(v.rows, row{category: c, test: &tests[j]})
		}
	}
	if v.cursor >= len(v.rows) {
		v.cursor = max(0, len(v.rows)-1)
	}
	v.ensureVisible()
}

func (v *ProjectView) selected() (row, bool) {
	if v.cursor < 0 || v.cursor >= len(v.rows) {
		return row{}, false
	}
	return v.rows[v.cursor], true
}

// Update handles messages
func (v *ProjectView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 50)
		v.editDesc.SetWidth(inputWidth)
		v.editExpected.SetWidth(inputWidth)
		v.editPrep.SetWidth(inputWidth)
		return v, nil

	case projectDataMsg:
		v.categories = msg.categories
		v.tests = msg.tests
		v.loaded = true
		v.rebuildRows()
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
		case modeConfirmDelete:
			return v.updateConfirmDelete(msg)
		case modeEditTest:
			return v.updateEditTest(msg)
		case modeEditCategory:
			return v.updateEditCategory(msg)
		case modeViewTest:
			return v.updateViewTest(msg)
		case modeMoveTest:
			return v.updateMoveTest(msg)
		}
		return v.updateBrowse(msg)
	}

	return v, nil
}

func (v *ProjectView) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if err := v.env.DB.SetSetting(context.Background(), LastProjectKey, ""); err != nil {
			v.env.Log.Warn().Err(err).Msg("clear last project")
		}
		return v, nav.Pop()

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.rows)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Toggle):
		r, ok := v.selected()
		if !ok {
			return v, nil
		}
		if r.test == nil {
			v.collapsed[r.category.ID] = !v.collapsed[r.category.ID]
			v.rebuildRows()
			return v, nil
		}
		v.mode = modeViewTest
		return v, nil

	case key.Matches(msg, v.keys.New):
		r, ok := v.selected()
		if !ok {
			v.err = fmt.Errorf("create a category first (press 'c')")
			return v, nil
		}
		v.startTestForm(models.Test{CategoryID: r.category.ID, Priority: models.PriorityMedium})
		return v, textinput.Blink

	case key.Matches(msg, v.keys.NewCategory):
		v.startCategoryForm(nil)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		r, ok := v.selected()
		if !ok {
			return v, nil
		}
		if r.test == nil {
			v.startCategoryForm(r.category)
		} else {
			v.startTestForm(*r.test)
		}
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if r, ok := v.selected(); ok {
			v.deleteTarget = r
			v.mode = modeConfirmDelete
		}
		return v, nil

	case key.Matches(msg, v.keys.Move):
		r, ok := v.selected()
		if !ok || r.test == nil {
			return v, nil
		}
		if len(v.categories) < 2 {
			v.err = fmt.Errorf("create another category to move tests into")
			return v, nil
		}
		v.mode = modeMoveTest
		v.moveCursor = 0
		return v, nil

	case key.Matches(msg, v.keys.Runs):
		p := v.project
		return v, nav.Push(NewRunsView(v.env, &p))

	case key.Matches(msg, v.keys.NewRun):
		return v, nav.Push(NewNewRunView(v.env, v.project))

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *ProjectView) updateViewTest(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
		v.mode = modeBrowse
	case key.Matches(msg, v.keys.Edit):
		if r, ok := v.selected(); ok && r.test != nil {
			v.startTestForm(*r.test)
			return v, textinput.Blink
		}
	case key.Matches(msg, v.keys.Delete):
		if r, ok := v.selected(); ok {
			v.deleteTarget = r
			v.mode = modeConfirmDelete
		}
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	}
	return v, nil
}

func (v *ProjectView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.mode = modeBrowse
		ctx := context.Background()
		var err error
		if v.deleteTarget.test != nil {
			err = v.env.DB.DeleteTest(ctx, v.deleteTarget.test.ID)
		} else {
			err = v.env.DB.DeleteCategory(ctx, v.deleteTarget.category.ID)
		}
		if err != nil {
			v.err = err
			return v, nil
		}
		return v, v.load
	case "n", "N", "esc":
		v.mode = modeBrowse
	}
	return v, nil
}

func (v *ProjectView) updateMoveTest(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = modeBrowse
	case key.Matches(msg, v.keys.Up):
		if v.moveCursor > 0 {
			v.moveCursor--
		}
	case key.Matches(msg, v.keys.Down):
		if v.moveCursor < len(v.categories)-1 {
			v.moveCursor++
		}
	case key.Matches(msg, v.keys.Enter):
		v.mode = modeBrowse
		r, ok := v.selected()
		if !ok || r.test == nil {
			return v, nil
		}
		target := v.categories[v.moveCursor]
		if target.ID == r.test.CategoryID {
			return v, nil
		}
		if err := v.env.DB.MoveTest(context.Background(), r.test.ID, target.ID); err != nil {
			v.err = err
			return v, nil
		}
		v.err = nil
		return v, v.load
	}
	return v, nil
}

func (v *ProjectView) startCategoryForm(c *models.Category) {
	v.mode = modeEditCategory
	v.categoryID = 0
	v.categoryInput.Reset()
	if c != nil {
		v.categoryID = c.ID
		v.categoryInput.SetValue(c.Name)
	}
	v.categoryInput.Focus()
}

func (v *ProjectView) updateEditCategory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = modeBrowse
		v.categoryInput.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Save):
		name := strings.TrimSpace(v.categoryInput.Value())
		if name == "" {
			return v, nil
		}
		ctx := context.Background()
		var err error
		if v.categoryID != 0 {
			err = v.env.DB.RenameCategory(ctx, v.categoryID, name)
		} else {
			_, err = v.env.DB.CreateCategory(ctx, v.project.ID, name)
		}
		if err != nil {
			v.err = err
			return v, nil
		}
		v.mode = modeBrowse
		v.categoryInput.Blur()
		v.err = nil
		return v, v.load
	}
	var cmd tea.Cmd
	v.categoryInput, cmd = v.categoryInput.Update(msg)
	return v, cmd
}

func (v *ProjectView) startTestForm(t models.Test) {
	v.mode = modeEditTest
	v.editTest = t
	v.editFocusIdx = fieldName
	v.editName.SetValue(t.Name)
	v.editDesc.SetValue(t.Description)
	v.editCommand.SetValue(t.Command)
	v.editExpected.SetValue(t.ExpectedResult)
	v.editPrep.SetValue(t.PrepSteps)
	v.editPriority = t.Priority
	v.editAutomated = t.Automated
	v.updateEditFocus()
}

func (v *ProjectView) updateEditTest(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = modeBrowse
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTest()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + fieldCount - 1) % fieldCount
		v.updateEditFocus()
		return v, nil
	}

	switch v.editFocusIdx {
	case fieldPriority:
		switch {
		case key.Matches(msg, v.keys.Left), key.Matches(msg, v.keys.Down):
			if v.editPriority > models.PriorityLow {
				v.editPriority--
			}
		case key.Matches(msg, v.keys.Right), key.Matches(msg, v.keys.Up):
			if v.editPriority < models.PriorityCritical {
				v.editPriority++
			}
		case key.Matches(msg, v.keys.Enter):
			v.editFocusIdx++
			v.updateEditFocus()
		}
		return v, nil
	case fieldAutomated:
		switch {
		case key.Matches(msg, v.keys.Toggle):
			v.editAutomated = !v.editAutomated
		case key.Matches(msg, v.keys.Enter):
			v.editFocusIdx++
			v.updateEditFocus()
		}
		return v, nil
	case fieldSave:
		if key.Matches(msg, v.keys.Enter) {
			return v, v.saveTest()
		}
		return v, nil
	case fieldName, fieldCommand:
		// Enter on single-line fields moves to the next field
		if key.Matches(msg, v.keys.Enter) {
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case fieldName:
		v.editName, cmd = v.editName.Update(msg)
	case fieldDescription:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case fieldCommand:
		v.editCommand, cmd = v.editCommand.Update(msg)
	case fieldExpected:
		v.editExpected, cmd = v.editExpected.Update(msg)
	case fieldPrep:
		v.editPrep, cmd = v.editPrep.Update(msg)
	}
	return v, cmd
}

func (v *ProjectView) updateEditFocus() {
	v.editName.Blur()
	v.editDesc.Blur()
	v.editCommand.Blur()
	v.editExpected.Blur()
	v.editPrep.Blur()
	if v.mode != modeEditTest {
		return
	}

	switch v.editFocusIdx {
	case fieldName:
		v.editName.Focus()
	case fieldDescription:
		v.editDesc.Focus()
	case fieldCommand:
		v.editCommand.Focus()
	case fieldExpected:
		v.editExpected.Focus()
	case fieldPrep:
		v.editPrep.Focus()
	}
}

func (v *ProjectView) saveTest() tea.Cmd {
	t := v.editTest
	t.Name = strings.TrimSpace(v.editName.Value())
	if t.Name == "" {
		v.err = fmt.Errorf("test name is required")
		return nil
	}
	t.Description = strings.TrimSpace(v.editDesc.Value())
	t.Command = strings.TrimSpace(v.editCommand.Value())
	t.ExpectedResult = strings.TrimSpace(v.editExpected.Value())
	t.PrepSteps = strings.TrimSpace(v.editPrep.Value())
	t.Priority = v.editPriority
	t.Automated = v.editAutomated

	ctx := context.Background()
	var err error
	if t.ID == 0 {
		_, err = v.env.DB.CreateTest(ctx, t)
	} else {
		err = v.env.DB.UpdateTest(ctx, t)
	}
	if err != nil {
		v.err = err
		return nil
	}

	v.err = nil
	v.mode = modeBrowse
	v.updateEditFocus()
	return v.load
}

func (v *ProjectView) ensureVisible() {
	visible := v.visibleRows()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

func (v *ProjectView) visibleRows() int {
	return max(v.height-8, 1)
}

// View renders the view
func (v *ProjectView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	switch v.mode {
	case modeConfirmDelete:
		if v.deleteTarget.test != nil {
			return confirmBox(v.styles, v.width, v.height, "Delete Test?",
				fmt.Sprintf("\"%s\" and its results in every run will be deleted.", v.deleteTarget.test.Name))
		}
		return confirmBox(v.styles, v.width, v.height, "Delete Category?",
			fmt.Sprintf("\"%s\" and all of its tests will be deleted.", v.deleteTarget.category.Name))
	case modeEditTest:
		return v.renderTestForm()
	case modeEditCategory:
		return v.renderCategoryForm()
	case modeViewTest:
		return v.renderTestDetail()
	case modeMoveTest:
		return v.renderMovePicker()
	}

	s := v.styles
	var b strings.Builder
	b.WriteString(s.Title.Render(v.project.Name))
	if v.project.Description != "" {
		b.WriteString("\n" + s.TitleMuted.Render(truncate(firstLine(v.project.Description), styles.ContentWidth(v.width)-2)))
	}
	b.WriteString("\n\n")
	b.WriteString(v.renderTree())
	if v.err != nil {
		b.WriteString("\n" + s.Error.Render(v.err.Error()))
	}
	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *ProjectView) renderTree() string {
	s := v.styles
	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}
	if len(v.rows) == 0 {
		return s.TitleMuted.Render("No categories. Press 'c' to create one.")
	}

	width := max(styles.ContentWidth(v.width)-4, 20)
	end := min(v.scrollY+v.visibleRows(), len(v.rows))
	lines := make([]string, 0, end-v.scrollY)
	for i := v.scrollY; i < end; i++ {
		r := v.rows[i]
		var text string
		if r.test == nil {
			marker := "▾"
			if v.collapsed[r.category.ID] {
				marker = "▸"
			}
			text = s.Category.Render(fmt.Sprintf("%s %s (%d)", marker, r.category.Name, len(v.tests[r.category.ID])))
		} else {
			auto := ""
			if r.test.Automated {
				auto = " [auto]"
			}
			text = fmt.Sprintf("    %s %s%s",
				styles.PriorityStyle(r.test.Priority).Render(fmt.Sprintf("%-8s", r.test.Priority)),
				truncate(r.test.Name, width-20),
				auto)
		}
		style := s.ListItem.Width(width)
		if i == v.cursor {
			style = s.ListSelected.Width(width)
		}
		lines = append(lines, style.Render(text))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *ProjectView) renderTestDetail() string {
	s := v.styles
	r, ok := v.selected()
	if !ok || r.test == nil {
		return ""
	}
	t := r.test
	width := clamp(styles.ContentWidth(v.width)-4, 20, styles.MaxWidth)
	field := func(label, value string) string {
		if value == "" {
			value = s.TitleMuted.Render("-")
		}
		return s.Label.Render(label) + "\n" + lipgloss.NewStyle().Width(width).Render(value)
	}
	automated := "No"
	if t.Automated {
		automated = "Yes"
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(t.Name),
		s.TitleMuted.Render(r.category.Name),
		"",
		field("Priority", t.Priority.String())+"    "+s.Label.Render("Automated ")+automated,
		"",
		field("Description", t.Description),
		"",
		field("Command", t.Command),
		"",
		field("Expected Result", t.ExpectedResult),
		"",
		field("Preparation", t.PrepSteps),
		"",
		helpBar(s, "e", "edit", "d", "delete", "esc", "back"),
	)
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectView) renderMovePicker() string {
	s := v.styles
	r, _ := v.selected()
	items := []string{s.Title.Render("Move Test"), ""}
	if r.test != nil {
		items = append(items, s.TitleMuted.Render(r.test.Name), "")
	}
	for i, c := range v.categories {
		style := s.ListItem
		if i == v.moveCursor {
			style = s.ListSelected
		}
		name := c.Name
		if r.test != nil && c.ID == r.test.CategoryID {
			name += " (current)"
		}
		items = append(items, style.Render(name))
	}
	items = append(items, "", helpBar(s, "↑↓", "select", "↵", "move", "esc", "cancel"))
	centered := lipgloss.Place(styles.ContentWidth(v.width), v.height,
		lipgloss.Center, lipgloss.Center,
		s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectView) renderCategoryForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	title := "New Category"
	if v.categoryID != 0 {
		title = "Rename Category"
	}
	parts := []string{
		s.Title.Render(title),
		"",
		s.InputFocused.Width(clamp(contentWidth-6, 20, 50)).Render(v.categoryInput.View()),
		"",
		s.TitleMuted.Render("↵: save • Esc: cancel"),
	}
	if v.err != nil {
		parts = append(parts, s.Error.Render(v.err.Error()))
	}
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectView) renderTestForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	formTitle := "New Test"
	if v.editTest.ID != 0 {
		formTitle = "Edit Test"
	}

	style := func(idx int) lipgloss.Style {
		if v.editFocusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if v.editFocusIdx == fieldSave {
		btnStyle = s.ButtonFocused
	}
	automated := "[ ] Automated"
	if v.editAutomated {
		automated = "[x] Automated"
	}

	parts := []string{
		s.Title.Render(formTitle),
		"",
		"Name:",
		style(fieldName).Width(inputWidth).Render(v.editName.View()),
		"Description:",
		style(fieldDescription).Render(v.editDesc.View()),
		"Command:",
		style(fieldCommand).Width(inputWidth).Render(v.editCommand.View()),
		"Expected result:",
		style(fieldExpected).Render(v.editExpected.View()),
		"Preparation steps:",
		style(fieldPrep).Render(v.editPrep.View()),
		"Priority:",
		style(fieldPriority).Width(16).Render("◂ " + v.editPriority.String() + " ▸"),
		style(fieldAutomated).Width(18).Render(automated),
		"",
		btnStyle.Render(" Save "),
		"",
		s.TitleMuted.Render("Tab: next • ←→: priority • Space: toggle • Ctrl+S: save • Esc: cancel"),
	}
	if v.err != nil {
		parts = append(parts, s.Error.Render(v.err.Error()))
	}

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectView) renderHelp() string {
	return footerHelp(v.styles, v.width,
		"↵", "open", "n", "test", "c", "category", "e", "edit", "d", "del",
		"M", "move", "R", "new run", "r", "runs", "esc", "back")
}

func (v *ProjectView) renderHelpPopup() string {
	return helpPopup(v.styles, v.width, v.height,
		"↵", "view test / fold category",
		"n", "new test in category",
		"c", "new category",
		"e", "edit test or rename category",
		"d", "delete",
		"M", "move test to another category",
		"R", "new test run",
		"r", "runs of this project",
		"esc", "back",
		"q", "quit",
	)
}
