package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/litmus/internal/diff"
	"github.com/tgienger/litmus/internal/models"
	"github.com/tgienger/litmus/internal/ui/keys"
	"github.com/tgienger/litmus/internal/ui/nav"
	"github.com/tgienger/litmus/internal/ui/styles"
)

var runFilters = []models.RunFilter{
	models.RunFilterAll,
	models.RunFilterHasFailures,
	models.RunFilterAllPassed,
	models.RunFilterInProgress,
}

// RunsView lists runs of one project, or of every project when project is nil
type RunsView struct {
	env     Env
	project *models.Project
	styles  *styles.Styles
	keys    keys.KeyMap

	runs    []models.RunSummary
	filter  int
	loaded  bool
	cursor  int
	scrollY int
	mark    int64 // baseline picked with 'c' for a diff
	err     error
	status  string

	confirmingDelete bool
	width            int
	height           int
}

// NewRunsView creates the run list
func NewRunsView(env Env, project *models.Project) *RunsView {
	return &RunsView{
		env:     env,
		project: project,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
	}
}

type runsLoadedMsg struct {
	runs []models.RunSummary
}

func (v *RunsView) Init() tea.Cmd {
	return v.load
}

func (v *RunsView) load() tea.Msg {
	var projectID int64
	if v.project != nil {
		projectID = v.project.ID
	}
	runs, err := v.env.DB.ListRunSummaries(context.Background(), projectID, runFilters[v.filter])
	if err != nil {
		return errMsg{err}
	}
	return runsLoadedMsg{runs: runs}
}

func (v *RunsView) selected() (models.RunSummary, bool) {
	if v.cursor < 0 || v.cursor >= len(v.runs) {
		return models.RunSummary{}, false
	}
	return v.runs[v.cursor], true
}

func (v *RunsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		return v, nil

	case runsLoadedMsg:
		v.runs = msg.runs
		v.loaded = true
		if v.cursor >= len(v.runs) {
			v.cursor = max(0, len(v.runs)-1)
		}
		v.ensureVisible()
		return v, nil

	case errMsg:
		v.err = msg.err
		v.loaded = true
		return v, nil

	case tea.KeyMsg:
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		return v.updateKeys(msg)
	}
	return v, nil
}

func (v *RunsView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		return v, nav.Pop()
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.runs)-1 {
			v.cursor++
			v.ensureVisible()
		}
	case key.Matches(msg, v.keys.Filter):
		v.filter = (v.filter + 1) % len(runFilters)
		v.cursor, v.scrollY = 0, 0
		return v, v.load
	case key.Matches(msg, v.keys.Enter):
		if r, ok := v.selected(); ok {
			return v, nav.Push(NewExecutionView(v.env, r.Run.ID))
		}
	case key.Matches(msg, v.keys.Delete):
		if _, ok := v.selected(); ok {
			v.confirmingDelete = true
		}
	case key.Matches(msg, v.keys.NewCategory):
		// 'c' picks the baseline for a comparison
		if r, ok := v.selected(); ok {
			v.mark = r.Run.ID
			v.status = fmt.Sprintf("Run #%d marked as baseline. Select another run and press D.", r.Run.ID)
		}
	case key.Matches(msg, v.keys.Diff):
		return v, v.compare()
	}
	return v, nil
}

// compare diffs the selected run against the marked baseline, or the
// previous run of its project when none is marked
func (v *RunsView) compare() tea.Cmd {
	r, ok := v.selected()
	if !ok {
		return nil
	}
	left := v.mark
	if left == 0 || left == r.Run.ID {
		runs, err := v.env.DB.ListRuns(context.Background(), r.Run.ProjectID)
		if err != nil {
			v.err = err
			return nil
		}
		left = diff.Baseline(runs, r.Run.ID)
	}
	if left == 0 {
		v.status = "No earlier run to compare with."
		return nil
	}
	v.mark = 0
	v.status = ""
	return nav.Push(NewDiffView(v.env, left, r.Run.ID))
}

func (v *RunsView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		r, ok := v.selected()
		if !ok {
			return v, nil
		}
		if err := v.env.DB.DeleteRun(context.Background(), r.Run.ID); err != nil {
			v.err = err
			return v, nil
		}
		if v.mark == r.Run.ID {
			v.mark = 0
		}
		return v, v.load
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *RunsView) ensureVisible() {
	visible := v.visibleRows()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

func (v *RunsView) visibleRows() int {
	return max(v.height-9, 1)
}

func (v *RunsView) View() string {
	s := v.styles
	if v.confirmingDelete {
		r, _ := v.selected()
		return confirmBox(s, v.width, v.height, "Delete Run?",
			fmt.Sprintf("Run #%d (build %s) and all of its results and attachments will be deleted.", r.Run.ID, r.Run.BuildVersion()))
	}

	title := "Test Runs"
	if v.project != nil {
		title += ": " + v.project.Name
	}
	parts := []string{
		s.Title.Render(title),
		s.TitleMuted.Render("Filter: " + runFilters[v.filter].String()),
		"",
	}

	switch {
	case !v.loaded:
		parts = append(parts, s.TitleMuted.Render("Loading..."))
	case len(v.runs) == 0:
		parts = append(parts, s.TitleMuted.Render("No runs."))
	default:
		width := max(styles.ContentWidth(v.width)-4, 20)
		header := fmt.Sprintf("%-6s %-16s %-10s %5s %5s %5s %5s %6s", "Run", "Created", "Build", "Pass", "Fail", "Block", "Left", "Done")
		if v.project == nil {
			header += "  Project"
		}
		parts = append(parts, s.Label.Render(header))
		end := min(v.scrollY+v.visibleRows(), len(v.runs))
		for i := v.scrollY; i < end; i++ {
			parts = append(parts, v.renderRow(v.runs[i], i == v.cursor, width))
		}
	}

	if v.err != nil {
		parts = append(parts, s.Error.Render(v.err.Error()))
	} else if v.status != "" {
		parts = append(parts, s.StatusBar.Render(v.status))
	}
	parts = append(parts, helpBar(s, "↵", "execute", "f", "filter", "c", "mark baseline", "D", "diff", "d", "delete", "esc", "back"))
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, parts...), v.width, v.height)
}

func (v *RunsView) renderRow(r models.RunSummary, selected bool, width int) string {
	s := v.styles
	c := r.Counts
	id := fmt.Sprintf("#%d", r.Run.ID)
	if r.Run.ID == v.mark {
		id += "*"
	}
	line := fmt.Sprintf("%-6s %-16s %-10s %5d %5d %5d %5d %5.0f%%",
		id,
		r.Run.CreatedAt.Local().Format("2006-01-02 15:04"),
		truncate(r.Run.BuildVersion(), 10),
		c.Passed, c.Failed, c.Blocked, c.NotRun,
		c.CompletionPercent())
	if v.project == nil {
		line += "  " + r.ProjectName
	}
	line = strings.TrimRight(truncate(line, width), " ")

	style := s.ListItem.Width(width)
	switch {
	case selected:
		style = s.ListSelected.Width(width)
	case c.Failed > 0:
		style = style.Foreground(styles.Current.Fail)
	case c.NotRun == 0 && c.Total() > 0:
		style = style.Foreground(styles.Current.Pass)
	}
	return style.Render(line)
}
