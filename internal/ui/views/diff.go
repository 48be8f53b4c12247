package views

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/litmus/internal/diff"
	"github.com/tgienger/litmus/internal/models"
	"github.com/tgienger/litmus/internal/ui/keys"
	"github.com/tgienger/litmus/internal/ui/nav"
	"github.com/tgienger/litmus/internal/ui/styles"
)

// DiffView compares a baseline run with another run
type DiffView struct {
	env           Env
	left, right   int64
	styles        *styles.Styles
	keys          keys.KeyMap
	result        *diff.Result
	showUnchanged bool
	scrollY       int
	err           error
	width         int
	height        int
}

// NewDiffView compares run left (baseline) with run right
func NewDiffView(env Env, left, right int64) *DiffView {
	return &DiffView{
		env:    env,
		left:   left,
		right:  right,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
	}
}

type diffLoadedMsg struct {
	result *diff.Result
}

func (v *DiffView) Init() tea.Cmd {
	return v.load
}

func (v *DiffView) load() tea.Msg {
	res, err := diff.NewEngine(v.env.DB).CompareRuns(context.Background(), v.left, v.right)
	if err != nil {
		return errMsg{err}
	}
	return diffLoadedMsg{result: res}
}

func (v *DiffView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
	case diffLoadedMsg:
		v.result = msg.result
	case errMsg:
		v.err = msg.err
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Back):
			return v, nav.Pop()
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Unchanged):
			v.showUnchanged = !v.showUnchanged
			v.scrollY = 0
		case key.Matches(msg, v.keys.Down):
			v.scrollY++
		case key.Matches(msg, v.keys.Up):
			if v.scrollY > 0 {
				v.scrollY--
			}
		}
	}
	return v, nil
}

// lines renders the comparison body before scrolling
func (v *DiffView) lines() []string {
	s := v.styles
	r := v.result
	out := []string{}

	for _, side := range []struct {
		label string
		sum   diff.Summary
	}{{"Baseline", r.Left}, {"Compare ", r.Right}} {
		c := side.sum.Counts
		out = append(out, fmt.Sprintf("%s  Run #%-4d Build %-10s %s %d  %s %d  %s %d  total %d  %.0f%% pass",
			s.Label.Render(side.label), side.sum.Run.ID, side.sum.Run.BuildVersion(),
			styles.Status(models.StatusPass), c.Passed,
			styles.Status(models.StatusFail), c.Failed,
			styles.Status(models.StatusBlocked), c.Blocked,
			c.Total(), c.PassRate()))
	}

	section := func(title string, items []diff.Item, color lipgloss.Color) {
		out = append(out, "", lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%s (%d)", title, len(items))))
		if len(items) == 0 {
			out = append(out, s.TitleMuted.Render("  None"))
		}
		for _, it := range items {
			out = append(out, fmt.Sprintf("  %s / %s: %s → %s", it.CategoryName, it.TestName, styles.Status(it.Left), styles.Status(it.Right)))
		}
	}
	section("Regressions", r.Regressions, styles.Current.Fail)
	section("Fixes", r.Fixes, styles.Current.Pass)
	if v.showUnchanged {
		section("Unchanged", r.Unchanged, styles.Current.ForegroundDim)
	} else {
		out = append(out, "", s.TitleMuted.Render(fmt.Sprintf("%d unchanged (press u to show)", len(r.Unchanged))))
	}
	return out
}

func (v *DiffView) View() string {
	s := v.styles
	parts := []string{s.Title.Render(fmt.Sprintf("Compare Run #%d with #%d", v.left, v.right)), ""}

	switch {
	case v.err != nil:
		msg := v.err.Error()
		if errors.Is(v.err, diff.ErrSameRun) {
			msg = "Select two different runs to compare."
		}
		parts = append(parts, s.Error.Render(msg))
	case v.result == nil:
		parts = append(parts, s.TitleMuted.Render("Loading..."))
	default:
		body := v.lines()
		visible := max(v.height-6, 1)
		start := clamp(v.scrollY, 0, max(len(body)-visible, 0))
		end := min(start+visible, len(body))
		parts = append(parts, body[start:end]...)
	}

	parts = append(parts, helpBar(s, "↑↓", "scroll", "u", "unchanged", "esc", "back"))
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, parts...), v.width, v.height)
}
