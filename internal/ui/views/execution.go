package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/litmus/internal/models"
	"github.com/tgienger/litmus/internal/session"
	"github.com/tgienger/litmus/internal/ui/keys"
	"github.com/tgienger/litmus/internal/ui/nav"
	"github.com/tgienger/litmus/internal/ui/styles"
)

type execMode int

const (
	execNormal execMode = iota
	execNotes
	execTemplates
	execAttach
	execRemoveAttach
	execJump
)

// ExecutionView walks through the results of one run
type ExecutionView struct {
	env    Env
	runID  int64
	styles *styles.Styles
	keys   keys.KeyMap

	sess      *session.Session
	templates []models.FailureTemplate
	project   string

	mode     execMode
	picker   int // cursor in the template or attachment picker
	notes    textarea.Model
	input    textinput.Model // attachment path or jump target
	progress progress.Model

	status string
	err    error
	width  int
	height int
}

// NewExecutionView opens run runID for execution
func NewExecutionView(env Env, runID int64) *ExecutionView {
	notes := textarea.New()
	notes.Placeholder = "Notes for this result"
	notes.CharLimit = models.MaxTestText
	notes.SetWidth(60)
	notes.SetHeight(4)
	notes.ShowLineNumbers = false

	input := textinput.New()
	input.CharLimit = 1024

	return &ExecutionView{
		env:      env,
		runID:    runID,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		notes:    notes,
		input:    input,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

type sessionOpenedMsg struct {
	sess      *session.Session
	templates []models.FailureTemplate
	project   string
}

func (v *ExecutionView) Init() tea.Cmd {
	return v.open
}

func (v *ExecutionView) open() tea.Msg {
	ctx := context.Background()
	sess, err := session.Open(ctx, v.env.DB, v.env.Files, v.runID, v.env.Log, session.WithMoveGap(v.env.MoveGap))
	if err != nil {
		return errMsg{err}
	}
	templates, err := v.env.DB.ListFailureTemplates(ctx)
	if err != nil {
		return errMsg{err}
	}
	var name string
	if p, err := v.env.DB.GetProject(ctx, sess.Run().ProjectID); err == nil {
		name = p.Name
	}
	return sessionOpenedMsg{sess: sess, templates: templates, project: name}
}

// Session exposes the open session, nil until loaded
func (v *ExecutionView) Session() *session.Session {
	return v.sess
}

func (v *ExecutionView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.notes.SetWidth(clamp(contentWidth-8, 20, 70))
		v.progress.Width = clamp(contentWidth-20, 10, 60)
		return v, nil

	case sessionOpenedMsg:
		v.sess = msg.sess
		v.templates = msg.templates
		v.project = msg.project
		v.syncNotes()
		if v.sess.Len() == 0 {
			v.status = "This run has no test results."
		}
		return v, nil

	case errMsg:
		v.err = msg.err
		return v, nil

	case tea.KeyMsg:
		if v.sess == nil {
			if key.Matches(msg, v.keys.Back) {
				return v, nav.Pop()
			}
			if key.Matches(msg, v.keys.Quit) {
				return v, tea.Quit
			}
			return v, nil
		}
		switch v.mode {
		case execNotes:
			return v.updateNotes(msg)
		case execTemplates:
			return v.updateTemplates(msg)
		case execRemoveAttach:
			return v.updateRemoveAttach(msg)
		case execAttach, execJump:
			return v.updateInput(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

// syncNotes loads the session's notes buffer into the editor
func (v *ExecutionView) syncNotes() {
	v.notes.SetValue(v.sess.Notes())
}

// report turns a navigation result into the status line
func (v *ExecutionView) report(o session.Outcome, err error) {
	if err != nil {
		v.err = err
		return
	}
	v.err = nil
	v.status = o.Message()
	v.syncNotes()
}

func (v *ExecutionView) mark(status models.Status) {
	ctx := context.Background()
	if err := v.sess.MarkStatus(ctx, status); err != nil {
		v.err = err
		return
	}
	v.report(v.sess.Advance(ctx))
}

func (v *ExecutionView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	empty := v.sess.Len() == 0

	switch {
	case key.Matches(msg, v.keys.Back):
		if err := v.sess.Close(ctx); err != nil {
			v.err = err
			return v, nil
		}
		return v, nav.Pop()
	case key.Matches(msg, v.keys.Quit):
		if err := v.sess.Close(ctx); err != nil {
			v.env.Log.Error().Err(err).Msg("save notes on quit")
		}
		return v, tea.Quit
	case key.Matches(msg, v.keys.Help):
		return v, nil
	case empty:
		return v, nil

	case key.Matches(msg, v.keys.Pass):
		v.mark(models.StatusPass)
	case key.Matches(msg, v.keys.Fail):
		v.mark(models.StatusFail)
	case key.Matches(msg, v.keys.Block):
		v.mark(models.StatusBlocked)
	case key.Matches(msg, v.keys.Right):
		v.report(v.sess.Advance(ctx))
	case key.Matches(msg, v.keys.Left):
		v.report(v.sess.Retreat(ctx))
	case key.Matches(msg, v.keys.Skip):
		v.report(v.sess.Skip(ctx))
	case key.Matches(msg, v.keys.NextNotRun):
		v.report(v.sess.JumpToNextNotRun(ctx))
	case key.Matches(msg, v.keys.Save):
		v.saveNotes()
	case key.Matches(msg, v.keys.Notes):
		v.mode = execNotes
		return v, v.notes.Focus()
	case key.Matches(msg, v.keys.Templates):
		if len(v.templates) > 0 {
			v.mode = execTemplates
			v.picker = 0
		}
	case key.Matches(msg, v.keys.Attach):
		v.startInput(execAttach, "Path to file")
		return v, textinput.Blink
	case key.Matches(msg, v.keys.RemoveAttach):
		if cur := v.sess.Current(); cur != nil && len(cur.Attachments) > 0 {
			v.mode = execRemoveAttach
			v.picker = 0
		} else {
			v.status = "No attachments to remove."
		}
	case key.Matches(msg, v.keys.MoveToEnd):
		if err := v.sess.MoveCurrentToEnd(ctx); err != nil {
			v.err = err
			break
		}
		v.status = "Moved to the end of the list."
		v.syncNotes()
	case key.Matches(msg, v.keys.Jump):
		v.startInput(execJump, fmt.Sprintf("Test number (1-%d)", v.sess.Len()))
		return v, textinput.Blink
	}
	return v, nil
}

func (v *ExecutionView) saveNotes() {
	v.sess.SetNotes(v.notes.Value())
	if err := v.sess.SaveNotes(context.Background()); err != nil {
		v.err = err
		return
	}
	v.status = "Notes saved."
}

func (v *ExecutionView) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = execNormal
		v.notes.Blur()
		v.sess.SetNotes(v.notes.Value())
		return v, nil
	case key.Matches(msg, v.keys.Save):
		v.saveNotes()
		return v, nil
	}
	var cmd tea.Cmd
	v.notes, cmd = v.notes.Update(msg)
	v.sess.SetNotes(v.notes.Value())
	return v, cmd
}

func (v *ExecutionView) updateTemplates(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = execNormal
	case key.Matches(msg, v.keys.Up):
		if v.picker > 0 {
			v.picker--
		}
	case key.Matches(msg, v.keys.Down):
		if v.picker < len(v.templates)-1 {
			v.picker++
		}
	case key.Matches(msg, v.keys.Enter):
		v.mode = execNormal
		ctx := context.Background()
		if err := v.sess.ApplyTemplate(ctx, v.templates[v.picker]); err != nil {
			v.err = err
			return v, nil
		}
		v.report(v.sess.Advance(ctx))
	}
	return v, nil
}

func (v *ExecutionView) updateRemoveAttach(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cur := v.sess.Current()
	if cur == nil || len(cur.Attachments) == 0 {
		v.mode = execNormal
		return v, nil
	}
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = execNormal
	case key.Matches(msg, v.keys.Up):
		if v.picker > 0 {
			v.picker--
		}
	case key.Matches(msg, v.keys.Down):
		if v.picker < len(cur.Attachments)-1 {
			v.picker++
		}
	case key.Matches(msg, v.keys.Enter):
		v.mode = execNormal
		a := cur.Attachments[v.picker]
		if err := v.sess.RemoveAttachment(context.Background(), a.ID); err != nil {
			v.err = err
			return v, nil
		}
		v.status = fmt.Sprintf("Removed %s.", a.FileName)
	}
	return v, nil
}

func (v *ExecutionView) startInput(mode execMode, placeholder string) {
	v.mode = mode
	v.input.Reset()
	v.input.Placeholder = placeholder
	v.input.Focus()
}

func (v *ExecutionView) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = execNormal
		v.input.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		value := strings.TrimSpace(v.input.Value())
		mode := v.mode
		v.mode = execNormal
		v.input.Blur()
		if value == "" {
			return v, nil
		}
		ctx := context.Background()
		if mode == execJump {
			n, err := strconv.Atoi(value)
			if err != nil {
				v.status = fmt.Sprintf("%q is not a number.", value)
				return v, nil
			}
			v.report(v.sess.JumpTo(ctx, n))
			return v, nil
		}
		a, err := v.sess.AddAttachment(ctx, value)
		if err != nil {
			v.err = err
			return v, nil
		}
		v.err = nil
		v.status = fmt.Sprintf("Attached %s.", a.FileName)
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *ExecutionView) View() string {
	s := v.styles
	if v.sess == nil {
		if v.err != nil {
			return s.Error.Render(v.err.Error())
		}
		return s.TitleMuted.Render("Loading...")
	}

	width := clamp(styles.ContentWidth(v.width)-4, 20, styles.MaxWidth)
	run := v.sess.Run()
	counts := v.sess.Progress()

	header := s.Title.Render(fmt.Sprintf("%s  Run #%d  Build %s", v.project, run.ID, run.BuildVersion()))
	bar := lipgloss.JoinHorizontal(lipgloss.Center,
		v.progress.ViewAs(counts.CompletionPercent()/100),
		fmt.Sprintf("  %.0f%%", counts.CompletionPercent()),
	)
	tally := fmt.Sprintf("%s %d  %s %d  %s %d  %s %d",
		styles.Status(models.StatusPass), counts.Passed,
		styles.Status(models.StatusFail), counts.Failed,
		styles.Status(models.StatusBlocked), counts.Blocked,
		styles.Status(models.StatusNotRun), counts.NotRun,
	)

	parts := []string{header, s.Progress.Render(bar), s.Progress.Render(tally), ""}

	cur := v.sess.Current()
	if cur == nil {
		parts = append(parts, s.TitleMuted.Render("This run has no test results."))
	} else {
		parts = append(parts, v.renderResult(cur, width)...)
	}

	switch v.mode {
	case execTemplates:
		parts = append(parts, "", v.renderTemplates())
	case execRemoveAttach:
		parts = append(parts, "", v.renderAttachmentPicker(cur))
	case execAttach, execJump:
		parts = append(parts, "", s.InputFocused.Width(clamp(width-4, 20, 60)).Render(v.input.View()))
	}

	if v.err != nil {
		parts = append(parts, s.Error.Render(v.err.Error()))
	} else if v.status != "" {
		parts = append(parts, s.StatusBar.Render(v.status))
	}
	parts = append(parts, v.renderHelp())

	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, parts...), v.width, v.height)
}

func (v *ExecutionView) renderResult(cur *models.TestResult, width int) []string {
	s := v.styles
	t := cur.Test
	field := func(label, value string) []string {
		if value == "" {
			return nil
		}
		return []string{s.Label.Render(label), lipgloss.NewStyle().Width(width).Render(value)}
	}

	parts := []string{
		s.TitleMuted.Render(fmt.Sprintf("Test %d of %d  •  %s  •  %s", v.sess.Index()+1, v.sess.Len(), cur.CategoryName, t.Priority)),
		s.Title.Render(t.Name),
		"Status: " + styles.Status(cur.Status) + "    Previous: " + s.TitleMuted.Render(v.sess.PriorLabel()),
		"",
	}
	parts = append(parts, field("Description", t.Description)...)
	parts = append(parts, field("Preparation", t.PrepSteps)...)
	parts = append(parts, field("Command", t.Command)...)
	parts = append(parts, field("Expected Result", t.ExpectedResult)...)

	notesStyle := s.Input
	if v.mode == execNotes {
		notesStyle = s.InputFocused
	}
	parts = append(parts, s.Label.Render("Notes"), notesStyle.Render(v.notes.View()))

	if len(cur.Attachments) > 0 {
		names := make([]string, len(cur.Attachments))
		for i, a := range cur.Attachments {
			names[i] = a.FileName
		}
		parts = append(parts, s.Label.Render("Attachments")+" "+strings.Join(names, ", "))
	}
	return parts
}

func (v *ExecutionView) renderTemplates() string {
	s := v.styles
	items := []string{s.Title.Render("Quick Fail")}
	for i, t := range v.templates {
		style := s.ListItem
		if i == v.picker {
			style = s.ListSelected
		}
		items = append(items, style.Render(t.Name))
	}
	return s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *ExecutionView) renderAttachmentPicker(cur *models.TestResult) string {
	s := v.styles
	items := []string{s.Title.Render("Remove Attachment")}
	if cur != nil {
		for i, a := range cur.Attachments {
			style := s.ListItem
			if i == v.picker {
				style = s.ListSelected
			}
			items = append(items, style.Render(a.FileName))
		}
	}
	return s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *ExecutionView) renderHelp() string {
	switch v.mode {
	case execNotes:
		return helpBar(v.styles, "ctrl+s", "save notes", "esc", "done")
	case execTemplates, execRemoveAttach:
		return helpBar(v.styles, "↑↓", "select", "↵", "apply", "esc", "cancel")
	case execAttach, execJump:
		return helpBar(v.styles, "↵", "ok", "esc", "cancel")
	}
	return helpBar(v.styles,
		"p", "pass", "f", "fail", "b", "blocked", "←→", "move", "s", "skip", "n", "next not run",
		"i", "notes", "t", "quick fail", "a", "attach", "x", "remove", "m", "to end", "g", "go to", "esc", "back")
}
