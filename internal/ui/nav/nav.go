// Package nav keeps the stack of screens shown by the application.
package nav

import tea "github.com/charmbracelet/bubbletea"

// PushMsg asks the controller to show a new screen on top of the current one
type PushMsg struct {
	Screen tea.Model
}

// PopMsg asks the controller to return to the previous screen
type PopMsg struct{}

// ReplaceMsg swaps the current screen for another one
type ReplaceMsg struct {
	Screen tea.Model
}

// Push returns a command that pushes s
func Push(s tea.Model) tea.Cmd {
	return func() tea.Msg { return PushMsg{Screen: s} }
}

// Pop returns a command that pops the current screen
func Pop() tea.Cmd {
	return func() tea.Msg { return PopMsg{} }
}

// Replace returns a command that replaces the current screen with s
func Replace(s tea.Model) tea.Cmd {
	return func() tea.Msg { return ReplaceMsg{Screen: s} }
}

// Controller owns the screen stack. Only the top screen receives input;
// window sizes reach every screen so a revealed screen is laid out already.
type Controller struct {
	stack  []tea.Model
	width  int
	height int
}

// New creates a controller showing root
func New(root tea.Model) *Controller {
	return &Controller{stack: []tea.Model{root}}
}

// Active returns the top screen
func (c *Controller) Active() tea.Model {
	return c.stack[len(c.stack)-1]
}

// Depth returns the number of stacked screens
func (c *Controller) Depth() int {
	return len(c.stack)
}

// Size returns the last known window size
func (c *Controller) Size() (int, int) {
	return c.width, c.height
}

// Init initializes the root screen
func (c *Controller) Init() tea.Cmd {
	return c.Active().Init()
}

// Update routes navigation messages and forwards everything else to the top screen
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width, c.height = msg.Width, msg.Height
		var cmds []tea.Cmd
		for i, s := range c.stack {
			var cmd tea.Cmd
			c.stack[i], cmd = s.Update(msg)
			cmds = append(cmds, cmd)
		}
		return tea.Batch(cmds...)

	case PushMsg:
		c.stack = append(c.stack, msg.Screen)
		return c.enter()

	case ReplaceMsg:
		c.stack[len(c.stack)-1] = msg.Screen
		return c.enter()

	case PopMsg:
		if len(c.stack) == 1 {
			return tea.Quit
		}
		c.stack = c.stack[:len(c.stack)-1]
		// reload, the popped screen may have changed data
		return c.enter()
	}

	top := len(c.stack) - 1
	var cmd tea.Cmd
	c.stack[top], cmd = c.stack[top].Update(msg)
	return cmd
}

// View renders the top screen
func (c *Controller) View() string {
	return c.Active().View()
}

func (c *Controller) enter() tea.Cmd {
	top := len(c.stack) - 1
	cmds := []tea.Cmd{c.stack[top].Init()}
	if c.width > 0 || c.height > 0 {
		var cmd tea.Cmd
		c.stack[top], cmd = c.stack[top].Update(tea.WindowSizeMsg{Width: c.width, Height: c.height})
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}
