package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding used by the views
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Enter  key.Binding
	Back   key.Binding
	Quit   key.Binding
	Tab    key.Binding
	Help   key.Binding
	Save   key.Binding
	Toggle key.Binding

	New         key.Binding
	NewCategory key.Binding
	Edit        key.Binding
	Delete      key.Binding
	Archive     key.Binding
	Runs        key.Binding
	NewRun      key.Binding
	Filter      key.Binding
	Diff        key.Binding
	Unchanged   key.Binding
	Move        key.Binding

	// execution
	Pass         key.Binding
	Fail         key.Binding
	Block        key.Binding
	Skip         key.Binding
	NextNotRun   key.Binding
	Notes        key.Binding
	Templates    key.Binding
	Attach       key.Binding
	RemoveAttach key.Binding
	MoveToEnd    key.Binding
	Jump         key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "previous")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next")),
		Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("↵", "select")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Tab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Save:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),

		New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		NewCategory: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "new category")),
		Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Archive:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archive")),
		Runs:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "runs")),
		NewRun:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "new run")),
		Filter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Diff:        key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "diff")),
		Unchanged:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unchanged")),
		Move:        key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "move to category")),

		Pass:         key.NewBinding(key.WithKeys("p", "P"), key.WithHelp("p", "pass")),
		Fail:         key.NewBinding(key.WithKeys("f", "F"), key.WithHelp("f", "fail")),
		Block:        key.NewBinding(key.WithKeys("b", "B"), key.WithHelp("b", "blocked")),
		Skip:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
		NextNotRun:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next not run")),
		Notes:        key.NewBinding(key.WithKeys("tab", "i"), key.WithHelp("i", "edit notes")),
		Templates:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "quick fail")),
		Attach:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "attach")),
		RemoveAttach: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove attachment")),
		MoveToEnd:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move to end")),
		Jump:         key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to #")),
	}
}
