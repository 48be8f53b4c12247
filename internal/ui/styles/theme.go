package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/litmus/internal/models"
)

// Theme is the palette every style is derived from
type Theme struct {
	Name string

	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	// one color per result status, also used for pass/fail counters
	Pass    lipgloss.Color
	Fail    lipgloss.Color
	Blocked lipgloss.Color
	NotRun  lipgloss.Color

	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
}

// Bench is the default palette
var Bench = Theme{
	Name: "Bench",

	Background:    lipgloss.Color("#16181d"),
	Foreground:    lipgloss.Color("#d4d8e0"),
	ForegroundDim: lipgloss.Color("#6b7280"),

	Primary:   lipgloss.Color("#60a5fa"),
	Secondary: lipgloss.Color("#c4b5fd"),
	Accent:    lipgloss.Color("#67e8f9"),
	Warning:   lipgloss.Color("#fbbf24"),
	Error:     lipgloss.Color("#f87171"),

	Pass:    lipgloss.Color("#4ade80"),
	Fail:    lipgloss.Color("#f87171"),
	Blocked: lipgloss.Color("#fb923c"),
	NotRun:  lipgloss.Color("#6b7280"),

	Border:      lipgloss.Color("#374151"),
	BorderFocus: lipgloss.Color("#60a5fa"),
	Selection:   lipgloss.Color("#1e3a5f"),
}

// Current holds the active theme
var Current = Bench

// MaxWidth caps the content column
const MaxWidth = 80

// ContentWidth returns the width views lay out against
func ContentWidth(terminalWidth int) int {
	return min(terminalWidth, MaxWidth)
}

// CenterView centers content horizontally on terminals wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Center, lipgloss.Top, content)
}

// Styles holds the pre-computed styles shared by the views
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style
	Label      lipgloss.Style
	Category   lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	Panel         lipgloss.Style
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style
	Input         lipgloss.Style
	InputFocused  lipgloss.Style

	Progress  lipgloss.Style
	Help      lipgloss.Style
	HelpKey   lipgloss.Style
	StatusBar lipgloss.Style
	Error     lipgloss.Style
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func boxed(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border)
}

// NewStyles derives the view styles from Current
func NewStyles() *Styles {
	t := Current

	return &Styles{
		Title:      fg(t.Primary).Bold(true),
		TitleMuted: fg(t.ForegroundDim),
		Label:      fg(t.Accent).Bold(true),
		Category:   fg(t.Secondary).Bold(true),

		ListItem: fg(t.Foreground).Padding(0, 2),
		ListSelected: fg(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		Panel:         boxed(t.Border).Padding(0, 1),
		Button:        boxed(t.Border).Foreground(t.Foreground).Padding(0, 2),
		ButtonFocused: boxed(t.BorderFocus).Foreground(t.Primary).Padding(0, 2).Bold(true),
		ButtonPrimary: fg(t.Background).Background(t.Primary).Padding(0, 2).Bold(true),
		Input:         boxed(t.Border).Foreground(t.Foreground).Padding(0, 1),
		InputFocused:  boxed(t.BorderFocus).Foreground(t.Foreground).Padding(0, 1),

		Progress:  lipgloss.NewStyle().Padding(0, 2),
		Help:      fg(t.ForegroundDim).Padding(1, 2),
		HelpKey:   fg(t.Primary).Bold(true),
		StatusBar: fg(t.ForegroundDim).Padding(0, 1),
		Error:     fg(t.Error).Padding(0, 1),
	}
}

// StatusColor returns the theme color for a result status
func StatusColor(s models.Status) lipgloss.Color {
	switch s {
	case models.StatusPass:
		return Current.Pass
	case models.StatusFail:
		return Current.Fail
	case models.StatusBlocked:
		return Current.Blocked
	}
	return Current.NotRun
}

// Status renders a status label in its color
func Status(s models.Status) string {
	return fg(StatusColor(s)).Bold(s != models.StatusNotRun).Render(s.Label())
}

// PriorityStyle colors a priority by urgency
func PriorityStyle(p models.Priority) lipgloss.Style {
	switch p {
	case models.PriorityCritical:
		return fg(Current.Error).Bold(true)
	case models.PriorityHigh:
		return fg(Current.Warning).Bold(true)
	case models.PriorityLow:
		return fg(Current.ForegroundDim)
	}
	return fg(Current.Foreground)
}
