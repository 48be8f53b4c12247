package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/tgienger/litmus/internal/attach"
	"github.com/tgienger/litmus/internal/db"
	"github.com/tgienger/litmus/internal/ui/styles"
)

// Env is what every view needs from the application
type Env struct {
	DB           *db.DB
	Files        *attach.Store
	Log          zerolog.Logger
	SettingsPath string
	RecentRuns   int
	MoveGap      int
}

// LastProjectKey is the settings key of the last opened project
const LastProjectKey = "last_project_id"

// errMsg carries a failed load or write back to the view that issued it
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// truncate shortens s to width runes with an ellipsis
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// firstLine keeps list rows to one line
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// helpBar renders "key desc • key desc" pairs
func helpBar(s *styles.Styles, pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, fmt.Sprintf("%s %s", s.HelpKey.Render(pairs[i]), pairs[i+1]))
	}
	return s.Help.Render(strings.Join(parts, " • "))
}

// footerHelp is helpBar, or just the "?" hint when the terminal is narrow
func footerHelp(s *styles.Styles, width int, pairs ...string) string {
	if w := styles.ContentWidth(width); w > 0 && w < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	return helpBar(s, pairs...)
}

// helpPopup renders the shortcut overlay opened with "?"
func helpPopup(s *styles.Styles, width, height int, pairs ...string) string {
	lines := []string{s.Title.Render("Keyboard Shortcuts"), ""}
	for i := 0; i+1 < len(pairs); i += 2 {
		lines = append(lines, s.HelpKey.Render(fmt.Sprintf("%-7s", pairs[i]))+pairs[i+1])
	}
	lines = append(lines, "", s.TitleMuted.Render("Press any key to close"))

	centered := lipgloss.Place(styles.ContentWidth(width), height,
		lipgloss.Center, lipgloss.Center,
		s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
	return styles.CenterView(centered, width, height)
}

// confirmBox renders a centered yes/no prompt
func confirmBox(s *styles.Styles, width, height int, title, detail string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(title),
		"",
		s.TitleMuted.Render(detail),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	centered := lipgloss.Place(styles.ContentWidth(width), height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, width, height)
}
