package views

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/litmus/internal/settings"
	"github.com/tgienger/litmus/internal/ui/keys"
	"github.com/tgienger/litmus/internal/ui/nav"
	"github.com/tgienger/litmus/internal/ui/styles"
)

// LicenseView blocks the application until the license is accepted
type LicenseView struct {
	env    Env
	next   func() tea.Model
	styles *styles.Styles
	keys   keys.KeyMap
	now    func() time.Time
	err    error
	width  int
	height int
}

// NewLicenseView shows the license; accepting it replaces the view with next()
func NewLicenseView(env Env, next func() tea.Model) *LicenseView {
	return &LicenseView{
		env:    env,
		next:   next,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		now:    time.Now,
	}
}

func (v *LicenseView) Init() tea.Cmd { return nil }

func (v *LicenseView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch {
		case msg.String() == "y" || msg.String() == "Y":
			s := settings.Load(v.env.SettingsPath)
			s.Accept(v.now())
			if err := settings.Save(v.env.SettingsPath, s); err != nil {
				v.err = err
				return v, nil
			}
			v.env.Log.Info().Msg("license accepted")
			return v, nav.Replace(v.next())
		case msg.String() == "n" || msg.String() == "N", key.Matches(msg, v.keys.Quit), key.Matches(msg, v.keys.Back):
			return v, tea.Quit
		}
	}
	return v, nil
}

func (v *LicenseView) View() string {
	s := v.styles
	width := clamp(styles.ContentWidth(v.width)-4, 20, styles.MaxWidth)
	parts := []string{
		s.Title.Render("License Agreement"),
		"",
		s.Panel.Width(width).Render(settings.LicenseText),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Accept "),
			"  ",
			s.Button.Render(" N - Decline "),
		),
	}
	if v.err != nil {
		parts = append(parts, "", s.Error.Render("Could not save settings: "+v.err.Error()))
	}
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, parts...), v.width, v.height)
}
