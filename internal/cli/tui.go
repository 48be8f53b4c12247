package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/tgienger/litmus/internal/filelock"
	"github.com/tgienger/litmus/internal/ui"
	"github.com/tgienger/litmus/internal/ui/views"
)

// runTUI starts the interactive application on the terminal
func runTUI(cmd *cobra.Command, e *env) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return errors.New("the interactive UI needs a terminal; see 'litmus --help' for scripted commands")
	}

	lock, err := filelock.Acquire(e.cfg.DataDir)
	if err != nil {
		if errors.Is(err, filelock.ErrLocked) {
			return fmt.Errorf("litmus is already running for %s", e.cfg.DataDir)
		}
		return err
	}
	defer lock.Unlock()
	defer e.errLog.Recover()

	app := ui.NewApp(views.Env{
		DB:           e.db,
		Files:        e.attachments,
		Log:          e.log,
		SettingsPath: e.cfg.SettingsPath(),
		RecentRuns:   e.cfg.RecentRuns,
		MoveGap:      e.cfg.MoveToEndGap,
	})

	app.OnPanic(func(r any, stack []byte) {
		if err := e.errLog.RecordPanic(r, stack); err != nil {
			e.log.Error().Err(err).Msg("write error log")
		}
	})

	e.log.Info().Str("version", Version).Str("data_dir", e.cfg.DataDir).Msg("starting ui")
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		// a panic was already recorded with its stack by the app
		if !errors.Is(err, tea.ErrProgramPanic) {
			if rerr := e.errLog.Record(err, nil); rerr != nil {
				e.log.Error().Err(rerr).Msg("write error log")
			}
		}
		return fmt.Errorf("ui: %w (details in %s)", err, e.errLog.Path())
	}
	return nil
}
