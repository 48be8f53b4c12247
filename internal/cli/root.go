// Package cli wires the litmus commands.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tgienger/litmus/internal/attach"
	"github.com/tgienger/litmus/internal/config"
	"github.com/tgienger/litmus/internal/db"
	"github.com/tgienger/litmus/internal/logging"
)

// Version is injected at build time via -ldflags
var Version = "dev"

type options struct {
	dbPath   string
	dataDir  string
	logLevel string
	verbose  bool
}

// env holds what every command needs once flags are parsed
type env struct {
	opts        options
	cfg         *config.Config
	db          *db.DB
	log         zerolog.Logger
	logCloser   io.Closer
	errLog      *logging.ErrorLog
	attachments *attach.Store
	panicExit   func(int) // replaces os.Exit after a recorded panic
}

func (e *env) open(ctx context.Context) error {
	if err := config.LoadEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(&e.opts.dbPath, &e.opts.dataDir, &e.opts.logLevel)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	e.cfg = cfg

	logger, closer, err := logging.New(cfg.LogPath(), cfg.LogLevel, e.opts.verbose)
	if err != nil {
		return err
	}
	e.log = logger
	e.logCloser = closer
	e.errLog = logging.NewErrorLog(cfg.ErrorLogPath())
	e.attachments = attach.NewStore(cfg.AttachmentsPath())

	database, err := db.Open(ctx, cfg.DatabasePath(), logger)
	if err != nil {
		e.errLog.Record(err, nil)
		return fmt.Errorf("open database: %w", err)
	}
	e.db = database
	return nil
}

func (e *env) close() error {
	var err error
	if e.db != nil {
		err = e.db.Close()
		e.db = nil
	}
	if e.logCloser != nil {
		e.logCloser.Close()
		e.logCloser = nil
	}
	return err
}

// guardRun makes a panic in cmd's run function land in the error log of the
// opened data directory
func (e *env) guardRun(cmd *cobra.Command) {
	if e.panicExit != nil {
		e.errLog.WithExit(cmd.ErrOrStderr(), e.panicExit)
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		defer e.errLog.Recover()
		return run(cmd, args)
	}
}

// NewRootCommand creates the litmus command tree. Without a subcommand the
// interactive UI starts.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&env{log: zerolog.Nop()})
}

func newRootCommand(e *env) *cobra.Command {

	cmd := &cobra.Command{
		Use:   "litmus",
		Short: "Manual test case manager",
		Long: `Litmus organizes projects, categories and test cases, runs them
build by build, records pass/fail/blocked outcomes with notes and
attachments, and compares runs to find regressions.

Run without arguments to start the interactive UI.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			e.guardRun(cmd)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, e)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&e.opts.dbPath, "db", "", "database file (default <data-dir>/litmus.db)")
	flags.StringVar(&e.opts.dataDir, "data-dir", "", "data directory (default $LITMUS_HOME or ~/.local/share/litmus)")
	flags.StringVar(&e.opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&e.opts.verbose, "verbose", false, "also log to stderr")

	cmd.AddCommand(
		newProjectsCommand(e),
		newSearchCommand(e),
		newExportCommand(e),
		newImportCommand(e),
		newAppendCommand(e),
		newTemplateCommand(),
		newRunCommand(e),
		newRunsCommand(e),
		newResultsCommand(e),
		newAttachCommand(e),
		newDiffCommand(e),
		newReportCommand(e),
		newLicenseCommand(e),
		newMigrateCommand(e),
	)
	return cmd
}
