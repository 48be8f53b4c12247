package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tgienger/litmus/internal/db"
	"github.com/tgienger/litmus/internal/models"
	"github.com/tgienger/litmus/internal/report"
	"github.com/tgienger/litmus/internal/rungen"
)

func newRunCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage test runs",
	}
	cmd.AddCommand(newRunNewCommand(e), newRunDeleteCommand(e))
	return cmd
}

func newRunNewCommand(e *env) *cobra.Command {
	var (
		project    string
		categories []string
		automation string
		mode       string
		source     int64
		version    string
		notes      string
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a test run from a project's tests",
		Long: `Create a test run. Modes:
  full     every selected test, not run
  copy     every selected test, status and notes copied from the source run
  retest   only tests that failed in the source run, reset to not run

The source run defaults to the project's newest run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			p, err := resolveProject(ctx, e.db, project)
			if err != nil {
				return err
			}

			req := rungen.Request{ProjectID: p.ID, SourceRunID: source, Notes: notes}
			if req.Mode, err = rungen.ParseMode(mode); err != nil {
				return err
			}
			if req.Automation, err = rungen.ParseAutomation(automation); err != nil {
				return err
			}
			for _, name := range categories {
				c, err := e.db.GetCategoryByName(ctx, p.ID, name)
				if err != nil {
					if errors.Is(err, db.ErrNotFound) {
						return fmt.Errorf("category %q not found in '%s'", name, p.Name)
					}
					return err
				}
				req.CategoryIDs = append(req.CategoryIDs, c.ID)
			}

			gen := rungen.New(e.db, e.log)
			recent, err := gen.SourceRuns(ctx, p.ID, e.cfg.RecentRuns)
			if err != nil {
				return err
			}
			if req.Mode.NeedsSource() && req.SourceRunID == 0 {
				if len(recent) == 0 {
					return errors.New(rungen.NoSourceMessage)
				}
				req.SourceRunID = recent[0].ID
			}
			if strings.TrimSpace(version) == "" {
				req.Version = rungen.SuggestVersion(recent)
			} else {
				req.Version = models.ParseVersionOrDefault(version)
			}

			if dryRun {
				plan, err := gen.Plan(ctx, req)
				if err != nil {
					return err
				}
				info(out, "%s", plan.Summary)
				return nil
			}

			run, entries, err := gen.Generate(ctx, req)
			if err != nil {
				return err
			}
			success(out, "Created run %d (%s) for '%s' with %d tests", run.ID, run.BuildVersion(), p.Name, len(entries))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&project, "project", "p", "", "project (id or name)")
	f.StringSliceVarP(&categories, "category", "c", nil, "limit to categories (repeatable, default all)")
	f.StringVar(&automation, "automation", "all", "all, automated or manual")
	f.StringVarP(&mode, "mode", "m", "full", "full, copy or retest")
	f.Int64Var(&source, "source", 0, "source run id for copy and retest")
	f.StringVar(&version, "version", "", "build version (default: next patch of the newest run)")
	f.StringVar(&notes, "notes", "", "run notes")
	f.BoolVar(&dryRun, "dry-run", false, "show what would be created")
	cmd.MarkFlagRequired("project")
	return cmd
}

func newRunDeleteCommand(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run with its results and attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "run")
			if err != nil {
				return err
			}
			run, err := e.db.GetRun(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete run %d without --yes", id)
			}
			if err := e.db.DeleteRun(cmd.Context(), id); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Deleted run %d (%s)", id, run.BuildVersion())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func newRunsCommand(e *env) *cobra.Command {
	var project, filter string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List test runs with their result counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := parseRunFilter(filter)
			if err != nil {
				return err
			}
			var projectID int64
			title := "Test Runs"
			if project != "" {
				p, err := resolveProject(ctx, e.db, project)
				if err != nil {
					return err
				}
				projectID = p.ID
				title = "Test Runs: " + p.Name
			}
			if f != models.RunFilterAll {
				title += " (" + f.String() + ")"
			}

			runs, err := e.db.ListRunSummaries(ctx, projectID, f)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			report.RunsTable(cmd.OutOrStdout(), title, runs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "only runs of this project")
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all, failures, passed or progress")
	return cmd
}
