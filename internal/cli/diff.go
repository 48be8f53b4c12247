package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/tgienger/litmus/internal/diff"
	"github.com/tgienger/litmus/internal/report"
)

func newDiffCommand(e *env) *cobra.Command {
	var showUnchanged bool
	cmd := &cobra.Command{
		Use:   "diff [baseline-run] <run>",
		Short: "Compare two runs and list regressions and fixes",
		Long: `Compare a run with a baseline. With a single run id the baseline is
the run immediately before it in the same project.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var leftID, rightID int64
			var err error
			if len(args) == 2 {
				if leftID, err = parseID(args[0], "run"); err != nil {
					return err
				}
				if rightID, err = parseID(args[1], "run"); err != nil {
					return err
				}
			} else {
				if rightID, err = parseID(args[0], "run"); err != nil {
					return err
				}
				run, err := e.db.GetRun(ctx, rightID)
				if err != nil {
					return err
				}
				runs, err := e.db.ListRuns(ctx, run.ProjectID)
				if err != nil {
					return err
				}
				if leftID = diff.Baseline(runs, rightID); leftID == 0 {
					return fmt.Errorf("run %d has no earlier run to compare with", rightID)
				}
			}

			res, err := diff.NewEngine(e.db).CompareRuns(ctx, leftID, rightID)
			if err != nil {
				return err
			}
			writeDiff(cmd.OutOrStdout(), res, showUnchanged)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showUnchanged, "unchanged", false, "also list unchanged tests")
	return cmd
}

func writeDiff(w io.Writer, res *diff.Result, showUnchanged bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "Run", "Version", "Passed", "Failed", "Blocked", "Not Run", "Pass Rate"})
	for _, side := range []struct {
		label string
		s     diff.Summary
	}{{"Baseline", res.Left}, {"Compare", res.Right}} {
		c := side.s.Counts
		t.AppendRow(table.Row{side.label, side.s.Run.ID, side.s.Run.BuildVersion(), c.Passed, c.Failed, c.Blocked, c.NotRun, report.Percent(c.PassRate())})
	}
	t.Render()

	section := func(title string, items []diff.Item) {
		it := table.NewWriter()
		it.SetOutputMirror(w)
		it.SetStyle(table.StyleLight)
		it.SetTitle(fmt.Sprintf("%s (%d)", title, len(items)))
		it.AppendHeader(table.Row{"Test", "Category", "Baseline", "Compare"})
		for _, item := range items {
			it.AppendRow(table.Row{item.TestName, item.CategoryName, statusText(item.Left), statusText(item.Right)})
		}
		if len(items) == 0 {
			it.AppendRow(table.Row{"None", "", "", ""})
		}
		it.Render()
	}
	section("Regressions", res.Regressions)
	section("Fixes", res.Fixes)
	if showUnchanged {
		section("Unchanged", res.Unchanged)
	} else {
		info(w, "%d unchanged tests (use --unchanged to list them)", len(res.Unchanged))
	}
}
