package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tgienger/litmus/internal/filelock"
	"github.com/tgienger/litmus/internal/report"
)

func newReportCommand(e *env) *cobra.Command {
	var (
		project string
		runID   int64
		all     bool
		html    string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the dashboard, a project report or a run report",
		Long: `Without flags the dashboard is shown. --project (or --all) gives the
latest-result report with pass-rate trend and failing tests; --run gives a
single run report. --html writes the project or run report as HTML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			b := report.NewBuilder(e.db)

			var buf bytes.Buffer
			switch {
			case runID != 0:
				r, err := b.Run(ctx, runID)
				if err != nil {
					return err
				}
				if html == "" {
					report.WriteRun(out, r)
					return nil
				}
				if err := report.WriteRunHTML(&buf, r); err != nil {
					return err
				}
			case project != "" || all:
				var projectID int64
				if !all {
					p, err := resolveProject(ctx, e.db, project)
					if err != nil {
						return err
					}
					projectID = p.ID
				}
				r, err := b.Project(ctx, projectID)
				if err != nil {
					return err
				}
				if html == "" {
					report.WriteProject(out, r)
					return nil
				}
				if err := report.WriteProjectHTML(&buf, r); err != nil {
					return err
				}
			default:
				if html != "" {
					return fmt.Errorf("--html needs --project, --all or --run")
				}
				d, err := b.Dashboard(ctx)
				if err != nil {
					return err
				}
				report.WriteDashboard(out, d)
				return nil
			}

			if err := filelock.AtomicWrite(html, buf.Bytes()); err != nil {
				return err
			}
			success(out, "Report saved to %s", html)
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "project report (id or name)")
	cmd.Flags().BoolVar(&all, "all", false, "report across all active projects")
	cmd.Flags().Int64Var(&runID, "run", 0, "single run report")
	cmd.Flags().StringVar(&html, "html", "", "write an HTML report to this file")
	return cmd
}
