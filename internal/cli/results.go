package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/tgienger/litmus/internal/models"
	"github.com/tgienger/litmus/internal/session"
)

func newResultsCommand(e *env) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "results <run-id>",
		Short: "List the results of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "run")
			if err != nil {
				return err
			}
			run, err := e.db.GetRun(ctx, id)
			if err != nil {
				return err
			}

			var results []models.TestResult
			title := fmt.Sprintf("Run %d (%s)", run.ID, run.BuildVersion())
			if status == "" {
				results, err = e.db.ListResults(ctx, id)
			} else {
				s, perr := models.ParseStatus(status)
				if perr != nil {
					return perr
				}
				title += ": " + s.Label()
				results, err = e.db.ListResultsWithStatus(ctx, id, s)
			}
			if err != nil {
				return fmt.Errorf("list results: %w", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.SetTitle(title)
			t.AppendHeader(table.Row{"ID", "Category", "Test", "Priority", "Status", "Notes"})
			t.SetColumnConfigs([]table.ColumnConfig{
				{Name: "ID", Align: text.AlignRight},
				{Name: "Notes", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
			})
			for _, r := range results {
				t.AppendRow(table.Row{r.ID, r.CategoryName, r.Test.Name, r.Test.Priority, statusText(r.Status), r.Notes})
			}
			t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d results", len(results))})
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "only results with this status (pass, fail, blocked, not-run)")
	return cmd
}

func newAttachCommand(e *env) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "attach <result-id> <file|->",
		Short: "Attach a file, or image bytes read from stdin, to a result",
		Long: `Attach evidence to a test result. With "-" the content is read from
stdin and stored as an image, for example:

  xclip -selection clipboard -t image/png -o | litmus attach 42 -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "result")
			if err != nil {
				return err
			}
			result, err := e.db.GetResult(ctx, id)
			if err != nil {
				return err
			}

			sess, err := session.Open(ctx, e.db, e.attachments, result.RunID, e.log)
			if err != nil {
				return err
			}
			if err := sess.SelectResult(ctx, id); err != nil {
				return err
			}

			var a *models.Attachment
			if args[1] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				if len(data) == 0 {
					return fmt.Errorf("nothing to attach on stdin")
				}
				a, err = sess.AddCapturedImage(ctx, strings.TrimSpace(name), data)
				if err != nil {
					return err
				}
			} else {
				a, err = sess.AddAttachment(ctx, args[1])
				if err != nil {
					return err
				}
			}
			success(cmd.OutOrStdout(), "Attached %s to '%s' in run %d", a.FileName, result.Test.Name, result.RunID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "file name for stdin content (default capture_<id>.png)")
	return cmd
}
