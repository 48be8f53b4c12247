package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/tgienger/litmus/internal/filelock"
	"github.com/tgienger/litmus/internal/transfer"
)

// newProgress returns a transfer callback drawing a bar on stderr, or nil when
// stderr is not a terminal
func newProgress(label string) (transfer.Progress, func()) {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil, func() {}
	}
	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(color.CyanString(label)),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        color.CyanString("█"),
					SaucerHead:    color.CyanString("█"),
					SaucerPadding: "░",
					BarStart:      "│",
					BarEnd:        "│",
				}),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionOnCompletion(func() { fmt.Fprint(os.Stderr, "\n") }),
				progressbar.OptionSetRenderBlankState(true),
			)
		}
		bar.Set(done)
	}
	finish := func() {
		if bar != nil {
			bar.Finish()
		}
	}
	return progress, finish
}

func printResult(w io.Writer, res transfer.Result) error {
	if !res.Success {
		return errors.New(res.Message)
	}
	success(w, "%s", res.Message)
	return nil
}

func newExportCommand(e *env) *cobra.Command {
	var (
		output      string
		description bool
		compact     bool
	)
	cmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Export a project's categories and tests as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, e.db, args[0])
			if err != nil {
				return err
			}
			svc := transfer.NewService(e.db, e.log)
			opts := transfer.ExportOptions{IncludeDescription: description, Indent: !compact}

			if output == "" || output == "-" {
				data, err := svc.Export(ctx, p.ID, opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := svc.ExportFile(ctx, p.ID, output, opts); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			success(cmd.OutOrStdout(), "Exported '%s' to %s", p.Name, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&description, "description", true, "include the project description")
	cmd.Flags().BoolVar(&compact, "compact", false, "write compact JSON")
	return cmd
}

func newImportCommand(e *env) *cobra.Command {
	var opts transfer.ImportOptions
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a project from a JSON test plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			progress, finish := newProgress("Importing tests")
			opts.Progress = progress
			res := transfer.NewService(e.db, e.log).ImportFile(cmd.Context(), args[0], opts)
			finish()
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace a project with the same name")
	cmd.Flags().BoolVar(&opts.Merge, "merge", false, "with --overwrite, keep existing categories and merge into them")
	return cmd
}

func newAppendCommand(e *env) *cobra.Command {
	var (
		project string
		opts    transfer.AppendOptions
	)
	cmd := &cobra.Command{
		Use:   "append <file>",
		Short: "Append categories and tests from JSON to an existing project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(cmd.Context(), e.db, project)
			if err != nil {
				return err
			}
			progress, finish := newProgress("Appending tests")
			opts.Progress = progress
			res := transfer.NewService(e.db, e.log).AppendFile(cmd.Context(), args[0], p.ID, opts)
			finish()
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "target project (id or name)")
	cmd.Flags().BoolVar(&opts.Merge, "merge", true, "add into categories with the same name")
	cmd.Flags().BoolVar(&opts.SkipDuplicates, "skip-duplicates", true, "leave tests with the same name untouched")
	cmd.MarkFlagRequired("project")
	return cmd
}

func newTemplateCommand() *cobra.Command {
	var (
		output     string
		minimal    bool
		noExamples bool
		aiPrompt   bool
		appName    string
		features   string
	)
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Print a JSON test plan template or an AI prompt for generating one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			switch {
			case aiPrompt:
				content = transfer.AIPrompt(appName, features)
			case minimal:
				content = transfer.MinimalTemplate()
			default:
				content = transfer.Template(!noExamples)
			}

			if output == "" || output == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), content)
				return nil
			}
			if err := filelock.AtomicWrite(output, []byte(content)); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Template saved to %s", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&minimal, "minimal", false, "bare structure without documentation")
	cmd.Flags().BoolVar(&noExamples, "no-examples", false, "blank placeholders instead of examples")
	cmd.Flags().BoolVar(&aiPrompt, "ai-prompt", false, "print a prompt asking an assistant to write a plan")
	cmd.Flags().StringVar(&appName, "app", "", "application name for --ai-prompt")
	cmd.Flags().StringVar(&features, "features", "", "features to cover for --ai-prompt")
	return cmd
}
