package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newProjectsCommand(e *env) *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projects, err := e.db.ListProjects(ctx, archived)
			if err != nil {
				return fmt.Errorf("list projects: %w", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Categories", "Tests", "Created", "Archived"})
			t.SetColumnConfigs([]table.ColumnConfig{
				{Name: "ID", Align: text.AlignRight},
				{Name: "Categories", Align: text.AlignRight},
				{Name: "Tests", Align: text.AlignRight},
			})
			for _, p := range projects {
				cats, err := e.db.ListCategories(ctx, p.ID)
				if err != nil {
					return err
				}
				tests := 0
				for _, c := range cats {
					tests += c.TestCount
				}
				flag := ""
				if p.Archived {
					flag = "yes"
				}
				t.AppendRow(table.Row{p.ID, p.Name, len(cats), tests, p.CreatedAt.Local().Format("2006-01-02"), flag})
			}
			t.AppendFooter(table.Row{"", fmt.Sprintf("%d projects", len(projects))})
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived projects")

	cmd.AddCommand(newProjectCreateCommand(e), newProjectArchiveCommand(e, true), newProjectArchiveCommand(e, false), newProjectDeleteCommand(e))
	return cmd
}

func newProjectCreateCommand(e *env) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := e.db.CreateProject(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Created project '%s' (id %d)", p.Name, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	return cmd
}

func newProjectArchiveCommand(e *env, archive bool) *cobra.Command {
	use, short, verb := "archive <project>", "Archive a project", "Archived"
	if !archive {
		use, short, verb = "unarchive <project>", "Restore an archived project", "Restored"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(cmd.Context(), e.db, args[0])
			if err != nil {
				return err
			}
			if err := e.db.SetProjectArchived(cmd.Context(), p.ID, archive); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "%s project '%s'", verb, p.Name)
			return nil
		},
	}
}

func newProjectDeleteCommand(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <project>",
		Short: "Delete a project with its categories, tests, runs and attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(cmd.Context(), e.db, args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete '%s' without --yes", p.Name)
			}
			if err := e.db.DeleteProject(cmd.Context(), p.ID); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Deleted project '%s'", p.Name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func newSearchCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search tests by name, description or command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hits, err := e.db.SearchTests(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(hits) == 0 {
				info(out, "No tests match '%s'.", args[0])
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Project", "Category", "Test", "Priority", "Automated"})
			for _, h := range hits {
				auto := ""
				if h.Test.Automated {
					auto = "yes"
				}
				t.AppendRow(table.Row{h.ProjectName, h.CategoryName, h.Test.Name, h.Test.Priority, auto})
			}
			t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d results", len(hits))})
			t.Render()
			return nil
		},
	}
}
