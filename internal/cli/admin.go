package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/tgienger/litmus/internal/db"
	"github.com/tgienger/litmus/internal/settings"
)

func newLicenseCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "license",
		Short: "Show the license and whether it was accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, settings.LicenseText)
			fmt.Fprintln(out)
			s := settings.Load(e.cfg.SettingsPath())
			if s.LicenseAccepted && s.LicenseAcceptedDate != nil {
				success(out, "Accepted on %s", s.LicenseAcceptedDate.Local().Format("2006-01-02 15:04"))
			} else {
				warnColor.Fprintln(out, "Not accepted. Run 'litmus license accept'.")
			}
			return nil
		},
	}

	accept := &cobra.Command{
		Use:   "accept",
		Short: "Accept the license",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settings.Load(e.cfg.SettingsPath())
			s.Accept(time.Now())
			if err := settings.Save(e.cfg.SettingsPath(), s); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			success(cmd.OutOrStdout(), "License accepted")
			return nil
		},
	}
	revoke := &cobra.Command{
		Use:   "revoke",
		Short: "Withdraw license acceptance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settings.Load(e.cfg.SettingsPath())
			s.Revoke()
			if err := settings.Save(e.cfg.SettingsPath(), s); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			success(cmd.OutOrStdout(), "License acceptance withdrawn")
			return nil
		},
	}
	cmd.AddCommand(accept, revoke)
	return cmd
}

func newMigrateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and show the schema history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// no-op when Open already migrated
			if err := e.db.ApplyMigrations(ctx); err != nil {
				return err
			}
			applied, err := e.db.GetAppliedVersions(ctx)
			if err != nil {
				return err
			}
			descriptions := map[int]string{}
			for _, m := range db.Migrations() {
				descriptions[m.Version] = m.Description
			}

			out := cmd.OutOrStdout()
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Version", "Description", "Applied"})
			for _, v := range applied {
				t.AppendRow(table.Row{v.Version, descriptions[v.Version], v.AppliedAt.Local().Format("2006-01-02 15:04")})
			}
			t.Render()
			success(out, "Database %s is at schema version %d", e.db.Path(), len(applied))
			return nil
		},
	}
}
