package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/tgienger/litmus/internal/models"
)

const dateFormat = "2006-01-02 15:04"

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)
	return t
}

// Percent formats a rate with no decimals
func Percent(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate)
}

// orDash keeps empty cells readable
func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func countsRow(c models.StatusCounts) table.Row {
	return table.Row{c.Passed, c.Failed, c.Blocked, c.NotRun, c.Total(), Percent(c.PassRate())}
}

var countColumns = []table.ColumnConfig{
	{Name: "Passed", Align: text.AlignRight},
	{Name: "Failed", Align: text.AlignRight},
	{Name: "Blocked", Align: text.AlignRight},
	{Name: "Not Run", Align: text.AlignRight},
	{Name: "Total", Align: text.AlignRight},
	{Name: "Pass Rate", Align: text.AlignRight},
}

// RunsTable renders run summaries
func RunsTable(w io.Writer, title string, runs []models.RunSummary) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"ID", "Project", "Version", "Created", "Passed", "Failed", "Blocked", "Not Run", "Total", "Pass Rate", "Complete"})
	t.SetColumnConfigs(append([]table.ColumnConfig{{Name: "ID", Align: text.AlignRight}, {Name: "Complete", Align: text.AlignRight}}, countColumns...))
	for _, s := range runs {
		row := table.Row{s.Run.ID, s.ProjectName, s.Run.BuildVersion(), s.Run.CreatedAt.Local().Format(dateFormat)}
		row = append(row, countsRow(s.Counts)...)
		row = append(row, Percent(s.Counts.CompletionPercent()))
		t.AppendRow(row)
	}
	if len(runs) == 0 {
		t.AppendRow(table.Row{"-", "No test runs", "", "", "", "", "", "", "", "", ""})
	}
	t.Render()
}

// WriteDashboard renders the dashboard as text tables
func WriteDashboard(w io.Writer, d *Dashboard) {
	t := newTable(w, "Dashboard")
	t.AppendHeader(table.Row{"Active Projects", "Tests", "Runs (30 days)", "Pass Rate"})
	t.AppendRow(table.Row{d.ActiveProjects, d.TotalTests, d.RecentRuns, Percent(d.PassRate)})
	t.Render()

	p := newTable(w, "Recent Projects")
	p.AppendHeader(table.Row{"ID", "Name", "Created"})
	for _, proj := range d.LatestProjects {
		p.AppendRow(table.Row{proj.ID, proj.Name, proj.CreatedAt.Local().Format(dateFormat)})
	}
	if len(d.LatestProjects) == 0 {
		p.AppendRow(table.Row{"-", "No projects yet", ""})
	}
	p.Render()

	RunsTable(w, "Recent Runs", d.LatestRuns)
}

// WriteProject renders a project report as text tables
func WriteProject(w io.Writer, r *ProjectReport) {
	t := newTable(w, "Report: "+r.Title())
	t.AppendHeader(table.Row{"Passed", "Failed", "Blocked", "Not Run", "Total", "Pass Rate"})
	t.SetColumnConfigs(countColumns)
	t.AppendRow(countsRow(r.Counts))
	t.Render()

	tr := newTable(w, "Pass Rate Trend")
	tr.AppendHeader(table.Row{"Run", "Version", "Created", "Pass Rate"})
	tr.SetColumnConfigs([]table.ColumnConfig{{Name: "Pass Rate", Align: text.AlignRight}})
	for _, p := range r.Trend {
		tr.AppendRow(table.Row{p.RunID, p.Label, p.CreatedAt.Local().Format(dateFormat), Percent(p.PassRate)})
	}
	tr.Render()

	f := newTable(w, fmt.Sprintf("Failing Tests (%d)", len(r.Failing)))
	f.AppendHeader(table.Row{"Test", "Category", "Last Run", "Notes"})
	f.SetColumnConfigs([]table.ColumnConfig{{Name: "Notes", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft}})
	for _, l := range r.Failing {
		f.AppendRow(table.Row{l.TestName, l.CategoryName, l.LastRunDate().Local().Format(dateFormat), orDash(l.Notes)})
	}
	if len(r.Failing) == 0 {
		f.AppendRow(table.Row{"No failing tests", "", "", ""})
	}
	f.Render()
}

// WriteRun renders a run report as text tables
func WriteRun(w io.Writer, r *RunReport) {
	t := newTable(w, fmt.Sprintf("%s %s (%s)", r.ProjectName, r.Run.BuildVersion(), r.Run.CreatedAt.Local().Format(dateFormat)))
	t.AppendHeader(table.Row{"Passed", "Failed", "Blocked", "Not Run", "Total", "Pass Rate"})
	t.SetColumnConfigs(countColumns)
	t.AppendRow(countsRow(r.Counts))
	t.Render()

	if strings.TrimSpace(r.Run.Notes) != "" {
		fmt.Fprintf(w, "Notes: %s\n", r.Run.Notes)
	}

	f := newTable(w, fmt.Sprintf("Failed Tests (%d)", len(r.Failed)))
	f.AppendHeader(table.Row{"Test", "Category", "Notes"})
	f.SetColumnConfigs([]table.ColumnConfig{{Name: "Notes", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft}})
	for _, res := range r.Failed {
		f.AppendRow(table.Row{res.Test.Name, res.CategoryName, orDash(res.Notes)})
	}
	if len(r.Failed) == 0 {
		f.AppendRow(table.Row{"No failed tests", "", ""})
	}
	f.Render()
}
