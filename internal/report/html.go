package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/tgienger/litmus/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// markdown renders user text. Raw HTML in the source is dropped by the
// default renderer so the output is safe to embed.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

func renderMarkdown(s string) template.HTML {
	if strings.TrimSpace(s) == "" {
		return template.HTML("-")
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}

func statusClass(s models.Status) string {
	switch s {
	case models.StatusPass:
		return "pass"
	case models.StatusFail:
		return "fail"
	case models.StatusBlocked:
		return "blocked"
	}
	return "notrun"
}

var funcs = template.FuncMap{
	"markdown":    renderMarkdown,
	"percent":     Percent,
	"statusClass": statusClass,
	"date":        func(v interface{ Format(string) string }) string { return v.Format(dateFormat) },
}

const pageHead = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:2em;color:#222}
table{border-collapse:collapse;margin:1em 0;width:100%}
th,td{border:1px solid #ccc;padding:4px 8px;text-align:left;vertical-align:top}
th{background:#f0f0f0}
.pass{color:#2e7d32}.fail{color:#c62828}.blocked{color:#ef6c00}.notrun{color:#757575}
.bar{display:inline-block;height:10px;background:#007acc}
</style></head><body>
<h1>{{.Title}}</h1>
<table><tr><th>Passed</th><th>Failed</th><th>Blocked</th><th>Not Run</th><th>Total</th><th>Pass Rate</th></tr>
<tr><td class="pass">{{.Counts.Passed}}</td><td class="fail">{{.Counts.Failed}}</td><td class="blocked">{{.Counts.Blocked}}</td><td class="notrun">{{.Counts.NotRun}}</td><td>{{.Counts.Total}}</td><td>{{percent .Counts.PassRate}}</td></tr></table>
`

var runTemplate = template.Must(template.New("run").Funcs(funcs).Parse(pageHead + `
{{with .Report.Run.Notes}}<h2>Notes</h2><div>{{markdown .}}</div>{{end}}
<h2>Results</h2>
<table><tr><th>Test</th><th>Category</th><th>Status</th><th>Notes</th></tr>
{{range .Report.Results}}<tr><td>{{.Test.Name}}</td><td>{{.CategoryName}}</td><td class="{{statusClass .Status}}">{{.Status.Label}}</td><td>{{markdown .Notes}}</td></tr>
{{end}}</table>
</body></html>
`))

var projectTemplate = template.Must(template.New("project").Funcs(funcs).Parse(pageHead + `
<h2>Pass Rate Trend</h2>
<table><tr><th>Version</th><th>Created</th><th>Pass Rate</th></tr>
{{range .Report.Trend}}<tr><td>{{.Label}}</td><td>{{date .CreatedAt}}</td><td><span class="bar" style="width:{{printf "%.0f" .PassRate}}px"></span> {{percent .PassRate}}</td></tr>
{{end}}</table>
<h2>Failing Tests ({{len .Report.Failing}})</h2>
{{if .Report.Failing}}<table><tr><th>Test</th><th>Category</th><th>Last Run</th><th>Notes</th></tr>
{{range .Report.Failing}}<tr><td>{{.TestName}}</td><td>{{.CategoryName}}</td><td>{{date .LastRunDate}}</td><td>{{markdown .Notes}}</td></tr>
{{end}}</table>{{else}}<p>No failing tests.</p>{{end}}
</body></html>
`))

// WriteRunHTML renders a run report as a standalone HTML page
func WriteRunHTML(w io.Writer, r *RunReport) error {
	data := struct {
		Title  string
		Counts models.StatusCounts
		Report *RunReport
	}{
		Title:  fmt.Sprintf("%s %s", r.ProjectName, r.Run.BuildVersion()),
		Counts: r.Counts,
		Report: r,
	}
	if err := runTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute run template: %w", err)
	}
	return nil
}

// WriteProjectHTML renders a project report as a standalone HTML page
func WriteProjectHTML(w io.Writer, r *ProjectReport) error {
	data := struct {
		Title  string
		Counts models.StatusCounts
		Report *ProjectReport
	}{
		Title:  "Report: " + r.Title(),
		Counts: r.Counts,
		Report: r,
	}
	if err := projectTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute project template: %w", err)
	}
	return nil
}
