// Package rungen materializes a test run's results from a project's tests,
// optionally seeded from an earlier run.
package rungen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tgienger/litmus/internal/models"
)

var (
	// ErrSourceRunRequired is returned when a seeded mode has no source run
	ErrSourceRunRequired = errors.New("a source run is required for this mode")
	// ErrSourceRunProject is returned when the source run belongs to another project
	ErrSourceRunProject = errors.New("source run belongs to a different project")
)

// Mode selects how results are seeded
type Mode int

const (
	ModeFull Mode = iota
	ModeCopyPrevious
	ModeRetestFailed
)

func (m Mode) String() string {
	switch m {
	case ModeCopyPrevious:
		return "copy-previous"
	case ModeRetestFailed:
		return "retest-failed"
	}
	return "full"
}

// NeedsSource reports whether the mode reads an earlier run
func (m Mode) NeedsSource() bool {
	return m == ModeCopyPrevious || m == ModeRetestFailed
}

// ParseMode accepts full, copy, copy-previous, retest and retest-failed
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return ModeFull, nil
	case "copy", "copy-previous":
		return ModeCopyPrevious, nil
	case "retest", "retest-failed":
		return ModeRetestFailed, nil
	}
	return ModeFull, fmt.Errorf("unknown run mode %q", s)
}

// Automation filters tests by their automated flag
type Automation int

const (
	AutomationAll Automation = iota
	AutomationOnly
	AutomationManual
)

// Flag returns the value the automated column must match, nil for all
func (a Automation) Flag() *bool {
	var v bool
	switch a {
	case AutomationOnly:
		v = true
	case AutomationManual:
		v = false
	default:
		return nil
	}
	return &v
}

func (a Automation) String() string {
	switch a {
	case AutomationOnly:
		return "automated"
	case AutomationManual:
		return "manual"
	}
	return "all"
}

// ParseAutomation accepts all, automated and manual
func ParseAutomation(s string) (Automation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return AutomationAll, nil
	case "automated", "auto":
		return AutomationOnly, nil
	case "manual":
		return AutomationManual, nil
	}
	return AutomationAll, fmt.Errorf("unknown automation filter %q", s)
}

// Request describes the run to create
type Request struct {
	ProjectID int64
	// CategoryIDs limits the run to these categories; empty means all
	CategoryIDs []int64
	Automation  Automation
	Mode        Mode
	SourceRunID int64
	Version     models.Version
	Notes       string
}

// Store is the persistence the generator needs
type Store interface {
	GetRun(ctx context.Context, id int64) (*models.TestRun, error)
	ListCategories(ctx context.Context, projectID int64) ([]models.Category, error)
	ListTestsInCategories(ctx context.Context, categoryIDs []int64, automated *bool) ([]models.Test, error)
	ResultsByTest(ctx context.Context, runID int64) (map[int64]models.TestResult, error)
	RecentRuns(ctx context.Context, projectID int64, limit int) ([]models.TestRun, error)
	CreateRun(ctx context.Context, projectID int64, version models.Version, notes string) (*models.TestRun, error)
	AddResults(ctx context.Context, results []models.TestResult) error
}

// Entry is one result the generator will create
type Entry struct {
	Test   models.Test
	Status models.Status
	Notes  string
}

// Plan is a preview of a generation request
type Plan struct {
	Entries   []Entry
	Selected  int // tests matching the category and automation filters
	SourceRun *models.TestRun
	Summary   string
}

// Generator creates runs
type Generator struct {
	store Store
	log   zerolog.Logger
}

// New creates a generator
func New(store Store, logger zerolog.Logger) *Generator {
	return &Generator{store: store, log: logger.With().Str("component", "rungen").Logger()}
}

// Build decides inclusion and initial state for each test. source is keyed
// by test ID and ignored in full mode.
func Build(tests []models.Test, mode Mode, source map[int64]models.TestResult) []Entry {
	entries := make([]Entry, 0, len(tests))
	for _, t := range tests {
		switch mode {
		case ModeRetestFailed:
			prev, ok := source[t.ID]
			if !ok || prev.Status != models.StatusFail {
				continue
			}
			entries = append(entries, Entry{Test: t, Status: models.StatusNotRun})
		case ModeCopyPrevious:
			e := Entry{Test: t, Status: models.StatusNotRun}
			if prev, ok := source[t.ID]; ok {
				e.Status = prev.Status
				e.Notes = prev.Notes
			}
			entries = append(entries, e)
		default:
			entries = append(entries, Entry{Test: t, Status: models.StatusNotRun})
		}
	}
	return entries
}

// Plan resolves a request without writing anything
func (g *Generator) Plan(ctx context.Context, req Request) (*Plan, error) {
	tests, err := g.selectTests(ctx, req)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Selected: len(tests)}
	var source map[int64]models.TestResult
	if req.Mode.NeedsSource() {
		if req.SourceRunID == 0 {
			return nil, ErrSourceRunRequired
		}
		run, err := g.store.GetRun(ctx, req.SourceRunID)
		if err != nil {
			return nil, fmt.Errorf("load source run: %w", err)
		}
		if run.ProjectID != req.ProjectID {
			return nil, ErrSourceRunProject
		}
		plan.SourceRun = run
		source, err = g.store.ResultsByTest(ctx, run.ID)
		if err != nil {
			return nil, fmt.Errorf("load source results: %w", err)
		}
	}

	plan.Entries = Build(tests, req.Mode, source)
	plan.Summary = summarize(req.Mode, plan)
	return plan, nil
}

// Generate creates the run, then its results. The two writes commit separately.
func (g *Generator) Generate(ctx context.Context, req Request) (*models.TestRun, []Entry, error) {
	plan, err := g.Plan(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	run, err := g.store.CreateRun(ctx, req.ProjectID, req.Version, req.Notes)
	if err != nil {
		return nil, nil, fmt.Errorf("create run: %w", err)
	}

	results := make([]models.TestResult, len(plan.Entries))
	for i, e := range plan.Entries {
		results[i] = models.TestResult{RunID: run.ID, TestID: e.Test.ID, Status: e.Status, Notes: e.Notes}
	}
	if err := g.store.AddResults(ctx, results); err != nil {
		return run, nil, fmt.Errorf("add results: %w", err)
	}

	g.log.Info().
		Int64("run_id", run.ID).
		Int64("project_id", req.ProjectID).
		Stringer("mode", req.Mode).
		Str("version", req.Version.String()).
		Int("results", len(results)).
		Msg("generated run")
	return run, plan.Entries, nil
}

// SourceRuns lists the runs offered as seeds, newest first
func (g *Generator) SourceRuns(ctx context.Context, projectID int64, limit int) ([]models.TestRun, error) {
	return g.store.RecentRuns(ctx, projectID, limit)
}

// SuggestVersion proposes the next patch of the newest run, or 1.0.0
func SuggestVersion(runs []models.TestRun) models.Version {
	if len(runs) == 0 {
		return models.DefaultVersion
	}
	return runs[0].Version.NextPatch()
}

func (g *Generator) selectTests(ctx context.Context, req Request) ([]models.Test, error) {
	categories, err := g.store.ListCategories(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	// only categories of this project are honored
	owned := make(map[int64]bool, len(categories))
	for _, c := range categories {
		owned[c.ID] = true
	}
	var ids []int64
	if len(req.CategoryIDs) == 0 {
		for _, c := range categories {
			ids = append(ids, c.ID)
		}
	} else {
		for _, id := range req.CategoryIDs {
			if owned[id] {
				ids = append(ids, id)
			}
		}
	}

	tests, err := g.store.ListTestsInCategories(ctx, ids, req.Automation.Flag())
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return tests, nil
}

func summarize(mode Mode, p *Plan) string {
	switch mode {
	case ModeCopyPrevious:
		copied := 0
		for _, e := range p.Entries {
			if e.Status != models.StatusNotRun || e.Notes != "" {
				copied++
			}
		}
		return fmt.Sprintf("Will create %d test results, copying %d from build %s.",
			len(p.Entries), copied, p.SourceRun.BuildVersion())
	case ModeRetestFailed:
		if len(p.Entries) == 0 {
			return fmt.Sprintf("No failed tests in build %s match the selection.", p.SourceRun.BuildVersion())
		}
		return fmt.Sprintf("Will create %d test results for tests that failed in build %s.",
			len(p.Entries), p.SourceRun.BuildVersion())
	}
	return fmt.Sprintf("Will create %d test results with status 'Not Run'.", len(p.Entries))
}

// NoSourceMessage is shown when a seeded mode is chosen but the project has no runs
const NoSourceMessage = "No previous runs available. Use 'Full Run' instead."
