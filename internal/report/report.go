// Package report aggregates store data into dashboard, project and run reports.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tgienger/litmus/internal/models"
)

const (
	recentLimit = 5
	trendLimit  = 10
	recentDays  = 30
)

// Store is the read side the reports need
type Store interface {
	ProjectCount(ctx context.Context) (int, error)
	CountTests(ctx context.Context) (int, error)
	CountRunsSince(ctx context.Context, since time.Time) (int, error)
	RecentProjects(ctx context.Context, limit int) ([]models.Project, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	GetRun(ctx context.Context, id int64) (*models.TestRun, error)
	ListRunSummaries(ctx context.Context, projectID int64, filter models.RunFilter) ([]models.RunSummary, error)
	LatestResults(ctx context.Context, projectID int64) ([]models.LatestResult, error)
	ListResults(ctx context.Context, runID int64) ([]models.TestResult, error)
}

// Dashboard is the landing summary
type Dashboard struct {
	ActiveProjects int
	TotalTests     int
	RecentRuns     int
	// PassRate is over the latest result of every test
	PassRate       float64
	LatestProjects []models.Project
	LatestRuns     []models.RunSummary
}

// TrendPoint is one run's pass rate
type TrendPoint struct {
	RunID     int64
	Label     string
	CreatedAt time.Time
	PassRate  float64
}

// ProjectReport covers one project, or every active project when Project is nil
type ProjectReport struct {
	Project *models.Project
	Counts  models.StatusCounts
	// Trend holds up to the last ten runs, oldest first
	Trend []TrendPoint
	// Failing are tests whose latest result is Fail, most recent first
	Failing []models.LatestResult
}

// Title names the report scope
func (r *ProjectReport) Title() string {
	if r.Project == nil {
		return "All Projects"
	}
	return r.Project.Name
}

// RunReport covers a single run
type RunReport struct {
	Run         models.TestRun
	ProjectName string
	Counts      models.StatusCounts
	Results     []models.TestResult
	Failed      []models.TestResult
}

// Builder assembles reports
type Builder struct {
	store Store
	now   func() time.Time
}

// NewBuilder creates a report builder
func NewBuilder(store Store) *Builder {
	return &Builder{store: store, now: time.Now}
}

// Dashboard builds the landing summary
func (b *Builder) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	var err error
	if d.ActiveProjects, err = b.store.ProjectCount(ctx); err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	if d.TotalTests, err = b.store.CountTests(ctx); err != nil {
		return nil, fmt.Errorf("count tests: %w", err)
	}
	if d.RecentRuns, err = b.store.CountRunsSince(ctx, b.now().AddDate(0, 0, -recentDays)); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	latest, err := b.store.LatestResults(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("latest results: %w", err)
	}
	d.PassRate = countLatest(latest).PassRate()

	if d.LatestProjects, err = b.store.RecentProjects(ctx, recentLimit); err != nil {
		return nil, fmt.Errorf("recent projects: %w", err)
	}
	runs, err := b.store.ListRunSummaries(ctx, 0, models.RunFilterAll)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	if len(runs) > recentLimit {
		runs = runs[:recentLimit]
	}
	d.LatestRuns = runs
	return d, nil
}

// Project builds a project report. projectID 0 covers every active project.
func (b *Builder) Project(ctx context.Context, projectID int64) (*ProjectReport, error) {
	r := &ProjectReport{}
	if projectID != 0 {
		p, err := b.store.GetProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		r.Project = p
	}

	latest, err := b.store.LatestResults(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("latest results: %w", err)
	}
	r.Counts = countLatest(latest)
	for _, l := range latest {
		if l.Status == models.StatusFail {
			r.Failing = append(r.Failing, l)
		}
	}
	sort.SliceStable(r.Failing, func(i, j int) bool {
		return r.Failing[i].LastRunDate().After(r.Failing[j].LastRunDate())
	})

	runs, err := b.store.ListRunSummaries(ctx, projectID, models.RunFilterAll)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	r.Trend = trend(runs)
	return r, nil
}

// Run builds a single run report
func (b *Builder) Run(ctx context.Context, runID int64) (*RunReport, error) {
	run, err := b.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	project, err := b.store.GetProject(ctx, run.ProjectID)
	if err != nil {
		return nil, err
	}
	results, err := b.store.ListResults(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	r := &RunReport{Run: *run, ProjectName: project.Name, Results: results}
	for _, res := range results {
		r.Counts.Add(res.Status)
		if res.Status == models.StatusFail {
			r.Failed = append(r.Failed, res)
		}
	}
	return r, nil
}

func countLatest(latest []models.LatestResult) models.StatusCounts {
	var c models.StatusCounts
	for _, l := range latest {
		c.Add(l.Status)
	}
	return c
}

// trend takes newest-first summaries and returns the last ten, oldest first
func trend(runs []models.RunSummary) []TrendPoint {
	if len(runs) > trendLimit {
		runs = runs[:trendLimit]
	}
	points := make([]TrendPoint, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		s := runs[i]
		points = append(points, TrendPoint{
			RunID:     s.Run.ID,
			Label:     s.Run.BuildVersion(),
			CreatedAt: s.Run.CreatedAt,
			PassRate:  s.Counts.PassRate(),
		})
	}
	return points
}
