package models

import "time"

// The types below are read models shaped for listing screens and reports.

// StatusCounts tallies results by status
type StatusCounts struct {
	Passed  int
	Failed  int
	Blocked int
	NotRun  int
}

// Total returns the number of counted results
func (c StatusCounts) Total() int {
	return c.Passed + c.Failed + c.Blocked + c.NotRun
}

// Add counts one result with status s
func (c *StatusCounts) Add(s Status) {
	switch s {
	case StatusPass:
		c.Passed++
	case StatusFail:
		c.Failed++
	case StatusBlocked:
		c.Blocked++
	default:
		c.NotRun++
	}
}

// PassRate is passed/total as a percentage, 0 when empty
func (c StatusCounts) PassRate() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Passed) / float64(total) * 100
}

// CompletionPercent is the share of results that are no longer NotRun
func (c StatusCounts) CompletionPercent() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(total-c.NotRun) / float64(total) * 100
}

// ProjectOverview is a project row with the sizes shown on the project list
type ProjectOverview struct {
	Project    Project
	Categories int
	Tests      int
	Runs       int
}

// RunSummary is a run row with its result counts
type RunSummary struct {
	Run         TestRun
	ProjectName string
	Counts      StatusCounts
}

// RunFilter narrows run listings by aggregate status
type RunFilter int

const (
	RunFilterAll RunFilter = iota
	RunFilterHasFailures
	RunFilterAllPassed
	RunFilterInProgress
)

// Matches reports whether the summary passes the filter
func (f RunFilter) Matches(s RunSummary) bool {
	switch f {
	case RunFilterHasFailures:
		return s.Counts.Failed > 0
	case RunFilterAllPassed:
		return s.Counts.Failed == 0 && s.Counts.NotRun == 0
	case RunFilterInProgress:
		return s.Counts.NotRun > 0
	}
	return true
}

func (f RunFilter) String() string {
	switch f {
	case RunFilterHasFailures:
		return "Has Failures"
	case RunFilterAllPassed:
		return "All Passed"
	case RunFilterInProgress:
		return "In Progress"
	}
	return "All"
}

// SearchHit is one test matched by a search
type SearchHit struct {
	Test         Test
	ProjectID    int64
	ProjectName  string
	CategoryName string
}

// PriorResult is the most recent outcome of a test in some other run
type PriorResult struct {
	RunID        int64
	Status       Status
	BuildVersion string
}

// LatestResult is the newest result of a test across runs
type LatestResult struct {
	TestID       int64
	TestName     string
	CategoryName string
	ProjectName  string
	Status       Status
	Notes        string
	RunCreatedAt time.Time
	ExecutedAt   *time.Time
}

// LastRunDate is the executed time when known, else the run's creation time
func (r LatestResult) LastRunDate() time.Time {
	if r.ExecutedAt != nil {
		return *r.ExecutedAt
	}
	return r.RunCreatedAt
}
