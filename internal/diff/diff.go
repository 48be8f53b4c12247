// Package diff compares the outcomes of two test runs per shared test.
package diff

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tgienger/litmus/internal/models"
)

// ErrSameRun is returned when both sides of a comparison are the same run
var ErrSameRun = errors.New("please select two different runs to compare")

// Change classifies one shared test
type Change int

const (
	Unchanged Change = iota
	Regression
	Fix
)

func (c Change) String() string {
	switch c {
	case Regression:
		return "regression"
	case Fix:
		return "fix"
	}
	return "unchanged"
}

// Classify maps a (left, right) status pair to a change. Only Pass->Fail
// and Fail->Pass are significant.
func Classify(left, right models.Status) Change {
	switch {
	case left == models.StatusPass && right == models.StatusFail:
		return Regression
	case left == models.StatusFail && right == models.StatusPass:
		return Fix
	}
	return Unchanged
}

// Item is one shared test in a comparison
type Item struct {
	TestID       int64
	TestName     string
	CategoryName string
	Left         models.Status
	Right        models.Status
}

// Summary holds one side's counts
type Summary struct {
	Run    models.TestRun
	Counts models.StatusCounts
}

// Result is a full comparison. Left is the baseline.
type Result struct {
	Left        Summary
	Right       Summary
	Regressions []Item
	Fixes       []Item
	Unchanged   []Item
}

// Compare classifies every test present in both result sets. Tests that only
// exist on the right are new and land in no bucket.
func Compare(left, right []models.TestResult) (regressions, fixes, unchanged []Item) {
	byTest := make(map[int64]models.TestResult, len(left))
	for _, r := range left {
		byTest[r.TestID] = r
	}

	for _, r := range right {
		l, ok := byTest[r.TestID]
		if !ok {
			continue
		}
		item := Item{
			TestID:       r.TestID,
			TestName:     r.Test.Name,
			CategoryName: r.CategoryName,
			Left:         l.Status,
			Right:        r.Status,
		}
		switch Classify(l.Status, r.Status) {
		case Regression:
			regressions = append(regressions, item)
		case Fix:
			fixes = append(fixes, item)
		default:
			unchanged = append(unchanged, item)
		}
	}

	for _, items := range [][]Item{regressions, fixes, unchanged} {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].CategoryName != items[j].CategoryName {
				return items[i].CategoryName < items[j].CategoryName
			}
			return items[i].TestName < items[j].TestName
		})
	}
	return regressions, fixes, unchanged
}

// Tally counts results by status
func Tally(results []models.TestResult) models.StatusCounts {
	var c models.StatusCounts
	for _, r := range results {
		c.Add(r.Status)
	}
	return c
}

// Store is the persistence the engine needs
type Store interface {
	GetRun(ctx context.Context, id int64) (*models.TestRun, error)
	ListResults(ctx context.Context, runID int64) ([]models.TestResult, error)
}

// Engine loads and compares runs
type Engine struct {
	store Store
}

// NewEngine creates an engine
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// CompareRuns compares a baseline run (left) with another run (right)
func (e *Engine) CompareRuns(ctx context.Context, leftID, rightID int64) (*Result, error) {
	if leftID == rightID {
		return nil, ErrSameRun
	}

	res := &Result{}
	var sides [2][]models.TestResult
	for i, id := range []int64{leftID, rightID} {
		run, err := e.store.GetRun(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load run %d: %w", id, err)
		}
		results, err := e.store.ListResults(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load results of run %d: %w", id, err)
		}
		sides[i] = results
		summary := Summary{Run: *run, Counts: Tally(results)}
		if i == 0 {
			res.Left = summary
		} else {
			res.Right = summary
		}
	}

	res.Regressions, res.Fixes, res.Unchanged = Compare(sides[0], sides[1])
	return res, nil
}

// Baseline picks the default left side for runID from a newest-first list:
// the next older run. It returns 0 when there is none.
func Baseline(runs []models.TestRun, runID int64) int64 {
	for i, r := range runs {
		if r.ID == runID && i+1 < len(runs) {
			return runs[i+1].ID
		}
	}
	return 0
}
