package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tgienger/litmus/internal/models"
)

// AddResults inserts results for a run in one transaction
func (db *DB) AddResults(ctx context.Context, results []models.TestResult) error {
	if len(results) == 0 {
		return nil
	}
	return db.Tx(ctx, func(tx *DB) error {
		for _, r := range results {
			if _, err := tx.q.ExecContext(ctx, `
				INSERT INTO test_results (test_run_id, test_id, status, notes, executed_at)
				VALUES (?, ?, ?, ?, ?)
			`, r.RunID, r.TestID, r.Status, r.Notes, nullTime(r.ExecutedAt)); err != nil {
				return fmt.Errorf("insert result for test %d: %w", r.TestID, err)
			}
		}
		tx.log.Debug().Int64("run_id", results[0].RunID).Int("count", len(results)).Msg("added results")
		return nil
	})
}

const resultColumns = `res.id, res.test_run_id, res.test_id, res.status, res.notes, res.executed_at`

func scanResult(s scanner) (models.TestResult, error) {
	var r models.TestResult
	var executed sql.NullTime
	t, err := scanTest(s, &r.ID, &r.RunID, &r.TestID, &r.Status, &r.Notes, &executed, &r.CategoryName)
	if err != nil {
		return r, err
	}
	r.Test = t
	r.ExecutedAt = timePtr(executed)
	return r, nil
}

// ListResults returns a run's results with their test and category name,
// ordered by category then test name
func (db *DB) ListResults(ctx context.Context, runID int64) ([]models.TestResult, error) {
	return db.queryResults(ctx, `WHERE res.test_run_id = ?`, runID)
}

// ListResultsWithStatus returns the results of a run that have status
func (db *DB) ListResultsWithStatus(ctx context.Context, runID int64, status models.Status) ([]models.TestResult, error) {
	return db.queryResults(ctx, `WHERE res.test_run_id = ? AND res.status = ?`, runID, status)
}

func (db *DB) queryResults(ctx context.Context, where string, args ...any) ([]models.TestResult, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT `+testColumns+`, `+resultColumns+`, c.name
		FROM test_results res
		JOIN tests t ON t.id = res.test_id
		JOIN categories c ON c.id = t.category_id
		`+where+`
		ORDER BY c.name, t.name
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.TestResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ResultsByTest returns a run's results keyed by test ID
func (db *DB) ResultsByTest(ctx context.Context, runID int64) (map[int64]models.TestResult, error) {
	results, err := db.ListResults(ctx, runID)
	if err != nil {
		return nil, err
	}
	byTest := make(map[int64]models.TestResult, len(results))
	for _, r := range results {
		byTest[r.TestID] = r
	}
	return byTest, nil
}

// GetResult retrieves a result by ID
func (db *DB) GetResult(ctx context.Context, id int64) (*models.TestResult, error) {
	r, err := scanResult(db.q.QueryRowContext(ctx, `
		SELECT `+testColumns+`, `+resultColumns+`, c.name
		FROM test_results res
		JOIN tests t ON t.id = res.test_id
		JOIN categories c ON c.id = t.category_id
		WHERE res.id = ?
	`, id))
	if err != nil {
		return nil, notFound(fmt.Sprintf("result %d", id), err)
	}
	return &r, nil
}

// UpdateResult writes a result's status, notes and executed time
func (db *DB) UpdateResult(ctx context.Context, id int64, status models.Status, notes string, executedAt *time.Time) error {
	_, err := db.q.ExecContext(ctx, `
		UPDATE test_results SET status = ?, notes = ?, executed_at = ? WHERE id = ?
	`, status, notes, nullTime(executedAt), id)
	if err != nil {
		return fmt.Errorf("update result %d: %w", id, err)
	}
	db.log.Debug().Int64("result_id", id).Stringer("status", status).Msg("updated result")
	return nil
}

// UpdateResultNotes writes only a result's notes
func (db *DB) UpdateResultNotes(ctx context.Context, id int64, notes string) error {
	_, err := db.q.ExecContext(ctx, `UPDATE test_results SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return fmt.Errorf("update result %d notes: %w", id, err)
	}
	return nil
}

// PriorResult returns the newest result for a test from any run other than
// excludeRunID, or nil when the test has no other results
func (db *DB) PriorResult(ctx context.Context, testID, excludeRunID int64) (*models.PriorResult, error) {
	p := &models.PriorResult{}
	err := db.q.QueryRowContext(ctx, `
		SELECT r.id, res.status, r.build_version
		FROM test_results res
		JOIN test_runs r ON r.id = res.test_run_id
		WHERE res.test_id = ? AND res.test_run_id <> ?
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT 1
	`, testID, excludeRunID).Scan(&p.RunID, &p.Status, &p.BuildVersion)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("prior result for test %d: %w", testID, err)
	}
	return p, nil
}

// LatestResults returns, for every test with at least one result, the result
// from its newest run. projectID 0 covers every active project.
func (db *DB) LatestResults(ctx context.Context, projectID int64) ([]models.LatestResult, error) {
	query := `
		SELECT t.id, t.name, c.name, p.name, res.status, res.notes, res.executed_at, r.created_at
		FROM test_results res
		JOIN test_runs r ON r.id = res.test_run_id
		JOIN tests t ON t.id = res.test_id
		JOIN categories c ON c.id = t.category_id
		JOIN projects p ON p.id = c.project_id
		WHERE p.is_archived = 0 AND res.id = (
			SELECT res2.id FROM test_results res2
			JOIN test_runs r2 ON r2.id = res2.test_run_id
			WHERE res2.test_id = res.test_id
			ORDER BY r2.created_at DESC, r2.id DESC
			LIMIT 1)`
	var args []any
	if projectID != 0 {
		query += ` AND p.id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY p.name, c.name, t.name`

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var latest []models.LatestResult
	for rows.Next() {
		var l models.LatestResult
		var executed sql.NullTime
		if err := rows.Scan(&l.TestID, &l.TestName, &l.CategoryName, &l.ProjectName,
			&l.Status, &l.Notes, &executed, &l.RunCreatedAt); err != nil {
			return nil, err
		}
		l.ExecutedAt = timePtr(executed)
		latest = append(latest, l)
	}
	return latest, rows.Err()
}
