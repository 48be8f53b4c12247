package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/litmus/internal/models"
)

const runColumns = `r.id, r.project_id, r.major, r.minor, r.patch, r.created_at, r.notes`

func scanRun(s scanner, extra ...any) (models.TestRun, error) {
	var r models.TestRun
	dest := append([]any{&r.ID, &r.ProjectID, &r.Version.Major, &r.Version.Minor,
		&r.Version.Patch, &r.CreatedAt, &r.Notes}, extra...)
	err := s.Scan(dest...)
	return r, err
}

// CreateRun records a new run for a project
func (db *DB) CreateRun(ctx context.Context, projectID int64, version models.Version, notes string) (*models.TestRun, error) {
	result, err := db.q.ExecContext(ctx, `
		INSERT INTO test_runs (project_id, major, minor, patch, build_version, created_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, projectID, version.Major, version.Minor, version.Patch, version.String(),
		db.timestamp(), strings.TrimSpace(notes))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	db.log.Debug().Int64("run_id", id).Str("version", version.String()).Msg("created run")
	return db.GetRun(ctx, id)
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(ctx context.Context, id int64) (*models.TestRun, error) {
	r, err := scanRun(db.q.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM test_runs r WHERE r.id = ?
	`, id))
	if err != nil {
		return nil, notFound(fmt.Sprintf("run %d", id), err)
	}
	return &r, nil
}

// ListRuns returns a project's runs newest first; projectID 0 lists every project
func (db *DB) ListRuns(ctx context.Context, projectID int64) ([]models.TestRun, error) {
	return db.queryRuns(ctx, projectID, 0)
}

// RecentRuns returns at most limit runs newest first; projectID 0 lists every project
func (db *DB) RecentRuns(ctx context.Context, projectID int64, limit int) ([]models.TestRun, error) {
	return db.queryRuns(ctx, projectID, limit)
}

func (db *DB) queryRuns(ctx context.Context, projectID int64, limit int) ([]models.TestRun, error) {
	query := `SELECT ` + runColumns + ` FROM test_runs r`
	var args []any
	if projectID != 0 {
		query += ` WHERE r.project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.TestRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListRunSummaries returns runs with their status counts, newest first.
// projectID 0 lists every project.
func (db *DB) ListRunSummaries(ctx context.Context, projectID int64, filter models.RunFilter) ([]models.RunSummary, error) {
	query := `
		SELECT ` + runColumns + `, p.name,
			COALESCE(SUM(CASE WHEN res.status = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN res.status = 2 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN res.status = 3 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN res.status = 0 THEN 1 ELSE 0 END), 0)
		FROM test_runs r
		JOIN projects p ON p.id = r.project_id
		LEFT JOIN test_results res ON res.test_run_id = r.id`
	var args []any
	if projectID != 0 {
		query += ` WHERE r.project_id = ?`
		args = append(args, projectID)
	}
	query += ` GROUP BY r.id ORDER BY r.created_at DESC, r.id DESC`

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.RunSummary
	for rows.Next() {
		var s models.RunSummary
		r, err := scanRun(rows, &s.ProjectName,
			&s.Counts.Passed, &s.Counts.Failed, &s.Counts.Blocked, &s.Counts.NotRun)
		if err != nil {
			return nil, err
		}
		s.Run = r
		if filter.Matches(s) {
			summaries = append(summaries, s)
		}
	}
	return summaries, rows.Err()
}

// CountRunsSince counts runs created at or after since
func (db *DB) CountRunsSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM test_runs WHERE created_at >= ?`, since.UTC()).Scan(&count)
	return count, err
}

// UpdateRunNotes replaces a run's notes
func (db *DB) UpdateRunNotes(ctx context.Context, id int64, notes string) error {
	_, err := db.q.ExecContext(ctx, `UPDATE test_runs SET notes = ? WHERE id = ?`, strings.TrimSpace(notes), id)
	return err
}

// DeleteRun deletes a run with its results and attachments in one transaction
func (db *DB) DeleteRun(ctx context.Context, id int64) error {
	return db.Tx(ctx, func(tx *DB) error {
		resultSub := `SELECT id FROM test_results WHERE test_run_id = ?`
		if err := tx.collectOrphans(ctx,
			`SELECT file_path FROM attachments WHERE test_result_id IN (`+resultSub+`)`, id); err != nil {
			return err
		}
		stmts := []string{
			`DELETE FROM attachments WHERE test_result_id IN (` + resultSub + `)`,
			`DELETE FROM test_results WHERE test_run_id = ?`,
			`DELETE FROM test_runs WHERE id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.q.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete run %d: %w", id, err)
			}
		}
		tx.log.Debug().Int64("run_id", id).Msg("deleted run")
		return nil
	})
}
