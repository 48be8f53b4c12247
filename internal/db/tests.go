package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/tgienger/litmus/internal/models"
)

const testColumns = `t.id, t.category_id, t.name, t.description, t.command, t.expected_result,
	t.prep_steps, t.priority, t.sort_order, t.is_automated`

type scanner interface {
	Scan(dest ...any) error
}

func scanTest(s scanner, extra ...any) (models.Test, error) {
	var t models.Test
	dest := append([]any{&t.ID, &t.CategoryID, &t.Name, &t.Description, &t.Command,
		&t.ExpectedResult, &t.PrepSteps, &t.Priority, &t.SortOrder, &t.Automated}, extra...)
	err := s.Scan(dest...)
	return t, err
}

func normalizeTest(t *models.Test) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("test: %w", ErrNameRequired)
	}
	if err := checkLen("test name", t.Name, models.MaxTestName); err != nil {
		return err
	}
	for field, v := range map[string]string{
		"description":     t.Description,
		"command":         t.Command,
		"expected result": t.ExpectedResult,
		"prep steps":      t.PrepSteps,
	} {
		if err := checkLen(field, v, models.MaxTestText); err != nil {
			return err
		}
	}
	if t.Priority < models.PriorityLow || t.Priority > models.PriorityCritical {
		t.Priority = models.PriorityMedium
	}
	return nil
}

// CreateTest appends a test to its category
func (db *DB) CreateTest(ctx context.Context, t models.Test) (*models.Test, error) {
	if err := normalizeTest(&t); err != nil {
		return nil, err
	}

	result, err := db.q.ExecContext(ctx, `
		INSERT INTO tests (category_id, name, description, command, expected_result,
			prep_steps, priority, is_automated, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(sort_order), 0) + 1 FROM tests WHERE category_id = ?))
	`, t.CategoryID, t.Name, t.Description, t.Command, t.ExpectedResult,
		t.PrepSteps, t.Priority, t.Automated, t.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("insert test: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetTest(ctx, id)
}

// GetTest retrieves a test by ID
func (db *DB) GetTest(ctx context.Context, id int64) (*models.Test, error) {
	t, err := scanTest(db.q.QueryRowContext(ctx, `
		SELECT `+testColumns+` FROM tests t WHERE t.id = ?
	`, id))
	if err != nil {
		return nil, notFound(fmt.Sprintf("test %d", id), err)
	}
	return &t, nil
}

// GetTestByName finds a test in a category by name, ignoring case
func (db *DB) GetTestByName(ctx context.Context, categoryID int64, name string) (*models.Test, error) {
	t, err := scanTest(db.q.QueryRowContext(ctx, `
		SELECT `+testColumns+` FROM tests t
		WHERE t.category_id = ? AND t.name = ? COLLATE NOCASE ORDER BY t.id LIMIT 1
	`, categoryID, strings.TrimSpace(name)))
	if err != nil {
		return nil, notFound(fmt.Sprintf("test %q", name), err)
	}
	return &t, nil
}

// ListTests returns a category's tests ordered by sort order then name
func (db *DB) ListTests(ctx context.Context, categoryID int64) ([]models.Test, error) {
	return db.queryTests(ctx, `
		SELECT `+testColumns+` FROM tests t
		WHERE t.category_id = ? ORDER BY t.sort_order, t.name
	`, categoryID)
}

// ListProjectTests returns every test in a project, grouped by category order
func (db *DB) ListProjectTests(ctx context.Context, projectID int64) ([]models.Test, error) {
	return db.queryTests(ctx, `
		SELECT `+testColumns+` FROM tests t
		JOIN categories c ON c.id = t.category_id
		WHERE c.project_id = ?
		ORDER BY c.sort_order, c.name, t.sort_order, t.name
	`, projectID)
}

// ListTestsInCategories returns the tests of the given categories. A non-nil
// automated narrows to tests whose flag matches.
func (db *DB) ListTestsInCategories(ctx context.Context, categoryIDs []int64, automated *bool) ([]models.Test, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(categoryIDs)), ",")
	args := make([]any, 0, len(categoryIDs)+1)
	for _, id := range categoryIDs {
		args = append(args, id)
	}
	query := `SELECT ` + testColumns + ` FROM tests t
		JOIN categories c ON c.id = t.category_id
		WHERE t.category_id IN (` + placeholders + `)`
	if automated != nil {
		query += ` AND t.is_automated = ?`
		args = append(args, *automated)
	}
	query += ` ORDER BY c.sort_order, c.name, t.sort_order, t.name`
	return db.queryTests(ctx, query, args...)
}

func (db *DB) queryTests(ctx context.Context, query string, args ...any) ([]models.Test, error) {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []models.Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// UpdateTest saves a test's editable fields, including its category
func (db *DB) UpdateTest(ctx context.Context, t models.Test) error {
	if err := normalizeTest(&t); err != nil {
		return err
	}
	_, err := db.q.ExecContext(ctx, `
		UPDATE tests SET category_id = ?, name = ?, description = ?, command = ?,
			expected_result = ?, prep_steps = ?, priority = ?, is_automated = ?
		WHERE id = ?
	`, t.CategoryID, t.Name, t.Description, t.Command, t.ExpectedResult,
		t.PrepSteps, t.Priority, t.Automated, t.ID)
	return err
}

// MoveTest puts a test at the end of another category of the same project
func (db *DB) MoveTest(ctx context.Context, id, categoryID int64) error {
	res, err := db.q.ExecContext(ctx, `
		UPDATE tests SET category_id = ?,
			sort_order = (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM tests WHERE category_id = ?)
		WHERE id = ? AND EXISTS (
			SELECT 1 FROM categories src, categories dst
			WHERE src.id = tests.category_id AND dst.id = ? AND src.project_id = dst.project_id
		)
	`, categoryID, categoryID, id, categoryID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("move test %d to category %d: %w", id, categoryID, ErrNotFound)
	}
	return nil
}

// SetTestSortOrder overwrites a test's sort order
func (db *DB) SetTestSortOrder(ctx context.Context, id int64, order int) error {
	_, err := db.q.ExecContext(ctx, `UPDATE tests SET sort_order = ? WHERE id = ?`, order, id)
	return err
}

// MaxProjectSortOrder returns the highest test sort order in a project
func (db *DB) MaxProjectSortOrder(ctx context.Context, projectID int64) (int, error) {
	var order int
	err := db.q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(t.sort_order), 0) FROM tests t
		JOIN categories c ON c.id = t.category_id
		WHERE c.project_id = ?
	`, projectID).Scan(&order)
	return order, err
}

// CountTests returns the number of tests in active projects
func (db *DB) CountTests(ctx context.Context) (int, error) {
	var count int
	err := db.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tests t
		JOIN categories c ON c.id = t.category_id
		JOIN projects p ON p.id = c.project_id
		WHERE p.is_archived = 0
	`).Scan(&count)
	return count, err
}

// SearchTests matches name, description or command case-insensitively
// across active projects
func (db *DB) SearchTests(ctx context.Context, query string) ([]models.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	rows, err := db.q.QueryContext(ctx, `
		SELECT `+testColumns+`, p.id, p.name, c.name
		FROM tests t
		JOIN categories c ON c.id = t.category_id
		JOIN projects p ON p.id = c.project_id
		WHERE p.is_archived = 0 AND (
			LOWER(t.name) LIKE ?1 ESCAPE '\' OR
			LOWER(t.description) LIKE ?1 ESCAPE '\' OR
			LOWER(t.command) LIKE ?1 ESCAPE '\')
		ORDER BY p.name, c.name, t.name
	`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var h models.SearchHit
		t, err := scanTest(rows, &h.ProjectID, &h.ProjectName, &h.CategoryName)
		if err != nil {
			return nil, err
		}
		h.Test = t
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// DeleteTest deletes a test with its results and attachments
func (db *DB) DeleteTest(ctx context.Context, id int64) error {
	return db.DeleteTests(ctx, []int64{id})
}

// DeleteTests deletes several tests in one transaction
func (db *DB) DeleteTests(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Tx(ctx, func(tx *DB) error {
		for _, id := range ids {
			if err := tx.deleteTestsWhere(ctx, `id = ?`, id); err != nil {
				return fmt.Errorf("delete test %d: %w", id, err)
			}
		}
		return nil
	})
}

// deleteTestsWhere cascades from tests matching cond to their results and
// attachments. Must run inside a transaction.
func (db *DB) deleteTestsWhere(ctx context.Context, cond string, args ...any) error {
	sub := `SELECT id FROM tests WHERE ` + cond
	resultSub := `SELECT id FROM test_results WHERE test_id IN (` + sub + `)`

	if err := db.collectOrphans(ctx,
		`SELECT file_path FROM attachments WHERE test_result_id IN (`+resultSub+`)`, args...); err != nil {
		return err
	}
	if _, err := db.q.ExecContext(ctx,
		`DELETE FROM attachments WHERE test_result_id IN (`+resultSub+`)`, args...); err != nil {
		return err
	}
	if _, err := db.q.ExecContext(ctx,
		`DELETE FROM test_results WHERE test_id IN (`+sub+`)`, args...); err != nil {
		return err
	}
	_, err := db.q.ExecContext(ctx, `DELETE FROM tests WHERE `+cond, args...)
	return err
}
