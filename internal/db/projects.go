package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/tgienger/litmus/internal/models"
)

const projectColumns = `id, name, description, is_archived, created_at`

func validateProject(name, description string) error {
	if name == "" {
		return fmt.Errorf("project: %w", ErrNameRequired)
	}
	if err := checkLen("project name", name, models.MaxProjectName); err != nil {
		return err
	}
	return checkLen("project description", description, models.MaxProjectDescription)
}

// CreateProject creates a new project
func (db *DB) CreateProject(ctx context.Context, name, description string) (*models.Project, error) {
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if err := validateProject(name, description); err != nil {
		return nil, err
	}

	result, err := db.q.ExecContext(ctx, `
		INSERT INTO projects (name, description, created_at) VALUES (?, ?, ?)
	`, name, description, db.timestamp())
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	db.log.Debug().Int64("project_id", id).Str("name", name).Msg("created project")
	return db.GetProject(ctx, id)
}

// GetProject retrieves a project by ID
func (db *DB) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	p := &models.Project{}
	err := db.q.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Archived, &p.CreatedAt)
	if err != nil {
		return nil, notFound(fmt.Sprintf("project %d", id), err)
	}
	return p, nil
}

// GetProjectByName finds a project by name, ignoring case
func (db *DB) GetProjectByName(ctx context.Context, name string) (*models.Project, error) {
	p := &models.Project{}
	err := db.q.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE name = ? COLLATE NOCASE ORDER BY id LIMIT 1
	`, strings.TrimSpace(name)).Scan(&p.ID, &p.Name, &p.Description, &p.Archived, &p.CreatedAt)
	if err != nil {
		return nil, notFound(fmt.Sprintf("project %q", name), err)
	}
	return p, nil
}

// ListProjects returns projects, newest first. Archived projects are only
// included when includeArchived is set.
func (db *DB) ListProjects(ctx context.Context, includeArchived bool) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return db.queryProjects(ctx, query)
}

// ListProjectOverviews is ListProjects with category, test and run counts
func (db *DB) ListProjectOverviews(ctx context.Context, includeArchived bool) ([]models.ProjectOverview, error) {
	query := `
		SELECT p.id, p.name, p.description, p.is_archived, p.created_at,
			(SELECT COUNT(*) FROM categories c WHERE c.project_id = p.id),
			(SELECT COUNT(*) FROM tests t JOIN categories c ON c.id = t.category_id WHERE c.project_id = p.id),
			(SELECT COUNT(*) FROM test_runs r WHERE r.project_id = p.id)
		FROM projects p`
	if !includeArchived {
		query += ` WHERE p.is_archived = 0`
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`

	rows, err := db.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list project overviews: %w", err)
	}
	defer rows.Close()

	var out []models.ProjectOverview
	for rows.Next() {
		var o models.ProjectOverview
		p := &o.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Archived, &p.CreatedAt,
			&o.Categories, &o.Tests, &o.Runs); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// RecentProjects returns the most recently created active projects
func (db *DB) RecentProjects(ctx context.Context, limit int) ([]models.Project, error) {
	return db.queryProjects(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE is_archived = 0
		ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
}

func (db *DB) queryProjects(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Archived, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject updates a project's name and description
func (db *DB) UpdateProject(ctx context.Context, id int64, name, description string) error {
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if err := validateProject(name, description); err != nil {
		return err
	}
	_, err := db.q.ExecContext(ctx, `
		UPDATE projects SET name = ?, description = ? WHERE id = ?
	`, name, description, id)
	return err
}

// SetProjectArchived archives or restores a project
func (db *DB) SetProjectArchived(ctx context.Context, id int64, archived bool) error {
	_, err := db.q.ExecContext(ctx, `UPDATE projects SET is_archived = ? WHERE id = ?`, archived, id)
	return err
}

// DeleteProject deletes a project with its categories, tests, runs,
// results and attachments in one transaction
func (db *DB) DeleteProject(ctx context.Context, id int64) error {
	return db.Tx(ctx, func(tx *DB) error {
		if err := tx.collectOrphans(ctx, `
			SELECT a.file_path FROM attachments a
			JOIN test_results r ON r.id = a.test_result_id
			JOIN test_runs tr ON tr.id = r.test_run_id
			WHERE tr.project_id = ?
			UNION
			SELECT a.file_path FROM attachments a
			JOIN test_results r ON r.id = a.test_result_id
			JOIN tests t ON t.id = r.test_id
			JOIN categories c ON c.id = t.category_id
			WHERE c.project_id = ?
		`, id, id); err != nil {
			return err
		}

		stmts := []string{
			`DELETE FROM attachments WHERE test_result_id IN (
				SELECT r.id FROM test_results r
				JOIN test_runs tr ON tr.id = r.test_run_id WHERE tr.project_id = ?1
				UNION
				SELECT r.id FROM test_results r
				JOIN tests t ON t.id = r.test_id
				JOIN categories c ON c.id = t.category_id WHERE c.project_id = ?1)`,
			`DELETE FROM test_results WHERE test_run_id IN (SELECT id FROM test_runs WHERE project_id = ?1)
				OR test_id IN (SELECT t.id FROM tests t JOIN categories c ON c.id = t.category_id WHERE c.project_id = ?1)`,
			`DELETE FROM test_runs WHERE project_id = ?1`,
			`DELETE FROM tests WHERE category_id IN (SELECT id FROM categories WHERE project_id = ?1)`,
			`DELETE FROM categories WHERE project_id = ?1`,
			`DELETE FROM projects WHERE id = ?1`,
		}
		for _, stmt := range stmts {
			if _, err := tx.q.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete project %d: %w", id, err)
			}
		}
		tx.log.Debug().Int64("project_id", id).Msg("deleted project")
		return nil
	})
}

// ProjectCount returns the number of active projects
func (db *DB) ProjectCount(ctx context.Context) (int, error) {
	var count int
	err := db.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects WHERE is_archived = 0").Scan(&count)
	return count, err
}

// collectOrphans records attachment paths returned by query for removal after commit
func (db *DB) collectOrphans(ctx context.Context, query string, args ...any) error {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("collect attachment files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return err
		}
		db.orphans = append(db.orphans, path)
	}
	return rows.Err()
}
