package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/tgienger/litmus/internal/models"
)

func validateCategory(name string) error {
	if name == "" {
		return fmt.Errorf("category: %w", ErrNameRequired)
	}
	return checkLen("category name", name, models.MaxCategoryName)
}

// CreateCategory appends a category to a project
func (db *DB) CreateCategory(ctx context.Context, projectID int64, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategory(name); err != nil {
		return nil, err
	}

	result, err := db.q.ExecContext(ctx, `
		INSERT INTO categories (project_id, name, sort_order)
		VALUES (?, ?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM categories WHERE project_id = ?))
	`, projectID, name, projectID)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetCategory(ctx, id)
}

// GetCategory retrieves a category by ID
func (db *DB) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	c := &models.Category{}
	err := db.q.QueryRowContext(ctx, `
		SELECT id, project_id, name, sort_order FROM categories WHERE id = ?
	`, id).Scan(&c.ID, &c.ProjectID, &c.Name, &c.SortOrder)
	if err != nil {
		return nil, notFound(fmt.Sprintf("category %d", id), err)
	}
	return c, nil
}

// GetCategoryByName finds a category in a project by name, ignoring case
func (db *DB) GetCategoryByName(ctx context.Context, projectID int64, name string) (*models.Category, error) {
	c := &models.Category{}
	err := db.q.QueryRowContext(ctx, `
		SELECT id, project_id, name, sort_order FROM categories
		WHERE project_id = ? AND name = ? COLLATE NOCASE ORDER BY id LIMIT 1
	`, projectID, strings.TrimSpace(name)).Scan(&c.ID, &c.ProjectID, &c.Name, &c.SortOrder)
	if err != nil {
		return nil, notFound(fmt.Sprintf("category %q", name), err)
	}
	return c, nil
}

// ListCategories returns a project's categories ordered by sort order then
// name, with test counts
func (db *DB) ListCategories(ctx context.Context, projectID int64) ([]models.Category, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT c.id, c.project_id, c.name, c.sort_order, COUNT(t.id)
		FROM categories c
		LEFT JOIN tests t ON t.category_id = c.id
		WHERE c.project_id = ?
		GROUP BY c.id
		ORDER BY c.sort_order, c.name
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.SortOrder, &c.TestCount); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// RenameCategory changes a category's name
func (db *DB) RenameCategory(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if err := validateCategory(name); err != nil {
		return err
	}
	_, err := db.q.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	return err
}

// DeleteCategory deletes a category with its tests, their results and
// attachments in one transaction
func (db *DB) DeleteCategory(ctx context.Context, id int64) error {
	return db.Tx(ctx, func(tx *DB) error {
		if err := tx.deleteTestsWhere(ctx, `category_id = ?`, id); err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
		if _, err := tx.q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
		tx.log.Debug().Int64("category_id", id).Msg("deleted category")
		return nil
	})
}

// DeleteCategoriesForProject removes every category of a project (and their tests)
func (db *DB) DeleteCategoriesForProject(ctx context.Context, projectID int64) error {
	return db.Tx(ctx, func(tx *DB) error {
		if err := tx.deleteTestsWhere(ctx,
			`category_id IN (SELECT id FROM categories WHERE project_id = ?)`, projectID); err != nil {
			return err
		}
		_, err := tx.q.ExecContext(ctx, `DELETE FROM categories WHERE project_id = ?`, projectID)
		return err
	})
}
