package db

import (
	"context"

	"github.com/tgienger/litmus/internal/models"
)

// ListFailureTemplates returns the quick-fail reasons in display order
func (db *DB) ListFailureTemplates(ctx context.Context) ([]models.FailureTemplate, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT id, name, description, sort_order FROM failure_templates
		ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []models.FailureTemplate
	for rows.Next() {
		var t models.FailureTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.SortOrder); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
