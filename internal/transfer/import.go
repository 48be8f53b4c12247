package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tgienger/litmus/internal/db"
	"github.com/tgienger/litmus/internal/models"
)

// ImportOptions sets the conflict policy for Import
type ImportOptions struct {
	// Overwrite replaces an existing project of the same name and updates
	// existing tests; without it the import is refused
	Overwrite bool
	// Merge keeps existing categories and adds into them by name; without it
	// an overwritten project loses its categories first
	Merge    bool
	Progress Progress
}

// ImportFile reads path and imports it
func (s *Service) ImportFile(ctx context.Context, path string, opts ImportOptions) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return failure(fmt.Sprintf("Error reading file: %v", err))
	}
	return s.Import(ctx, data, opts)
}

// Import creates (or overwrites) a project from a document. All writes happen
// in one transaction.
func (s *Service) Import(ctx context.Context, data []byte, opts ImportOptions) Result {
	var in incoming
	if err := json.Unmarshal(data, &in); err != nil {
		return failure(fmt.Sprintf("Error parsing JSON: %v", err))
	}
	name := in.projectName()
	total := countTests(in.Categories)

	var result Result
	err := s.db.Tx(ctx, func(tx *db.DB) error {
		project, err := tx.GetProjectByName(ctx, name)
		switch {
		case err == nil:
			if !opts.Overwrite {
				result = failure(fmt.Sprintf("Project '%s' already exists. Enable 'Overwrite existing' to replace it.", name))
				return nil
			}
			if err := tx.UpdateProject(ctx, project.ID, project.Name, in.projectDescription()); err != nil {
				return err
			}
			if !opts.Merge {
				if err := tx.DeleteCategoriesForProject(ctx, project.ID); err != nil {
					return err
				}
			}
		case errors.Is(err, db.ErrNotFound):
			project, err = tx.CreateProject(ctx, name, in.projectDescription())
			if err != nil {
				return err
			}
		default:
			return err
		}

		categories, tests, done := 0, 0, 0
		for _, cd := range in.Categories {
			category, isNew, err := s.resolveCategory(ctx, tx, project.ID, categoryName(cd), opts.Merge)
			if err != nil {
				return err
			}
			if isNew {
				categories++
			}

			for _, td := range cd.Tests {
				done++
				outcome, err := upsertTest(ctx, tx, category.ID, td, !opts.Overwrite)
				if err != nil {
					return err
				}
				if outcome == testCreated {
					tests++
				}
				if opts.Progress != nil {
					opts.Progress(done, total)
				}
			}
		}

		result = Result{
			Success:   true,
			ProjectID: project.ID,
			Message:   fmt.Sprintf("Successfully imported %d categories and %d tests into '%s'.", categories, tests, name),
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("project", name).Msg("import failed")
		return failure(fmt.Sprintf("Import failed: %v", err))
	}
	if result.Success {
		s.log.Info().Int64("project_id", result.ProjectID).Msg(result.Message)
	}
	return result
}

// resolveCategory reuses a same-named category when merging, else appends one
func (s *Service) resolveCategory(ctx context.Context, tx *db.DB, projectID int64, name string, merge bool) (*models.Category, bool, error) {
	if merge {
		existing, err := tx.GetCategoryByName(ctx, projectID, name)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, false, err
		}
	}
	c, err := tx.CreateCategory(ctx, projectID, name)
	return c, true, err
}

type upsertOutcome int

const (
	testSkipped upsertOutcome = iota
	testCreated
	testUpdated
)

// upsertTest creates a test or updates the same-named one. With skipExisting
// a same-named test is left alone.
func upsertTest(ctx context.Context, tx *db.DB, categoryID int64, td TestDoc, skipExisting bool) (upsertOutcome, error) {
	name := strings.TrimSpace(td.Name)
	if name == "" {
		return testSkipped, nil
	}
	t := models.Test{
		CategoryID:     categoryID,
		Name:           name,
		Description:    td.Description,
		Command:        td.Command,
		ExpectedResult: td.ExpectedResult,
		PrepSteps:      td.PrepSteps,
		Priority:       models.ParsePriority(td.Priority),
		Automated:      td.IsAutomated,
	}

	existing, err := tx.GetTestByName(ctx, categoryID, name)
	switch {
	case err == nil:
		if skipExisting {
			return testSkipped, nil
		}
		t.ID = existing.ID
		return testUpdated, tx.UpdateTest(ctx, t)
	case errors.Is(err, db.ErrNotFound):
		if _, err := tx.CreateTest(ctx, t); err != nil {
			return testSkipped, err
		}
		return testCreated, nil
	default:
		return testSkipped, err
	}
}
