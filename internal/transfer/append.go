package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tgienger/litmus/internal/db"
)

// AppendOptions sets the conflict policy for Append
type AppendOptions struct {
	// Merge adds into same-named categories instead of creating new ones
	Merge bool
	// SkipDuplicates leaves same-named tests alone; otherwise they are updated
	SkipDuplicates bool
	Progress       Progress
}

// AppendFile reads path and appends it to a project
func (s *Service) AppendFile(ctx context.Context, path string, projectID int64, opts AppendOptions) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return failure(fmt.Sprintf("Error reading file: %v", err))
	}
	return s.Append(ctx, data, projectID, opts)
}

// Append adds categories and tests to an existing project. The input is either
// an object with a categories key or a bare array of categories.
func (s *Service) Append(ctx context.Context, data []byte, projectID int64, opts AppendOptions) Result {
	cats, ok, err := parseCategories(data)
	if err != nil {
		return failure(fmt.Sprintf("Error parsing JSON: %v", err))
	}
	if !ok {
		return failure("Invalid JSON format: no categories found.")
	}
	total := countTests(cats)

	var result Result
	err = s.db.Tx(ctx, func(tx *db.DB) error {
		project, err := tx.GetProject(ctx, projectID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				result = failure("Project not found.")
				return nil
			}
			return err
		}

		added, created, skipped, done := 0, 0, 0, 0
		for _, cd := range cats {
			category, isNew, err := s.resolveCategory(ctx, tx, project.ID, categoryName(cd), opts.Merge)
			if err != nil {
				return err
			}
			if isNew {
				created++
			}

			for _, td := range cd.Tests {
				done++
				if strings.TrimSpace(td.Name) != "" {
					outcome, err := upsertTest(ctx, tx, category.ID, td, opts.SkipDuplicates)
					if err != nil {
						return err
					}
					if outcome != testSkipped {
						added++
					} else {
						skipped++
					}
				}
				if opts.Progress != nil {
					opts.Progress(done, total)
				}
			}
		}

		result = Result{
			Success:   true,
			ProjectID: project.ID,
			Message:   appendMessage(added, created, skipped, project.Name),
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Int64("project_id", projectID).Msg("append failed")
		return failure(fmt.Sprintf("Append failed: %v", err))
	}
	if result.Success {
		s.log.Info().Int64("project_id", projectID).Msg(result.Message)
	}
	return result
}

func appendMessage(added, created, skipped int, project string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Added %d tests", added)
	if created > 0 {
		fmt.Fprintf(&b, " in %d new categories", created)
	}
	if skipped > 0 {
		fmt.Fprintf(&b, " (%d duplicates skipped)", skipped)
	}
	fmt.Fprintf(&b, " to '%s'.", project)
	return b.String()
}
