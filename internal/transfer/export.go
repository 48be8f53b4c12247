package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tgienger/litmus/internal/db"
	"github.com/tgienger/litmus/internal/filelock"
	"github.com/tgienger/litmus/internal/models"
)

// Service exports and imports projects
type Service struct {
	db  *db.DB
	log zerolog.Logger
}

// NewService creates a transfer service
func NewService(database *db.DB, logger zerolog.Logger) *Service {
	return &Service{db: database, log: logger.With().Str("component", "transfer").Logger()}
}

// ExportOptions controls export output
type ExportOptions struct {
	IncludeDescription bool
	Indent             bool
}

// BuildDocument collects a project into its document form
func (s *Service) BuildDocument(ctx context.Context, projectID int64, includeDescription bool) (*Document, error) {
	project, err := s.db.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	doc := &Document{
		Project:    ProjectDoc{Name: project.Name},
		Categories: []CategoryDoc{},
	}
	if includeDescription {
		doc.Project.Description = project.Description
	}

	categories, err := s.db.ListCategories(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		tests, err := s.db.ListTests(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("list tests: %w", err)
		}
		cd := CategoryDoc{Name: c.Name, Tests: make([]TestDoc, 0, len(tests))}
		for _, t := range tests {
			cd.Tests = append(cd.Tests, toDoc(t))
		}
		doc.Categories = append(doc.Categories, cd)
	}
	return doc, nil
}

func toDoc(t models.Test) TestDoc {
	return TestDoc{
		Name:           t.Name,
		Description:    t.Description,
		Command:        t.Command,
		ExpectedResult: t.ExpectedResult,
		PrepSteps:      t.PrepSteps,
		Priority:       t.Priority.Slug(),
		IsAutomated:    t.Automated,
	}
}

// Export serializes a project
func (s *Service) Export(ctx context.Context, projectID int64, opts ExportOptions) ([]byte, error) {
	doc, err := s.BuildDocument(ctx, projectID, opts.IncludeDescription)
	if err != nil {
		return nil, err
	}
	if opts.Indent {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// ExportFile writes a project export to path atomically
func (s *Service) ExportFile(ctx context.Context, projectID int64, path string, opts ExportOptions) error {
	data, err := s.Export(ctx, projectID, opts)
	if err != nil {
		return err
	}
	if err := filelock.AtomicWrite(path, data); err != nil {
		return err
	}
	s.log.Info().Int64("project_id", projectID).Str("path", path).Msg("exported project")
	return nil
}
