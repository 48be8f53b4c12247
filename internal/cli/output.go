package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/tgienger/litmus/internal/db"
	"github.com/tgienger/litmus/internal/models"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
)

func success(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func failed(w io.Writer, format string, args ...any) {
	errorColor.Fprintf(w, "✗ "+format+"\n", args...)
}

// PrintError reports a command failure
func PrintError(w io.Writer, err error) {
	failed(w, "%v", err)
}

func info(w io.Writer, format string, args ...any) {
	infoColor.Fprintf(w, format+"\n", args...)
}

// statusText colors a status label
func statusText(s models.Status) string {
	switch s {
	case models.StatusPass:
		return color.GreenString(s.Label())
	case models.StatusFail:
		return color.RedString(s.Label())
	case models.StatusBlocked:
		return color.YellowString(s.Label())
	}
	return s.Label()
}

// resolveProject accepts a project ID or a name
func resolveProject(ctx context.Context, database *db.DB, ref string) (*models.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("a project is required")
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if p, err := database.GetProject(ctx, id); err == nil {
			return p, nil
		}
	}
	p, err := database.GetProjectByName(ctx, ref)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("project %q not found", ref)
		}
		return nil, err
	}
	return p, nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

func parseRunFilter(s string) (models.RunFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return models.RunFilterAll, nil
	case "failures", "failed", "has-failures":
		return models.RunFilterHasFailures, nil
	case "passed", "all-passed":
		return models.RunFilterAllPassed, nil
	case "progress", "in-progress":
		return models.RunFilterInProgress, nil
	}
	return models.RunFilterAll, fmt.Errorf("unknown filter %q (all, failures, passed, progress)", s)
}
