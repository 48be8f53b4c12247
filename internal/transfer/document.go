// Package transfer moves test plans in and out of the store as JSON documents.
package transfer

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrProjectNotFound is returned when exporting a missing project
var ErrProjectNotFound = errors.New("project not found")

// Document is the exported shape of a project
type Document struct {
	Project    ProjectDoc    `json:"project"`
	Categories []CategoryDoc `json:"categories"`
}

// ProjectDoc describes the project header
type ProjectDoc struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CategoryDoc is a category with its tests
type CategoryDoc struct {
	Name  string    `json:"name"`
	Tests []TestDoc `json:"tests"`
}

// TestDoc is one test case
type TestDoc struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Command        string `json:"command,omitempty"`
	ExpectedResult string `json:"expectedResult,omitempty"`
	PrepSteps      string `json:"prepSteps,omitempty"`
	Priority       string `json:"priority"`
	IsAutomated    bool   `json:"isAutomated"`
}

// Result reports the outcome of an import-style operation. Input problems
// are reported here rather than as Go errors.
type Result struct {
	Success   bool
	Message   string
	ProjectID int64
}

func failure(msg string) Result {
	return Result{Message: msg}
}

// Progress is called after each test is processed
type Progress func(done, total int)

// incoming is the lenient decode target: either {project:{...}, categories}
// or a bare {name, description, categories}
type incoming struct {
	Project *struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	} `json:"project"`
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	Categories  []CategoryDoc `json:"categories"`
}

const defaultProjectName = "Imported Project"

const defaultCategoryName = "Uncategorized"

func (in incoming) projectName() string {
	if in.Project != nil && in.Project.Name != nil && strings.TrimSpace(*in.Project.Name) != "" {
		return strings.TrimSpace(*in.Project.Name)
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		return strings.TrimSpace(*in.Name)
	}
	return defaultProjectName
}

func (in incoming) projectDescription() string {
	if in.Project != nil && in.Project.Description != nil {
		return strings.TrimSpace(*in.Project.Description)
	}
	if in.Description != nil {
		return strings.TrimSpace(*in.Description)
	}
	return ""
}

// parseCategories accepts {"categories": [...]} or a bare array of categories
func parseCategories(data []byte) ([]CategoryDoc, bool, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var cats []CategoryDoc
		if err := json.Unmarshal(data, &cats); err != nil {
			return nil, false, err
		}
		return cats, true, nil
	}

	var obj struct {
		Categories *[]CategoryDoc `json:"categories"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false, err
	}
	if obj.Categories == nil {
		return nil, false, nil
	}
	return *obj.Categories, true, nil
}

func countTests(cats []CategoryDoc) int {
	n := 0
	for _, c := range cats {
		n += len(c.Tests)
	}
	return n
}

func categoryName(c CategoryDoc) string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return defaultCategoryName
}
