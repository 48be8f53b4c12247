package models

import "time"

// Project groups categories of tests and the runs executed against them
type Project struct {
	ID          int64
	Name        string
	Description string
	Archived    bool
	CreatedAt   time.Time
}

// Category represents a named group of tests inside a project
type Category struct {
	ID        int64
	ProjectID int64
	Name      string
	SortOrder int
	TestCount int // populated when listing categories
}

// Test is a reusable manual test-case definition
type Test struct {
	ID             int64
	CategoryID     int64
	Name           string
	Description    string
	Command        string
	ExpectedResult string
	PrepSteps      string
	Priority       Priority
	SortOrder      int
	Automated      bool
}

// TestRun is one execution pass of a set of tests against a build version
type TestRun struct {
	ID        int64
	ProjectID int64
	Version   Version
	CreatedAt time.Time
	Notes     string
}

// BuildVersion returns the "major.minor.patch" display string
func (r TestRun) BuildVersion() string {
	return r.Version.String()
}

// TestResult is the outcome of one test within one run
type TestResult struct {
	ID         int64
	RunID      int64
	TestID     int64
	Status     Status
	Notes      string
	ExecutedAt *time.Time

	Test         Test         // populated when loading results for a run
	CategoryName string       // populated when loading results for a run
	Attachments  []Attachment // populated by the execution session
}

// Attachment is a file captured as evidence for a result
type Attachment struct {
	ID          int64
	ResultID    int64
	FileName    string
	FilePath    string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

// FailureTemplate is a reusable quick-fail reason
type FailureTemplate struct {
	ID          int64
	Name        string
	Description string
	SortOrder   int
}

// Field limits enforced before writes
const (
	MaxProjectName        = 200
	MaxProjectDescription = 2000
	MaxCategoryName       = 200
	MaxTestName           = 500
	MaxTestText           = 4000
)
