package models

import (
	"fmt"
	"strings"
)

// Status is the outcome recorded for a test result.
// The numeric values are persisted; do not reorder.
type Status int

const (
	StatusNotRun Status = iota
	StatusPass
	StatusFail
	StatusBlocked
)

// Statuses lists every status in display order
var Statuses = []Status{StatusNotRun, StatusPass, StatusFail, StatusBlocked}

func (s Status) String() string {
	switch s {
	case StatusNotRun:
		return "NotRun"
	case StatusPass:
		return "Pass"
	case StatusFail:
		return "Fail"
	case StatusBlocked:
		return "Blocked"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Label returns a human readable label ("Not Run" rather than "NotRun")
func (s Status) Label() string {
	if s == StatusNotRun {
		return "Not Run"
	}
	return s.String()
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	return s >= StatusNotRun && s <= StatusBlocked
}

// ParseStatus accepts names like "pass", "Fail", "not-run" or "notrun"
func ParseStatus(s string) (Status, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "notrun":
		return StatusNotRun, nil
	case "pass", "passed":
		return StatusPass, nil
	case "fail", "failed":
		return StatusFail, nil
	case "blocked":
		return StatusBlocked, nil
	}
	return StatusNotRun, fmt.Errorf("unknown status %q", s)
}

// Priority orders tests during execution, highest first
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// Slug returns the lowercase form used in JSON documents
func (p Priority) Slug() string {
	return strings.ToLower(p.String())
}

// ParsePriority maps critical/high/low case-insensitively; anything else is Medium
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return PriorityCritical
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	}
	return PriorityMedium
}
