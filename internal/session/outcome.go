package session

import "fmt"

// Event describes what a navigation step did
type Event int

const (
	// Moved means the cursor changed
	Moved Event = iota
	// Wrapped means skip reached the end and restarted at the first NotRun result
	Wrapped
	// Completed means the end was reached with no NotRun results left
	Completed
	// EndOfList means the end was reached while NotRun results remain
	EndOfList
	// NoneRemaining means a NotRun search found nothing
	NoneRemaining
	// Unchanged means the request was ignored
	Unchanged
)

// Outcome is the result of a navigation step
type Outcome struct {
	Event     Event
	Remaining int // NotRun results left, set for EndOfList
}

// Message returns the status line shown to the user, empty for plain moves
func (o Outcome) Message() string {
	switch o.Event {
	case Wrapped:
		return "Wrapped to the first test not yet run."
	case Completed:
		return "All tests completed!"
	case EndOfList:
		return fmt.Sprintf("End of list. %d test(s) still not run.", o.Remaining)
	case NoneRemaining:
		return "No more tests marked as 'Not Run'."
	}
	return ""
}
