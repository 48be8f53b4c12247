// Package session drives the guided execution of one test run: an ordered
// list of results, a cursor, and write-through status and notes updates.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tgienger/litmus/internal/attach"
	"github.com/tgienger/litmus/internal/models"
)

var (
	// ErrNoResults is returned when the run has no results to execute
	ErrNoResults = errors.New("run has no test results")
	// ErrNoCurrent is returned when an operation needs a displayed result
	ErrNoCurrent = errors.New("no result is displayed")
	// ErrInvalidStatus is returned for statuses outside the known set
	ErrInvalidStatus = errors.New("invalid status")
)

// DefaultMoveGap is added to the project's highest sort order when a test is
// moved to the end
const DefaultMoveGap = 1000

// Store is the persistence the session needs
type Store interface {
	GetRun(ctx context.Context, id int64) (*models.TestRun, error)
	ListResults(ctx context.Context, runID int64) ([]models.TestResult, error)
	UpdateResult(ctx context.Context, id int64, status models.Status, notes string, executedAt *time.Time) error
	UpdateResultNotes(ctx context.Context, id int64, notes string) error
	PriorResult(ctx context.Context, testID, excludeRunID int64) (*models.PriorResult, error)
	ListAttachments(ctx context.Context, resultID int64) ([]models.Attachment, error)
	CreateAttachment(ctx context.Context, a models.Attachment) (*models.Attachment, error)
	DeleteAttachment(ctx context.Context, id int64) error
	MaxProjectSortOrder(ctx context.Context, projectID int64) (int, error)
	SetTestSortOrder(ctx context.Context, id int64, order int) error
}

// Files stores attachment payloads
type Files interface {
	Import(runID, testID int64, src string) (*attach.Saved, error)
	WriteBytes(runID, testID int64, name string, data []byte) (*attach.Saved, error)
	Remove(path string) error
}

// Option configures a Session
type Option func(*Session)

// WithClock sets the time source for executed timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithMoveGap sets the sort-order gap used by MoveCurrentToEnd
func WithMoveGap(gap int) Option {
	return func(s *Session) {
		if gap > 0 {
			s.moveGap = gap
		}
	}
}

// Session is the execution state for one run
type Session struct {
	store   Store
	files   Files
	log     zerolog.Logger
	now     func() time.Time
	moveGap int

	run     models.TestRun
	results []models.TestResult
	cursor  int
	notes   string // edit buffer for the displayed result
	prior   *models.PriorResult
}

// Open loads a run's results, orders them for execution and displays the
// first NotRun result (or the first result)
func Open(ctx context.Context, store Store, files Files, runID int64, logger zerolog.Logger, opts ...Option) (*Session, error) {
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	results, err := store.ListResults(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	s := &Session{
		store:   store,
		files:   files,
		log:     logger.With().Str("component", "session").Int64("run_id", runID).Logger(),
		now:     time.Now,
		moveGap: DefaultMoveGap,
		run:     *run,
		results: results,
		cursor:  -1,
	}
	for _, opt := range opts {
		opt(s)
	}

	SortForExecution(s.results)
	if len(s.results) == 0 {
		return s, nil
	}

	start := s.firstNotRun()
	if start < 0 {
		start = 0
	}
	if err := s.load(ctx, start); err != nil {
		return nil, err
	}
	return s, nil
}

// SortForExecution orders results by priority (highest first), then
// category name, then test name
func SortForExecution(results []models.TestResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Test.Priority != b.Test.Priority {
			return a.Test.Priority > b.Test.Priority
		}
		if ac, bc := strings.ToLower(a.CategoryName), strings.ToLower(b.CategoryName); ac != bc {
			return ac < bc
		}
		return strings.ToLower(a.Test.Name) < strings.ToLower(b.Test.Name)
	})
}

// Run returns the run being executed
func (s *Session) Run() models.TestRun { return s.run }

// Len returns the number of results
func (s *Session) Len() int { return len(s.results) }

// Index returns the zero-based cursor, -1 when the run is empty
func (s *Session) Index() int { return s.cursor }

// Notes returns the notes edit buffer
func (s *Session) Notes() string { return s.notes }

// SetNotes replaces the notes edit buffer without persisting it
func (s *Session) SetNotes(notes string) { s.notes = notes }

// Prior returns the displayed test's result from its most recent other run
func (s *Session) Prior() *models.PriorResult { return s.prior }

// PriorLabel formats the prior result for display
func (s *Session) PriorLabel() string {
	if s.prior == nil {
		return "No previous result"
	}
	return fmt.Sprintf("%s (Build %s)", s.prior.Status.Label(), s.prior.BuildVersion)
}

// Current returns a copy of the displayed result, nil when the run is empty
func (s *Session) Current() *models.TestResult {
	if s.cursor < 0 || s.cursor >= len(s.results) {
		return nil
	}
	r := s.results[s.cursor]
	return &r
}

// Results returns a copy of the ordered results
func (s *Session) Results() []models.TestResult {
	out := make([]models.TestResult, len(s.results))
	copy(out, s.results)
	return out
}

// Progress tallies the results by status
func (s *Session) Progress() models.StatusCounts {
	var c models.StatusCounts
	for _, r := range s.results {
		c.Add(r.Status)
	}
	return c
}

// Display persists pending note edits of the displayed result, then shows result i
func (s *Session) Display(ctx context.Context, i int) error {
	if len(s.results) == 0 {
		return ErrNoResults
	}
	if i < 0 || i >= len(s.results) {
		return fmt.Errorf("display result %d of %d: index out of range", i+1, len(s.results))
	}
	if err := s.SaveNotes(ctx); err != nil {
		return err
	}
	return s.load(ctx, i)
}

// load moves the cursor and loads prior result and attachments without
// touching the notes of the previously displayed result
func (s *Session) load(ctx context.Context, i int) error {
	r := &s.results[i]

	prior, err := s.store.PriorResult(ctx, r.TestID, s.run.ID)
	if err != nil {
		return fmt.Errorf("load prior result: %w", err)
	}
	attachments, err := s.store.ListAttachments(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("load attachments: %w", err)
	}

	r.Attachments = attachments
	s.cursor = i
	s.notes = r.Notes
	s.prior = prior
	return nil
}

// SaveNotes writes the notes buffer of the displayed result if it changed
func (s *Session) SaveNotes(ctx context.Context) error {
	if s.cursor < 0 || s.cursor >= len(s.results) {
		return nil
	}
	r := &s.results[s.cursor]
	if r.Notes == s.notes {
		return nil
	}
	if err := s.store.UpdateResultNotes(ctx, r.ID, s.notes); err != nil {
		return err
	}
	r.Notes = s.notes
	return nil
}

// MarkStatus sets the displayed result's status, stores the notes buffer
// with it and stamps the executed time, writing through immediately
func (s *Session) MarkStatus(ctx context.Context, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, int(status))
	}
	if s.cursor < 0 {
		return ErrNoCurrent
	}
	r := &s.results[s.cursor]

	executed := s.now()
	if err := s.store.UpdateResult(ctx, r.ID, status, s.notes, &executed); err != nil {
		return err
	}
	r.Status = status
	r.Notes = s.notes
	r.ExecutedAt = &executed

	s.log.Debug().Int64("result_id", r.ID).Stringer("status", status).Msg("marked result")
	return nil
}

// ApplyTemplate records a quick failure: the template's description becomes
// the notes and the result is marked Fail
func (s *Session) ApplyTemplate(ctx context.Context, tmpl models.FailureTemplate) error {
	if s.cursor < 0 {
		return ErrNoCurrent
	}
	s.notes = tmpl.Description
	return s.MarkStatus(ctx, models.StatusFail)
}

// Advance saves the notes and moves to the next result. At the end of the
// list nothing is mutated; the outcome reports completion or what remains.
func (s *Session) Advance(ctx context.Context) (Outcome, error) {
	if s.cursor < 0 {
		return Outcome{}, ErrNoResults
	}
	if s.cursor < len(s.results)-1 {
		return moved(s.Display(ctx, s.cursor+1))
	}
	if err := s.SaveNotes(ctx); err != nil {
		return Outcome{}, err
	}
	return s.endOfList(), nil
}

// Retreat moves to the previous result
func (s *Session) Retreat(ctx context.Context) (Outcome, error) {
	if s.cursor <= 0 {
		return Outcome{Event: Unchanged}, nil
	}
	return moved(s.Display(ctx, s.cursor-1))
}

// Skip moves forward without changing status. At the end it wraps to the
// first NotRun result if that is not the displayed one.
func (s *Session) Skip(ctx context.Context) (Outcome, error) {
	if s.cursor < 0 {
		return Outcome{}, ErrNoResults
	}
	if s.cursor < len(s.results)-1 {
		return moved(s.Display(ctx, s.cursor+1))
	}
	if first := s.firstNotRun(); first >= 0 && first != s.cursor {
		if err := s.Display(ctx, first); err != nil {
			return Outcome{}, err
		}
		return Outcome{Event: Wrapped}, nil
	}
	if err := s.SaveNotes(ctx); err != nil {
		return Outcome{}, err
	}
	return s.endOfList(), nil
}

// JumpToNextNotRun scans forward from the cursor, then from the start
func (s *Session) JumpToNextNotRun(ctx context.Context) (Outcome, error) {
	if s.cursor < 0 {
		return Outcome{Event: NoneRemaining}, nil
	}
	n := len(s.results)
	for step := 1; step < n; step++ {
		i := (s.cursor + step) % n
		if s.results[i].Status == models.StatusNotRun {
			return moved(s.Display(ctx, i))
		}
	}
	if err := s.SaveNotes(ctx); err != nil {
		return Outcome{}, err
	}
	return Outcome{Event: NoneRemaining}, nil
}

// JumpTo displays the n-th result (1-based); out-of-range values are ignored
func (s *Session) JumpTo(ctx context.Context, n int) (Outcome, error) {
	if n < 1 || n > len(s.results) {
		return Outcome{Event: Unchanged}, nil
	}
	return moved(s.Display(ctx, n-1))
}

// SelectResult displays the result with the given ID
func (s *Session) SelectResult(ctx context.Context, resultID int64) error {
	for i, r := range s.results {
		if r.ID == resultID {
			return s.Display(ctx, i)
		}
	}
	return fmt.Errorf("result %d is not part of run %d", resultID, s.run.ID)
}

// AddAttachment copies the file at path into the attachment store and links
// it to the displayed result
func (s *Session) AddAttachment(ctx context.Context, path string) (*models.Attachment, error) {
	if s.cursor < 0 {
		return nil, ErrNoCurrent
	}
	r := s.results[s.cursor]
	saved, err := s.files.Import(s.run.ID, r.TestID, path)
	if err != nil {
		return nil, err
	}
	return s.link(ctx, saved)
}

// AddCapturedImage stores image bytes (for example a screenshot) as an
// attachment of the displayed result. An empty name gets a generated one.
func (s *Session) AddCapturedImage(ctx context.Context, name string, data []byte) (*models.Attachment, error) {
	if s.cursor < 0 {
		return nil, ErrNoCurrent
	}
	if name == "" {
		name = attach.CaptureName()
	}
	r := s.results[s.cursor]
	saved, err := s.files.WriteBytes(s.run.ID, r.TestID, name, data)
	if err != nil {
		return nil, err
	}
	return s.link(ctx, saved)
}

func (s *Session) link(ctx context.Context, saved *attach.Saved) (*models.Attachment, error) {
	r := &s.results[s.cursor]
	a, err := s.store.CreateAttachment(ctx, models.Attachment{
		ResultID:    r.ID,
		FileName:    saved.FileName,
		FilePath:    saved.Path,
		ContentType: saved.ContentType,
		Size:        saved.Size,
	})
	if err != nil {
		if rmErr := s.files.Remove(saved.Path); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("path", saved.Path).Msg("remove orphaned attachment file")
		}
		return nil, fmt.Errorf("record attachment: %w", err)
	}
	r.Attachments = append(r.Attachments, *a)
	return a, nil
}

// RemoveAttachment deletes an attachment of the displayed result. The file
// is removed best-effort; the row is always removed.
func (s *Session) RemoveAttachment(ctx context.Context, id int64) error {
	if s.cursor < 0 {
		return ErrNoCurrent
	}
	r := &s.results[s.cursor]

	idx := -1
	for i, a := range r.Attachments {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("attachment %d does not belong to the displayed result", id)
	}

	if err := s.files.Remove(r.Attachments[idx].FilePath); err != nil {
		s.log.Warn().Err(err).Int64("attachment_id", id).Msg("remove attachment file")
	}
	if err := s.store.DeleteAttachment(ctx, id); err != nil {
		return err
	}
	r.Attachments = append(r.Attachments[:idx], r.Attachments[idx+1:]...)
	return nil
}

// MoveCurrentToEnd gives the displayed test a sort order past every test in
// the project and moves its result to the end of this session. The rest of
// the list keeps its order; the cursor stays on the same position.
func (s *Session) MoveCurrentToEnd(ctx context.Context) error {
	if s.cursor < 0 {
		return ErrNoCurrent
	}
	if err := s.SaveNotes(ctx); err != nil {
		return err
	}

	r := s.results[s.cursor]
	maxOrder, err := s.store.MaxProjectSortOrder(ctx, s.run.ProjectID)
	if err != nil {
		return fmt.Errorf("read sort order: %w", err)
	}
	order := maxOrder + s.moveGap
	if err := s.store.SetTestSortOrder(ctx, r.TestID, order); err != nil {
		return fmt.Errorf("update sort order: %w", err)
	}
	r.Test.SortOrder = order

	s.results = append(s.results[:s.cursor], s.results[s.cursor+1:]...)
	s.results = append(s.results, r)

	i := s.cursor
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.load(ctx, i)
}

// Close persists pending note edits
func (s *Session) Close(ctx context.Context) error {
	return s.SaveNotes(ctx)
}

func (s *Session) firstNotRun() int {
	for i, r := range s.results {
		if r.Status == models.StatusNotRun {
			return i
		}
	}
	return -1
}

func (s *Session) endOfList() Outcome {
	remaining := s.Progress().NotRun
	if remaining == 0 {
		return Outcome{Event: Completed}
	}
	return Outcome{Event: EndOfList, Remaining: remaining}
}

func moved(err error) (Outcome, error) {
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Event: Moved}, nil
}
