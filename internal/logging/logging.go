// Package logging builds the application logger and the plain-text error log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing JSON lines to path at level. With console set
// a human-readable copy goes to stderr. The returned closer flushes the file.
func New(path, level string, console bool) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	var w io.Writer = f
	if console {
		w = zerolog.MultiLevelWriter(f, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return logger, f, nil
}

// ErrorLog appends timestamped error reports to a text file
type ErrorLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
	out  io.Writer
	exit func(int)
}

// NewErrorLog creates an error log at path
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path, now: time.Now, out: os.Stderr, exit: os.Exit}
}

// Path returns the file the log appends to
func (e *ErrorLog) Path() string {
	return e.path
}

// Record appends an entry for err with the given stack
func (e *ErrorLog) Record(err error, stack []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return err
	}
	f, ferr := os.OpenFile(e.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if ferr != nil {
		return ferr
	}
	defer f.Close()

	_, werr := fmt.Fprintf(f, "\n\n[%s]\n%v\n%s", e.now().Format("2006-01-02 15:04:05"), err, stack)
	return werr
}

// WithExit replaces where Recover reports and how it exits
func (e *ErrorLog) WithExit(out io.Writer, exit func(int)) *ErrorLog {
	e.out, e.exit = out, exit
	return e
}

// PanicError turns a recovered value into an error
func PanicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// RecordPanic appends an entry for a recovered panic value
func (e *ErrorLog) RecordPanic(r any, stack []byte) error {
	return e.Record(PanicError(r), stack)
}

// Recover is deferred at the top of a goroutine. A panic is recorded with its
// stack, reported on stderr and the process exits with status 2.
func (e *ErrorLog) Recover() {
	r := recover()
	if r == nil {
		return
	}
	err := PanicError(r)
	if rerr := e.Record(err, debug.Stack()); rerr != nil {
		fmt.Fprintf(e.out, "failed to write error log: %v\n", rerr)
	}
	fmt.Fprintf(e.out, "An unexpected error occurred: %v\nDetails were written to %s\n", err, e.path)
	e.exit(2)
}
