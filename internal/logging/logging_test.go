package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "litmus.log")
	logger, closer, err := New(path, "warn", false)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("k", "v").Msg("shown")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"message":"shown"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestNew_BadLevelDefaultsToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "litmus.log")
	logger, closer, err := New(path, "nonsense", false)
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, "info", logger.GetLevel().String())
}

func newTestErrorLog(t *testing.T) (*ErrorLog, *bytes.Buffer, *int) {
	t.Helper()
	e := NewErrorLog(filepath.Join(t.TempDir(), "error.log"))
	e.now = func() time.Time { return time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC) }
	out := &bytes.Buffer{}
	code := -1
	e.WithExit(out, func(c int) { code = c })
	return e, out, &code
}

func TestErrorLog_Record(t *testing.T) {
	e, _, _ := newTestErrorLog(t)
	require.NoError(t, e.Record(errors.New("first"), []byte("stack1")))
	require.NoError(t, e.Record(errors.New("second"), []byte("stack2")))

	data, err := os.ReadFile(e.Path())
	require.NoError(t, err)
	assert.Equal(t, "\n\n[2025-06-07 08:09:10]\nfirst\nstack1\n\n[2025-06-07 08:09:10]\nsecond\nstack2", string(data))
}

func TestErrorLog_Recover(t *testing.T) {
	e, out, code := newTestErrorLog(t)

	func() {
		defer e.Recover()
		panic("kaboom")
	}()

	assert.Equal(t, 2, *code)
	assert.Contains(t, out.String(), "kaboom")
	data, err := os.ReadFile(e.Path())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "kaboom"))
	assert.Contains(t, string(data), "goroutine")
}

func TestErrorLog_RecoverNoPanic(t *testing.T) {
	e, _, code := newTestErrorLog(t)
	func() {
		defer e.Recover()
	}()
	assert.Equal(t, -1, *code)
	_, err := os.Stat(e.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestErrorLog_RecordPanic(t *testing.T) {
	e, _, _ := newTestErrorLog(t)
	require.NoError(t, e.RecordPanic("plain value", []byte("stack")))
	require.NoError(t, e.RecordPanic(errors.New("wrapped"), nil))

	data, err := os.ReadFile(e.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "plain value\nstack")
	assert.Contains(t, string(data), "wrapped\n")
}
