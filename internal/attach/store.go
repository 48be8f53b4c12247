// Package attach stores attachment files under a per-run, per-test namespace.
package attach

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store copies evidence files into a dedicated directory
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created lazily.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory
func (s *Store) Dir() string {
	return s.dir
}

// Saved describes a file written by the store
type Saved struct {
	FileName    string
	Path        string
	ContentType string
	Size        int64
}

// Import copies the file at src into the store
func (s *Store) Import(runID, testID int64, src string) (*Saved, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	return s.Write(runID, testID, filepath.Base(src), f)
}

// WriteBytes stores an in-memory image or file under name
func (s *Store) WriteBytes(runID, testID int64, name string, data []byte) (*Saved, error) {
	return s.Write(runID, testID, name, bytes.NewReader(data))
}

// Write streams r into a new file named {run}_{test}_{uuid}_{name}
func (s *Store) Write(runID, testID int64, name string, r io.Reader) (*Saved, error) {
	name = sanitize(name)
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create attachments directory: %w", err)
	}

	dest := filepath.Join(s.dir, fmt.Sprintf("%d_%d_%s_%s", runID, testID, uuid.NewString(), name))
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("create attachment file: %w", err)
	}

	size, err := io.Copy(out, r)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("write attachment file: %w", err)
	}

	return &Saved{
		FileName:    name,
		Path:        dest,
		ContentType: ContentType(name),
		Size:        size,
	}, nil
}

// Remove deletes a stored file; a missing file is not an error
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment file: %w", err)
	}
	return nil
}

// CaptureName returns a default file name for a captured image
func CaptureName() string {
	return "capture_" + uuid.NewString()[:8] + ".png"
}

// ContentType maps a file extension to a MIME type
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	}
	return "application/octet-stream"
}

func sanitize(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "attachment"
	}
	return name
}
