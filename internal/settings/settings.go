// Package settings persists user-level flags in settings.json.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tgienger/litmus/internal/filelock"
)

// LicenseText must be accepted before the interactive UI starts
const LicenseText = `Litmus Test Manager

This software is provided "as is", without warranty of any kind, express or
implied. In no event shall the authors be liable for any claim, damages or
other liability arising from the use of this software.`

// Settings is the content of settings.json
type Settings struct {
	LicenseAccepted     bool       `json:"licenseAccepted"`
	LicenseAcceptedDate *time.Time `json:"licenseAcceptedDate"`
}

// Load reads settings from path. A missing or unreadable file yields the
// defaults so a corrupt file never blocks startup.
func Load(path string) Settings {
	s, err := Read(path)
	if err != nil {
		return Settings{}
	}
	return s
}

// Read is Load with the error reported
func Read(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

// Save writes settings atomically
func Save(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return filelock.LockAndWrite(path, data)
}

// Accept records license acceptance at now
func (s *Settings) Accept(now time.Time) {
	s.LicenseAccepted = true
	t := now.UTC()
	s.LicenseAcceptedDate = &t
}

// Revoke clears license acceptance
func (s *Settings) Revoke() {
	s.LicenseAccepted = false
	s.LicenseAcceptedDate = nil
}
