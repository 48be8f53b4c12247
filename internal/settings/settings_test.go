package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, Settings{}, Load(filepath.Join(dir, "settings.json")))

	corrupt := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{nope"), 0o644))
	assert.Equal(t, Settings{}, Load(corrupt))
	_, err := Read(corrupt)
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	var s Settings
	s.Accept(now)
	require.NoError(t, Save(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"licenseAccepted": true`)

	got := Load(path)
	assert.True(t, got.LicenseAccepted)
	require.NotNil(t, got.LicenseAcceptedDate)
	assert.True(t, now.Equal(*got.LicenseAcceptedDate))

	got.Revoke()
	require.NoError(t, Save(path, got))
	again := Load(path)
	assert.False(t, again.LicenseAccepted)
	assert.Nil(t, again.LicenseAcceptedDate)
}
