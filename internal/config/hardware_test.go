package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHardwareConfigRejectsNonJSONExtension(t *testing.T) {
	_, err := LoadHardwareConfig("hardware.yaml")
	assert.Error(t, err)
}

func TestLoadHardwareConfigRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hardware_profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"firmware_version": "2.0.0",
		"hardware_profile": {"cpu": "arm64"},
		"hardware_manifest": {"schema": "2"},
		"devices": [{"id": "core", "name": "core bus", "status": 0}]
	}`), 0o644))

	cfg, err := LoadHardwareConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", cfg.FirmwareVersion)
	assert.Equal(t, "arm64", cfg.HardwareProfile["cpu"])
	assert.Len(t, cfg.Devices, 1)
}

func TestLoadHardwareConfigRequiresAtLeastOneDevice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hardware_profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"firmware_version": "1.0.0"}`), 0o644))

	_, err := LoadHardwareConfig(path)
	assert.Error(t, err)
}

func TestDefaultHardwareConfigHasDevices(t *testing.T) {
	cfg := DefaultHardwareConfig()
	assert.NotEmpty(t, cfg.Devices)
	assert.NotEmpty(t, cfg.HardwareProfile)
}
