// Package config loads the static hardware description shared by the
// simulation and BIOS (spec.md §3: "hardware_profile_hash must agree...
// whenever both are emitted by the same process generation"). The file
// format and loader follow the teacher's internal/config tuning loader:
// a JSON file under config/, validated by extension and size before
// parsing, with Go-side defaults for anything the file omits.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qiki-dtmp/core/internal/contracts"
)

// DefaultConfigPath is the canonical hardware profile file location.
const DefaultConfigPath = "config/hardware_profile.json"

// DeviceConfig is one BIOS-tested device entry.
type DeviceConfig struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

// HardwareConfig is the root of config/hardware_profile.json: the static
// profile/manifest pair whose hash is embedded in telemetry and BIOS
// status, plus the device POST list and tick tuning.
type HardwareConfig struct {
	FirmwareVersion  string                 `json:"firmware_version"`
	HardwareProfile  map[string]any         `json:"hardware_profile"`
	HardwareManifest map[string]any         `json:"hardware_manifest"`
	Devices          []DeviceConfig         `json:"devices"`
	TickPeriodMS     int                    `json:"tick_period_ms,omitempty"`
	SRThresholdM     float64                `json:"sr_threshold_m,omitempty"`
}

// maxConfigFileSize bounds how large a hardware profile file may be.
const maxConfigFileSize = 1 * 1024 * 1024

// LoadHardwareConfig reads and parses path, requiring a .json extension
// and a size under 1MB, matching the teacher's tuning-file loading
// discipline.
func LoadHardwareConfig(path string) (*HardwareConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultHardwareConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if len(cfg.Devices) == 0 {
		return nil, fmt.Errorf("hardware config must declare at least one device")
	}
	return cfg, nil
}

// DefaultHardwareConfig returns the built-in single-node profile used
// when no --config file is given, enough to boot BIOS and the sim with
// three confirmed devices (core, radar, docking).
func DefaultHardwareConfig() *HardwareConfig {
	return &HardwareConfig{
		FirmwareVersion: "0.1.0",
		HardwareProfile: map[string]any{
			"platform": "qiki-dtmp-sim",
			"cpu":      "virtual",
		},
		HardwareManifest: map[string]any{
			"schema": "1",
		},
		Devices: []DeviceConfig{
			{ID: "core", Name: "core bus", Status: int(contracts.PostOK)},
			{ID: "radar", Name: "radar sensor plane", Status: int(contracts.PostOK)},
			{ID: "docking", Name: "docking actuator", Status: int(contracts.PostOK)},
		},
		TickPeriodMS: 100,
		SRThresholdM: 100,
	}
}
