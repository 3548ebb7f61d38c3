package bios

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiki-dtmp/core/internal/contracts"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("bios", Config{
		FirmwareVersion: "1.0.0",
		HardwareProfile: map[string]any{"thrusters": 6},
		HardwareManifest: map[string]any{"rev": 1},
		Devices: []Device{
			{ID: "radar", Name: "radar-unit", Status: contracts.PostOK},
			{ID: "xpdr", Name: "transponder", Status: contracts.PostOK},
		},
	})
	require.NoError(t, err)
	return svc
}

func TestAllSystemsGoWhenAllDevicesOK(t *testing.T) {
	svc := newTestService(t)
	assert.True(t, svc.Status().AllSystemsGo)
}

// TestDeviceFailureClearsAllSystemsGo grounds scenario S2: one device
// reporting status=3 must flip all_systems_go to false.
func TestDeviceFailureClearsAllSystemsGo(t *testing.T) {
	svc := newTestService(t)
	svc.SetDeviceStatus("radar", contracts.PostFail, "no response")
	status := svc.Status()
	assert.False(t, status.AllSystemsGo)
	require.Len(t, status.PostResults, 2)
}

func TestHardwareProfileHashStableAcrossStatusCalls(t *testing.T) {
	svc := newTestService(t)
	h1 := svc.Status().HardwareProfileHash
	svc.SetDeviceStatus("xpdr", contracts.PostWarn, "intermittent")
	h2 := svc.Status().HardwareProfileHash
	assert.Equal(t, h1, h2, "hash must remain stable across the same process generation regardless of POST outcomes")
}

func TestHealthzAndStatusRoutes(t *testing.T) {
	svc := newTestService(t)
	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var healthBody map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &healthBody))
	assert.True(t, healthBody["ok"])

	rec2 := httptest.NewRecorder()
	mux.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/bios/status", nil))
	assert.Equal(t, http.StatusOK, rec2.Code)
	var status contracts.BiosStatus
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &status))
	assert.Equal(t, "1.0.0", status.FirmwareVersion)
}
