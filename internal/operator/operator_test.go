package operator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiki-dtmp/core/internal/incident"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := incident.NewStore(":memory:", time.Minute)
	require.NoError(t, err)
	return New(store, nil)
}

func TestAckRejectsUnknownIncident(t *testing.T) {
	s := newTestService(t)
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	body := strings.NewReader(`{"rule_id":"none","target_key":"none","ts_epoch":1}`)
	req := httptest.NewRequest(http.MethodPost, "/incidents/ack", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAckRejectsMissingFields(t *testing.T) {
	s := newTestService(t)
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/incidents/ack", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestService(t)
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var discard map[string]any
	_ = json.NewDecoder(rec.Body).Decode(&discard)
}
