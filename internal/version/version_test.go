package version

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerReportsCurrentValues(t *testing.T) {
	oldVersion, oldSHA, oldBuild := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = oldVersion, oldSHA, oldBuild })
	Version, GitSHA, BuildTime = "1.2.3", "deadbeef", "2026-07-30T00:00:00Z"

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()
	Handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, "deadbeef", body["git_sha"])
	assert.Equal(t, "2026-07-30T00:00:00Z", body["build_time"])
}
