package version

import (
	"encoding/json"
	"net/http"
)

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// Handler serves the build identity every q-* service exposes at
// /version, so an operator can confirm which generation of the binary
// a running process is without grepping logs.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"version":    Version,
		"git_sha":    GitSHA,
		"build_time": BuildTime,
	})
}
