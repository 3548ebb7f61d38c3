// Package qlog provides the process-wide structured logger used by every
// QIKI_DTMP service. It generalizes the teacher's monitoring.Logf pattern
// (a package-level, swappable function) to a swappable zerolog.Logger so
// that tests can redirect or silence output the same way.
package qlog

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// l is the package-level logger, read through Get. It defaults to a
// console writer on stderr and may be replaced wholesale by Set or Mute.
var (
	mu sync.RWMutex
	l  = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
)

// Set replaces the package logger. Passing a logger built on io.Discard
// mutes output entirely; tests use this to silence noisy components.
func Set(logger zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	l = logger
}

// Mute installs a no-op logger, mirroring monitoring.SetLogger(nil).
func Mute() {
	Set(zerolog.New(io.Discard))
}

// Get returns the current package logger.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return l
}

// For returns a logger tagged with the given source and boot_id, the
// fields every QIKI_DTMP service attaches to its lines so operator log
// shipping (out of scope here, but downstream) can correlate across
// processes.
func For(source, bootID string) zerolog.Logger {
	return Get().With().Str("source", source).Str("boot_id", bootID).Logger()
}
