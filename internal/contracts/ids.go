// Package contracts holds the canonical wire types shared by every
// QIKI_DTMP service: telemetry snapshots, radar frames/tracks, command and
// event envelopes, FSM snapshots, proposals and incidents. These are the
// Pydantic-equivalent schemas of spec.md §3/§6: plain structs with JSON
// tags, forward-compatible (unknown extra keys are ignored by consumers,
// never rejected), never fabricating a zero value for absent data.
package contracts

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a fresh 128-bit stable identifier (spec.md §3) for tracks,
// incidents, intents and proposals.
func NewID() string {
	return uuid.NewString()
}

// NewBootID returns an 8-byte hex session identifier, assigned once per
// process at start per spec.md §3.
func NewBootID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate boot id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
