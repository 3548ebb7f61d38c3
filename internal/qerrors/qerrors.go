// Package qerrors defines the QIKI_DTMP error taxonomy from spec §7 as a
// small set of typed errors rather than distinct Go types per kind, so
// callers can check with errors.Is/errors.As against a shared Kind.
package qerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error the way spec.md §7 does: by how a caller must
// react, not by which package raised it.
type Kind string

const (
	KindConfig      Kind = "config"       // fatal at boot
	KindBusTransient Kind = "bus_transient" // reconnectable, retry with backoff
	KindBusProtocol Kind = "bus_protocol"  // dedup/ack violation, drop message
	KindRPC         Kind = "rpc"           // timeout/unavailable on sim RPC
	KindValidation  Kind = "validation"    // inbound payload failed schema
	KindGuardrail   Kind = "guardrail"     // forbidden action attempted
	KindTickOverrun Kind = "tick_overrun"  // a tick exceeded its budget
	KindFatal       Kind = "fatal"         // unreachable branch / invariant breach
)

// Error wraps an underlying cause with a Kind so callers can branch on
// spec.md's error taxonomy without inspecting error strings.
type Error struct {
	Kind Kind
	Op   string // the operation that failed, e.g. "bus.Publish", "sim.tick"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a qerrors.Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is a *Error of the given kind, so call sites can
// write `if qerrors.Is(err, qerrors.KindBusTransient)`.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// AuditCodeClass maps a Kind to the code class from spec.md §6's event
// envelope (1xx bootstrap, 2xx sensor I/O, 3xx control I/O, 5xx faults,
// 7xx guard triggers, 9xx emergency). Kinds not tied to a fixed class
// return 0; callers supply the concrete code.
func (k Kind) AuditCodeClass() int {
	switch k {
	case KindConfig:
		return 100
	case KindValidation:
		return 300
	case KindBusProtocol:
		return 300
	case KindBusTransient:
		return 500
	case KindRPC:
		return 300
	case KindGuardrail:
		return 500
	case KindTickOverrun:
		return 500
	case KindFatal:
		return 900
	default:
		return 0
	}
}
