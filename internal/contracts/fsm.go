package contracts

// FsmState enumerates the agent's finite-state machine states
// (spec.md §3/§4.3).
type FsmState string

const (
	StateBooting FsmState = "BOOTING"
	StateIdle    FsmState = "IDLE"
	StateActive  FsmState = "ACTIVE"
	StateError   FsmState = "ERROR_STATE"
	StateShutdown FsmState = "SHUTDOWN"
)

// HistoryEntry is one bounded entry in an FsmSnapshot's transition history.
type HistoryEntry struct {
	State   FsmState `json:"state"`
	Reason  string   `json:"reason"`
	TsEpoch float64  `json:"ts_epoch"`
}

// FsmSnapshot is the immutable value the SSOT FSM store holds (spec.md
// §4.4). It never carries version/boot_id itself — the store attaches
// those on Get().
type FsmSnapshot struct {
	State         FsmState               `json:"state"`
	Reason        string                 `json:"reason"`
	History       []HistoryEntry         `json:"history"`
	ContextData   map[string]any         `json:"context_data,omitempty"`
	SourceModule  string                 `json:"source_module"`
	AttemptCount  int                    `json:"attempt_count"`
}

// Clone returns a deep copy suitable for handing out as an immutable view
// (spec.md §4.4: "implementations must prevent external mutation").
func (s FsmSnapshot) Clone() FsmSnapshot {
	out := s
	if s.History != nil {
		out.History = append([]HistoryEntry(nil), s.History...)
	}
	if s.ContextData != nil {
		out.ContextData = make(map[string]any, len(s.ContextData))
		for k, v := range s.ContextData {
			out.ContextData[k] = v
		}
	}
	return out
}
