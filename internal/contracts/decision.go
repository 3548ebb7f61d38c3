package contracts

// DecisionEnvelope is the wire shape make_decision publishes on
// qiki.responses.qiki (spec.md §4.3 step 5): the selected proposals for
// this tick, never an actuator command (spec.md §8 property 8).
type DecisionEnvelope struct {
	EventSchemaVersion int        `json:"event_schema_version"`
	Source             string     `json:"source"`
	TsEpoch            float64    `json:"ts_epoch"`
	Proposals          []Proposal `json:"proposals"`
}
