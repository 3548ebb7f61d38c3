package contracts

// ProposalType classifies why an engine produced a proposal.
type ProposalType string

const (
	ProposalSafety      ProposalType = "SAFETY"
	ProposalPlanning    ProposalType = "PLANNING"
	ProposalDiagnostics ProposalType = "DIAGNOSTICS"
	ProposalExploration ProposalType = "EXPLORATION"
)

// ProposalStatus is the lifecycle state of a proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "PENDING"
	ProposalAccepted ProposalStatus = "ACCEPTED"
	ProposalRejected ProposalStatus = "REJECTED"
	ProposalExecuted ProposalStatus = "EXECUTED"
	ProposalExpired  ProposalStatus = "EXPIRED"
)

// Proposal is a candidate recommendation emitted by an agent engine. It
// never carries an executable actuator command: Actions must always be
// empty. A proposal with a non-empty Actions is a guardrail violation on
// its own, whatever its content — any descriptive text belongs in
// Justification, never in Actions.
type Proposal struct {
	ID           string         `json:"id"`
	SourceModule string         `json:"source_module"`
	TsEpoch      float64        `json:"ts_epoch"`
	Actions      []string       `json:"actions,omitempty"`
	Justification string        `json:"justification"`
	Priority     float64        `json:"priority"`
	Confidence   float64        `json:"confidence"`
	Type         ProposalType   `json:"type"`
	Status       ProposalStatus `json:"status"`
	DependsOn    []string       `json:"depends_on,omitempty"`
	ConflictsWith []string      `json:"conflicts_with,omitempty"`
}

// typePriorityRank orders proposal types for the evaluator's sort key
// (spec.md §4.3 step 4: "sorts by (type_priority, priority, confidence)").
// Lower rank sorts first (higher priority).
var typePriorityRank = map[ProposalType]int{
	ProposalSafety:      0,
	ProposalDiagnostics: 1,
	ProposalPlanning:    2,
	ProposalExploration: 3,
}

// TypePriority returns the sort rank for p.Type; unknown types sort last.
func (p Proposal) TypePriority() int {
	if r, ok := typePriorityRank[p.Type]; ok {
		return r
	}
	return len(typePriorityRank)
}
