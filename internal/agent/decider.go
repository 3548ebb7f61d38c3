package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/qiki-dtmp/core/internal/bus"
	"github.com/qiki-dtmp/core/internal/contracts"
)

// BusDecider implements Decider by publishing the selected proposals as
// a DecisionEnvelope on qiki.responses.qiki (spec.md §4.3 step 5:
// "make_decision"). It never receives or forwards an actuator command.
type BusDecider struct {
	conn   *bus.Conn
	source string
}

var _ Decider = (*BusDecider)(nil)

// NewBusDecider constructs a Decider publishing as source.
func NewBusDecider(conn *bus.Conn, source string) *BusDecider {
	return &BusDecider{conn: conn, source: source}
}

func (d *BusDecider) Decide(proposals []contracts.Proposal) error {
	env := contracts.DecisionEnvelope{
		EventSchemaVersion: 1,
		Source:             d.source,
		TsEpoch:            float64(time.Now().UnixNano()) / 1e9,
		Proposals:          proposals,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("agent: marshal decision: %w", err)
	}
	id := fmt.Sprintf("decision|%v", env.TsEpoch)
	return d.conn.Publish(bus.SubjectResponsesQiki, id, data)
}
