package agent

import (
	"fmt"

	"github.com/qiki-dtmp/core/internal/contracts"
)

// NewGuardAlertEngine returns the rule engine named in spec.md §4.3 step
// 4: it turns every guard alert present this tick into a SAFETY
// proposal. A learned engine can be added later behind the same Engine
// interface without touching EvaluateProposals.
func NewGuardAlertEngine(sourceModule string) Engine {
	return EngineFunc(func(ctx AgentContext) []contracts.Proposal {
		var proposals []contracts.Proposal
		for _, alert := range ctx.GuardAlerts {
			proposals = append(proposals, contracts.Proposal{
				ID:            fmt.Sprintf("guard|%s|%s|%v", alert.RuleID, alert.TargetTrackID, alert.TsEpoch),
				SourceModule:  sourceModule,
				TsEpoch:       ctx.TsEpoch,
				Justification: fmt.Sprintf("review contact %s: guard rule %s fired at severity %s", alert.TargetTrackID, alert.RuleID, alert.Severity),
				Priority:      severityPriority(alert.Severity),
				Confidence:    0.9,
				Type:          contracts.ProposalSafety,
				Status:        contracts.ProposalPending,
			})
		}
		return proposals
	})
}

func severityPriority(sev string) float64 {
	switch sev {
	case "ERROR":
		return 1.0
	case "WARN":
		return 0.7
	default:
		return 0.5
	}
}
