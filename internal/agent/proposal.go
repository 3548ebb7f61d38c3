package agent

import (
	"sort"

	"github.com/qiki-dtmp/core/internal/contracts"
)

// Engine is the shape shared by the rule engine and the neural engine:
// each returns zero or more candidate proposals given the current tick
// context. Keeping both behind one interface lets evaluate_proposals
// treat them uniformly, and lets a future learned engine slot in without
// touching the evaluator (spec.md §4.3 step 4: "rule engine and neural
// engine each return 0..N proposals").
type Engine interface {
	Evaluate(ctx AgentContext) []contracts.Proposal
}

// EngineFunc adapts a plain function to Engine.
type EngineFunc func(ctx AgentContext) []contracts.Proposal

func (f EngineFunc) Evaluate(ctx AgentContext) []contracts.Proposal { return f(ctx) }

// EvaluatorConfig tunes the proposal evaluator.
type EvaluatorConfig struct {
	ConfidenceThreshold float64
	TopK                int
}

// DefaultEvaluatorConfig matches spec.md §4.3 step 4's defaults:
// "confidence >= threshold (default 0.6)... selects the top-k (default 1)".
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{ConfidenceThreshold: 0.6, TopK: 1}
}

// EvaluateProposals is tick phase 4: gather candidates from every
// engine, filter by confidence, sort by (type_priority, priority,
// confidence) descending, and select the top-k.
func EvaluateProposals(ctx AgentContext, engines []Engine, cfg EvaluatorConfig) []contracts.Proposal {
	var candidates []contracts.Proposal
	for _, e := range engines {
		candidates = append(candidates, e.Evaluate(ctx)...)
	}

	var filtered []contracts.Proposal
	for _, p := range candidates {
		if p.Confidence >= cfg.ConfidenceThreshold {
			filtered = append(filtered, p)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.TypePriority() != b.TypePriority() {
			return a.TypePriority() < b.TypePriority()
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Confidence > b.Confidence
	})

	k := cfg.TopK
	if k <= 0 || k > len(filtered) {
		k = len(filtered)
	}
	return filtered[:k]
}
