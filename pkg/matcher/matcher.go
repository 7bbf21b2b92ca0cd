// Package matcher evaluates query signals against the knowledge base
// and collects every rule whose condition holds, preserving knowledge
// base ordering. Conflict resolution between matched rules belongs to
// the synthesizer, not here.
package matcher

import (
	"github.com/registrar-ops/triage/pkg/lifecycle"
	"github.com/registrar-ops/triage/pkg/policy"
	"github.com/registrar-ops/triage/pkg/signals"
)

// SkippedRule records a rule whose condition could not be evaluated.
// Evaluation errors are fail-closed: the rule simply does not match.
type SkippedRule struct {
	RuleID string
	Err    error
}

// Report is the outcome of matching one query. An empty Matched slice
// is a valid result, not an error.
type Report struct {
	Matched []*policy.CompiledRule
	Skipped []SkippedRule
}

// Match evaluates every rule across all categories against the signals
// and current state. Order of Matched follows the knowledge base's
// global ordering (ascending precedence, hard ahead of soft within
// equal precedence).
func Match(sig signals.QuerySignals, state lifecycle.DomainState, kb *policy.KnowledgeBase) Report {
	var rep Report
	if kb == nil {
		return rep
	}

	input := sig.CELInput()
	for _, rule := range kb.Rules() {
		ok, err := rule.EvalCondition(input, string(state))
		if err != nil {
			rep.Skipped = append(rep.Skipped, SkippedRule{RuleID: rule.ID, Err: err})
			continue
		}
		if ok {
			rep.Matched = append(rep.Matched, rule)
		}
	}
	return rep
}
