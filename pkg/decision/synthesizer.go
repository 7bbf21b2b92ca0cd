package decision

import (
	"fmt"

	"github.com/registrar-ops/triage/pkg/lifecycle"
	"github.com/registrar-ops/triage/pkg/matcher"
	"github.com/registrar-ops/triage/pkg/policy"
	"github.com/registrar-ops/triage/pkg/signals"
)

// maxReferences caps the document references carried on a decision.
const maxReferences = 3

// Synthesizer resolves matched rules into one ActionDecision. It holds
// no state; Decide is a pure function of its arguments.
type Synthesizer struct{}

// NewSynthesizer returns a Synthesizer.
func NewSynthesizer() *Synthesizer { return &Synthesizer{} }

// Decide implements the resolution algorithm:
//
//  1. If any hard-constraint rule matched, the lowest-precedence hard
//     rule wins outright; soft rules cannot override it.
//  2. Otherwise the lowest-precedence soft rule wins, ties broken by
//     category severity (already encoded in knowledge base order).
//  3. The winner is checked against the lifecycle veto gate and the
//     SLA-overrun check; on veto the decision degrades to a support
//     escalation with a blocked reason, never to a guess.
//  4. No match at all is a normal terminal: no_action_possible.
func (s *Synthesizer) Decide(sig signals.QuerySignals, rep matcher.Report, state lifecycle.DomainState) ActionDecision {
	d := ActionDecision{
		Rationale:     ruleIDs(rep.Matched),
		LowConfidence: sig.CategoryScore == 0,
	}

	if len(rep.Matched) == 0 {
		d.Action = policy.ActionNoActionPossible
		d.BlockedReason = BlockedNoMatchingPolicy
		return finish(d)
	}

	win := selectWinner(rep.Matched)
	d.References = formatReferences(win, rep.Matched)

	// SLA overrun: the rule promises its action clears ResolvesState
	// within ETA, the customer reports at least that much time has
	// passed, and the domain is still stuck. Re-promising the window
	// would be wrong; this is a state conflict to escalate.
	if win.ResolvesState != "" && string(state) == win.ResolvesState &&
		win.ETA > 0 && sig.MaxElapsed() >= win.ETA {
		return finish(blocked(d, BlockedStateConflict))
	}

	if !lifecycle.IsActionLegal(state, win.Action) {
		reason := BlockedStateConflict
		if state == lifecycle.StateUnknown {
			reason = BlockedStateUnknown
		}
		return finish(blocked(d, reason))
	}

	d.Action = win.Action
	d.EscalationTeam = win.EscalationTeam
	if d.EscalationTeam == "" {
		d.EscalationTeam = policy.DefaultTeam(win.Action)
	}

	// ETA hints are never attached while a domain sits in an abuse or
	// legal suspension: those windows belong to the reviewing team.
	if win.ETA > 0 && state != lifecycle.StateSuspendedAbuse && state != lifecycle.StateSuspendedLegal {
		d.ETAHint = win.ETA
	}
	return finish(d)
}

// selectWinner returns the lowest-precedence hard constraint if any
// matched, else the first soft rule. Matched rules arrive in knowledge
// base order, so the first of each partition is the winner.
func selectWinner(matched []*policy.CompiledRule) *policy.CompiledRule {
	for _, r := range matched {
		if r.HardConstraint {
			return r
		}
	}
	return matched[0]
}

func blocked(d ActionDecision, reason string) ActionDecision {
	d.Action = policy.ActionEscalateSupport
	d.EscalationTeam = policy.TeamSupport
	d.BlockedReason = reason
	d.ETAHint = 0
	return d
}

func finish(d ActionDecision) ActionDecision {
	if hash, err := ComputeHash(&d); err == nil {
		d.DecisionHash = hash
	}
	return d
}

func ruleIDs(matched []*policy.CompiledRule) []string {
	if len(matched) == 0 {
		return nil
	}
	ids := make([]string, len(matched))
	for i, r := range matched {
		ids[i] = r.ID
	}
	return ids
}

// formatReferences renders up to three source-document references,
// winner's document first, deduplicated by document.
func formatReferences(win *policy.CompiledRule, matched []*policy.CompiledRule) []string {
	var refs []string
	seen := make(map[string]bool)
	add := func(r *policy.CompiledRule) {
		if len(refs) >= maxReferences || seen[r.SourceDoc] {
			return
		}
		seen[r.SourceDoc] = true
		refs = append(refs, fmt.Sprintf("%s: %s | file=%s", r.Category, r.SourceTitle, r.SourceDoc))
	}
	add(win)
	for _, r := range matched {
		add(r)
	}
	return refs
}
