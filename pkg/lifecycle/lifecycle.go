// Package lifecycle models the domain lifecycle as a finite state
// machine. The engine never drives transitions; external systems own
// the state. What the engine needs is the legality veto: whether a
// proposed action even makes sense given the current state.
package lifecycle

import "github.com/registrar-ops/triage/pkg/policy"

// DomainState is the lifecycle state of a domain. A domain has exactly
// one state at a time.
type DomainState string

const (
	StateActive           DomainState = "active"
	StateLocked           DomainState = "locked"
	StateSuspendedWhois   DomainState = "suspended_whois"
	StateSuspendedAbuse   DomainState = "suspended_abuse"
	StateSuspendedBilling DomainState = "suspended_billing"
	StateSuspendedLegal   DomainState = "suspended_legal"
	StateGracePeriod      DomainState = "grace_period"
	StateRedemption       DomainState = "redemption_period"
	StatePendingDeletion  DomainState = "pending_deletion"
	StateDeleted          DomainState = "deleted"

	// StateUnknown is the local recovery for a failed state lookup. It
	// vetoes every state-sensitive action.
	StateUnknown DomainState = "unknown"
)

// Parse maps a string to a DomainState, returning StateUnknown for
// anything unrecognized.
func Parse(s string) DomainState {
	switch DomainState(s) {
	case StateActive, StateLocked,
		StateSuspendedWhois, StateSuspendedAbuse, StateSuspendedBilling, StateSuspendedLegal,
		StateGracePeriod, StateRedemption, StatePendingDeletion, StateDeleted:
		return DomainState(s)
	}
	return StateUnknown
}

// transitions records which state changes the external systems can
// perform. Informational: the engine reads it to explain legality, it
// never executes a transition itself. Reactivation edges out of the
// suspension states are contingent on external facts (completed WHOIS
// verification, Abuse Team approval, renewal confirmation) the engine
// can recommend but never assert.
var transitions = map[DomainState][]DomainState{
	StateActive: {
		StateLocked,
		StateSuspendedWhois, StateSuspendedAbuse, StateSuspendedBilling, StateSuspendedLegal,
		StateGracePeriod,
	},
	StateLocked:           {StateActive},
	StateSuspendedWhois:   {StateActive},
	StateSuspendedAbuse:   {StateActive},
	StateSuspendedBilling: {StateActive},
	StateSuspendedLegal:   {StateActive},
	StateGracePeriod:      {StateActive, StateRedemption},
	StateRedemption:       {StateActive, StatePendingDeletion},
	StatePendingDeletion:  {StateDeleted},
	StateDeleted:          {},
}

// CanTransition reports whether the external systems may move a domain
// from one state to another. pending_deletion is terminal-irreversible
// except for the final deletion itself.
func CanTransition(from, to DomainState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// stateSensitive actions instruct the customer or promise an outcome
// that depends on the domain being in a compatible state. Escalations
// and plain information are safe in any state, including unknown.
var stateSensitive = map[policy.ActionKind]bool{
	policy.ActionRequestWhoisVerification: true,
	policy.ActionRequestPaymentResolution: true,
	policy.ActionInstructUnlockForXfer:    true,
}

// legalStates lists, per state-sensitive action, the states in which it
// is a coherent instruction.
var legalStates = map[policy.ActionKind]map[DomainState]bool{
	policy.ActionRequestWhoisVerification: {
		StateActive:         true,
		StateLocked:         true,
		StateSuspendedWhois: true,
		StateGracePeriod:    true,
	},
	policy.ActionRequestPaymentResolution: {
		StateActive:           true,
		StateLocked:           true,
		StateSuspendedBilling: true,
		StateGracePeriod:      true,
		StateRedemption:       true,
	},
	policy.ActionInstructUnlockForXfer: {
		StateActive: true,
		StateLocked: true,
	},
}

// IsActionLegal is the synthesizer's final veto gate: an otherwise
// matched rule whose action is illegal for the current state is
// downgraded, never emitted.
func IsActionLegal(state DomainState, action policy.ActionKind) bool {
	if !stateSensitive[action] {
		return true
	}
	if state == StateUnknown {
		return false
	}
	return legalStates[action][state]
}

// StateSensitive reports whether an action depends on domain state.
func StateSensitive(action policy.ActionKind) bool {
	return stateSensitive[action]
}
