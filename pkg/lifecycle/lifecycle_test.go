package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/registrar-ops/triage/pkg/policy"
)

func TestParse(t *testing.T) {
	assert.Equal(t, StateSuspendedAbuse, Parse("suspended_abuse"))
	assert.Equal(t, StateGracePeriod, Parse("grace_period"))
	assert.Equal(t, StateUnknown, Parse("nonsense"))
	assert.Equal(t, StateUnknown, Parse(""))
	// "unknown" itself is not a system-of-record state.
	assert.Equal(t, StateUnknown, Parse("unknown"))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to DomainState
		want     bool
	}{
		{StateActive, StateLocked, true},
		{StateLocked, StateActive, true},
		{StateActive, StateSuspendedAbuse, true},
		{StateSuspendedAbuse, StateActive, true}, // contingent on Abuse Team approval
		{StateGracePeriod, StateActive, true},
		{StateGracePeriod, StateRedemption, true},
		{StateRedemption, StateActive, true},
		{StateRedemption, StatePendingDeletion, true},
		{StatePendingDeletion, StateDeleted, true},
		// pending_deletion is otherwise irreversible.
		{StatePendingDeletion, StateActive, false},
		{StateDeleted, StateActive, false},
		{StateSuspendedAbuse, StateLocked, false},
		{StateGracePeriod, StatePendingDeletion, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestIsActionLegal(t *testing.T) {
	// Escalations and information are safe everywhere, including
	// unknown state.
	for _, state := range []DomainState{
		StateActive, StateSuspendedAbuse, StateSuspendedLegal,
		StatePendingDeletion, StateDeleted, StateUnknown,
	} {
		assert.True(t, IsActionLegal(state, policy.ActionEscalateAbuse), "escalate_abuse in %s", state)
		assert.True(t, IsActionLegal(state, policy.ActionEscalateSupport), "escalate_support in %s", state)
		assert.True(t, IsActionLegal(state, policy.ActionProvideInformation), "provide_information in %s", state)
		assert.True(t, IsActionLegal(state, policy.ActionNoActionPossible), "no_action_possible in %s", state)
	}

	// Unlock instructions only make sense for usable domains.
	assert.True(t, IsActionLegal(StateActive, policy.ActionInstructUnlockForXfer))
	assert.True(t, IsActionLegal(StateLocked, policy.ActionInstructUnlockForXfer))
	assert.False(t, IsActionLegal(StateSuspendedAbuse, policy.ActionInstructUnlockForXfer))
	assert.False(t, IsActionLegal(StatePendingDeletion, policy.ActionInstructUnlockForXfer))

	// WHOIS verification instructions stop at deletion stages.
	assert.True(t, IsActionLegal(StateSuspendedWhois, policy.ActionRequestWhoisVerification))
	assert.False(t, IsActionLegal(StateDeleted, policy.ActionRequestWhoisVerification))
	assert.False(t, IsActionLegal(StateSuspendedAbuse, policy.ActionRequestWhoisVerification))

	// Payment resolution covers billing suspensions and expiry windows.
	assert.True(t, IsActionLegal(StateSuspendedBilling, policy.ActionRequestPaymentResolution))
	assert.True(t, IsActionLegal(StateRedemption, policy.ActionRequestPaymentResolution))
	assert.False(t, IsActionLegal(StateSuspendedAbuse, policy.ActionRequestPaymentResolution))

	// Unknown state vetoes every state-sensitive action.
	assert.False(t, IsActionLegal(StateUnknown, policy.ActionInstructUnlockForXfer))
	assert.False(t, IsActionLegal(StateUnknown, policy.ActionRequestWhoisVerification))
	assert.False(t, IsActionLegal(StateUnknown, policy.ActionRequestPaymentResolution))
}

func TestStateSensitive(t *testing.T) {
	assert.True(t, StateSensitive(policy.ActionRequestWhoisVerification))
	assert.True(t, StateSensitive(policy.ActionInstructUnlockForXfer))
	assert.False(t, StateSensitive(policy.ActionEscalateAbuse))
	assert.False(t, StateSensitive(policy.ActionProvideInformation))
}
