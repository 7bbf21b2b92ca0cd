package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registrar-ops/triage/pkg/audit"
	"github.com/registrar-ops/triage/pkg/decision"
	"github.com/registrar-ops/triage/pkg/lifecycle"
	"github.com/registrar-ops/triage/pkg/policy"
	"github.com/registrar-ops/triage/pkg/policyloader"
)

type captureSink struct {
	mu      sync.Mutex
	records []*audit.Record
	err     error
}

func (c *captureSink) Record(_ context.Context, rec *audit.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.records = append(c.records, rec)
	return nil
}

func (c *captureSink) all() []*audit.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*audit.Record(nil), c.records...)
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func builtinStore(t *testing.T) *policyloader.Store {
	t.Helper()
	s := policyloader.NewStore("")
	require.NoError(t, s.UseBuiltin())
	return s
}

func TestClassifyEndToEnd(t *testing.T) {
	sink := &captureSink{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	eng := New(builtinStore(t),
		StaticStateLookup{"example.com": lifecycle.StateSuspendedAbuse},
		sink,
		WithLogger(quietLogger()), WithClock(fixedClock(now)))

	d, err := eng.Classify(context.Background(),
		"example.com", "My domain was suspended for phishing, please reactivate it")
	require.NoError(t, err)

	assert.Equal(t, policy.ActionEscalateAbuse, d.Action)
	assert.Equal(t, policy.TeamAbuse, d.EscalationTeam)
	assert.NotEmpty(t, d.DecisionHash)

	records := sink.all()
	require.Len(t, records, 1)
	rec := records[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, now, rec.Timestamp)
	assert.Equal(t, "example.com", rec.DomainID)
	assert.Equal(t, lifecycle.StateSuspendedAbuse, rec.State)
	assert.Equal(t, d, rec.Decision)
	assert.Equal(t, policy.CategoryAbuse, rec.Signals.Category)
}

func TestClassifyNoKnowledgeBase(t *testing.T) {
	eng := New(policyloader.NewStore(""), nil, nil, WithLogger(quietLogger()))
	_, err := eng.Classify(context.Background(), "example.com", "hello")
	assert.ErrorIs(t, err, ErrNoKnowledgeBase)

	_, err = eng.PolicyVersion()
	assert.ErrorIs(t, err, ErrNoKnowledgeBase)
}

func TestClassifyStateLookupFailureDegradesToUnknown(t *testing.T) {
	sink := &captureSink{}
	// The lookup knows no domains, so every call errors.
	eng := New(builtinStore(t), StaticStateLookup{}, sink, WithLogger(quietLogger()))

	d, err := eng.Classify(context.Background(),
		"missing.example", "How do I unlock my domain for a transfer?")
	require.NoError(t, err)

	// Unlock instructions are state-sensitive; unknown state blocks them.
	assert.Equal(t, policy.ActionEscalateSupport, d.Action)
	assert.Equal(t, decision.BlockedStateUnknown, d.BlockedReason)

	records := sink.all()
	require.Len(t, records, 1)
	assert.Equal(t, lifecycle.StateUnknown, records[0].State)
}

func TestClassifyNilStateLookup(t *testing.T) {
	eng := New(builtinStore(t), nil, nil, WithLogger(quietLogger()))
	d, err := eng.Classify(context.Background(), "example.com", "What is a grace period?")
	require.NoError(t, err)
	// Informational answers survive an unknown state.
	assert.Equal(t, policy.ActionProvideInformation, d.Action)
}

func TestClassifySinkFailureDoesNotFailDecision(t *testing.T) {
	sink := &captureSink{err: errors.New("disk full")}
	eng := New(builtinStore(t),
		StaticStateLookup{"example.com": lifecycle.StateActive},
		sink, WithLogger(quietLogger()))

	d, err := eng.Classify(context.Background(),
		"example.com", "I was charged twice, can I get a refund?")
	require.NoError(t, err)
	assert.Equal(t, policy.ActionApproveRefundReview, d.Action)
}

func TestPolicyVersion(t *testing.T) {
	eng := New(builtinStore(t), nil, nil, WithLogger(quietLogger()))
	v, err := eng.PolicyVersion()
	require.NoError(t, err)
	assert.Equal(t, policy.BuiltinVersion, v)
}

func TestStaticStateLookup(t *testing.T) {
	m := StaticStateLookup{"a.example": lifecycle.StateLocked}

	s, err := m.DomainState(context.Background(), "a.example")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateLocked, s)

	_, err = m.DomainState(context.Background(), "b.example")
	assert.Error(t, err)
}
