package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registrar-ops/triage/pkg/audit"
	"github.com/registrar-ops/triage/pkg/decision"
	"github.com/registrar-ops/triage/pkg/lifecycle"
	"github.com/registrar-ops/triage/pkg/policy"
	"github.com/registrar-ops/triage/pkg/signals"
)

func openTestStore(t *testing.T) *SQLiteAuditStore {
	t.Helper()
	s, err := OpenSQLiteAuditStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(domainID string, action policy.ActionKind, at time.Time) *audit.Record {
	sig := signals.QuerySignals{
		RawText:       "I was charged twice",
		Category:      policy.CategoryBilling,
		CategoryScore: 1,
		Reasons:       []string{policy.ReasonDuplicateCharge},
	}
	d := decision.ActionDecision{
		Action:         action,
		Rationale:      []string{"BL-001"},
		EscalationTeam: policy.TeamBilling,
		DecisionHash:   "sha256:abc",
	}
	return audit.NewRecord(domainID, lifecycle.StateActive, sig, d, at)
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	older := sampleRecord("a.example", policy.ActionApproveRefundReview, base)
	newer := sampleRecord("b.example", policy.ActionProvideInformation, base.Add(time.Hour))
	require.NoError(t, s.Record(ctx, older))
	require.NoError(t, s.Record(ctx, newer))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)

	rec := got[1]
	assert.Equal(t, "a.example", rec.DomainID)
	assert.Equal(t, lifecycle.StateActive, rec.State)
	assert.Equal(t, policy.CategoryBilling, rec.Signals.Category)
	assert.Equal(t, policy.ActionApproveRefundReview, rec.Decision.Action)
	assert.Equal(t, []string{"BL-001"}, rec.Decision.Rationale)
	assert.Equal(t, "sha256:abc", rec.Decision.DecisionHash)
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := sampleRecord("a.example", policy.ActionProvideInformation, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.Record(ctx, rec))
	}

	got, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestCountByAction(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, action := range []policy.ActionKind{
		policy.ActionEscalateAbuse,
		policy.ActionEscalateAbuse,
		policy.ActionProvideInformation,
	} {
		require.NoError(t, s.Record(ctx, sampleRecord("a.example", action, base.Add(time.Duration(i)*time.Second))))
	}

	counts, err := s.CountByAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"escalate_abuse":      2,
		"provide_information": 1,
	}, counts)
}

func TestDuplicateIDRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("a.example", policy.ActionProvideInformation, time.Now().UTC())
	require.NoError(t, s.Record(ctx, rec))
	assert.Error(t, s.Record(ctx, rec))
}
