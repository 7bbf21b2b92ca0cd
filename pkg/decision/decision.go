// Package decision defines the engine's output record and the
// synthesizer that resolves matched rules into exactly one auditable
// action per query.
package decision

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/registrar-ops/triage/pkg/policy"
)

// Blocked reasons attached when no safe direct action exists.
const (
	BlockedStateConflict    = "state_conflict"
	BlockedNoMatchingPolicy = "no_matching_policy"
	BlockedStateUnknown     = "state_unknown"
)

// ActionDecision is the single decision emitted per query. It is a pure
// value: two identical inputs to the synthesizer produce bit-identical
// decisions, which the decision hash makes checkable.
type ActionDecision struct {
	Action         policy.ActionKind `json:"action"`
	Rationale      []string          `json:"rationale,omitempty"`
	EscalationTeam policy.Team       `json:"escalation_team,omitempty"`
	ETAHint        time.Duration     `json:"eta_hint,omitempty"`
	BlockedReason  string            `json:"blocked_reason,omitempty"`
	References     []string          `json:"references,omitempty"`
	LowConfidence  bool              `json:"low_confidence,omitempty"`

	// DecisionHash is the SHA-256 of the JCS-canonical decision,
	// excluding this field. Bound into the audit record.
	DecisionHash string `json:"decision_hash,omitempty"`
}

// ComputeHash produces the deterministic decision hash.
func ComputeHash(d *ActionDecision) (string, error) {
	hashInput := struct {
		Action         policy.ActionKind `json:"action"`
		Rationale      []string          `json:"rationale,omitempty"`
		EscalationTeam policy.Team       `json:"escalation_team,omitempty"`
		ETAHint        time.Duration     `json:"eta_hint,omitempty"`
		BlockedReason  string            `json:"blocked_reason,omitempty"`
		References     []string          `json:"references,omitempty"`
		LowConfidence  bool              `json:"low_confidence,omitempty"`
	}{
		Action:         d.Action,
		Rationale:      d.Rationale,
		EscalationTeam: d.EscalationTeam,
		ETAHint:        d.ETAHint,
		BlockedReason:  d.BlockedReason,
		References:     d.References,
		LowConfidence:  d.LowConfidence,
	}

	raw, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("decision hash: marshal: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("decision hash: canonicalize: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
