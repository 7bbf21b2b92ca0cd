// Package policy defines the rule model for the support action decision
// engine: categories, the closed action set, policy rules with CEL
// conditions, and the immutable versioned knowledge base built from
// externally authored documents.
package policy

import "time"

// Category classifies a policy document or rule.
type Category string

const (
	CategoryWhois      Category = "whois"
	CategoryAbuse      Category = "abuse"
	CategoryBilling    Category = "billing"
	CategoryExpiration Category = "expiration"
	CategoryTransfer   Category = "transfer"
	CategoryLegal      Category = "legal"
	CategoryUnknown    Category = "unknown"
)

// SeverityOrder is the cross-document category hierarchy, most severe
// first. It is the single source of truth consumed by both the signal
// extractor's tie-break and the synthesizer's soft-rule selection.
var SeverityOrder = []Category{
	CategoryAbuse,
	CategoryLegal,
	CategoryBilling,
	CategoryWhois,
	CategoryExpiration,
	CategoryTransfer,
}

// SeverityRank returns the position of c in SeverityOrder; unknown or
// unlisted categories rank after every listed one.
func SeverityRank(c Category) int {
	for i, sc := range SeverityOrder {
		if sc == c {
			return i
		}
	}
	return len(SeverityOrder)
}

// ValidCategory reports whether c is one of the six rule categories.
// CategoryUnknown is a valid extraction outcome but not a valid rule
// category.
func ValidCategory(c Category) bool {
	return SeverityRank(c) < len(SeverityOrder)
}

// ActionKind is the closed set of actions the engine may emit.
//
// There is deliberately no reactivation member: reactivating a domain is
// something only the external account system can do after the required
// approval facts exist, so the engine is structurally unable to emit it.
type ActionKind string

const (
	ActionProvideInformation       ActionKind = "provide_information"
	ActionRequestWhoisVerification ActionKind = "request_whois_verification"
	ActionRequestPaymentResolution ActionKind = "request_payment_resolution"
	ActionEscalateAbuse            ActionKind = "escalate_abuse"
	ActionEscalateBilling          ActionKind = "escalate_billing"
	ActionEscalateLegal            ActionKind = "escalate_legal"
	ActionEscalateSupport          ActionKind = "escalate_support"
	ActionDenyNonRefundable        ActionKind = "deny_non_refundable"
	ActionApproveRefundReview      ActionKind = "approve_refund_review"
	ActionInstructUnlockForXfer    ActionKind = "instruct_unlock_for_transfer"
	ActionNoActionPossible         ActionKind = "no_action_possible"
)

var allActions = map[ActionKind]bool{
	ActionProvideInformation:       true,
	ActionRequestWhoisVerification: true,
	ActionRequestPaymentResolution: true,
	ActionEscalateAbuse:            true,
	ActionEscalateBilling:          true,
	ActionEscalateLegal:            true,
	ActionEscalateSupport:          true,
	ActionDenyNonRefundable:        true,
	ActionApproveRefundReview:      true,
	ActionInstructUnlockForXfer:    true,
	ActionNoActionPossible:         true,
}

// ValidAction reports whether a is a member of the closed action set.
func ValidAction(a ActionKind) bool { return allActions[a] }

// Team identifies an escalation target.
type Team string

const (
	TeamAbuse   Team = "abuse"
	TeamBilling Team = "billing"
	TeamLegal   Team = "legal"
	TeamSupport Team = "support"
)

// DefaultTeam maps escalation actions to their natural team when a rule
// does not name one explicitly.
func DefaultTeam(a ActionKind) Team {
	switch a {
	case ActionEscalateAbuse:
		return TeamAbuse
	case ActionEscalateBilling, ActionApproveRefundReview, ActionRequestPaymentResolution:
		return TeamBilling
	case ActionEscalateLegal:
		return TeamLegal
	case ActionEscalateSupport:
		return TeamSupport
	}
	return ""
}

// Rule is the authoring form of a policy rule, as it appears inside a
// document's extracted_rules. Conditions are CEL expressions over two
// variables: `signals` (the extracted query signals map) and `state`
// (the current domain lifecycle state as a string).
type Rule struct {
	ID             string     `json:"id" yaml:"id"`
	Category       Category   `json:"category" yaml:"category"`
	Summary        string     `json:"summary,omitempty" yaml:"summary,omitempty"`
	Condition      string     `json:"condition" yaml:"condition"`
	Action         ActionKind `json:"action" yaml:"action"`
	HardConstraint bool       `json:"hard_constraint,omitempty" yaml:"hard_constraint,omitempty"`
	Precedence     int        `json:"precedence" yaml:"precedence"`
	EscalationTeam Team       `json:"escalation_team,omitempty" yaml:"escalation_team,omitempty"`

	// ETAHint is a duration string ("24h", "48h") the winning action may
	// surface to the customer, subject to state gating.
	ETAHint string `json:"eta_hint,omitempty" yaml:"eta_hint,omitempty"`

	// ResolvesState names the lifecycle state this rule's action is
	// expected to clear. When a query matches the rule, reports that the
	// resolving step already happened longer ago than ETAHint, and the
	// domain is still in ResolvesState, the synthesizer treats it as a
	// state conflict instead of re-promising the ETA.
	ResolvesState string `json:"resolves_state,omitempty" yaml:"resolves_state,omitempty"`
}

// Document is a policy/FAQ/runbook document as delivered by the external
// authoring step. Rule extraction from prose happens upstream; the engine
// only consumes the result.
type Document struct {
	ID             string   `json:"id" yaml:"id"`
	Category       Category `json:"category" yaml:"category"`
	Title          string   `json:"title" yaml:"title"`
	Body           string   `json:"body,omitempty" yaml:"body,omitempty"`
	ExtractedRules []Rule   `json:"extracted_rules" yaml:"extracted_rules"`
}

// Bundle is a versioned set of documents, replacing the active knowledge
// base wholesale on load. Never patched in place.
type Bundle struct {
	Version   string     `json:"version" yaml:"version"`
	Name      string     `json:"name" yaml:"name"`
	Documents []Document `json:"documents" yaml:"documents"`
	CreatedAt time.Time  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}
