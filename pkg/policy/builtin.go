package policy

// BuiltinVersion is the version of the curated default bundle.
const BuiltinVersion = "1.0.0"

// DefaultBundle returns the curated policy bundle distilled from the
// registrar support knowledge base. It lets the engine run without an
// external bundle directory; an externally loaded bundle replaces it
// wholesale.
func DefaultBundle() Bundle {
	return Bundle{
		Version: BuiltinVersion,
		Name:    "registrar-support-builtin",
		Documents: []Document{
			{
				ID:       "abuse-policy",
				Category: CategoryAbuse,
				Title:    "Abuse Suspension Policy",
				Body:     "Domains suspended for abuse (phishing, malware, spam) may only be reactivated after Abuse Team review. Support must never manually reactivate an abuse-suspended domain.",
				ExtractedRules: []Rule{
					{
						ID:             "AB-001",
						Summary:        "Abuse suspensions require Abuse Team review; no autonomous reactivation",
						Condition:      `state == "suspended_abuse"`,
						Action:         ActionEscalateAbuse,
						HardConstraint: true,
						Precedence:     10,
						EscalationTeam: TeamAbuse,
					},
					{
						ID:             "AB-002",
						Summary:        "Phishing, malware, or spam reports go to the Abuse Team",
						Condition:      `signals.category == "abuse" && ("phishing" in signals.reasons || "malware" in signals.reasons || "spam" in signals.reasons)`,
						Action:         ActionEscalateAbuse,
						HardConstraint: true,
						Precedence:     12,
						EscalationTeam: TeamAbuse,
					},
					{
						ID:             "AB-010",
						Summary:        "Other abuse-category queries are reviewed by the Abuse Team",
						Condition:      `signals.category == "abuse"`,
						Action:         ActionEscalateAbuse,
						Precedence:     30,
						EscalationTeam: TeamAbuse,
					},
				},
			},
			{
				ID:       "legal-runbook",
				Category: CategoryLegal,
				Title:    "Legal Hold and Court Order Runbook",
				Body:     "Domains under legal hold or subject to a court order are handled exclusively by the Legal Team.",
				ExtractedRules: []Rule{
					{
						ID:             "LG-001",
						Summary:        "Legal holds and court orders are Legal Team only",
						Condition:      `state == "suspended_legal" || "court_order" in signals.reasons`,
						Action:         ActionEscalateLegal,
						HardConstraint: true,
						Precedence:     14,
						EscalationTeam: TeamLegal,
					},
					{
						ID:             "LG-010",
						Summary:        "Legal-category queries route to the Legal Team",
						Condition:      `signals.category == "legal"`,
						Action:         ActionEscalateLegal,
						Precedence:     32,
						EscalationTeam: TeamLegal,
					},
				},
			},
			{
				ID:       "billing-faq",
				Category: CategoryBilling,
				Title:    "Billing and Refund FAQ",
				Body:     "Duplicate charges are eligible for refund review. Redemption fees are non-refundable. Payment failures must be resolved by the customer before services resume.",
				ExtractedRules: []Rule{
					{
						ID:             "BL-001",
						Summary:        "Duplicate charges are eligible for refund review",
						Condition:      `signals.category == "billing" && "duplicate_charge" in signals.reasons`,
						Action:         ActionApproveRefundReview,
						Precedence:     40,
						EscalationTeam: TeamBilling,
					},
					{
						ID:         "BL-002",
						Summary:    "Redemption fees are non-refundable",
						Condition:  `signals.requested == "refund" && "redemption_fee" in signals.reasons`,
						Action:     ActionDenyNonRefundable,
						Precedence: 42,
					},
					{
						ID:             "BL-003",
						Summary:        "Payment failures require customer payment resolution",
						Condition:      `state == "suspended_billing" || "payment_failure" in signals.reasons`,
						Action:         ActionRequestPaymentResolution,
						Precedence:     44,
						EscalationTeam: TeamBilling,
						ETAHint:        "24h",
						ResolvesState:  "suspended_billing",
					},
					{
						ID:             "BL-004",
						Summary:        "Other refund requests go to Billing for review",
						Condition:      `signals.category == "billing" && signals.requested == "refund"`,
						Action:         ActionApproveRefundReview,
						Precedence:     46,
						EscalationTeam: TeamBilling,
					},
					{
						ID:         "BL-010",
						Summary:    "General billing questions are informational",
						Condition:  `signals.category == "billing"`,
						Action:     ActionProvideInformation,
						Precedence: 48,
					},
				},
			},
			{
				ID:       "whois-policy",
				Category: CategoryWhois,
				Title:    "WHOIS Verification Policy",
				Body:     "Domains suspended for unverified WHOIS data are reactivated within 24 hours of completed verification. Unverified registrants must complete email verification first.",
				ExtractedRules: []Rule{
					{
						ID:            "WH-001",
						Summary:       "Reactivation within 24 hours of completed WHOIS verification",
						Condition:     `state == "suspended_whois" && "verification_completed" in signals.reasons`,
						Action:        ActionProvideInformation,
						Precedence:    50,
						ETAHint:       "24h",
						ResolvesState: "suspended_whois",
					},
					{
						ID:         "WH-002",
						Summary:    "Unverified WHOIS requires the customer to complete verification",
						Condition:  `(state == "suspended_whois" || "whois_unverified" in signals.reasons) && !("verification_completed" in signals.reasons)`,
						Action:     ActionRequestWhoisVerification,
						Precedence: 52,
					},
					{
						ID:         "WH-010",
						Summary:    "General WHOIS questions are informational",
						Condition:  `signals.category == "whois"`,
						Action:     ActionProvideInformation,
						Precedence: 54,
					},
				},
			},
			{
				ID:       "expiration-policy",
				Category: CategoryExpiration,
				Title:    "Expiration, Grace, and Redemption Policy",
				Body:     "Grace-period renewals restore services within 48 hours. Redemption requires payment of the redemption fee. Pending deletion is irreversible.",
				ExtractedRules: []Rule{
					{
						ID:            "EX-001",
						Summary:       "Services restore within 48 hours of a grace-period renewal",
						Condition:     `state == "grace_period" && "renewal_completed" in signals.reasons`,
						Action:        ActionProvideInformation,
						Precedence:    60,
						ETAHint:       "48h",
						ResolvesState: "grace_period",
					},
					{
						ID:             "EX-002",
						Summary:        "Redemption-period recovery requires the redemption fee",
						Condition:      `state == "redemption_period"`,
						Action:         ActionRequestPaymentResolution,
						Precedence:     62,
						EscalationTeam: TeamBilling,
					},
					{
						ID:         "EX-003",
						Summary:    "Pending deletion and deleted domains cannot be recovered",
						Condition:  `state == "pending_deletion" || state == "deleted"`,
						Action:     ActionNoActionPossible,
						Precedence: 64,
					},
					{
						ID:         "EX-010",
						Summary:    "General expiration questions are informational",
						Condition:  `signals.category == "expiration"`,
						Action:     ActionProvideInformation,
						Precedence: 66,
					},
				},
			},
			{
				ID:       "transfer-faq",
				Category: CategoryTransfer,
				Title:    "Domain Transfer FAQ",
				Body:     "Outbound transfers require the domain to be unlocked and an auth code issued. Transfer locks are customer-controlled.",
				ExtractedRules: []Rule{
					{
						ID:         "TR-001",
						Summary:    "Unlock instructions for outbound transfers",
						Condition:  `signals.category == "transfer" && (signals.requested == "unlock" || "transfer_lock" in signals.reasons)`,
						Action:     ActionInstructUnlockForXfer,
						Precedence: 70,
					},
					{
						ID:         "TR-010",
						Summary:    "General transfer questions are informational",
						Condition:  `signals.category == "transfer"`,
						Action:     ActionProvideInformation,
						Precedence: 74,
					},
				},
			},
			{
				ID:       "general-runbook",
				Category: CategoryWhois,
				Title:    "General Support Runbook",
				Body:     "Status and informational requests that match no specific policy receive an informational response.",
				ExtractedRules: []Rule{
					{
						ID:         "GN-001",
						Category:   CategoryWhois,
						Summary:    "Plain status requests get a status summary",
						Condition:  `signals.requested == "status" && signals.category != "unknown"`,
						Action:     ActionProvideInformation,
						Precedence: 80,
					},
					{
						ID:         "GN-002",
						Category:   CategoryWhois,
						Summary:    "Informational questions get an informational answer",
						Condition:  `signals.requested == "information" && signals.category != "unknown"`,
						Action:     ActionProvideInformation,
						Precedence: 82,
					},
				},
			},
		},
	}
}
