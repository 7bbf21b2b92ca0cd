package signals

import (
	"regexp"
	"strings"
	"time"

	"github.com/registrar-ops/triage/pkg/policy"
)

// categoryLexicon maps each category to the normalized phrases that
// count toward its score. Scoring is one point per matched phrase;
// ties break by policy.SeverityOrder.
var categoryLexicon = map[policy.Category][]string{
	policy.CategoryAbuse: {
		"abuse", "phishing", "malware", "spam",
		"suspended for phishing", "policy violation", "abuse report",
		"complaint", "fraudulent", "hacked",
	},
	policy.CategoryLegal: {
		"court order", "subpoena", "lawsuit", "legal hold",
		"udrp", "trademark", "cease and desist",
	},
	policy.CategoryBilling: {
		"refund", "charge", "charged", "invoice", "payment",
		"billing", "billed", "credit card", "money back",
	},
	policy.CategoryWhois: {
		"whois", "verification", "verify", "registrant",
		"contact information", "verification email", "icann",
	},
	policy.CategoryExpiration: {
		"expired", "expiration", "expire", "renew", "renewed",
		"renewal", "grace period", "redemption", "deletion",
	},
	policy.CategoryTransfer: {
		"transfer", "auth code", "epp code", "unlock",
		"registrar lock", "transfer lock", "transfer away",
	},
}

// reasonLexicon maps reason tags to trigger phrases. Phrases are
// deliberately specific: a claim of completed verification must not
// also assert an unverified state.
var reasonLexicon = map[string][]string{
	policy.ReasonPhishing: {"phishing"},
	policy.ReasonMalware:  {"malware"},
	policy.ReasonSpam:     {"spam"},
	policy.ReasonWhoisUnverified: {
		"not verified", "unverified", "haven't verified", "didn't verify",
		"never verified", "verify my whois", "verification email",
	},
	policy.ReasonVerificationCompleted: {
		"updated my whois", "updated whois", "completed verification",
		"completed whois verification", "completed the verification",
		"verification is complete", "already verified", "i verified",
	},
	policy.ReasonPaymentFailure: {
		"payment failed", "payment failure", "failed payment",
		"card declined", "card was declined", "unpaid invoice",
	},
	policy.ReasonDuplicateCharge: {
		"charged twice", "double charged", "duplicate charge",
		"billed twice", "charged me twice",
	},
	policy.ReasonChargeback:    {"chargeback"},
	policy.ReasonRedemptionFee: {"redemption fee"},
	policy.ReasonRenewalCompleted: {
		"renewed", "already renewed", "paid the renewal", "renewal went through",
	},
	policy.ReasonServiceOffline: {
		"still offline", "still down", "not resolving", "site is down",
		"services are offline", "services are still offline", "still not working",
	},
	policy.ReasonTransferLock: {"locked", "transfer lock", "registrar lock"},
	policy.ReasonCourtOrder:   {"court order", "subpoena", "lawsuit", "legal hold"},
	policy.ReasonContentRemoved: {
		"removed the content", "content has been removed", "cleaned up",
		"removed the malware", "taken down the content", "taken it down",
	},
}

// requestedLexicon is checked in listed order; the first matching
// request kind wins.
var requestedLexicon = []struct {
	kind    RequestedAction
	phrases []string
}{
	{RequestedReactivation, []string{
		"reactivate", "unsuspend", "reinstate", "restore my domain",
		"bring it back", "turn it back on",
	}},
	{RequestedRefund, []string{"refund", "money back"}},
	{RequestedUnlock, []string{"unlock", "auth code", "epp code", "transfer away"}},
	{RequestedStatus, []string{
		"when will", "how long", "status of", "any update", "eta",
		"still suspended", "still offline",
	}},
	{RequestedInformation, []string{
		"what is", "what does", "how does", "how do i", "why", "explain",
		"what happens",
	}},
}

var (
	nonWord    = regexp.MustCompile(`[^a-z0-9]+`)
	durationRe = regexp.MustCompile(`(\d+)\s*(hour|hr|day|week|month)s?\b`)
)

// Extract derives structured signals from raw query text. Deterministic
// and total: malformed or unmatched input yields CategoryUnknown with
// empty reason and time sets.
func Extract(raw string) QuerySignals {
	sig := QuerySignals{RawText: raw, Category: policy.CategoryUnknown}

	norm := normalize(raw)
	if norm == "" {
		return sig
	}

	sig.Category, sig.CategoryScore = scoreCategories(norm)
	sig.Reasons = extractReasons(norm)
	sig.Durations = extractDurations(norm)
	sig.Requested = extractRequested(norm)
	return sig
}

// normalize lowercases and collapses non-alphanumerics so phrase
// matching sees word boundaries as single spaces. The result is padded
// so every phrase match is boundary-anchored.
func normalize(raw string) string {
	s := strings.ToLower(raw)
	s = nonWord.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return " " + s + " "
}

func containsPhrase(norm, phrase string) bool {
	return strings.Contains(norm, " "+phrase+" ")
}

func scoreCategories(norm string) (policy.Category, int) {
	best := policy.CategoryUnknown
	bestScore := 0
	// Iterate in severity order so ties resolve toward the more severe
	// category.
	for _, cat := range policy.SeverityOrder {
		score := 0
		for _, phrase := range categoryLexicon[cat] {
			if containsPhrase(norm, phrase) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = cat, score
		}
	}
	return best, bestScore
}

func extractReasons(norm string) []string {
	var reasons []string
	// KnownReasons order keeps output deterministic across runs.
	for _, tag := range policy.KnownReasons {
		for _, phrase := range reasonLexicon[tag] {
			if containsPhrase(norm, phrase) {
				reasons = append(reasons, tag)
				break
			}
		}
	}
	return reasons
}

func extractDurations(norm string) []time.Duration {
	var out []time.Duration
	for _, m := range durationRe.FindAllStringSubmatch(norm, -1) {
		n := 0
		for _, c := range m[1] {
			n = n*10 + int(c-'0')
		}
		var unit time.Duration
		switch m[2] {
		case "hour", "hr":
			unit = time.Hour
		case "day":
			unit = 24 * time.Hour
		case "week":
			unit = 7 * 24 * time.Hour
		case "month":
			unit = 30 * 24 * time.Hour
		}
		if n > 0 && unit > 0 {
			out = append(out, time.Duration(n)*unit)
		}
	}
	return out
}

func extractRequested(norm string) RequestedAction {
	for _, entry := range requestedLexicon {
		for _, phrase := range entry.phrases {
			if containsPhrase(norm, phrase) {
				return entry.kind
			}
		}
	}
	return RequestedNone
}
