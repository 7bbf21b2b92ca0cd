// Package signals turns raw support query text into structured signals:
// a best-guess category, normalized reason tags, recognized durations,
// and the action the customer is asking for. Extraction is a pure
// function over a fixed lexicon; it never errors, and unmatched text is
// a normal outcome, not a failure.
package signals

import (
	"time"

	"github.com/registrar-ops/triage/pkg/policy"
)

// RequestedAction is what the customer is asking for, when extractable.
type RequestedAction string

const (
	RequestedNone         RequestedAction = ""
	RequestedReactivation RequestedAction = "reactivation"
	RequestedRefund       RequestedAction = "refund"
	RequestedUnlock       RequestedAction = "unlock"
	RequestedStatus       RequestedAction = "status"
	RequestedInformation  RequestedAction = "information"
)

// QuerySignals is the structured record extracted from one query.
type QuerySignals struct {
	RawText       string          `json:"raw_text"`
	Category      policy.Category `json:"detected_category"`
	CategoryScore int             `json:"category_score"`
	Reasons       []string        `json:"mentioned_reasons,omitempty"`
	Durations     []time.Duration `json:"time_references,omitempty"`
	Requested     RequestedAction `json:"requested_action,omitempty"`
}

// HasReason reports whether the given reason tag was extracted.
func (s QuerySignals) HasReason(r string) bool {
	for _, have := range s.Reasons {
		if have == r {
			return true
		}
	}
	return false
}

// MaxElapsed returns the longest recognized time reference, used to
// judge whether a policy SLA window has already been exceeded.
func (s QuerySignals) MaxElapsed() time.Duration {
	var max time.Duration
	for _, d := range s.Durations {
		if d > max {
			max = d
		}
	}
	return max
}

// CELInput renders the signals as the `signals` variable of rule
// condition evaluation. Durations are exposed in whole hours: policy
// SLAs in the corpus are all hour-granular.
func (s QuerySignals) CELInput() map[string]any {
	hours := make([]int64, len(s.Durations))
	for i, d := range s.Durations {
		hours[i] = int64(d / time.Hour)
	}
	reasons := s.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return map[string]any{
		"text":              s.RawText,
		"category":          string(s.Category),
		"reasons":           reasons,
		"requested":         string(s.Requested),
		"durations_hours":   hours,
		"max_elapsed_hours": int64(s.MaxElapsed() / time.Hour),
	}
}
