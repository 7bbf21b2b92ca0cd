package policy

import "fmt"

// KnowledgeBaseError reports a malformed or ambiguous rule set. It is
// fatal at load time: a bundle that produces one never becomes the
// active knowledge base.
type KnowledgeBaseError struct {
	RuleID string
	Reason string
}

func (e *KnowledgeBaseError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("knowledge base: %s", e.Reason)
	}
	return fmt.Sprintf("knowledge base: rule %s: %s", e.RuleID, e.Reason)
}

func kbErr(ruleID, format string, args ...any) *KnowledgeBaseError {
	return &KnowledgeBaseError{RuleID: ruleID, Reason: fmt.Sprintf(format, args...)}
}
