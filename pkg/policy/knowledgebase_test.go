package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleRuleDoc(r Rule) []Document {
	return []Document{{
		ID:             "doc-1",
		Category:       CategoryBilling,
		Title:          "Test Document",
		ExtractedRules: []Rule{r},
	}}
}

func TestNewKnowledgeBaseBuiltin(t *testing.T) {
	b := DefaultBundle()
	kb, err := NewKnowledgeBase(b.Version, b.Documents)
	require.NoError(t, err)

	assert.Equal(t, BuiltinVersion, kb.Version().String())
	assert.Equal(t, len(kb.Rules()), kb.Len())
	assert.NotEmpty(t, kb.RulesFor(CategoryAbuse))

	doc, ok := kb.Document("abuse-policy")
	require.True(t, ok)
	assert.Equal(t, "Abuse Suspension Policy", doc.Title)

	// Rules inherit source provenance from their document.
	for _, r := range kb.Rules() {
		assert.NotEmpty(t, r.SourceDoc, "rule %s", r.ID)
		assert.NotEmpty(t, r.SourceTitle, "rule %s", r.ID)
	}
}

func TestKnowledgeBaseOrdering(t *testing.T) {
	docs := []Document{{
		ID:       "doc-1",
		Category: CategoryBilling,
		Title:    "Ordering",
		ExtractedRules: []Rule{
			{ID: "soft-20", Condition: "true", Action: ActionProvideInformation, Precedence: 20},
			{ID: "hard-20", Condition: "false", Action: ActionEscalateLegal, HardConstraint: true, Precedence: 20},
			{ID: "soft-10", Condition: "true", Action: ActionProvideInformation, Precedence: 10},
			{ID: "a-20", Condition: "true", Action: ActionProvideInformation, Precedence: 20, Category: CategoryAbuse},
		},
	}}
	kb, err := NewKnowledgeBase("0.1.0", docs)
	require.NoError(t, err)

	var ids []string
	for _, r := range kb.Rules() {
		ids = append(ids, r.ID)
	}
	// Precedence first; within equal precedence hard constraints lead,
	// then severity rank breaks the tie.
	assert.Equal(t, []string{"soft-10", "hard-20", "a-20", "soft-20"}, ids)
}

func TestNewKnowledgeBaseValidation(t *testing.T) {
	valid := Rule{ID: "R-1", Condition: "true", Action: ActionProvideInformation, Precedence: 10}

	t.Run("invalid version", func(t *testing.T) {
		_, err := NewKnowledgeBase("not-semver", singleRuleDoc(valid))
		assert.Error(t, err)
	})

	t.Run("undefined action", func(t *testing.T) {
		r := valid
		r.Action = "reboot_registry"
		_, err := NewKnowledgeBase("1.0.0", singleRuleDoc(r))
		var kerr *KnowledgeBaseError
		require.ErrorAs(t, err, &kerr)
		assert.Equal(t, "R-1", kerr.RuleID)
	})

	t.Run("undefined category", func(t *testing.T) {
		r := valid
		r.Category = "astrology"
		_, err := NewKnowledgeBase("1.0.0", singleRuleDoc(r))
		assert.Error(t, err)
	})

	t.Run("uncompilable condition", func(t *testing.T) {
		r := valid
		r.Condition = `state ==`
		_, err := NewKnowledgeBase("1.0.0", singleRuleDoc(r))
		assert.Error(t, err)
	})

	t.Run("non-boolean condition", func(t *testing.T) {
		r := valid
		r.Condition = `signals.category`
		_, err := NewKnowledgeBase("1.0.0", singleRuleDoc(r))
		assert.Error(t, err)
	})

	t.Run("invalid eta hint", func(t *testing.T) {
		r := valid
		r.ETAHint = "one day"
		_, err := NewKnowledgeBase("1.0.0", singleRuleDoc(r))
		assert.Error(t, err)

		r.ETAHint = "-24h"
		_, err = NewKnowledgeBase("1.0.0", singleRuleDoc(r))
		assert.Error(t, err)
	})

	t.Run("duplicate rule id", func(t *testing.T) {
		docs := []Document{{
			ID:       "doc-1",
			Category: CategoryBilling,
			ExtractedRules: []Rule{
				valid,
				{ID: "R-1", Condition: "false", Action: ActionEscalateLegal, Precedence: 20},
			},
		}}
		_, err := NewKnowledgeBase("1.0.0", docs)
		assert.ErrorContains(t, err, "duplicate rule id")
	})

	t.Run("duplicate document id", func(t *testing.T) {
		docs := []Document{
			{ID: "doc-1", Category: CategoryBilling},
			{ID: "doc-1", Category: CategoryWhois},
		}
		_, err := NewKnowledgeBase("1.0.0", docs)
		assert.ErrorContains(t, err, "duplicate document id")
	})
}

func TestHardAmbiguityRejected(t *testing.T) {
	docs := []Document{{
		ID:       "doc-1",
		Category: CategoryAbuse,
		ExtractedRules: []Rule{
			{
				ID:             "H-1",
				Condition:      `state == "suspended_abuse"`,
				Action:         ActionEscalateAbuse,
				HardConstraint: true,
				Precedence:     10,
			},
			{
				ID:             "H-2",
				Condition:      `"phishing" in signals.reasons`,
				Action:         ActionEscalateLegal,
				HardConstraint: true,
				Precedence:     10,
			},
		},
	}}
	_, err := NewKnowledgeBase("1.0.0", docs)
	var kerr *KnowledgeBaseError
	require.ErrorAs(t, err, &kerr)
	assert.Contains(t, kerr.Reason, "overlapping")
}

func TestHardConstraintsAtDistinctPrecedenceAllowed(t *testing.T) {
	docs := []Document{{
		ID:       "doc-1",
		Category: CategoryAbuse,
		ExtractedRules: []Rule{
			{
				ID:             "H-1",
				Condition:      `state == "suspended_abuse"`,
				Action:         ActionEscalateAbuse,
				HardConstraint: true,
				Precedence:     10,
			},
			{
				ID:             "H-2",
				Condition:      `state == "suspended_abuse"`,
				Action:         ActionEscalateLegal,
				HardConstraint: true,
				Precedence:     12,
			},
		},
	}}
	kb, err := NewKnowledgeBase("1.0.0", docs)
	require.NoError(t, err)
	assert.Equal(t, "H-1", kb.Rules()[0].ID)
}

func TestCompiledRuleEval(t *testing.T) {
	b := DefaultBundle()
	kb, err := NewKnowledgeBase(b.Version, b.Documents)
	require.NoError(t, err)

	var ab001 *CompiledRule
	for _, r := range kb.Rules() {
		if r.ID == "AB-001" {
			ab001 = r
			break
		}
	}
	require.NotNil(t, ab001)

	sig := map[string]any{
		"text":              "",
		"category":          "abuse",
		"reasons":           []string{},
		"requested":         "",
		"durations_hours":   []int64{},
		"max_elapsed_hours": int64(0),
	}
	ok, err := ab001.EvalCondition(sig, "suspended_abuse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ab001.EvalCondition(sig, "active")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 24*time.Hour, mustRule(t, kb, "WH-001").ETA)
}

func mustRule(t *testing.T, kb *KnowledgeBase, id string) *CompiledRule {
	t.Helper()
	for _, r := range kb.Rules() {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("rule %s not found", id)
	return nil
}
