package policy

import (
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/cel-go/cel"
)

// CompiledRule is a knowledge-base resident rule: authoring form plus
// parsed ETA, provenance, and the compiled condition program. Immutable
// once the knowledge base is constructed.
type CompiledRule struct {
	Rule

	// ETA is ETAHint parsed; zero when the rule carries none.
	ETA time.Duration

	// SourceDoc / SourceTitle identify the document the rule was
	// extracted from, for reference formatting in decisions.
	SourceDoc   string
	SourceTitle string

	prg cel.Program
}

// KnowledgeBase is an immutable, versioned rule set. A new version
// replaces the set wholesale via an atomic snapshot swap in the loader;
// nothing here mutates after construction, so concurrent readers need
// no locking.
type KnowledgeBase struct {
	version    *semver.Version
	rules      []*CompiledRule
	byCategory map[Category][]*CompiledRule
	docs       map[string]Document
}

// NewKnowledgeBase validates, compiles, and orders the rules of the
// given documents. It fails with *KnowledgeBaseError on any undefined
// action or category, uncompilable or non-boolean condition, duplicate
// rule id, or two hard constraints sharing a precedence with overlapping
// conditions.
func NewKnowledgeBase(version string, docs []Document) (*KnowledgeBase, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, kbErr("", "invalid version %q: %v", version, err)
	}

	kb := &KnowledgeBase{
		version:    v,
		byCategory: make(map[Category][]*CompiledRule),
		docs:       make(map[string]Document, len(docs)),
	}

	seen := make(map[string]bool)
	for _, doc := range docs {
		if doc.ID == "" {
			return nil, kbErr("", "document with empty id")
		}
		if _, dup := kb.docs[doc.ID]; dup {
			return nil, kbErr("", "duplicate document id %s", doc.ID)
		}
		kb.docs[doc.ID] = doc

		for _, r := range doc.ExtractedRules {
			if r.ID == "" {
				return nil, kbErr("", "document %s: rule with empty id", doc.ID)
			}
			if seen[r.ID] {
				return nil, kbErr(r.ID, "duplicate rule id")
			}
			seen[r.ID] = true

			if r.Category == "" {
				r.Category = doc.Category
			}
			if !ValidCategory(r.Category) {
				return nil, kbErr(r.ID, "undefined category %q", r.Category)
			}
			if !ValidAction(r.Action) {
				return nil, kbErr(r.ID, "undefined action %q", r.Action)
			}

			cr := &CompiledRule{
				Rule:        r,
				SourceDoc:   doc.ID,
				SourceTitle: doc.Title,
			}
			if r.ETAHint != "" {
				d, err := time.ParseDuration(r.ETAHint)
				if err != nil || d <= 0 {
					return nil, kbErr(r.ID, "invalid eta_hint %q", r.ETAHint)
				}
				cr.ETA = d
			}
			cr.prg, err = compileCondition(r.Condition)
			if err != nil {
				return nil, kbErr(r.ID, "condition: %v", err)
			}

			kb.rules = append(kb.rules, cr)
		}
	}

	sortRules(kb.rules)
	for _, cr := range kb.rules {
		kb.byCategory[cr.Category] = append(kb.byCategory[cr.Category], cr)
	}

	if err := kb.checkHardAmbiguity(); err != nil {
		return nil, err
	}
	return kb, nil
}

// sortRules orders by ascending precedence, hard constraints ahead of
// soft rules within equal precedence, then severity rank, then id, so
// knowledge base iteration order is fully deterministic.
func sortRules(rules []*CompiledRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Precedence != b.Precedence {
			return a.Precedence < b.Precedence
		}
		if a.HardConstraint != b.HardConstraint {
			return a.HardConstraint
		}
		if ra, rb := SeverityRank(a.Category), SeverityRank(b.Category); ra != rb {
			return ra < rb
		}
		return a.ID < b.ID
	})
}

// Version returns the knowledge base version.
func (kb *KnowledgeBase) Version() *semver.Version { return kb.version }

// Rules returns every rule in knowledge base order. Callers must not
// mutate the returned slice.
func (kb *KnowledgeBase) Rules() []*CompiledRule { return kb.rules }

// RulesFor returns the ordered rules of one category.
func (kb *KnowledgeBase) RulesFor(c Category) []*CompiledRule { return kb.byCategory[c] }

// Document returns a source document by id.
func (kb *KnowledgeBase) Document(id string) (Document, bool) {
	d, ok := kb.docs[id]
	return d, ok
}

// Len returns the number of rules.
func (kb *KnowledgeBase) Len() int { return len(kb.rules) }

// probeStates mirrors the lifecycle state space for overlap probing.
var probeStates = []string{
	"active", "locked",
	"suspended_whois", "suspended_abuse", "suspended_billing", "suspended_legal",
	"grace_period", "redemption_period", "pending_deletion", "deleted",
	"unknown",
}

var probeRequested = []string{"", "reactivation", "refund", "unlock", "status", "information"}

// checkHardAmbiguity rejects rule sets where two hard constraints share
// a precedence and overlapping conditions. Overlap is approximated by
// probing both conditions over the cross product of category, state,
// requested action, and an all-reasons / no-reasons signal shape; a
// probe satisfying both rules is treated as an ambiguous pair. This is
// conservative in the fail-fast direction: the load must not silently
// pick one of two hard constraints that can fire together.
func (kb *KnowledgeBase) checkHardAmbiguity() error {
	byPrec := make(map[int][]*CompiledRule)
	for _, r := range kb.rules {
		if r.HardConstraint {
			byPrec[r.Precedence] = append(byPrec[r.Precedence], r)
		}
	}

	for _, group := range byPrec {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if conditionsOverlap(group[i], group[j]) {
					return kbErr(group[i].ID,
						"hard constraint shares precedence %d and overlapping conditions with %s",
						group[i].Precedence, group[j].ID)
				}
			}
		}
	}
	return nil
}

func conditionsOverlap(a, b *CompiledRule) bool {
	reasonSets := [][]string{KnownReasons, {}}
	for _, cat := range append(append([]Category{}, SeverityOrder...), CategoryUnknown) {
		for _, state := range probeStates {
			for _, req := range probeRequested {
				for _, reasons := range reasonSets {
					sig := map[string]any{
						"text":              "",
						"category":          string(cat),
						"reasons":           reasons,
						"requested":         req,
						"durations_hours":   []int64{24},
						"max_elapsed_hours": int64(24),
					}
					av, errA := a.EvalCondition(sig, state)
					bv, errB := b.EvalCondition(sig, state)
					if errA == nil && errB == nil && av && bv {
						return true
					}
				}
			}
		}
	}
	return false
}
