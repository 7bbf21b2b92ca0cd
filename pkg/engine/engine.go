// Package engine orchestrates classification: signal extraction, rule
// matching against the active knowledge base snapshot, decision
// synthesis under the lifecycle veto, and audit recording.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/registrar-ops/triage/pkg/audit"
	"github.com/registrar-ops/triage/pkg/decision"
	"github.com/registrar-ops/triage/pkg/lifecycle"
	"github.com/registrar-ops/triage/pkg/matcher"
	"github.com/registrar-ops/triage/pkg/policy"
	"github.com/registrar-ops/triage/pkg/signals"
)

// ErrNoKnowledgeBase is returned when Classify runs before any bundle
// has been loaded.
var ErrNoKnowledgeBase = errors.New("engine: no knowledge base loaded")

// SnapshotProvider yields the active immutable knowledge base.
type SnapshotProvider interface {
	Snapshot() *policy.KnowledgeBase
}

// StateLookup is the external system of record for domain state.
type StateLookup interface {
	DomainState(ctx context.Context, domainID string) (lifecycle.DomainState, error)
}

// Clock supplies timestamps for audit records; injectable for tests.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Engine is stateless per request after knowledge base load; Classify
// calls may run fully in parallel.
type Engine struct {
	kb     SnapshotProvider
	states StateLookup
	sink   audit.Sink
	synth  *decision.Synthesizer
	clock  Clock
	log    *slog.Logger

	tracer    trace.Tracer
	decisions metric.Int64Counter
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects a clock.
func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithLogger injects a logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// New creates an Engine. sink may be nil, in which case decisions are
// not audited (tests only; production wiring always passes a sink).
func New(kb SnapshotProvider, states StateLookup, sink audit.Sink, opts ...Option) *Engine {
	e := &Engine{
		kb:     kb,
		states: states,
		sink:   sink,
		synth:  decision.NewSynthesizer(),
		clock:  wallClock{},
		log:    slog.Default(),
		tracer: otel.Tracer("triage/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	// The global meter is a no-op until observability wiring installs a
	// provider, so counter errors here are not fatal.
	counter, err := otel.Meter("triage/engine").Int64Counter("triage.decisions",
		metric.WithDescription("Decisions emitted, by action and category"))
	if err == nil {
		e.decisions = counter
	}
	return e
}

// Classify runs the full pipeline for one query and returns exactly one
// decision. State lookup failure degrades to StateUnknown rather than
// erroring; audit sink failure is logged and the decision still
// returned. The only error path is a missing knowledge base.
func (e *Engine) Classify(ctx context.Context, domainID, rawText string) (decision.ActionDecision, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Classify")
	defer span.End()

	kb := e.kb.Snapshot()
	if kb == nil {
		return decision.ActionDecision{}, ErrNoKnowledgeBase
	}

	sig := signals.Extract(rawText)

	state := lifecycle.StateUnknown
	if e.states != nil {
		var err error
		state, err = e.states.DomainState(ctx, domainID)
		if err != nil {
			state = lifecycle.StateUnknown
			e.log.WarnContext(ctx, "state lookup failed, treating as unknown",
				"domain_id", domainID, "error", err)
		}
	}

	rep := matcher.Match(sig, state, kb)
	for _, skipped := range rep.Skipped {
		e.log.WarnContext(ctx, "rule condition evaluation failed, rule skipped",
			"rule_id", skipped.RuleID, "error", skipped.Err)
	}

	d := e.synth.Decide(sig, rep, state)

	span.SetAttributes(
		attribute.String("triage.action", string(d.Action)),
		attribute.String("triage.category", string(sig.Category)),
		attribute.String("triage.state", string(state)),
	)
	if e.decisions != nil {
		e.decisions.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("action", string(d.Action)),
				attribute.String("category", string(sig.Category)),
			))
	}

	e.record(ctx, domainID, state, sig, d)
	return d, nil
}

// record persists the audit trail fire-and-forget: a sink failure is
// logged, never propagated.
func (e *Engine) record(ctx context.Context, domainID string, state lifecycle.DomainState, sig signals.QuerySignals, d decision.ActionDecision) {
	if e.sink == nil {
		return
	}
	rec := audit.NewRecord(domainID, state, sig, d, e.clock.Now())
	if err := e.sink.Record(ctx, rec); err != nil {
		e.log.ErrorContext(ctx, "audit sink failure",
			"record_id", rec.ID, "domain_id", domainID, "error", err)
	}
}

// PolicyVersion reports the active knowledge base version.
func (e *Engine) PolicyVersion() (string, error) {
	kb := e.kb.Snapshot()
	if kb == nil {
		return "", ErrNoKnowledgeBase
	}
	return kb.Version().String(), nil
}

// StaticStateLookup is a fixed in-memory StateLookup, useful in tests
// and for environments without an account system connection.
type StaticStateLookup map[string]lifecycle.DomainState

// DomainState returns the configured state, or an error for unknown
// domains so the engine exercises its StateUnknown recovery.
func (m StaticStateLookup) DomainState(_ context.Context, domainID string) (lifecycle.DomainState, error) {
	if s, ok := m[domainID]; ok {
		return s, nil
	}
	return lifecycle.StateUnknown, fmt.Errorf("domain %s not found", domainID)
}
