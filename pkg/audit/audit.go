// Package audit shapes and records the decision trail. The engine only
// produces records; persistence belongs to a Sink implementation, and
// sink failures never fail the decision itself.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/registrar-ops/triage/pkg/decision"
	"github.com/registrar-ops/triage/pkg/lifecycle"
	"github.com/registrar-ops/triage/pkg/signals"
)

// Record is one classification event: the query signals, the state the
// engine saw, and the decision it emitted.
type Record struct {
	ID        string                  `json:"id"`
	Timestamp time.Time               `json:"timestamp"`
	DomainID  string                  `json:"domain_id"`
	State     lifecycle.DomainState   `json:"domain_state"`
	Signals   signals.QuerySignals    `json:"signals"`
	Decision  decision.ActionDecision `json:"decision"`
}

// NewRecord assembles a Record with a fresh id and the given timestamp.
func NewRecord(domainID string, state lifecycle.DomainState, sig signals.QuerySignals, d decision.ActionDecision, at time.Time) *Record {
	return &Record{
		ID:        uuid.New().String(),
		Timestamp: at.UTC(),
		DomainID:  domainID,
		State:     state,
		Signals:   sig,
		Decision:  d,
	}
}

// Sink persists audit records.
type Sink interface {
	Record(ctx context.Context, rec *Record) error
}

// logger is the default Sink: one JSON line per record on a Writer.
type logger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogger returns a Sink writing JSON lines to os.Stdout.
func NewLogger() Sink { return NewLoggerWithWriter(os.Stdout) }

// NewLoggerWithWriter returns a Sink writing to w. Injection point for
// tests and custom sinks.
func NewLoggerWithWriter(w io.Writer) Sink {
	if w == nil {
		w = os.Stdout
	}
	return &logger{w: w}
}

func (l *logger) Record(_ context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.w.Write(append(data, '\n'))
	return err
}
