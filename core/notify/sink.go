package notify

import (
	"context"
	"sync"

	"github.com/anoideaopen/feeledger/core/telemetry"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Sink receives ledger notifications.
type Sink interface {
	Notify(ctx context.Context, e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event)

func (f SinkFunc) Notify(ctx context.Context, e Event) {
	f(ctx, e)
}

// Discard drops every notification.
var Discard Sink = SinkFunc(func(context.Context, Event) {})

type multi []Sink

func (m multi) Notify(ctx context.Context, e Event) {
	for _, s := range m {
		s.Notify(ctx, e)
	}
}

// Multi fans notifications out to sinks in order. Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	m := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

// LogSink writes notifications to a logrus entry at info level.
type LogSink struct {
	Entry *logrus.Entry
}

func NewLogSink(entry *logrus.Entry) *LogSink {
	return &LogSink{Entry: entry}
}

func (s *LogSink) Notify(_ context.Context, e Event) {
	s.Entry.WithFields(logrus.Fields(e.Fields())).Info("ledger notification")
}

// TraceSink records notifications as events of the span found in the context.
type TraceSink struct{}

func (TraceSink) Notify(ctx context.Context, e Event) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.AddEvent(string(e.Kind), trace.WithAttributes(
		telemetry.Currency(e.Currency.String()),
		telemetry.Account(e.Account.String()),
		telemetry.Owner(e.Owner.String()),
		telemetry.Amount(e.Amount),
		telemetry.Fee(e.Fee),
	))
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

// Events returns a copy of the recorded notifications.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Event(nil), r.events...)
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
}

// Record is an encoded notification.
type Record struct {
	Name    string
	Payload []byte
}

// Journal keeps encoded notifications as a name and a serialized payload.
type Journal struct {
	mu      sync.Mutex
	records []Record
	dropped int
}

func (j *Journal) Notify(_ context.Context, e Event) {
	payload, err := Payload(e)

	j.mu.Lock()
	defer j.mu.Unlock()

	if err != nil {
		j.dropped++
		return
	}
	j.records = append(j.records, Record{Name: string(e.Kind), Payload: payload})
}

// Records returns a copy of the journal.
func (j *Journal) Records() []Record {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]Record(nil), j.records...)
}

// Dropped returns how many notifications could not be encoded.
func (j *Journal) Dropped() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.dropped
}
