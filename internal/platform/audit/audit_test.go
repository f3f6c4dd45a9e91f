package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type captureSink struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (s *captureSink) Write(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func TestRecorder_FillsDefaults(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(sink, zerolog.Nop(), time.Second)

	rec.Record(context.Background(), &Event{
		OrgID:     "org-1",
		Table:     "appointments",
		Operation: "reschedule",
		RecordID:  uuid.New(),
	})

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	got := sink.events[0]
	if got.ID == uuid.Nil {
		t.Error("expected generated event id")
	}
	if got.Recorded.IsZero() {
		t.Error("expected recorded timestamp")
	}
}

func TestRecorder_SinkFailureDoesNotPanic(t *testing.T) {
	sink := &captureSink{err: errors.New("db down")}
	rec := NewRecorder(sink, zerolog.Nop(), time.Second)

	// Must swallow the error.
	rec.Record(context.Background(), &Event{Table: "appointments", Operation: "create"})
}

func TestRecorder_SurvivesCancelledCaller(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(sink, zerolog.Nop(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, &Event{Table: "waiting_list", Operation: "update"})

	if len(sink.events) != 1 {
		t.Fatalf("expected event despite cancelled caller context, got %d", len(sink.events))
	}
}

func TestRecorder_NilSinkIsNoop(t *testing.T) {
	rec := NewRecorder(nil, zerolog.Nop(), time.Second)
	rec.Record(context.Background(), &Event{Table: "appointments", Operation: "cancel"})
}
