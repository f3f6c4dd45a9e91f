package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event records a scheduling action for the audit trail. Before and After
// carry the record state around the change; both are optional.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	OrgID     string         `json:"organization_id"`
	Table     string         `json:"table_name"`
	Operation string         `json:"operation"` // create/update/cancel/move/reschedule
	RecordID  uuid.UUID      `json:"record_id"`
	ActorID   string         `json:"actor_id"`
	Before    map[string]any `json:"before,omitempty"`
	After     map[string]any `json:"after,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
	Recorded  time.Time      `json:"recorded"`
}

// Sink persists audit events.
type Sink interface {
	Write(ctx context.Context, event *Event) error
}

// Recorder emits audit events to a sink on a best-effort basis. Failures are
// logged, never propagated; an audit outage must not fail the operation it
// describes.
type Recorder struct {
	sink    Sink
	logger  zerolog.Logger
	timeout time.Duration
}

func NewRecorder(sink Sink, logger zerolog.Logger, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{sink: sink, logger: logger, timeout: timeout}
}

// Record writes the event with a bounded deadline detached from the caller's
// context, so a cancelled request still leaves a trail.
func (r *Recorder) Record(ctx context.Context, event *Event) {
	if r == nil || r.sink == nil {
		return
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Recorded.IsZero() {
		event.Recorded = time.Now().UTC()
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if err := r.sink.Write(wctx, event); err != nil {
		r.logger.Error().Err(err).
			Str("table", event.Table).
			Str("operation", event.Operation).
			Str("record_id", event.RecordID.String()).
			Msg("audit write failed")
	}
}

// LogSink writes audit events to the structured log. Used in development and
// as a fallback when no database sink is configured.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(_ context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.logger.Info().
		Str("table", event.Table).
		Str("operation", event.Operation).
		RawJSON("event", payload).
		Msg("audit")
	return nil
}
