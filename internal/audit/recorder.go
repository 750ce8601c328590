package audit

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"custos/pkg/requestcontext"
)

// Recorder captures structured audit events. It is append-only and uses the
// sink for persistence so tests can swap destinations easily.
type Recorder struct {
	sink    Sink
	counter prometheus.Counter
}

// NewRecorder builds a recorder. The counter may be nil when metrics are not
// wired (tests, CLI tools).
func NewRecorder(sink Sink, counter prometheus.Counter) *Recorder {
	return &Recorder{sink: sink, counter: counter}
}

// Emit persists one event. A zero OccurredAt is stamped with the
// request-scoped time, and empty request metadata is filled from the context
// so call sites only describe the action itself.
func (r *Recorder) Emit(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx).UTC()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.Device(ctx)
	}

	if err := r.sink.Append(ctx, event); err != nil {
		return err
	}
	if r.counter != nil {
		r.counter.Inc()
	}
	return nil
}
