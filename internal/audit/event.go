package audit

import (
	"context"
	"log"
	"time"
)

// emitTimeout is the max time allowed for a single async mirror emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the HTTP server drains before
// shutting down telemetry providers, so in-flight async mirror emits can
// complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// Event is the wire form of an audit record mirrored to downstream consumers
// (Kafka, OTel logs). The durable store copy is the source of truth; events are
// best-effort.
type Event struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// EventEmitter mirrors audit events to a side channel. Best-effort; callers log
// and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// EmitAsync runs Emit in a goroutine with a short timeout so the request path
// is never blocked by the mirror. emitter and event may be nil; EmitAsync then
// returns without starting a goroutine. The goroutine uses context.Background()
// so request cancellation does not abort an in-flight emit.
func EmitAsync(emitter EventEmitter, event *Event) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.Printf("audit: async mirror emit failed: %v", err)
		}
	}()
}

// MultiEmitter fans one event out to several emitters. A nil entry is skipped;
// the first error is returned after all emitters ran.
type MultiEmitter []EventEmitter

func (m MultiEmitter) Emit(ctx context.Context, event *Event) error {
	var first error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
