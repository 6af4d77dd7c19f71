package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"selfserve-cloud-portal/internal/audit"
)

// recordLogger is the slice of otellog.Logger the emitter needs. Tests
// substitute a capture implementation.
type recordLogger interface {
	Emit(ctx context.Context, record otellog.Record)
}

// NewEventEmitter returns an EventEmitter that mirrors audit events as OTel log
// records via the given LoggerProvider. If provider is nil, returns a no-op
// emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) audit.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("portal.audit")}
}

// NewEventEmitterWithLogger builds an emitter on an explicit record logger.
func NewEventEmitterWithLogger(logger recordLogger) audit.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *audit.Event) error { return nil }

type otelEmitter struct {
	logger recordLogger
}

// Emit converts the audit event to an OTel log record and emits it. Best-effort;
// the record body is the action label and the identifying fields ride as
// attributes.
func (e *otelEmitter) Emit(ctx context.Context, event *audit.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	}
	if event.Action != "" {
		rec.SetBody(otellog.StringValue(event.Action))
	}
	if event.ID != "" {
		rec.AddAttributes(otellog.String("audit_id", event.ID))
	}
	if event.Actor != "" {
		rec.AddAttributes(otellog.String("actor", event.Actor))
	}
	if event.Action != "" {
		rec.AddAttributes(otellog.String("action", event.Action))
	}
	if event.Provider != "" {
		rec.AddAttributes(otellog.String("provider", event.Provider))
	}
	if rec.Timestamp().IsZero() {
		rec.SetTimestamp(time.Now().UTC())
	}
	e.logger.Emit(ctx, rec)
	return nil
}
