// Package dispatch routes authenticated resource actions to provider backends
// and records successful creates in the audit trail.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"selfserve-cloud-portal/internal/provider"
	"selfserve-cloud-portal/internal/session"
)

var (
	// ErrProviderTimeout is returned when a backend does not answer within the
	// configured call timeout.
	ErrProviderTimeout = errors.New("provider timed out")
	// ErrProviderFailure is returned when a backend call fails for any reason
	// other than a timeout.
	ErrProviderFailure = errors.New("provider call failed")
)

// Action selects the provider operation to perform.
type Action string

const (
	ActionCreate Action = "create"
	ActionList   Action = "list"
)

// Result carries the payload of a performed action. Exactly one field is set:
// Created for ActionCreate, Listed for ActionList.
type Result struct {
	Created *provider.CreateResult
	Listed  []provider.Resource
}

// Resolver maps a provider name to its capability. Satisfied by
// provider.Registry.
type Resolver interface {
	Resolve(name provider.Name) (provider.Capability, error)
}

// AuditTrail records completed actions. Satisfied by audit.Recorder. A failed
// append fails the dispatched action; the trail and the action succeed or fail
// together.
type AuditTrail interface {
	Append(ctx context.Context, actor, action, provider string) error
}

// Service is the dispatch core. Every call requires an authenticated session;
// provider calls run under a per-call timeout so a stalled backend cannot pin
// the caller.
type Service struct {
	providers Resolver
	trail     AuditTrail
	timeout   time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer
	calls     metric.Int64Counter
}

// NewService creates the dispatch service. timeout bounds each provider call.
func NewService(providers Resolver, trail AuditTrail, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	calls, err := otel.Meter("portal.dispatch").Int64Counter(
		"portal.dispatch.calls",
		metric.WithDescription("Provider dispatch calls by provider, action, and outcome"),
	)
	if err != nil {
		logger.Warn("dispatch: counter init failed", "error", err)
	}
	return &Service{
		providers: providers,
		trail:     trail,
		timeout:   timeout,
		logger:    logger,
		tracer:    otel.Tracer("portal.dispatch"),
		calls:     calls,
	}
}

// Perform runs one action against the named provider on behalf of the
// session's identity. The session must be authenticated. Creates are audited
// after the backend reports success and before Perform returns; list calls are
// read-only and leave no trail.
func (s *Service) Perform(ctx context.Context, sess *session.Session, name provider.Name, action Action, params provider.CreateParams) (*Result, error) {
	actor, err := sess.Actor()
	if err != nil {
		return nil, err
	}

	cap, err := s.providers.Resolve(name)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "dispatch.Perform", trace.WithAttributes(
		attribute.String("provider", string(name)),
		attribute.String("action", string(action)),
	))
	defer span.End()

	result, err := s.call(ctx, actor, cap, name, action, params)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("dispatch failed",
			"actor", actor, "provider", string(name), "action", string(action), "error", err)
	}
	if s.calls != nil {
		s.calls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", string(name)),
			attribute.String("action", string(action)),
			attribute.String("outcome", outcome),
		))
	}
	return result, err
}

func (s *Service) call(ctx context.Context, actor string, cap provider.Capability, name provider.Name, action Action, params provider.CreateParams) (*Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	switch action {
	case ActionCreate:
		created, err := cap.CreateResource(callCtx, params)
		if err != nil {
			return nil, s.mapProviderErr(callCtx, err)
		}
		label := "Create " + cap.ResourceNoun()
		if err := s.trail.Append(ctx, actor, label, string(name)); err != nil {
			return nil, err
		}
		return &Result{Created: created}, nil
	case ActionList:
		listed, err := cap.ListResources(callCtx)
		if err != nil {
			return nil, s.mapProviderErr(callCtx, err)
		}
		return &Result{Listed: listed}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported action %q", ErrProviderFailure, action)
	}
}

// mapProviderErr classifies a backend error. A deadline hit on the call context
// is a timeout; everything else is a generic backend failure with the cause
// attached.
func (s *Service) mapProviderErr(callCtx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && callCtx.Err() != nil {
		return fmt.Errorf("%w after %s", ErrProviderTimeout, s.timeout)
	}
	return fmt.Errorf("%w: %v", ErrProviderFailure, err)
}
