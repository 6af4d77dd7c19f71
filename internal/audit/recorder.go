// Package audit writes and reads the append-only action trail. Appends are
// durable before they return; an optional mirror ships each appended record to
// side channels asynchronously.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"selfserve-cloud-portal/internal/audit/domain"
	auditrepo "selfserve-cloud-portal/internal/audit/repository"
)

// Recorder is the audit trail surface the dispatch layer records through. It
// assigns each record its ID and server-side timestamp; callers never supply
// either.
type Recorder struct {
	repo    auditrepo.Repository
	emitter EventEmitter
	now     func() time.Time
}

// NewRecorder returns a Recorder that persists to repo. emitter may be nil;
// mirroring is then disabled.
func NewRecorder(repo auditrepo.Repository, emitter EventEmitter) *Recorder {
	return &Recorder{repo: repo, emitter: emitter, now: time.Now}
}

// Append durably writes one audit record and only then mirrors it
// asynchronously. A store failure is returned to the caller: the trail is part
// of the action's transaction boundary, so the caller must fail the whole
// operation. The mirror can never fail an Append.
func (r *Recorder) Append(ctx context.Context, actor, action, provider string) error {
	rec := &domain.Record{
		ID:        uuid.New().String(),
		Actor:     actor,
		Action:    action,
		Provider:  provider,
		CreatedAt: r.now().UTC(),
	}
	if err := r.repo.Append(ctx, rec); err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	EmitAsync(r.emitter, &Event{
		ID:        rec.ID,
		Actor:     rec.Actor,
		Action:    rec.Action,
		Provider:  rec.Provider,
		CreatedAt: rec.CreatedAt,
	})
	return nil
}

// List returns the whole trail in insertion order.
func (r *Recorder) List(ctx context.Context) ([]*domain.Record, error) {
	return r.repo.List(ctx)
}
