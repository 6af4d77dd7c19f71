package repository

import (
	"context"

	"selfserve-cloud-portal/internal/audit/domain"
)

// Repository defines persistence for audit records. The trail is append-only:
// no update or delete operations exist. Append must be durable before it
// returns success. List returns records in insertion order and may run
// concurrently with appends.
type Repository interface {
	Append(ctx context.Context, rec *domain.Record) error
	List(ctx context.Context) ([]*domain.Record, error)
}
