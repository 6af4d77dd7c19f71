package repository

import (
	"context"
	"errors"

	"selfserve-cloud-portal/internal/identity/domain"
)

// ErrDuplicateIdentity is returned by Create when the name is already taken.
// The failed create leaves no partial state behind.
var ErrDuplicateIdentity = errors.New("identity name already exists")

// Repository defines persistence for identities. Names are unique; uniqueness is
// enforced by the store in the same statement as the insert, so two concurrent
// creates for one name cannot both succeed.
type Repository interface {
	GetByName(ctx context.Context, name string) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	// Count returns the number of identities; used to decide whether to seed the
	// bootstrap admin.
	Count(ctx context.Context) (int64, error)
}
