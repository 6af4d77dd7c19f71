package service

import (
	"context"
	"errors"
	"time"

	"selfserve-cloud-portal/internal/identity/domain"
	"selfserve-cloud-portal/internal/identity/repository"
	"selfserve-cloud-portal/internal/security"
	"selfserve-cloud-portal/internal/session"
)

// Sentinel errors for the auth service; the HTTP layer maps them to status codes.
var (
	// ErrDuplicateIdentity re-exports the store sentinel so callers need not
	// import the repository package.
	ErrDuplicateIdentity = repository.ErrDuplicateIdentity
	ErrInvalidInput      = errors.New("name and secret must be non-empty")
	// ErrInvalidCredentials covers both unknown name and wrong secret. The two
	// are deliberately indistinguishable so login cannot be used to probe which
	// names exist.
	ErrInvalidCredentials = errors.New("invalid name or secret")
)

// AdminName is the bootstrap identity seeded into an empty store.
const AdminName = "admin"

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetByName(ctx context.Context, name string) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	Count(ctx context.Context) (int64, error)
}

// AuthService registers identities and validates login attempts. A successful
// login yields an authenticated session from the session manager.
type AuthService struct {
	identities IdentityRepo
	hasher     *security.Hasher
	sessions   *session.Manager
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(identities IdentityRepo, hasher *security.Hasher, sessions *session.Manager) *AuthService {
	return &AuthService{
		identities: identities,
		hasher:     hasher,
		sessions:   sessions,
	}
}

// Register creates a new identity with the given name and secret. Input is
// validated before the store is touched: empty name or secret fails with
// ErrInvalidInput. A taken name fails with ErrDuplicateIdentity and leaves the
// store unchanged.
func (s *AuthService) Register(ctx context.Context, name, secret string) error {
	if name == "" || secret == "" {
		return ErrInvalidInput
	}
	hash, err := s.hasher.Hash([]byte(secret))
	if err != nil {
		return err
	}
	return s.identities.Create(ctx, &domain.Identity{
		Name:           name,
		CredentialHash: hash,
		CreatedAt:      time.Now().UTC(),
	})
}

// Login validates name/secret and, on success, returns a new authenticated
// session bound to the identity. Every failure mode returns
// ErrInvalidCredentials; the unknown-name path still burns a hash compare so
// timing does not reveal whether the name exists.
func (s *AuthService) Login(ctx context.Context, name, secret string) (*session.Session, error) {
	if name == "" || secret == "" {
		return nil, ErrInvalidCredentials
	}
	ident, err := s.identities.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		s.hasher.CompareDummy([]byte(secret))
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(ident.CredentialHash, []byte(secret)); err != nil {
		return nil, ErrInvalidCredentials
	}
	sess, err := s.sessions.Begin()
	if err != nil {
		return nil, err
	}
	return s.sessions.Authenticate(sess.ID(), ident.Name)
}

// Logout ends the session with the given id. Unknown ids are a no-op.
func (s *AuthService) Logout(id string) {
	s.sessions.End(id)
}

// SeedDefaultAdmin creates the bootstrap admin identity when the store is
// empty. Returns true if the admin was created. The initial secret is a
// deployment convenience; operators must rotate it. Safe to run repeatedly; a
// concurrent seed losing the insert race is treated as already-seeded.
func (s *AuthService) SeedDefaultAdmin(ctx context.Context, secret string) (bool, error) {
	n, err := s.identities.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := s.Register(ctx, AdminName, secret); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
