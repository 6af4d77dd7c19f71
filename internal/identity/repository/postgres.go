package repository

import (
	"context"
	"database/sql"
	"errors"

	"selfserve-cloud-portal/internal/db"
	"selfserve-cloud-portal/internal/identity/domain"
)

// PostgresRepository persists identities in postgres via the pgx stdlib driver.
type PostgresRepository struct {
	conn *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// GetByName returns the identity for name, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*domain.Identity, error) {
	var i domain.Identity
	err := r.conn.QueryRowContext(ctx,
		`SELECT name, credential_hash, created_at FROM identities WHERE name = $1`, name,
	).Scan(&i.Name, &i.CredentialHash, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

// Create persists the identity. The primary key on name makes the
// check-then-insert a single atomic statement; a taken name surfaces as
// ErrDuplicateIdentity and nothing is written.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO identities (name, credential_hash, created_at) VALUES ($1, $2, $3)`,
		i.Name, i.CredentialHash, i.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

// Count returns the number of identities in the store.
func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.conn.QueryRowContext(ctx, `SELECT count(*) FROM identities`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
