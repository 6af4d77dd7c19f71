package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"selfserve-cloud-portal/internal/db"
	"selfserve-cloud-portal/internal/identity/domain"
)

// SQLiteRepository persists identities in the embedded sqlite store.
// Timestamps are stored as RFC 3339 text.
type SQLiteRepository struct {
	conn *sql.DB
}

// NewSQLiteRepository returns an identity repository that uses the given db for persistence.
func NewSQLiteRepository(conn *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{conn: conn}
}

// GetByName returns the identity for name, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*domain.Identity, error) {
	var (
		i         domain.Identity
		createdAt string
	)
	err := r.conn.QueryRowContext(ctx,
		`SELECT name, credential_hash, created_at FROM identities WHERE name = ?`, name,
	).Scan(&i.Name, &i.CredentialHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		i.CreatedAt = t
	}
	return &i, nil
}

// Create persists the identity atomically; a taken name surfaces as
// ErrDuplicateIdentity and nothing is written.
func (r *SQLiteRepository) Create(ctx context.Context, i *domain.Identity) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO identities (name, credential_hash, created_at) VALUES (?, ?, ?)`,
		i.Name, i.CredentialHash, i.CreatedAt.UTC().Format(time.RFC3339Nano),
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
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.conn.QueryRowContext(ctx, `SELECT count(*) FROM identities`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
