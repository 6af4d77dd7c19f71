package repository

import (
	"context"
	"database/sql"

	"selfserve-cloud-portal/internal/audit/domain"
)

// PostgresRepository persists audit records in postgres via the pgx stdlib
// driver. The seq column fixes insertion order independently of timestamp
// resolution.
type PostgresRepository struct {
	conn *sql.DB
}

// NewPostgresRepository returns an audit repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// Append durably persists the record before returning.
func (r *PostgresRepository) Append(ctx context.Context, rec *domain.Record) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO audit_records (id, actor, action, provider, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.Actor, rec.Action, rec.Provider, rec.CreatedAt,
	)
	return err
}

// List returns all records in insertion order.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Record, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT id, actor, action, provider, created_at FROM audit_records ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.ID, &rec.Actor, &rec.Action, &rec.Provider, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
