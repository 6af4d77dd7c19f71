package repository

import (
	"context"
	"database/sql"
	"time"

	"selfserve-cloud-portal/internal/audit/domain"
)

// SQLiteRepository persists audit records in the embedded sqlite store.
// Timestamps are stored as RFC 3339 text; insertion order comes from the
// autoincrement seq column.
type SQLiteRepository struct {
	conn *sql.DB
}

// NewSQLiteRepository returns an audit repository that uses the given db for persistence.
func NewSQLiteRepository(conn *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{conn: conn}
}

// Append durably persists the record before returning.
func (r *SQLiteRepository) Append(ctx context.Context, rec *domain.Record) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO audit_records (id, actor, action, provider, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Actor, rec.Action, rec.Provider, rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// List returns all records in insertion order.
func (r *SQLiteRepository) List(ctx context.Context) ([]*domain.Record, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT id, actor, action, provider, created_at FROM audit_records ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var (
			rec       domain.Record
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Actor, &rec.Action, &rec.Provider, &createdAt); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = t
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
