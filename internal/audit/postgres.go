package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore writes entries to the audit_log table created by the db
// migrations.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	e = stamp(e)
	const query = `
		INSERT INTO audit_log (
			id, occurred_at, action, surface, ip_address,
			user_agent, resource, success, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.Timestamp,
		string(e.Action),
		string(e.Surface),
		e.IPAddress,
		nullString(e.UserAgent),
		nullString(e.Resource),
		e.Success,
		nullString(e.ErrorMsg),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	const query = `
		SELECT id, occurred_at, action, surface, ip_address,
		       user_agent, resource, success, error_message
		FROM audit_log
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var userAgent, resource, errorMsg sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.Timestamp,
			&e.Action,
			&e.Surface,
			&e.IPAddress,
			&userAgent,
			&resource,
			&e.Success,
			&errorMsg,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.UserAgent = userAgent.String
		e.Resource = resource.String
		e.ErrorMsg = errorMsg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
