// Package postgres implements the bot's repositories on Postgres through
// database/sql and the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"time"
)

// Repository persists roster, links, form states, leave requests and scan
// logs. Every call is bounded by timeout.
type Repository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB, timeout time.Duration) *Repository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Repository{db: db, timeout: timeout}
}

func (r *Repository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
