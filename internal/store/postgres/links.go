package postgres

import (
	"context"
	"database/sql"
	"errors"

	"attendbot/internal/model"
	"attendbot/internal/store"
)

// UpsertLink binds a chat user to a student, replacing any prior binding.
func (r *Repository) UpsertLink(ctx context.Context, link model.Link) error {
	if link.Role == "" {
		link.Role = "student"
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO line_links (line_user_id, student_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (line_user_id) DO UPDATE SET
			student_id = EXCLUDED.student_id,
			role = EXCLUDED.role,
			updated_at = NOW()
	`, link.ChatUserID, link.StudentID, link.Role)
	return store.Wrap("upsert link", err)
}

// GetLink returns the link for a chat user, or nil.
func (r *Repository) GetLink(ctx context.Context, chatUserID string) (*model.Link, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `
		SELECT line_user_id, student_id::text, role, created_at, updated_at
		FROM line_links WHERE line_user_id = $1
	`, chatUserID)
	var l model.Link
	if err := row.Scan(&l.ChatUserID, &l.StudentID, &l.Role, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, store.Wrap("get link", err)
	}
	return &l, nil
}
