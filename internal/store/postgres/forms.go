package postgres

import (
	"context"
	"database/sql"
	"errors"

	"attendbot/internal/model"
	"attendbot/internal/store"
)

// GetForm returns the active form of a chat user, or nil.
func (r *Repository) GetForm(ctx context.Context, chatUserID string) (*model.FormState, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `
		SELECT line_user_id, step, type, temp_name, version, updated_at
		FROM leave_form_states WHERE line_user_id = $1
	`, chatUserID)
	var (
		st   model.FormState
		name sql.NullString
	)
	if err := row.Scan(&st.ChatUserID, &st.Step, &st.Type, &name, &st.Version, &st.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, store.Wrap("get form", err)
	}
	st.TempName = stringPtr(name)
	return &st, nil
}

// PutForm creates the form, overwriting any prior one (last write wins).
func (r *Repository) PutForm(ctx context.Context, st model.FormState) (model.FormState, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO leave_form_states (line_user_id, step, type, temp_name, version)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (line_user_id) DO UPDATE SET
			step = EXCLUDED.step,
			type = EXCLUDED.type,
			temp_name = EXCLUDED.temp_name,
			version = leave_form_states.version + 1,
			updated_at = NOW()
		RETURNING version, updated_at
	`, st.ChatUserID, st.Step, st.Type, nullString(st.TempName))
	if err := row.Scan(&st.Version, &st.UpdatedAt); err != nil {
		return model.FormState{}, store.Wrap("put form", err)
	}
	return st, nil
}

// UpdateForm writes st only if the stored version still equals st.Version.
func (r *Repository) UpdateForm(ctx context.Context, st model.FormState) (model.FormState, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `
		UPDATE leave_form_states
		SET step = $2, type = $3, temp_name = $4, version = version + 1, updated_at = NOW()
		WHERE line_user_id = $1 AND version = $5
		RETURNING version, updated_at
	`, st.ChatUserID, st.Step, st.Type, nullString(st.TempName), st.Version)
	if err := row.Scan(&st.Version, &st.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.FormState{}, store.ErrConflict
		}
		return model.FormState{}, store.Wrap("update form", err)
	}
	return st, nil
}

// DeleteForm removes the form of a chat user. Deleting a missing form is a no-op.
func (r *Repository) DeleteForm(ctx context.Context, chatUserID string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM leave_form_states WHERE line_user_id = $1`, chatUserID)
	return store.Wrap("delete form", err)
}
