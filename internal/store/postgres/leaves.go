package postgres

import (
	"context"
	"database/sql"
	"errors"

	"attendbot/internal/model"
	"attendbot/internal/store"
)

const leaveColumns = `id, student_id::text, to_char(leave_date, 'YYYY-MM-DD'), type, reason, leave_at, created_at`

func scanLeave(row interface{ Scan(...any) error }) (model.LeaveRequest, error) {
	var (
		lr        model.LeaveRequest
		studentID sql.NullString
		reason    sql.NullString
	)
	if err := row.Scan(&lr.ID, &studentID, &lr.LeaveDate, &lr.Type, &reason, &lr.LeaveAt, &lr.CreatedAt); err != nil {
		return model.LeaveRequest{}, err
	}
	lr.StudentID = stringPtr(studentID)
	lr.Reason = stringPtr(reason)
	return lr, nil
}

// InsertLeave always inserts a new leave request.
func (r *Repository) InsertLeave(ctx context.Context, lr model.LeaveRequest) (model.LeaveRequest, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO leave_requests (student_id, leave_date, type, reason, leave_at)
		VALUES ($1, $2::date, $3, $4, $5)
		RETURNING id, created_at
	`, nullString(lr.StudentID), lr.LeaveDate, lr.Type, nullString(lr.Reason), lr.LeaveAt)
	if err := row.Scan(&lr.ID, &lr.CreatedAt); err != nil {
		return model.LeaveRequest{}, store.Wrap("insert leave request", err)
	}
	return lr, nil
}

// LatestLeave returns the most recently created request matching the key, or nil.
func (r *Repository) LatestLeave(ctx context.Context, studentID, date string, typ model.LeaveType) (*model.LeaveRequest, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `
		SELECT `+leaveColumns+`
		FROM leave_requests
		WHERE student_id = $1 AND leave_date = $2::date AND type = $3
		ORDER BY id DESC
		LIMIT 1
	`, studentID, date, typ)
	lr, err := scanLeave(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, store.Wrap("latest leave request", err)
	}
	return &lr, nil
}

// UpdateLeaveReason replaces the reason of one request.
func (r *Repository) UpdateLeaveReason(ctx context.Context, id int64, reason string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE leave_requests SET reason = $2 WHERE id = $1`, id, reason)
	return store.Wrap("update leave reason", err)
}

// LeavesBetween returns requests dated within [from, to], oldest first.
func (r *Repository) LeavesBetween(ctx context.Context, from, to string) ([]model.LeaveRequest, error) {
	return r.listLeaves(ctx, "list leave requests", `
		SELECT `+leaveColumns+`
		FROM leave_requests
		WHERE leave_date BETWEEN $1::date AND $2::date
		ORDER BY id ASC
	`, from, to)
}

// StudentLeavesBetween is LeavesBetween restricted to one student.
func (r *Repository) StudentLeavesBetween(ctx context.Context, studentID, from, to string) ([]model.LeaveRequest, error) {
	return r.listLeaves(ctx, "list student leave requests", `
		SELECT `+leaveColumns+`
		FROM leave_requests
		WHERE student_id = $1 AND leave_date BETWEEN $2::date AND $3::date
		ORDER BY id ASC
	`, studentID, from, to)
}

func (r *Repository) listLeaves(ctx context.Context, op, query string, args ...any) ([]model.LeaveRequest, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Wrap(op, err)
	}
	defer rows.Close()
	var res []model.LeaveRequest
	for rows.Next() {
		lr, err := scanLeave(rows)
		if err != nil {
			return nil, store.Wrap(op, err)
		}
		res = append(res, lr)
	}
	return res, store.Wrap(op, rows.Err())
}
