package postgres

import (
	"context"
	"time"

	"attendbot/internal/model"
	"attendbot/internal/store"
)

// InsertLog appends a scan log.
func (r *Repository) InsertLog(ctx context.Context, lg model.AttendanceLog) (model.AttendanceLog, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_logs (student_id, scanned_at, status, room)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, lg.StudentID, lg.ScannedAt, lg.Status, lg.Room)
	if err := row.Scan(&lg.ID); err != nil {
		return model.AttendanceLog{}, store.Wrap("insert attendance log", err)
	}
	return lg, nil
}

// LogsBetween returns logs scanned within [start, end), oldest first.
func (r *Repository) LogsBetween(ctx context.Context, start, end time.Time) ([]model.AttendanceLog, error) {
	return r.listLogs(ctx, "list attendance logs", `
		SELECT id, student_id::text, scanned_at, status, room
		FROM attendance_logs
		WHERE scanned_at >= $1 AND scanned_at < $2
		ORDER BY scanned_at ASC, id ASC
	`, start, end)
}

// StudentLogsBetween is LogsBetween restricted to one student.
func (r *Repository) StudentLogsBetween(ctx context.Context, studentID string, start, end time.Time) ([]model.AttendanceLog, error) {
	return r.listLogs(ctx, "list student attendance logs", `
		SELECT id, student_id::text, scanned_at, status, room
		FROM attendance_logs
		WHERE student_id = $1 AND scanned_at >= $2 AND scanned_at < $3
		ORDER BY scanned_at ASC, id ASC
	`, studentID, start, end)
}

func (r *Repository) listLogs(ctx context.Context, op, query string, args ...any) ([]model.AttendanceLog, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Wrap(op, err)
	}
	defer rows.Close()
	var res []model.AttendanceLog
	for rows.Next() {
		var lg model.AttendanceLog
		if err := rows.Scan(&lg.ID, &lg.StudentID, &lg.ScannedAt, &lg.Status, &lg.Room); err != nil {
			return nil, store.Wrap(op, err)
		}
		res = append(res, lg)
	}
	return res, store.Wrap(op, rows.Err())
}
