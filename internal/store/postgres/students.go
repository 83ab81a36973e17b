package postgres

import (
	"context"
	"database/sql"
	"errors"

	"attendbot/internal/model"
	"attendbot/internal/store"
)

const studentColumns = `id::text, student_code, full_name, class_name`

// FindStudentByCode returns the roster row for code in className, or nil.
func (r *Repository) FindStudentByCode(ctx context.Context, className, code string) (*model.Student, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE class_name = $1 AND student_code = $2
	`, className, code)
	var st model.Student
	if err := row.Scan(&st.ID, &st.Code, &st.FullName, &st.ClassName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, store.Wrap("find student", err)
	}
	return &st, nil
}

// GetStudent returns a student by id, or nil.
func (r *Repository) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	var st model.Student
	if err := row.Scan(&st.ID, &st.Code, &st.FullName, &st.ClassName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, store.Wrap("get student", err)
	}
	return &st, nil
}

// ListRoster returns the class ordered by student code.
func (r *Repository) ListRoster(ctx context.Context, className string) ([]model.Student, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE class_name = $1
		ORDER BY student_code ASC
	`, className)
	if err != nil {
		return nil, store.Wrap("list roster", err)
	}
	defer rows.Close()
	var res []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.Code, &st.FullName, &st.ClassName); err != nil {
			return nil, store.Wrap("scan roster", err)
		}
		res = append(res, st)
	}
	return res, store.Wrap("list roster", rows.Err())
}
