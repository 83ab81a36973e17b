package attendance

import (
	"context"
	"time"

	"attendbot/internal/model"
)

// Repository is the storage the recorder and aggregator read and write.
type Repository interface {
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	ListRoster(ctx context.Context, className string) ([]model.Student, error)

	InsertLeave(ctx context.Context, lr model.LeaveRequest) (model.LeaveRequest, error)
	LatestLeave(ctx context.Context, studentID, date string, typ model.LeaveType) (*model.LeaveRequest, error)
	UpdateLeaveReason(ctx context.Context, id int64, reason string) error
	LeavesBetween(ctx context.Context, from, to string) ([]model.LeaveRequest, error)
	StudentLeavesBetween(ctx context.Context, studentID, from, to string) ([]model.LeaveRequest, error)

	InsertLog(ctx context.Context, lg model.AttendanceLog) (model.AttendanceLog, error)
	LogsBetween(ctx context.Context, start, end time.Time) ([]model.AttendanceLog, error)
	StudentLogsBetween(ctx context.Context, studentID string, start, end time.Time) ([]model.AttendanceLog, error)
}
