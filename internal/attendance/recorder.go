package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"attendbot/internal/clock"
	"attendbot/internal/metrics"
	"attendbot/internal/model"
	"attendbot/internal/notify"
)

// ErrUnknownStudent is returned when a scan names a student missing from the roster.
var ErrUnknownStudent = errors.New("unknown student")

// AttachResult tells whether AttachReason amended a row or created one.
type AttachResult int

const (
	ReasonUpdated AttachResult = iota + 1
	ReasonCreated
)

// Recorder writes leave requests and scan logs.
type Recorder struct {
	repo     Repository
	notifier notify.Notifier
	groupID  string
	clock    clock.Clock
	logger   *zap.Logger
}

// NewRecorder creates a recorder. Scan notices are pushed to groupID when it
// is non-empty.
func NewRecorder(repo Repository, notifier notify.Notifier, groupID string, clk clock.Clock, logger *zap.Logger) *Recorder {
	return &Recorder{repo: repo, notifier: notifier, groupID: groupID, clock: clk, logger: logger}
}

// RecordLeaveOrLate inserts a new request. It never merges with an existing one.
func (r *Recorder) RecordLeaveOrLate(ctx context.Context, studentID *string, date string, typ model.LeaveType, reason *string) (int64, error) {
	if !typ.Valid() {
		return 0, fmt.Errorf("invalid leave type %q", typ)
	}
	lr, err := r.repo.InsertLeave(ctx, model.LeaveRequest{
		StudentID: studentID,
		LeaveDate: date,
		Type:      typ,
		Reason:    reason,
		LeaveAt:   r.clock.Current(),
	})
	if err != nil {
		return 0, err
	}
	metrics.LeaveRequests.WithLabelValues(string(typ), "form").Inc()
	return lr.ID, nil
}

// AttachReason sets the reason on the latest request for the key, creating
// the request when none exists.
func (r *Recorder) AttachReason(ctx context.Context, studentID, date string, typ model.LeaveType, reason string) (int64, AttachResult, error) {
	if !typ.Valid() {
		return 0, 0, fmt.Errorf("invalid leave type %q", typ)
	}
	latest, err := r.repo.LatestLeave(ctx, studentID, date, typ)
	if err != nil {
		return 0, 0, err
	}
	if latest != nil {
		if err := r.repo.UpdateLeaveReason(ctx, latest.ID, reason); err != nil {
			return 0, 0, err
		}
		return latest.ID, ReasonUpdated, nil
	}

	sid := studentID
	lr, err := r.repo.InsertLeave(ctx, model.LeaveRequest{
		StudentID: &sid,
		LeaveDate: date,
		Type:      typ,
		Reason:    &reason,
		LeaveAt:   r.clock.Current(),
	})
	if err != nil {
		return 0, 0, err
	}
	metrics.LeaveRequests.WithLabelValues(string(typ), "reason").Inc()
	return lr.ID, ReasonCreated, nil
}

// RecordScan appends a scan log and then pushes a notice to the group. A
// failed push is logged; the log stays committed.
func (r *Recorder) RecordScan(ctx context.Context, studentID string, status model.ScanStatus, at time.Time, room string) (int64, error) {
	st, err := r.repo.GetStudent(ctx, studentID)
	if err != nil {
		return 0, err
	}
	if st == nil {
		return 0, ErrUnknownStudent
	}
	if status == "" {
		status = model.ScanPresent
	}
	if at.IsZero() {
		at = r.clock.Current()
	}

	lg, err := r.repo.InsertLog(ctx, model.AttendanceLog{
		StudentID: studentID,
		ScannedAt: at,
		Status:    status,
		Room:      strings.TrimSpace(room),
	})
	if err != nil {
		return 0, err
	}
	metrics.Scans.WithLabelValues(string(status)).Inc()

	if r.groupID != "" {
		if err := r.notifier.Push(ctx, r.groupID, notify.Text{Body: scanNotice(*st, lg, r.clock.Location())}); err != nil {
			metrics.NotifyFailures.WithLabelValues("push").Inc()
			r.logger.Warn("scan notice not delivered",
				zap.Int64("log_id", lg.ID),
				zap.String("student_id", studentID),
				zap.Error(err),
			)
		}
	}
	return lg.ID, nil
}

func scanNotice(st model.Student, lg model.AttendanceLog, loc *time.Location) string {
	at := lg.ScannedAt
	if loc != nil {
		at = at.In(loc)
	}
	verb := "เข้าเรียน"
	if lg.Status == model.ScanLate {
		verb = "เข้าเรียนสาย"
	}
	msg := fmt.Sprintf("📍 %s %s %s เวลา %s", st.Code, st.FullName, verb, clock.ThaiTime(at))
	if lg.Room != "" {
		msg += " ห้อง " + lg.Room
	}
	return msg
}
