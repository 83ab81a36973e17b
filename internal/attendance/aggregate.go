package attendance

import (
	"context"
	"time"

	"attendbot/internal/clock"
	"attendbot/internal/model"
)

// Bucket is one of the five mutually exclusive daily statuses.
type Bucket int

const (
	BucketPresent Bucket = iota
	BucketLateReported
	BucketLateNotReported
	BucketLeave
	BucketAbsent

	bucketCount
)

// Buckets lists every bucket in report order.
var Buckets = [bucketCount]Bucket{BucketPresent, BucketLateReported, BucketLateNotReported, BucketLeave, BucketAbsent}

func (b Bucket) String() string {
	switch b {
	case BucketPresent:
		return "present"
	case BucketLateReported:
		return "late_reported"
	case BucketLateNotReported:
		return "late_not_reported"
	case BucketLeave:
		return "leave"
	case BucketAbsent:
		return "absent"
	}
	return "unknown"
}

// Entry is one student's classification for a day. Arrival is the earliest
// scan, nil when the student has not scanned.
type Entry struct {
	Student model.Student
	Bucket  Bucket
	Arrival *time.Time
	Request *model.LeaveRequest
}

// DailyReport is the class classified for one civil date. Each bucket keeps
// roster order. Unregistered holds the day's requests filed before the
// reporter registered.
type DailyReport struct {
	Date         string
	ClassName    string
	Buckets      [bucketCount][]Entry
	Unregistered []model.LeaveRequest
}

// Bucket returns the entries in b.
func (r DailyReport) Bucket(b Bucket) []Entry {
	if b < 0 || b >= bucketCount {
		return nil
	}
	return r.Buckets[b]
}

// Total counts every classified student.
func (r DailyReport) Total() int {
	n := 0
	for _, entries := range r.Buckets {
		n += len(entries)
	}
	return n
}

// Classify places one student in a bucket from that student's requests and
// scans for a single day. Precedence: a leave request wins over everything;
// otherwise the earliest scan is reconciled with any late request.
func Classify(leaves []model.LeaveRequest, logs []model.AttendanceLog) Entry {
	var leaveReq, lateReq *model.LeaveRequest
	for i := range leaves {
		switch leaves[i].Type {
		case model.LeaveTypeLeave:
			leaveReq = &leaves[i]
		case model.LeaveTypeLate:
			lateReq = &leaves[i]
		}
	}
	if leaveReq != nil {
		return Entry{Bucket: BucketLeave, Request: leaveReq}
	}

	var first *model.AttendanceLog
	for i := range logs {
		if first == nil || logs[i].ScannedAt.Before(first.ScannedAt) {
			first = &logs[i]
		}
	}

	if first == nil {
		if lateReq != nil {
			return Entry{Bucket: BucketLateReported, Request: lateReq}
		}
		return Entry{Bucket: BucketAbsent}
	}

	arrival := first.ScannedAt
	if first.Status == model.ScanLate {
		if lateReq != nil {
			return Entry{Bucket: BucketLateReported, Arrival: &arrival, Request: lateReq}
		}
		return Entry{Bucket: BucketLateNotReported, Arrival: &arrival}
	}
	return Entry{Bucket: BucketPresent, Arrival: &arrival, Request: lateReq}
}

// BuildDaily classifies every roster student. leaves must already be limited
// to date and logs to its civil-day window.
func BuildDaily(date, className string, roster []model.Student, leaves []model.LeaveRequest, logs []model.AttendanceLog) DailyReport {
	byStudentLeaves := make(map[string][]model.LeaveRequest)
	report := DailyReport{Date: date, ClassName: className}
	for _, lr := range leaves {
		if lr.LeaveDate != date {
			continue
		}
		if lr.StudentID == nil {
			report.Unregistered = append(report.Unregistered, lr)
			continue
		}
		byStudentLeaves[*lr.StudentID] = append(byStudentLeaves[*lr.StudentID], lr)
	}
	byStudentLogs := make(map[string][]model.AttendanceLog)
	for _, lg := range logs {
		byStudentLogs[lg.StudentID] = append(byStudentLogs[lg.StudentID], lg)
	}

	for _, st := range roster {
		e := Classify(byStudentLeaves[st.ID], byStudentLogs[st.ID])
		e.Student = st
		report.Buckets[e.Bucket] = append(report.Buckets[e.Bucket], e)
	}
	return report
}

// Aggregator loads a day's data and classifies the class.
type Aggregator struct {
	repo      Repository
	className string
	clock     clock.Clock
}

// NewAggregator creates an aggregator for className.
func NewAggregator(repo Repository, className string, clk clock.Clock) *Aggregator {
	return &Aggregator{repo: repo, className: className, clock: clk}
}

// Clock exposes the aggregator's civil-day clock.
func (a *Aggregator) Clock() clock.Clock { return a.clock }

// Daily builds the report for a civil date.
func (a *Aggregator) Daily(ctx context.Context, date string) (DailyReport, error) {
	start, end, err := a.clock.Window(date)
	if err != nil {
		return DailyReport{}, err
	}
	roster, err := a.repo.ListRoster(ctx, a.className)
	if err != nil {
		return DailyReport{}, err
	}
	leaves, err := a.repo.LeavesBetween(ctx, date, date)
	if err != nil {
		return DailyReport{}, err
	}
	logs, err := a.repo.LogsBetween(ctx, start, end)
	if err != nil {
		return DailyReport{}, err
	}
	return BuildDaily(date, a.className, roster, leaves, logs), nil
}

// Today builds the report for the current civil date.
func (a *Aggregator) Today(ctx context.Context) (DailyReport, error) {
	return a.Daily(ctx, a.clock.Today())
}

// DayStatus is one student's classification on one date.
type DayStatus struct {
	Date  string
	Entry Entry
}

// StudentHistory classifies one student for the last n civil days, newest first.
func (a *Aggregator) StudentHistory(ctx context.Context, st model.Student, n int) ([]DayStatus, error) {
	if n <= 0 {
		return nil, nil
	}
	days := a.clock.DaysBack(n)
	oldest, newest := days[len(days)-1], days[0]
	start, _, err := a.clock.Window(oldest)
	if err != nil {
		return nil, err
	}
	_, end, err := a.clock.Window(newest)
	if err != nil {
		return nil, err
	}

	leaves, err := a.repo.StudentLeavesBetween(ctx, st.ID, oldest, newest)
	if err != nil {
		return nil, err
	}
	logs, err := a.repo.StudentLogsBetween(ctx, st.ID, start, end)
	if err != nil {
		return nil, err
	}

	leavesByDay := make(map[string][]model.LeaveRequest)
	for _, lr := range leaves {
		leavesByDay[lr.LeaveDate] = append(leavesByDay[lr.LeaveDate], lr)
	}
	logsByDay := make(map[string][]model.AttendanceLog)
	for _, lg := range logs {
		day := lg.ScannedAt.In(a.clock.Location()).Format(clock.DateLayout)
		logsByDay[day] = append(logsByDay[day], lg)
	}

	out := make([]DayStatus, 0, len(days))
	for _, day := range days {
		e := Classify(leavesByDay[day], logsByDay[day])
		e.Student = st
		out = append(out, DayStatus{Date: day, Entry: e})
	}
	return out, nil
}

// StudentToday classifies one student for the current civil date.
func (a *Aggregator) StudentToday(ctx context.Context, st model.Student) (DayStatus, error) {
	days, err := a.StudentHistory(ctx, st, 1)
	if err != nil {
		return DayStatus{}, err
	}
	return days[0], nil
}
