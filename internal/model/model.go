package model

import "time"

// Student is a roster row. Rows are provisioned outside the bot.
type Student struct {
	ID        string `json:"id"`
	Code      string `json:"student_code"`
	FullName  string `json:"full_name"`
	ClassName string `json:"class_name"`
}

// Link binds one chat identity to one student.
type Link struct {
	ChatUserID string    `json:"line_user_id"`
	StudentID  string    `json:"student_id"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LeaveType is the kind of report a student files.
type LeaveType string

const (
	LeaveTypeLeave LeaveType = "leave"
	LeaveTypeLate  LeaveType = "late"
)

// Valid reports whether t is a known leave type.
func (t LeaveType) Valid() bool {
	return t == LeaveTypeLeave || t == LeaveTypeLate
}

// Step is the position of a chat user inside the leave/late form.
type Step string

const (
	StepWaitingName   Step = "waiting_name"
	StepWaitingReason Step = "waiting_reason"
)

// FormState is the single active form of a chat user. Version is bumped on
// every write and used for compare-and-swap updates.
type FormState struct {
	ChatUserID string    `json:"line_user_id"`
	Step       Step      `json:"step"`
	Type       LeaveType `json:"type"`
	TempName   *string   `json:"temp_name,omitempty"`
	Version    int64     `json:"version"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LeaveRequest is one filed leave or late report. StudentID is nil when the
// reporter had not registered yet.
type LeaveRequest struct {
	ID        int64     `json:"id"`
	StudentID *string   `json:"student_id,omitempty"`
	LeaveDate string    `json:"leave_date"` // YYYY-MM-DD, local civil day
	Type      LeaveType `json:"type"`
	Reason    *string   `json:"reason,omitempty"`
	LeaveAt   time.Time `json:"leave_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ScanStatus is the status a scanning device attaches to a log.
type ScanStatus string

const (
	ScanPresent ScanStatus = "present"
	ScanLate    ScanStatus = "late"
)

// AttendanceLog is an append-only scan record.
type AttendanceLog struct {
	ID        int64      `json:"id"`
	StudentID string     `json:"student_id"`
	ScannedAt time.Time  `json:"scanned_at"`
	Status    ScanStatus `json:"status"`
	Room      string     `json:"room"`
}
