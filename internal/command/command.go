// Package command recognizes the bot's free-text commands and postback
// actions. Matching is exact or prefix based and case sensitive.
package command

import (
	"net/url"
	"strings"

	"attendbot/internal/model"
)

// Command is one of Register, CheckToday, History7, AttachReason, StartForm
// or Unrecognized.
type Command interface {
	command()
}

type (
	// Register links the sender to the roster student with Code.
	Register struct{ Code string }
	// CheckToday asks for the sender's status today.
	CheckToday struct{}
	// History7 asks for the sender's last seven days.
	History7 struct{}
	// AttachReason sets the reason on today's request of Type.
	AttachReason struct {
		Type   model.LeaveType
		Reason string
	}
	// StartForm opens the leave/late form.
	StartForm struct{ Type model.LeaveType }
	// Unrecognized is any other text; the bot does not answer it.
	Unrecognized struct{}
)

func (Register) command()     {}
func (CheckToday) command()   {}
func (History7) command()     {}
func (AttachReason) command() {}
func (StartForm) command()    {}
func (Unrecognized) command() {}

const (
	RegisterPrefix     = "ลงทะเบียน"
	CheckTodayText     = "เช็ควันนี้"
	History7Text       = "ประวัติ 7 วัน"
	LeaveReasonPrefix  = "เหตุผลลา:"
	LateReasonPrefix   = "เหตุผลสาย:"
	StartLeaveText     = "แจ้งลา"
	StartLateText      = "แจ้งเข้าสาย"
	PostbackLeaveToday = "action=leave_today"
	PostbackLateToday  = "action=late_today"
)

// Classify maps a text message to a command. Surrounding whitespace is
// ignored; an empty code or reason is Unrecognized.
func Classify(text string) Command {
	text = strings.TrimSpace(text)
	switch text {
	case CheckTodayText:
		return CheckToday{}
	case History7Text:
		return History7{}
	case StartLeaveText:
		return StartForm{Type: model.LeaveTypeLeave}
	case StartLateText:
		return StartForm{Type: model.LeaveTypeLate}
	}

	if rest, ok := strings.CutPrefix(text, LeaveReasonPrefix); ok {
		return reason(model.LeaveTypeLeave, rest)
	}
	if rest, ok := strings.CutPrefix(text, LateReasonPrefix); ok {
		return reason(model.LeaveTypeLate, rest)
	}
	if rest, ok := strings.CutPrefix(text, RegisterPrefix); ok {
		// "ลงทะเบียน 15"; the keyword must stand alone
		if rest == "" || !isSpace(rest[0]) {
			return Unrecognized{}
		}
		if code := strings.TrimSpace(rest); code != "" && !strings.ContainsAny(code, " \t\n") {
			return Register{Code: code}
		}
	}
	return Unrecognized{}
}

func reason(typ model.LeaveType, rest string) Command {
	r := strings.TrimSpace(rest)
	if r == "" {
		return Unrecognized{}
	}
	return AttachReason{Type: typ, Reason: r}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n'
}

// ParsePostback maps postback data ("action=leave_today") to a command.
func ParsePostback(data string) Command {
	q, err := url.ParseQuery(data)
	if err != nil {
		return Unrecognized{}
	}
	switch q.Get("action") {
	case "leave_today":
		return StartForm{Type: model.LeaveTypeLeave}
	case "late_today":
		return StartForm{Type: model.LeaveTypeLate}
	}
	return Unrecognized{}
}
