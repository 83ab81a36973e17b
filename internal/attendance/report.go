package attendance

import (
	"fmt"
	"strings"
	"time"

	"attendbot/internal/clock"
	"attendbot/internal/model"
)

var bucketHeadings = [bucketCount]string{
	BucketPresent:         "✅ มาเรียน",
	BucketLateReported:    "⏰ มาสาย (แจ้งแล้ว)",
	BucketLateNotReported: "⚠️ มาสาย (ไม่ได้แจ้ง)",
	BucketLeave:           "📝 ลา",
	BucketAbsent:          "❌ ขาด",
}

// Label is the Thai heading of the bucket.
func (b Bucket) Label() string {
	if b < 0 || b >= bucketCount {
		return "?"
	}
	return bucketHeadings[b]
}

// Format renders the report for the group chat; times are shown in loc.
func (r DailyReport) Format(loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "สรุปการมาเรียน %s", clock.ThaiDateString(r.Date))
	if r.ClassName != "" {
		fmt.Fprintf(&sb, " ห้อง %s", r.ClassName)
	}
	fmt.Fprintf(&sb, "\nนักเรียนทั้งหมด %d คน\n", r.Total())

	for _, b := range Buckets {
		entries := r.Bucket(b)
		fmt.Fprintf(&sb, "\n%s (%d)\n", b.Label(), len(entries))
		if len(entries) == 0 {
			sb.WriteString("  -\n")
			continue
		}
		for _, e := range entries {
			sb.WriteString("  " + e.line(loc) + "\n")
		}
	}

	if len(r.Unregistered) > 0 {
		fmt.Fprintf(&sb, "\n📨 แจ้งโดยผู้ที่ยังไม่ลงทะเบียน (%d)\n", len(r.Unregistered))
		for _, lr := range r.Unregistered {
			kind := "ลา"
			if lr.Type == model.LeaveTypeLate {
				kind = "สาย"
			}
			reason := "-"
			if lr.Reason != nil {
				reason = strings.ReplaceAll(*lr.Reason, "\n", " ")
			}
			fmt.Fprintf(&sb, "  [%s] %s\n", kind, reason)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (e Entry) line(loc *time.Location) string {
	line := e.Student.Code + " " + e.Student.FullName
	switch e.Bucket {
	case BucketPresent, BucketLateNotReported:
		line += " " + arrival(e.Arrival, loc)
	case BucketLateReported:
		if e.Arrival == nil {
			line += " (ยังไม่มาถึง)"
		} else {
			line += " " + arrival(e.Arrival, loc)
		}
	}
	return line
}

func arrival(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	if loc != nil {
		return clock.ThaiTime(t.In(loc))
	}
	return clock.ThaiTime(*t)
}

// FormatDay renders one student's day for a "check today" reply.
func FormatDay(d DayStatus, loc *time.Location) string {
	msg := fmt.Sprintf("สถานะวันนี้ (%s)\n%s %s\n%s",
		clock.ThaiDateString(d.Date), d.Entry.Student.Code, d.Entry.Student.FullName, d.Entry.Bucket.Label())
	if d.Entry.Arrival != nil {
		msg += " เวลา " + arrival(d.Entry.Arrival, loc)
	} else if d.Entry.Bucket == BucketLateReported {
		msg += " (ยังไม่มาถึง)"
	}
	if d.Entry.Request != nil && d.Entry.Request.Reason != nil {
		msg += "\nเหตุผล: " + *d.Entry.Request.Reason
	}
	return msg
}

// FormatHistory renders a student's last days, newest first.
func FormatHistory(days []DayStatus, loc *time.Location) string {
	if len(days) == 0 {
		return "ไม่มีข้อมูล"
	}
	st := days[0].Entry.Student
	var sb strings.Builder
	fmt.Fprintf(&sb, "ประวัติ %d วันล่าสุด\n%s %s\n", len(days), st.Code, st.FullName)
	for _, d := range days {
		fmt.Fprintf(&sb, "\n%s: %s", clock.ThaiDateString(d.Date), d.Entry.Bucket.Label())
		if d.Entry.Arrival != nil {
			sb.WriteString(" " + arrival(d.Entry.Arrival, loc))
		}
	}
	return sb.String()
}
