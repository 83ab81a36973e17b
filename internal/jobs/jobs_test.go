package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"attendbot/internal/attendance"
	"attendbot/internal/clock"
	"attendbot/internal/model"
	"attendbot/internal/notify"
	"attendbot/internal/notify/notifytest"
	"attendbot/internal/store/memory"
)

var bkk = time.FixedZone("ICT", 7*3600)

func TestSendMorningPrompt(t *testing.T) {
	sent := &notifytest.Recorder{}
	r := NewRunner(nil, sent, "G1", zap.NewNop())

	if err := r.SendMorningPrompt(context.Background()); err != nil {
		t.Fatal(err)
	}
	pushes := sent.Pushes("G1")
	if len(pushes) != 1 {
		t.Fatalf("pushes = %d", len(pushes))
	}
	card, ok := pushes[0].Messages[0].(notify.Card)
	if !ok || len(card.Actions) != 2 {
		t.Fatalf("message = %+v", pushes[0].Messages[0])
	}
	if card.Actions[0].Data != "action=leave_today" || card.Actions[1].Data != "action=late_today" {
		t.Errorf("actions = %+v", card.Actions)
	}
}

func TestSendMorningPrompt_Errors(t *testing.T) {
	if err := NewRunner(nil, &notifytest.Recorder{}, "", zap.NewNop()).SendMorningPrompt(context.Background()); !errors.Is(err, ErrNoGroup) {
		t.Errorf("err = %v, want ErrNoGroup", err)
	}
	failing := &notifytest.Recorder{PushErr: errors.New("down")}
	if err := NewRunner(nil, failing, "G1", zap.NewNop()).SendMorningPrompt(context.Background()); !errors.Is(err, notify.ErrNotify) {
		t.Errorf("err = %v, want ErrNotify", err)
	}
}

func TestSendDailySummary(t *testing.T) {
	mem := memory.New()
	jane := mem.AddStudent(model.Student{Code: "01", FullName: "Jane Doe", ClassName: "M.4/1"})
	mem.AddStudent(model.Student{Code: "02", FullName: "Bob Roe", ClassName: "M.4/1"})
	mem.AddStudent(model.Student{Code: "99", FullName: "Other Class", ClassName: "M.5/2"})
	_, _ = mem.InsertLog(context.Background(), model.AttendanceLog{
		StudentID: jane.ID, Status: model.ScanLate, ScannedAt: time.Date(2026, 10, 18, 1, 5, 0, 0, time.UTC),
	})

	clk := clock.Clock{Loc: bkk, Now: func() time.Time { return time.Date(2026, 10, 18, 16, 0, 0, 0, bkk) }}
	sent := &notifytest.Recorder{}
	r := NewRunner(attendance.NewAggregator(mem, "M.4/1", clk), sent, "G1", zap.NewNop())

	if err := r.SendDailySummary(context.Background()); err != nil {
		t.Fatal(err)
	}
	pushes := sent.Pushes("G1")
	if len(pushes) != 1 {
		t.Fatalf("pushes = %d", len(pushes))
	}
	body := pushes[0].Messages[0].(notify.Text).Body
	for _, want := range []string{
		"สรุปการมาเรียน 18 ต.ค. 2569 ห้อง M.4/1",
		"นักเรียนทั้งหมด 2 คน",
		"01 Jane Doe 08:05",
		"❌ ขาด (1)",
		"02 Bob Roe",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("summary missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "Other Class") {
		t.Error("summary includes another class")
	}
}
