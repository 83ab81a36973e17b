package form

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"attendbot/internal/attendance"
	"attendbot/internal/clock"
	"attendbot/internal/identity"
	"attendbot/internal/model"
	"attendbot/internal/notify/notifytest"
	"attendbot/internal/store"
	"attendbot/internal/store/memory"
)

var bkk = time.FixedZone("ICT", 7*3600)

type fixture struct {
	mem     *memory.Store
	linker  *identity.Linker
	machine *Machine
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mem := memory.New()
	clk := clock.Clock{Loc: bkk, Now: func() time.Time { return time.Date(2026, 10, 18, 8, 15, 0, 0, bkk) }}
	linker := identity.NewLinker(mem, "M.4/1", zap.NewNop())
	rec := attendance.NewRecorder(mem, &notifytest.Recorder{}, "", clk, zap.NewNop())
	return fixture{mem: mem, linker: linker, machine: New(mem, linker, rec, clk, zap.NewNop())}
}

func TestMachine_SomchaiLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	prompt, err := f.machine.Start(ctx, "U1", model.LeaveTypeLeave)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(prompt, "แบบฟอร์มลาเรียน") || strings.Contains(prompt, "ระบบรู้ว่าคุณคือ") {
		t.Errorf("prompt = %q", prompt)
	}

	reply, handled, err := f.machine.Advance(ctx, "U1", "สมชาย ใจดี")
	if err != nil || !handled || reply != reasonPrompt {
		t.Fatalf("name step = %q %v %v", reply, handled, err)
	}
	st, _ := f.mem.GetForm(ctx, "U1")
	if st == nil || st.Step != model.StepWaitingReason || *st.TempName != "สมชาย ใจดี" {
		t.Fatalf("state after name = %+v", st)
	}

	reply, handled, err = f.machine.Advance(ctx, "U1", "ป่วยเป็นไข้")
	if err != nil || !handled {
		t.Fatalf("reason step = %v %v", handled, err)
	}
	for _, want := range []string{"บันทึกลาเรียนเรียบร้อยแล้ว ✅", "ชื่อ: สมชาย ใจดี", "สาเหตุ: ป่วยเป็นไข้", "วันที่: 18 ต.ค. 2569 เวลา: 08:15"} {
		if !strings.Contains(reply, want) {
			t.Errorf("confirmation missing %q:\n%s", want, reply)
		}
	}

	rows := f.mem.Leaves()
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	lr := rows[0]
	if lr.StudentID != nil || lr.LeaveDate != "2026-10-18" || lr.Type != model.LeaveTypeLeave {
		t.Errorf("request = %+v", lr)
	}
	if *lr.Reason != "ชื่อ: สมชาย ใจดี\nสาเหตุ: ป่วยเป็นไข้" {
		t.Errorf("reason = %q", *lr.Reason)
	}
	if st, _ := f.mem.GetForm(ctx, "U1"); st != nil {
		t.Errorf("state not cleared: %+v", st)
	}
}

func TestMachine_LinkedUserGetsStudentID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu := f.mem.AddStudent(model.Student{Code: "15", FullName: "Jane Doe", ClassName: "M.4/1"})
	if _, err := f.linker.Register(ctx, "U1", "15"); err != nil {
		t.Fatal(err)
	}

	prompt, _ := f.machine.Start(ctx, "U1", model.LeaveTypeLate)
	if !strings.Contains(prompt, "ระบบรู้ว่าคุณคือ 15 Jane Doe") {
		t.Errorf("prompt = %q", prompt)
	}
	_, _, _ = f.machine.Advance(ctx, "U1", "Jane")
	reply, _, err := f.machine.Advance(ctx, "U1", "traffic")
	if err != nil || !strings.HasPrefix(reply, "บันทึกแจ้งเข้าสายเรียบร้อยแล้ว") {
		t.Fatalf("reply = %q, %v", reply, err)
	}
	rows := f.mem.Leaves()
	if len(rows) != 1 || rows[0].StudentID == nil || *rows[0].StudentID != stu.ID || rows[0].Type != model.LeaveTypeLate {
		t.Errorf("rows = %+v", rows)
	}
}

func TestMachine_NoActiveForm(t *testing.T) {
	f := newFixture(t)
	reply, handled, err := f.machine.Advance(context.Background(), "U1", "hello")
	if reply != "" || handled || err != nil {
		t.Errorf("Advance = %q %v %v", reply, handled, err)
	}
}

func TestMachine_RestartOverwrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.machine.Start(ctx, "U1", model.LeaveTypeLeave)
	_, _, _ = f.machine.Advance(ctx, "U1", "Somchai")
	_, _ = f.machine.Start(ctx, "U1", model.LeaveTypeLate)

	st, _ := f.mem.GetForm(ctx, "U1")
	if st.Step != model.StepWaitingName || st.Type != model.LeaveTypeLate || st.TempName != nil {
		t.Errorf("state = %+v", st)
	}
}

func TestMachine_CorruptStepResets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.mem.PutForm(ctx, model.FormState{ChatUserID: "U1", Step: "waiting_mood", Type: model.LeaveTypeLeave})

	reply, handled, err := f.machine.Advance(ctx, "U1", "anything")
	if err != nil || !handled || reply != recoveryReply {
		t.Fatalf("Advance = %q %v %v", reply, handled, err)
	}
	if st, _ := f.mem.GetForm(ctx, "U1"); st != nil {
		t.Error("corrupt state kept")
	}
	if len(f.mem.Leaves()) != 0 {
		t.Error("corrupt state must not record anything")
	}
}

type failingRecorder struct{}

func (failingRecorder) RecordLeaveOrLate(context.Context, *string, string, model.LeaveType, *string) (int64, error) {
	return 0, store.Wrap("insert leave request", context.DeadlineExceeded)
}

func TestMachine_StorageFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := New(f.mem, f.linker, failingRecorder{}, clock.New(bkk), zap.NewNop())

	_, _ = m.Start(ctx, "U1", model.LeaveTypeLeave)
	_, _, _ = m.Advance(ctx, "U1", "Somchai")
	_, handled, err := m.Advance(ctx, "U1", "fever")
	if !handled || !errors.Is(err, store.ErrStorage) {
		t.Fatalf("Advance = %v, %v; want ErrStorage", handled, err)
	}
	st, _ := f.mem.GetForm(ctx, "U1")
	if st == nil || st.Step != model.StepWaitingReason {
		t.Errorf("state should be kept for retry, got %+v", st)
	}
}

// staleStore simulates a concurrent writer between read and update.
type staleStore struct {
	*memory.Store
}

func (s staleStore) GetForm(ctx context.Context, id string) (*model.FormState, error) {
	st, err := s.Store.GetForm(ctx, id)
	if st != nil {
		_, _ = s.Store.PutForm(ctx, *st)
	}
	return st, err
}

func TestMachine_LostRaceIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := New(staleStore{f.mem}, f.linker, failingRecorder{}, clock.New(bkk), zap.NewNop())

	_, _ = m.Start(ctx, "U1", model.LeaveTypeLeave)
	_, _, err := m.Advance(ctx, "U1", "Somchai")
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestMachine_EmptyTextRepeatsPrompt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.machine.Start(ctx, "U1", model.LeaveTypeLeave)

	reply, handled, err := f.machine.Advance(ctx, "U1", "   ")
	if err != nil || !handled || reply != namePrompt(model.LeaveTypeLeave) {
		t.Errorf("Advance = %q %v %v", reply, handled, err)
	}
	st, _ := f.mem.GetForm(ctx, "U1")
	if st.Step != model.StepWaitingName {
		t.Errorf("step = %s", st.Step)
	}
}
