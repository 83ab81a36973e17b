package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"attendbot/internal/attendance"
	"attendbot/internal/clock"
	"attendbot/internal/command"
	"attendbot/internal/identity"
	"attendbot/internal/keylock"
	"attendbot/internal/metrics"
	"attendbot/internal/model"
	"attendbot/internal/notify"
	"attendbot/internal/store"
)

// FormMachine is the leave/late conversation.
type FormMachine interface {
	Start(ctx context.Context, chatUserID string, typ model.LeaveType) (string, error)
	Advance(ctx context.Context, chatUserID, text string) (reply string, handled bool, err error)
}

// Linker registers and resolves chat users.
type Linker interface {
	Register(ctx context.Context, chatUserID, studentCode string) (model.Student, error)
	Resolve(ctx context.Context, chatUserID string) (model.Student, error)
}

// ReasonRecorder attaches reasons to today's requests.
type ReasonRecorder interface {
	AttachReason(ctx context.Context, studentID, date string, typ model.LeaveType, reason string) (int64, attendance.AttachResult, error)
}

// Reports answers per-student status queries.
type Reports interface {
	Clock() clock.Clock
	StudentToday(ctx context.Context, st model.Student) (attendance.DayStatus, error)
	StudentHistory(ctx context.Context, st model.Student, n int) ([]attendance.DayStatus, error)
}

// Config wires a Router.
type Config struct {
	Forms    FormMachine
	Linker   Linker
	Recorder ReasonRecorder
	Reports  Reports
	Notifier notify.Notifier
	Locks    keylock.Locker
	// EventTimeout bounds the handling of one event; zero means no bound.
	EventTimeout time.Duration
	Logger       *zap.Logger
}

// Router dispatches inbound events.
type Router struct {
	forms    FormMachine
	linker   Linker
	recorder ReasonRecorder
	reports  Reports
	notifier notify.Notifier
	locks    keylock.Locker
	timeout  time.Duration
	logger   *zap.Logger
}

func NewRouter(cfg Config) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locks := cfg.Locks
	if locks == nil {
		locks = keylock.NewMemory(0)
	}
	return &Router{
		forms:    cfg.Forms,
		linker:   cfg.Linker,
		recorder: cfg.Recorder,
		reports:  cfg.Reports,
		notifier: cfg.Notifier,
		locks:    locks,
		timeout:  cfg.EventTimeout,
		logger:   logger,
	}
}

// HandleBatch handles the events of different users concurrently and the
// events of one user in delivery order, then returns once all are done. Each
// event is isolated: its own timeout, its own panic recovery. The returned
// error joins the per-event failures for logging.
func (r *Router) HandleBatch(ctx context.Context, events []Event) error {
	errs := make([]error, len(events))
	var g errgroup.Group
	for _, idx := range groupByUser(events) {
		idx := idx
		g.Go(func() error {
			for _, i := range idx {
				errs[i] = r.safeHandle(ctx, events[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// groupByUser returns event indexes grouped by chat user, in order of each
// user's first event. Indexes inside a group keep delivery order.
func groupByUser(events []Event) [][]int {
	pos := make(map[string]int)
	var groups [][]int
	for i, ev := range events {
		j, ok := pos[ev.ChatUserID]
		if !ok {
			j = len(groups)
			pos[ev.ChatUserID] = j
			groups = append(groups, nil)
		}
		groups[j] = append(groups[j], i)
	}
	return groups
}

func (r *Router) safeHandle(ctx context.Context, ev Event) (err error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			metrics.EventsHandled.WithLabelValues(string(ev.Kind), "panic").Inc()
			r.logger.Error("panic while handling event",
				zap.Any("panic", p),
				zap.String("line_user_id", ev.ChatUserID),
				zap.ByteString("stack", debug.Stack()),
			)
			err = fmt.Errorf("event from %s panicked: %v", ev.ChatUserID, p)
		}
	}()
	return r.Handle(ctx, ev)
}

// Handle processes one event and sends its reply, if any. Errors are mapped
// to a user-facing reply where one makes sense and are also returned.
func (r *Router) Handle(ctx context.Context, ev Event) error {
	if ev.ChatUserID == "" || !(ev.IsText() || ev.Kind == KindPostback) {
		metrics.EventsHandled.WithLabelValues(string(ev.Kind), "ignored").Inc()
		return nil
	}

	unlock, err := r.locks.Lock(ctx, ev.ChatUserID)
	if err != nil {
		r.finish(ctx, ev, "", err)
		return err
	}
	defer unlock()

	var reply string
	if ev.Kind == KindPostback {
		reply, err = r.handlePostback(ctx, ev)
	} else {
		reply, err = r.handleText(ctx, ev)
	}
	r.finish(ctx, ev, reply, err)
	return err
}

func (r *Router) handlePostback(ctx context.Context, ev Event) (string, error) {
	switch cmd := command.ParsePostback(ev.PostbackData).(type) {
	case command.StartForm:
		return r.forms.Start(ctx, ev.ChatUserID, cmd.Type)
	default:
		return "", nil
	}
}

func (r *Router) handleText(ctx context.Context, ev Event) (string, error) {
	reply, handled, err := r.forms.Advance(ctx, ev.ChatUserID, ev.Text)
	if err != nil || handled {
		return reply, err
	}

	switch cmd := command.Classify(ev.Text).(type) {
	case command.Register:
		st, err := r.linker.Register(ctx, ev.ChatUserID, cmd.Code)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(msgRegistered, st.Code, st.FullName, st.ClassName), nil

	case command.CheckToday:
		st, err := r.linker.Resolve(ctx, ev.ChatUserID)
		if err != nil {
			return "", err
		}
		day, err := r.reports.StudentToday(ctx, st)
		if err != nil {
			return "", err
		}
		return attendance.FormatDay(day, r.reports.Clock().Location()), nil

	case command.History7:
		st, err := r.linker.Resolve(ctx, ev.ChatUserID)
		if err != nil {
			return "", err
		}
		days, err := r.reports.StudentHistory(ctx, st, 7)
		if err != nil {
			return "", err
		}
		return attendance.FormatHistory(days, r.reports.Clock().Location()), nil

	case command.AttachReason:
		st, err := r.linker.Resolve(ctx, ev.ChatUserID)
		if err != nil {
			return "", err
		}
		_, res, err := r.recorder.AttachReason(ctx, st.ID, r.reports.Clock().Today(), cmd.Type, cmd.Reason)
		if err != nil {
			return "", err
		}
		tmpl := msgReasonCreated
		if res == attendance.ReasonUpdated {
			tmpl = msgReasonUpdated
		}
		return fmt.Sprintf(tmpl, reasonKind(cmd.Type), cmd.Reason), nil

	case command.StartForm:
		return r.forms.Start(ctx, ev.ChatUserID, cmd.Type)

	default:
		return "", nil
	}
}

// finish replies with reply, or with the message mapped from err.
func (r *Router) finish(ctx context.Context, ev Event, reply string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		r.logger.Warn("event failed",
			zap.String("kind", string(ev.Kind)),
			zap.String("line_user_id", ev.ChatUserID),
			zap.Error(err),
		)
		reply = replyForError(err)
	} else if reply == "" {
		outcome = "ignored"
	}
	metrics.EventsHandled.WithLabelValues(string(ev.Kind), outcome).Inc()

	if reply == "" || ev.ReplyToken == "" {
		return
	}
	// the event ctx may have expired; the reply still gets its own bound
	if sendErr := r.notifier.Reply(context.WithoutCancel(ctx), ev.ReplyToken, notify.Text{Body: reply}); sendErr != nil {
		metrics.NotifyFailures.WithLabelValues("reply").Inc()
		r.logger.Warn("reply not delivered",
			zap.String("line_user_id", ev.ChatUserID),
			zap.Error(sendErr),
		)
	}
}

func replyForError(err error) string {
	switch {
	case errors.Is(err, notify.ErrNotify):
		return ""
	case errors.Is(err, identity.ErrNotFound):
		return msgNotFound
	case errors.Is(err, identity.ErrUnlinked):
		return msgUnlinked
	case errors.Is(err, store.ErrConflict), errors.Is(err, keylock.ErrTimeout):
		return msgBusy
	case errors.Is(err, store.ErrStorage), errors.Is(err, context.DeadlineExceeded):
		return msgStorage
	default:
		return msgInternalFailed
	}
}

func reasonKind(typ model.LeaveType) string {
	if typ == model.LeaveTypeLate {
		return "เข้าสาย"
	}
	return "ลา"
}
