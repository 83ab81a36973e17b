// Package form runs the multi-step leave/late report conversation.
//
// A chat user moves through waiting_name and waiting_reason; the reason
// commits a leave request and clears the state. Callers must serialize calls
// for one chat user; state writes additionally use version compare-and-swap.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"attendbot/internal/clock"
	"attendbot/internal/identity"
	"attendbot/internal/metrics"
	"attendbot/internal/model"
)

// ErrCorruptState is logged when a stored state has an unknown step. The
// state is dropped and the user is asked to start over.
var ErrCorruptState = errors.New("corrupt form state")

// StateStore persists one form state per chat user.
type StateStore interface {
	GetForm(ctx context.Context, chatUserID string) (*model.FormState, error)
	PutForm(ctx context.Context, st model.FormState) (model.FormState, error)
	UpdateForm(ctx context.Context, st model.FormState) (model.FormState, error)
	DeleteForm(ctx context.Context, chatUserID string) error
}

// Resolver maps a chat user to a roster student.
type Resolver interface {
	Resolve(ctx context.Context, chatUserID string) (model.Student, error)
}

// LeaveRecorder stores the committed report.
type LeaveRecorder interface {
	RecordLeaveOrLate(ctx context.Context, studentID *string, date string, typ model.LeaveType, reason *string) (int64, error)
}

// Machine drives the form.
type Machine struct {
	states   StateStore
	ids      Resolver
	recorder LeaveRecorder
	clock    clock.Clock
	logger   *zap.Logger
}

func New(states StateStore, ids Resolver, recorder LeaveRecorder, clk clock.Clock, logger *zap.Logger) *Machine {
	return &Machine{states: states, ids: ids, recorder: recorder, clock: clk, logger: logger}
}

// Start opens a new form of typ for the chat user, replacing any form in
// progress, and returns the name prompt.
func (m *Machine) Start(ctx context.Context, chatUserID string, typ model.LeaveType) (string, error) {
	if !typ.Valid() {
		return "", fmt.Errorf("start form: invalid type %q", typ)
	}
	if _, err := m.states.PutForm(ctx, model.FormState{
		ChatUserID: chatUserID,
		Step:       model.StepWaitingName,
		Type:       typ,
	}); err != nil {
		return "", err
	}
	metrics.FormTransitions.WithLabelValues(string(model.StepWaitingName)).Inc()

	prompt := namePrompt(typ)
	st, err := m.ids.Resolve(ctx, chatUserID)
	switch {
	case err == nil:
		prompt += fmt.Sprintf(knownStudentHint, st.Code, st.FullName)
	case !errors.Is(err, identity.ErrUnlinked):
		// the hint is optional; the form is already open
		m.logger.Warn("resolve for name prompt failed", zap.String("line_user_id", chatUserID), zap.Error(err))
	}
	return prompt, nil
}

// Advance feeds text into the user's active form. handled is false when no
// form is active, leaving the text to command dispatch.
//
// On a storage failure while committing, the state is kept so the user can
// send the reason again.
func (m *Machine) Advance(ctx context.Context, chatUserID, text string) (reply string, handled bool, err error) {
	st, err := m.states.GetForm(ctx, chatUserID)
	if err != nil {
		return "", true, err
	}
	if st == nil {
		return "", false, nil
	}

	text = strings.TrimSpace(text)
	switch st.Step {
	case model.StepWaitingName:
		if text == "" {
			return namePrompt(st.Type), true, nil
		}
		name := text
		st.TempName = &name
		st.Step = model.StepWaitingReason
		if _, err := m.states.UpdateForm(ctx, *st); err != nil {
			return "", true, err
		}
		metrics.FormTransitions.WithLabelValues(string(model.StepWaitingReason)).Inc()
		return reasonPrompt, true, nil

	case model.StepWaitingReason:
		if text == "" {
			return reasonPrompt, true, nil
		}
		return m.commit(ctx, *st, text)

	default:
		m.logger.Warn("dropping form state",
			zap.String("line_user_id", chatUserID),
			zap.String("step", string(st.Step)),
			zap.Error(ErrCorruptState),
		)
		if err := m.states.DeleteForm(ctx, chatUserID); err != nil {
			return "", true, err
		}
		metrics.FormTransitions.WithLabelValues("reset").Inc()
		return recoveryReply, true, nil
	}
}

func (m *Machine) commit(ctx context.Context, st model.FormState, reason string) (string, bool, error) {
	name := ""
	if st.TempName != nil {
		name = *st.TempName
	}
	combined := fmt.Sprintf("ชื่อ: %s\nสาเหตุ: %s", name, reason)

	var studentID *string
	student, err := m.ids.Resolve(ctx, st.ChatUserID)
	switch {
	case err == nil:
		studentID = &student.ID
	case !errors.Is(err, identity.ErrUnlinked):
		return "", true, err
	}

	now := m.clock.Current()
	id, err := m.recorder.RecordLeaveOrLate(ctx, studentID, now.Format(clock.DateLayout), st.Type, &combined)
	if err != nil {
		return "", true, err
	}

	if err := m.states.DeleteForm(ctx, st.ChatUserID); err != nil {
		// the request is committed; a stale state only re-asks for a reason
		m.logger.Error("clear form state after commit",
			zap.String("line_user_id", st.ChatUserID),
			zap.Int64("leave_request_id", id),
			zap.Error(err),
		)
	}
	metrics.FormTransitions.WithLabelValues("committed").Inc()
	m.logger.Info("leave request committed",
		zap.Int64("leave_request_id", id),
		zap.String("type", string(st.Type)),
		zap.Bool("linked", studentID != nil),
	)

	return fmt.Sprintf(confirmReply, typeText(st.Type), name, reason, clock.ThaiDate(now), clock.ThaiTime(now)), true, nil
}
