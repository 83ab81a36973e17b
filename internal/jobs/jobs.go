// Package jobs holds the scheduled group notifications. They are triggered
// by an external scheduler over HTTP or by the in-process cron worker.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"attendbot/internal/attendance"
	"attendbot/internal/clock"
	"attendbot/internal/command"
	"attendbot/internal/metrics"
	"attendbot/internal/notify"
)

// ErrNoGroup is returned when no target group is configured.
var ErrNoGroup = errors.New("group id not configured")

// DailyReporter builds today's class report.
type DailyReporter interface {
	Today(ctx context.Context) (attendance.DailyReport, error)
	Clock() clock.Clock
}

// Runner pushes scheduled messages to one group.
type Runner struct {
	reports  DailyReporter
	notifier notify.Notifier
	groupID  string
	logger   *zap.Logger
}

func NewRunner(reports DailyReporter, notifier notify.Notifier, groupID string, logger *zap.Logger) *Runner {
	return &Runner{reports: reports, notifier: notifier, groupID: groupID, logger: logger}
}

// MorningCard is the leave/late prompt pushed every school morning.
func MorningCard() notify.Card {
	return notify.Card{
		AltText: "เช็คชื่อเช้านี้ (แจ้งลา / แจ้งเข้าสาย)",
		Title:   "เช็คชื่อเช้านี้ 📝",
		Body:    "ถ้าจะลา หรือจะเข้าสาย กดปุ่มด้านล่างนี้ได้เลยนะ",
		Actions: []notify.Action{
			{Label: "📝 แจ้งลา", Data: command.PostbackLeaveToday},
			{Label: "⏰ แจ้งเข้าสาย", Data: command.PostbackLateToday},
		},
	}
}

// SendMorningPrompt pushes the morning card to the group.
func (r *Runner) SendMorningPrompt(ctx context.Context) error {
	if r.groupID == "" {
		return ErrNoGroup
	}
	if err := r.notifier.Push(ctx, r.groupID, MorningCard()); err != nil {
		metrics.NotifyFailures.WithLabelValues("push").Inc()
		return fmt.Errorf("morning prompt: %w", err)
	}
	r.logger.Info("morning prompt sent", zap.String("group_id", r.groupID))
	return nil
}

// SendDailySummary classifies today's attendance and pushes the report.
func (r *Runner) SendDailySummary(ctx context.Context) error {
	if r.groupID == "" {
		return ErrNoGroup
	}
	report, err := r.reports.Today(ctx)
	if err != nil {
		return fmt.Errorf("daily summary: %w", err)
	}
	if err := r.notifier.Push(ctx, r.groupID, notify.Text{Body: report.Format(r.reports.Clock().Location())}); err != nil {
		metrics.NotifyFailures.WithLabelValues("push").Inc()
		return fmt.Errorf("daily summary: %w", err)
	}
	fields := []zap.Field{zap.String("date", report.Date), zap.Int("students", report.Total())}
	for _, b := range attendance.Buckets {
		fields = append(fields, zap.Int(b.String(), len(report.Bucket(b))))
	}
	r.logger.Info("daily summary sent", fields...)
	return nil
}
