package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"attendbot/internal/app"
	"attendbot/internal/config"
	"attendbot/internal/jobs"
	"attendbot/internal/logger"
)

// The worker pushes the morning prompt and the daily summary on a schedule.
// Deployments with an external scheduler hit /cron/* instead and skip it.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	a, err := app.Build(cfg, zl)
	if err != nil {
		zl.Fatal("build app", zap.Error(err))
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cronLog := jobs.CronLogger(zl)
	c := cron.New(
		cron.WithLocation(a.Clock.Location()),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	schedule := map[string]struct {
		spec string
		run  func(context.Context) error
	}{
		"morning": {cfg.MorningCron, a.Jobs.SendMorningPrompt},
		"summary": {cfg.SummaryCron, a.Jobs.SendDailySummary},
	}
	for name, job := range schedule {
		name, job := name, job
		if job.spec == "" {
			zl.Info("job disabled", zap.String("job", name))
			continue
		}
		if _, err := c.AddFunc(job.spec, func() {
			if err := job.run(ctx); err != nil {
				zl.Error("job failed", zap.String("job", name), zap.Error(err))
				return
			}
			zl.Info("job done", zap.String("job", name))
		}); err != nil {
			zl.Fatal("invalid cron spec", zap.String("job", name), zap.String("spec", job.spec), zap.Error(err))
		}
		zl.Info("job scheduled", zap.String("job", name), zap.String("spec", job.spec))
	}

	c.Start()
	zl.Info("worker started", zap.String("timezone", a.Clock.Location().String()))

	<-ctx.Done()
	zl.Info("worker stopping")
	<-c.Stop().Done()
}
