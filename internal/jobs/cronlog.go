package jobs

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronLogger adapts zap to cron.Logger so recovered panics and skipped runs
// land in the structured log.
func CronLogger(logger *zap.Logger) cron.Logger {
	return cronLogger{s: logger.Named("cron").Sugar()}
}

type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.With(zap.Error(err)).Errorw(msg, keysAndValues...)
}
