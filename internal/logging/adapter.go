package logging

import (
	"log/slog"
)

// CronAdapter lets the retention scheduler log through slog. It satisfies
// the robfig/cron Logger interface, whose Error takes the error first.
type CronAdapter struct {
	logger *slog.Logger
}

// NewCronAdapter wraps logger. If logger is nil, slog.Default() is used.
func NewCronAdapter(logger *slog.Logger) *CronAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronAdapter{logger: logger}
}

// Info logs scheduler bookkeeping at debug level; cron reports every wake-up.
func (a *CronAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

// Error logs a scheduler failure.
func (a *CronAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append(keysAndValues, KeyError, err.Error())...)
}

// Logger returns the underlying slog.Logger.
func (a *CronAdapter) Logger() *slog.Logger {
	return a.logger
}

