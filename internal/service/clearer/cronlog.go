package clearer

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/pablo-flores/wa-3fecta/internal/logger"
)

// cronLogger routes scheduler messages to the context logger.
type cronLogger struct {
	// ctx carries the named logger.
	ctx context.Context //nolint:containedctx // The scheduler API has no context parameter.
}

var _ cron.Logger = cronLogger{}

// Info logs scheduler progress at debug level.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	logger.DebugKV(l.ctx, msg, keysAndValues...)
}

// Error logs scheduler failures.
func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.ErrorKV(l.ctx, msg, append(keysAndValues, "error", err)...)
}
