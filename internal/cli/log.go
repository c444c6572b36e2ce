package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depgraph/pkg/errors"
)

// Log output formats accepted by --log-format.
const (
	logFormatText   = "text"
	logFormatJSON   = "json"
	logFormatLogfmt = "logfmt"
)

// newLogger creates the CLI logger. Timestamps are formatted as
// "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// setLogFormat switches l to one of the --log-format values. Machine
// formats suit the collector when its output is shipped to a log pipeline.
func setLogFormat(l *log.Logger, format string) error {
	switch format {
	case "", logFormatText:
		l.SetFormatter(log.TextFormatter)
	case logFormatJSON:
		l.SetFormatter(log.JSONFormatter)
	case logFormatLogfmt:
		l.SetFormatter(log.LogfmtFormatter)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid log format: %s (must be %s, %s or %s)",
			format, logFormatText, logFormatJSON, logFormatLogfmt)
	}
	return nil
}

// progress logs the elapsed time of a command step when it completes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Extracted 3 manifests from 40 events (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() if none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
