package cli

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("decoded stream") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("skipped configuration") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("skipped configuration") }, true},
		{"warn at info level", log.InfoLevel, func(l *log.Logger) { l.Warn("rejected event stream") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))

			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug output at info level: %q", buf.String())
	}
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Errorf("debug output missing after SetLogLevel: %q", buf.String())
	}
}

func TestProgressReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(10 * time.Millisecond)
	prog.done("Extracted 2 manifests from 7 events")

	out := buf.String()
	if !regexp.MustCompile(`Extracted 2 manifests from 7 events \([0-9.]+m?s\)`).MatchString(out) {
		t.Errorf("progress output = %q", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext should fall back to log.Default()")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), custom)
	if got := loggerFromContext(ctx); got != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
}

func TestSetLogFormat(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{logFormatText, "snapshot written", false},
		{logFormatJSON, `"msg":"snapshot written"`, false},
		{logFormatLogfmt, `msg="snapshot written"`, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(&buf, log.InfoLevel)
			err := setLogFormat(l, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("setLogFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			l.Info("snapshot written", "manifests", 2)
			if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
				t.Errorf("output = %q, want it to contain %q", buf.String(), tt.want)
			}
		})
	}
}
