package io

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depgraph/pkg/errors"
	"github.com/matzehuels/depgraph/pkg/extract"
	"github.com/matzehuels/depgraph/pkg/layout"
)

// MaxLineSize bounds a single event line.
const MaxLineSize = 64 << 20

// Handler receives decoded events.
type Handler interface {
	SettingsEvaluated(buildPath, settingsFile string)
	ProjectsLoaded(root layout.Project)
	ConfigurationResolved(ctx context.Context, r extract.Resolution)
}

// Stats counts what a stream contained.
type Stats struct {
	Schema   int
	Producer string
	Events   int
	Skipped  int
}

// Decoder reads one event stream.
type Decoder struct {
	sc       *bufio.Scanner
	line     int
	header   Header
	strategy Strategy
	logger   *log.Logger
}

// NewDecoder reads and validates the stream header from r.
func NewDecoder(r io.Reader, logger *log.Logger) (*Decoder, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), MaxLineSize)
	d := &Decoder{sc: sc, logger: logger}

	data, ok, err := d.next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidEvent, "empty event stream")
	}
	if err := json.Unmarshal(data, &d.header); err != nil {
		return nil, d.lineError(err, "invalid stream header")
	}
	if d.strategy, err = StrategyFor(d.header); err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "line %d", d.line)
	}
	logger.Debug("event stream", "schema", d.header.Schema, "producer", d.header.Producer)
	return d, nil
}

// Header returns the stream header.
func (d *Decoder) Header() Header { return d.header }

// Dispatch sends every remaining event to h. It stops at the first
// malformed line or when ctx is cancelled.
func (d *Decoder) Dispatch(ctx context.Context, h Handler) (Stats, error) {
	stats := Stats{Schema: d.header.Schema, Producer: d.header.Producer}
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		data, ok, err := d.next()
		if err != nil {
			return stats, err
		}
		if !ok {
			return stats, nil
		}
		handled, err := d.dispatch(ctx, data, h)
		if err != nil {
			return stats, err
		}
		if handled {
			stats.Events++
		} else {
			stats.Skipped++
		}
	}
}

func (d *Decoder) dispatch(ctx context.Context, data []byte, h Handler) (bool, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return false, d.lineError(err, "invalid event")
	}
	switch env.Event {
	case KindSettingsEvaluated:
		var ev SettingsEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return false, d.lineError(err, "invalid %s event", env.Event)
		}
		h.SettingsEvaluated(ev.BuildPath, ev.SettingsFile)
	case KindProjectsLoaded:
		var ev ProjectsEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return false, d.lineError(err, "invalid %s event", env.Event)
		}
		h.ProjectsLoaded(ev.RootProject)
	case KindConfigurationResolved:
		var ev ConfigurationEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return false, d.lineError(err, "invalid %s event", env.Event)
		}
		g, err := d.strategy.Build(&ev)
		if err != nil {
			return false, d.lineError(err, "configuration %s of %s", ev.Configuration, ev.BuildPath)
		}
		h.ConfigurationResolved(ctx, extract.Resolution{
			BuildPath:     ev.BuildPath,
			Configuration: ev.Configuration,
			Graph:         g,
		})
	default:
		d.logger.Debug("skipping unknown event", "line", d.line, "event", env.Event)
		return false, nil
	}
	return true, nil
}

// next returns the next non-blank line.
func (d *Decoder) next() ([]byte, bool, error) {
	for d.sc.Scan() {
		d.line++
		line := bytes.TrimSpace(d.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		return line, true, nil
	}
	if err := d.sc.Err(); err != nil {
		return nil, false, d.lineError(err, "reading event stream")
	}
	return nil, false, nil
}

func (d *Decoder) lineError(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeInvalidEvent, err, "line %d: "+format, append([]any{d.line}, args...)...)
}

// Dispatch decodes the stream in r and sends its events to h.
func Dispatch(ctx context.Context, r io.Reader, h Handler, logger *log.Logger) (Stats, error) {
	d, err := NewDecoder(r, logger)
	if err != nil {
		return Stats{}, err
	}
	return d.Dispatch(ctx, h)
}

// DispatchFile decodes the stream stored at path.
func DispatchFile(ctx context.Context, path string, h Handler, logger *log.Logger) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Stats{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "event stream %s", path)
		}
		return Stats{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "event stream %s", path)
	}
	defer f.Close()

	stats, err := Dispatch(ctx, f, h, logger)
	if err != nil {
		if code := errors.GetCode(err); code != "" {
			return stats, errors.Wrap(code, err, "%s", path)
		}
		return stats, fmt.Errorf("%s: %w", path, err)
	}
	return stats, nil
}
