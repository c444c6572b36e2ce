package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depgraph/pkg/config"
	"github.com/matzehuels/depgraph/pkg/errors"
	"github.com/matzehuels/depgraph/pkg/extract"
	"github.com/matzehuels/depgraph/pkg/filter"
	"github.com/matzehuels/depgraph/pkg/layout"
	"github.com/matzehuels/depgraph/pkg/merge"
	"github.com/matzehuels/depgraph/pkg/model"
	"github.com/matzehuels/depgraph/pkg/observability"
	"github.com/matzehuels/depgraph/pkg/snapshot"
)

// ErrFinished is recorded when an event arrives after [Extractor.Finish].
var ErrFinished = stderrors.New("extraction already finished")

// Skip reasons passed to observability hooks.
const (
	SkipNoDependencies = "no dependencies"
	SkipUnattributable = "unattributable"
	SkipFiltered       = "filtered"
)

// Extractor accumulates the resolved configurations of one build. All
// methods are safe for concurrent use.
type Extractor struct {
	cfg       *config.Config
	logger    *log.Logger
	filter    *filter.Filter
	scoper    *filter.Scoper
	layout    *layout.Layout
	collector *merge.Collector

	// gate is held shared by every event handler and exclusively by Finish,
	// so Finish waits for in-flight events and later ones see finished.
	gate     sync.RWMutex
	finished bool

	mu      sync.Mutex
	errs    []error
	configs []*model.ResolvedConfiguration
}

// New compiles the filters of cfg. A nil logger discards all output.
func New(cfg *config.Config, logger *log.Logger) (*Extractor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	f, err := filter.New(cfg.Filters)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "filters")
	}
	s, err := filter.NewScoper(cfg.Runtime)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "scope rules")
	}
	return &Extractor{
		cfg:       cfg,
		logger:    logger,
		filter:    f,
		scoper:    s,
		layout:    layout.New(),
		collector: merge.NewCollector(),
	}, nil
}

// Layout exposes the descriptor file registry.
func (e *Extractor) Layout() *layout.Layout { return e.layout }

// SettingsEvaluated records the settings file of the build at buildPath.
func (e *Extractor) SettingsEvaluated(buildPath, settingsFile string) {
	if !e.enter("settings evaluated for %s", buildPath) {
		return
	}
	defer e.gate.RUnlock()
	e.logger.Debug("settings evaluated", "build", buildPath, "file", settingsFile)
	e.layout.AddSettings(buildPath, settingsFile)
}

// ProjectsLoaded records the build files of a loaded project tree.
func (e *Extractor) ProjectsLoaded(root layout.Project) {
	if !e.enter("projects loaded for %s", root.IdentityPath) {
		return
	}
	defer e.gate.RUnlock()
	e.logger.Debug("projects loaded", "root", root.IdentityPath)
	e.layout.AddProjectTree(root)
}

// ConfigurationResolved extracts one resolved configuration. It never fails;
// errors and panics are recorded and surface through [Extractor.Err].
func (e *Extractor) ConfigurationResolved(ctx context.Context, r extract.Resolution) {
	if !e.enter("configuration %s resolved for %s", r.Configuration, r.BuildPath) {
		return
	}
	defer e.gate.RUnlock()
	defer func() {
		if p := recover(); p != nil {
			e.logger.Debug("panic during extraction", "stack", string(debug.Stack()))
			e.record(fmt.Errorf("configuration %s of %s: panic: %v", r.Configuration, r.BuildPath, p))
		}
	}()
	if err := ctx.Err(); err != nil {
		e.record(fmt.Errorf("configuration %s of %s: %w", r.Configuration, r.BuildPath, err))
		return
	}

	hooks := observability.Extraction()
	if !extract.HasDependencies(r.Graph) {
		hooks.OnConfigurationSkipped(ctx, r.BuildPath, r.Configuration, SkipNoDependencies)
		return
	}

	root, err := extract.Attribute(r.Graph, r.BuildPath)
	if err != nil {
		e.logger.Debug("skipping configuration", "configuration", r.Configuration, "build", r.BuildPath, "err", err)
		hooks.OnConfigurationSkipped(ctx, r.BuildPath, r.Configuration, SkipUnattributable)
		return
	}
	if !e.filter.Include(root.Path, r.Configuration) {
		e.logger.Debug("excluding configuration", "root", root.ID, "configuration", r.Configuration)
		hooks.OnConfigurationSkipped(ctx, r.BuildPath, r.Configuration, SkipFiltered)
		return
	}

	start := time.Now()
	cfg, err := extract.Walk(root, r.Configuration, r.Graph)
	if err != nil {
		err = fmt.Errorf("configuration %s of %s: %w", r.Configuration, root.ID, err)
		hooks.OnConfigurationResolved(ctx, root.ID, r.Configuration, 0, time.Since(start), err)
		e.record(err)
		return
	}
	cfg.Scope = e.scoper.Scope(root.Path, r.Configuration)
	e.merge(cfg)

	e.mu.Lock()
	e.configs = append(e.configs, cfg)
	e.mu.Unlock()

	e.logger.Debug("resolved configuration",
		"root", root.ID,
		"configuration", r.Configuration,
		"scope", cfg.Scope,
		"components", len(cfg.Components))
	hooks.OnConfigurationResolved(ctx, root.ID, r.Configuration, len(cfg.Components), time.Since(start), nil)
}

func (e *Extractor) merge(cfg *model.ResolvedConfiguration) {
	if e.cfg.ManifestMode == config.ManifestSingle {
		e.collector.Merge(e.cfg.Job.Correlator, cfg)
		return
	}
	for _, part := range merge.Partition(cfg) {
		e.collector.Merge(part.Root.ID, part)
	}
}

// Err returns every recorded failure as one EXTRACTION_FAILED error, or nil.
func (e *Extractor) Err() error {
	return joinFailures(e.recorded())
}

func (e *Extractor) recorded() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.errs)
}

func joinFailures(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Wrap(errors.ErrCodeExtractionFailed, stderrors.Join(errs...),
		"%d dependency extraction error(s)", len(errs))
}

// Fail records a failure that happened outside the extractor, such as an
// event stream that could not be decoded after some of its events were
// delivered. Finish then returns EXTRACTION_FAILED.
func (e *Extractor) Fail(err error) {
	if err != nil {
		e.record(err)
	}
}

// Finish assembles the snapshot. It returns [Extractor.Err] instead when any
// configuration failed. Finish waits for events already being handled;
// events received afterwards are recorded as errors.
func (e *Extractor) Finish(ctx context.Context, p snapshot.Params) (*snapshot.Snapshot, error) {
	e.gate.Lock()
	e.finished = true
	errs := e.recorded()
	e.gate.Unlock()

	if err := joinFailures(errs); err != nil {
		return nil, err
	}
	s := snapshot.Assemble(p, e.collector.Manifests(), e.locator())
	observability.Extraction().OnSnapshotAssembled(ctx, len(s.Manifests), s.ComponentCount())
	e.logger.Debug("assembled snapshot", "manifests", len(s.Manifests), "components", s.ComponentCount())
	return s, nil
}

func (e *Extractor) locator() snapshot.FileLocator {
	if e.cfg.ManifestMode == config.ManifestSingle {
		return snapshot.FileLocatorFunc(func(merge.Manifest) (string, bool) {
			return e.layout.RootFile()
		})
	}
	return snapshot.FileLocatorFunc(func(m merge.Manifest) (string, bool) {
		return e.layout.Lookup(m.Root)
	})
}

// Configurations returns the walked configurations in arrival order.
func (e *Extractor) Configurations() []*model.ResolvedConfiguration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.configs)
}

// Manifests returns the merged manifests sorted by name.
func (e *Extractor) Manifests() []merge.Manifest { return e.collector.Manifests() }

// Params derives snapshot parameters from the configuration.
func (e *Extractor) Params(scanned time.Time) snapshot.Params {
	return ParamsFromConfig(e.cfg, scanned)
}

// ParamsFromConfig derives snapshot parameters from cfg.
func ParamsFromConfig(cfg *config.Config, scanned time.Time) snapshot.Params {
	return snapshot.Params{
		JobID:         cfg.Job.ID,
		JobCorrelator: cfg.Job.Correlator,
		Sha:           cfg.SHA,
		Ref:           cfg.Ref,
		Detector: snapshot.Detector{
			Name:    cfg.Detector.Name,
			Version: cfg.Detector.Version,
			URL:     cfg.Detector.URL,
		},
		Workspace: cfg.Workspace,
		Scanned:   scanned,
	}
}

func (e *Extractor) record(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, err)
}

// enter admits an event and holds the gate shared. It returns false, with
// the gate released and [ErrFinished] recorded, once Finish has started.
func (e *Extractor) enter(format string, args ...any) bool {
	e.gate.RLock()
	if !e.finished {
		return true
	}
	e.gate.RUnlock()
	e.record(fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrFinished))
	return false
}
