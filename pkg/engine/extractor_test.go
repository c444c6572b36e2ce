package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/package-url/packageurl-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/depgraph/pkg/config"
	"github.com/matzehuels/depgraph/pkg/errors"
	"github.com/matzehuels/depgraph/pkg/extract"
	depio "github.com/matzehuels/depgraph/pkg/io"
	"github.com/matzehuels/depgraph/pkg/layout"
	"github.com/matzehuels/depgraph/pkg/model"
	"github.com/matzehuels/depgraph/pkg/snapshot"
)

type component struct {
	id      string
	coords  *model.Coordinates
	project string
	deps    []extract.Dependency
	explode bool
}

func (c *component) ID() string { return c.id }

func (c *component) ModuleVersion() (model.Coordinates, bool) {
	if c.coords == nil {
		return model.Coordinates{}, false
	}
	return *c.coords, true
}

func (c *component) ProjectPath() (string, bool)  { return c.project, c.project != "" }
func (c *component) RepositoryID() (string, bool) { return "", false }

func (c *component) Dependencies() []extract.Dependency {
	if c.explode {
		panic("broken component")
	}
	return c.deps
}

func (c *component) on(children ...*component) *component {
	for _, ch := range children {
		c.deps = append(c.deps, extract.Dependency{Selected: ch})
	}
	return c
}

type graph struct{ root *component }

func (g graph) Root() extract.Component {
	if g.root == nil {
		return nil
	}
	return g.root
}

func (graph) RepositoryURL(string) (string, bool) { return "", false }

func lib(id string) *component {
	parts := strings.SplitN(id, ":", 3)
	return &component{id: id, coords: &model.Coordinates{Group: parts[0], Module: parts[1], Version: parts[2]}}
}

func project(path string) *component {
	return &component{id: "project " + path, project: path}
}

func resolution(configuration string, root *component) extract.Resolution {
	return extract.Resolution{BuildPath: ":", Configuration: configuration, Graph: graph{root: root}}
}

func testConfig(workspace string) *config.Config {
	cfg := config.Default()
	cfg.Job = config.Job{ID: "42", Correlator: "ci-build"}
	cfg.SHA = "0123456789abcdef0123456789abcdef01234567"
	cfg.Ref = "refs/heads/main"
	cfg.Workspace = workspace
	return cfg
}

func newExtractor(t *testing.T, cfg *config.Config) *Extractor {
	t.Helper()
	e, err := New(cfg, nil)
	require.NoError(t, err)
	return e
}

func finish(t *testing.T, e *Extractor) *snapshot.Snapshot {
	t.Helper()
	s, err := e.Finish(context.Background(), e.Params(time.Time{}))
	require.NoError(t, err)
	return s
}

func TestExtractorScenario(t *testing.T) {
	ws := t.TempDir()
	e := newExtractor(t, testConfig(ws))
	ctx := context.Background()

	e.ProjectsLoaded(layout.Project{
		IdentityPath: ":",
		BuildFile:    filepath.Join(ws, "build.gradle"),
		Children:     []layout.Project{{IdentityPath: ":app", BuildFile: filepath.Join(ws, "app", "build.gradle")}},
	})

	libB := lib("org:libB:2.0")
	e.ConfigurationResolved(ctx, resolution("compileClasspath", project(":app").on(lib("org:libA:1.0").on(libB))))
	e.ConfigurationResolved(ctx, resolution("runtimeClasspath", project(":app").on(lib("org:libB:2.0"))))

	s := finish(t, e)
	require.Equal(t, []string{"project :app"}, s.ManifestNames())
	m := s.Manifests["project :app"]
	require.NotNil(t, m.File)
	assert.Equal(t, "app/build.gradle", m.File.SourceLocation)

	libA := m.Resolved["org:libA:1.0"]
	assert.Equal(t, model.Direct, libA.Relationship)
	assert.Equal(t, []string{"org:libB:2.0"}, libA.Dependencies)
	assert.Equal(t, "pkg:maven/org/libA@1.0", libA.PackageURL)

	got := m.Resolved["org:libB:2.0"]
	assert.Equal(t, model.Direct, got.Relationship)
	assert.Empty(t, got.Dependencies)
	assert.Equal(t, model.ScopeUnknown, got.Scope)

	assert.Len(t, e.Configurations(), 2)
	assert.NoError(t, e.Err())
}

func TestExtractorPartitionsProjectDependencies(t *testing.T) {
	e := newExtractor(t, testConfig(""))
	core := project(":core").on(lib("org:libY:1.0"))
	e.ConfigurationResolved(context.Background(), resolution("runtimeClasspath", project(":").on(core, lib("org:libX:1.0"))))

	s := finish(t, e)
	assert.Equal(t, []string{"project :", "project :core"}, s.ManifestNames())
	assert.Equal(t, []string{"org:libX:1.0"}, keys(s.Manifests["project :"]))
	assert.Equal(t, []string{"org:libY:1.0"}, keys(s.Manifests["project :core"]))
	assert.Equal(t, model.Direct, s.Manifests["project :core"].Resolved["org:libY:1.0"].Relationship)
}

func keys(m snapshot.Manifest) []string {
	var out []string
	for id := range m.Resolved {
		out = append(out, id)
	}
	return out
}

func TestExtractorBuildRootUsesSettingsFile(t *testing.T) {
	ws := t.TempDir()
	settings := filepath.Join(ws, "settings.gradle")
	require.NoError(t, os.WriteFile(settings, nil, 0o644))

	e := newExtractor(t, testConfig(ws))
	e.SettingsEvaluated(":", settings)
	detached := &component{id: "detached"}
	e.ConfigurationResolved(context.Background(), resolution("detachedConfiguration1", detached.on(lib("org:tool:3.1"))))

	s := finish(t, e)
	m, ok := s.Manifests["build :"]
	require.True(t, ok, "manifests: %v", s.ManifestNames())
	require.NotNil(t, m.File)
	assert.Equal(t, "settings.gradle", m.File.SourceLocation)
}

func TestExtractorSingleManifest(t *testing.T) {
	ws := t.TempDir()
	cfg := testConfig(ws)
	cfg.ManifestMode = config.ManifestSingle
	e := newExtractor(t, cfg)
	e.ProjectsLoaded(layout.Project{IdentityPath: ":", BuildFile: filepath.Join(ws, "build.gradle")})

	ctx := context.Background()
	e.ConfigurationResolved(ctx, resolution("runtimeClasspath", project(":").on(project(":core").on(lib("org:libY:1.0")))))
	e.ConfigurationResolved(ctx, resolution("runtimeClasspath", project(":app").on(lib("org:libA:1.0"))))

	s := finish(t, e)
	require.Equal(t, []string{"ci-build"}, s.ManifestNames())
	m := s.Manifests["ci-build"]
	assert.Len(t, m.Resolved, 2)
	require.NotNil(t, m.File)
	assert.Equal(t, "build.gradle", m.File.SourceLocation)
}

func TestExtractorSkips(t *testing.T) {
	cfg := testConfig("")
	cfg.Filters.ExcludeConfigurations = "test.*"
	e := newExtractor(t, cfg)
	ctx := context.Background()

	e.ConfigurationResolved(ctx, resolution("testRuntimeClasspath", project(":app").on(lib("org:junit:4.13"))))
	e.ConfigurationResolved(ctx, resolution("runtimeClasspath", project(":app")))
	e.ConfigurationResolved(ctx, resolution("runtimeClasspath", nil))
	e.ConfigurationResolved(ctx, extract.Resolution{Configuration: "runtimeClasspath", Graph: graph{root: (&component{id: "x"}).on(lib("org:a:1"))}})

	s := finish(t, e)
	assert.Empty(t, s.Manifests)
	assert.Empty(t, e.Configurations())
}

func TestExtractorScope(t *testing.T) {
	cfg := testConfig("")
	cfg.Runtime.IncludeConfigurations = "runtimeClasspath"
	e := newExtractor(t, cfg)
	ctx := context.Background()

	e.ConfigurationResolved(ctx, resolution("testRuntimeClasspath", project(":app").on(lib("org:junit:4.13"), lib("org:libA:1.0"))))
	e.ConfigurationResolved(ctx, resolution("runtimeClasspath", project(":app").on(lib("org:libA:1.0"))))

	m := finish(t, e).Manifests["project :app"]
	assert.Equal(t, model.ScopeDevelopment, m.Resolved["org:junit:4.13"].Scope)
	assert.Equal(t, model.ScopeRuntime, m.Resolved["org:libA:1.0"].Scope)
}

func TestExtractorAggregatesErrors(t *testing.T) {
	dir := t.TempDir()
	e := newExtractor(t, testConfig(dir))
	ctx := context.Background()

	e.ConfigurationResolved(ctx, resolution("runtimeClasspath", project(":app").on(lib("org:libA:1.0"))))
	e.ConfigurationResolved(ctx, resolution("compileClasspath", project(":app").on(&component{id: ""})))
	e.ConfigurationResolved(ctx, resolution("annotationProcessor", project(":app").on(&component{id: "org:boom:1", explode: true})))

	err := e.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeExtractionFailed))
	assert.ErrorIs(t, err, extract.ErrMalformedGraph)
	assert.Contains(t, err.Error(), "panic: broken component")

	s, err := e.Finish(ctx, e.Params(time.Time{}))
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, errors.ErrCodeExtractionFailed))
}

func TestExtractorRejectsLateEvents(t *testing.T) {
	e := newExtractor(t, testConfig(""))
	finish(t, e)

	e.SettingsEvaluated(":", "/src/settings.gradle")
	e.ConfigurationResolved(context.Background(), resolution("runtimeClasspath", project(":app").on(lib("org:libA:1.0"))))

	err := e.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFinished)
	assert.Empty(t, e.Manifests())
}

func TestExtractorCancelledContext(t *testing.T) {
	e := newExtractor(t, testConfig(""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e.ConfigurationResolved(ctx, resolution("runtimeClasspath", project(":app").on(lib("org:libA:1.0"))))
	assert.ErrorIs(t, e.Err(), context.Canceled)
}

func TestExtractorConcurrent(t *testing.T) {
	e := newExtractor(t, testConfig(""))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			root := project(":app").on(lib(fmt.Sprintf("org:lib%d:1.0", i%8)).on(lib("org:shared:1.0")))
			e.ConfigurationResolved(ctx, resolution(fmt.Sprintf("conf%d", i), root))
		}()
	}
	wg.Wait()

	m := finish(t, e).Manifests["project :app"]
	assert.Len(t, m.Resolved, 9)
	assert.Equal(t, model.Indirect, m.Resolved["org:shared:1.0"].Relationship)
	assert.Len(t, e.Configurations(), 32)
}

func TestExtractorFail(t *testing.T) {
	e := newExtractor(t, testConfig(""))
	e.ConfigurationResolved(context.Background(), resolution("runtimeClasspath", project(":app").on(lib("org:libA:1.0"))))
	e.Fail(nil)
	require.NoError(t, e.Err())

	e.Fail(fmt.Errorf("batch 1: %w", extract.ErrMalformedGraph))
	s, err := e.Finish(context.Background(), e.Params(time.Time{}))
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, errors.ErrCodeExtractionFailed))
	assert.ErrorIs(t, err, extract.ErrMalformedGraph)
}

func TestExtractorFinishDuringEvents(t *testing.T) {
	const n = 64
	e := newExtractor(t, testConfig(""))
	ctx := context.Background()

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			root := project(fmt.Sprintf(":p%d", i)).on(lib("org:libA:1.0"))
			e.ConfigurationResolved(ctx, resolution("runtimeClasspath", root))
		}()
	}
	close(start)
	s, err := e.Finish(ctx, e.Params(time.Time{}))
	require.NoError(t, err)
	wg.Wait()

	late := 0
	if err := e.Err(); err != nil {
		for _, cause := range errors.Causes(err) {
			require.ErrorIs(t, cause, ErrFinished)
			late++
		}
	}
	assert.Equal(t, n, len(s.Manifests)+late)
	for name, m := range s.Manifests {
		assert.Len(t, m.Resolved, 1, name)
	}
}

func TestExtractorDecodedStream(t *testing.T) {
	ws := t.TempDir()
	e := newExtractor(t, testConfig(ws))
	stream := strings.Join([]string{
		`{"schema": 2, "producer": "test"}`,
		fmt.Sprintf(`{"event": "projects_loaded", "root_project": {"identity_path": ":", "build_file": %q}}`, filepath.Join(ws, "build.gradle")),
		`{"event": "configuration_resolved", "build_path": ":", "configuration": "runtimeClasspath",` +
			` "repositories": [{"id": "central", "url": "https://repo.maven.apache.org/maven2/"}, {"id": "corp", "url": "https://maven.example.com/releases/"}],` +
			` "root": "project :", "components": [` +
			`{"id": "project :", "project": ":", "dependencies": [{"selected": "org:libA:1.0"}, {"selected": "project :"}]},` +
			`{"id": "org:libA:1.0", "module": {"group": "org", "module": "libA", "version": "1.0"}, "repository": "central", "dependencies": [{"selected": "com.corp:util:2.0"}]},` +
			`{"id": "com.corp:util:2.0", "module": {"group": "com.corp", "module": "util", "version": "2.0"}, "repository": "corp"}]}`,
	}, "\n")

	stats, err := depio.Dispatch(context.Background(), strings.NewReader(stream), e, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Events)

	s := finish(t, e)
	m := s.Manifests["project :"]
	require.NotNil(t, m.File)
	assert.Equal(t, "build.gradle", m.File.SourceLocation)
	assert.NotContains(t, m.Resolved, "project :")
	assert.Equal(t, "pkg:maven/org/libA@1.0", m.Resolved["org:libA:1.0"].PackageURL)
	purl, err := packageurl.FromString(m.Resolved["com.corp:util:2.0"].PackageURL)
	require.NoError(t, err)
	assert.Equal(t, "https://maven.example.com/releases", purl.Qualifiers.Map()["repository_url"])
}

func TestNewRejectsBadPatterns(t *testing.T) {
	cfg := testConfig("")
	cfg.Filters.IncludeProjects = "("
	_, err := New(cfg, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}
