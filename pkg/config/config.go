// Package config loads depgraph's configuration once, before any
// resolution event is processed.
//
// Values are layered from lowest to highest precedence: built-in
// defaults, a TOML file, .env files and the process environment. The
// result is a plain [Config] that is validated eagerly and passed to each
// component.
package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/depgraph/pkg/buildinfo"
	"github.com/matzehuels/depgraph/pkg/errors"
	"github.com/matzehuels/depgraph/pkg/filter"
)

// Environment variable names.
const (
	EnvJobID         = "GITHUB_JOB_ID"
	EnvJobCorrelator = "GITHUB_JOB_CORRELATOR"
	EnvSHA           = "GITHUB_SHA"
	EnvRef           = "GITHUB_REF"
	EnvWorkspace     = "GITHUB_WORKSPACE"
	EnvAPIURL        = "GITHUB_API_URL"
	EnvRepository    = "GITHUB_REPOSITORY"
	EnvToken         = "GITHUB_TOKEN"

	EnvReportDir    = "DEPENDENCY_GRAPH_REPORT_DIR"
	EnvManifestMode = "DEPENDENCY_GRAPH_MANIFEST_MODE"

	EnvIncludeProjects       = "DEPENDENCY_GRAPH_INCLUDE_PROJECTS"
	EnvExcludeProjects       = "DEPENDENCY_GRAPH_EXCLUDE_PROJECTS"
	EnvIncludeConfigurations = "DEPENDENCY_GRAPH_INCLUDE_CONFIGURATIONS"
	EnvExcludeConfigurations = "DEPENDENCY_GRAPH_EXCLUDE_CONFIGURATIONS"

	EnvRuntimeIncludeProjects       = "DEPENDENCY_GRAPH_RUNTIME_INCLUDE_PROJECTS"
	EnvRuntimeExcludeProjects       = "DEPENDENCY_GRAPH_RUNTIME_EXCLUDE_PROJECTS"
	EnvRuntimeIncludeConfigurations = "DEPENDENCY_GRAPH_RUNTIME_INCLUDE_CONFIGURATIONS"
	EnvRuntimeExcludeConfigurations = "DEPENDENCY_GRAPH_RUNTIME_EXCLUDE_CONFIGURATIONS"
)

// Defaults.
const (
	DefaultAPIURL      = "https://api.github.com"
	DefaultReportDir   = "build/reports/dependency-graph-snapshots"
	DefaultConfigFile  = "depgraph.toml"
	DefaultEnvFile     = ".env"
	DefaultDetectorURL = "https://github.com/matzehuels/depgraph"
)

// ManifestMode selects how resolved configurations map onto manifests.
type ManifestMode string

const (
	// ManifestPerProject reports one manifest per owning project or build.
	ManifestPerProject ManifestMode = "project"
	// ManifestSingle reports everything in one manifest named after the job correlator.
	ManifestSingle ManifestMode = "single"
)

// Config is the fully resolved configuration.
type Config struct {
	Job          Job             `toml:"job"`
	SHA          string          `toml:"sha"`
	Ref          string          `toml:"ref"`
	Workspace    string          `toml:"workspace"`
	ReportDir    string          `toml:"report_dir"`
	ManifestMode ManifestMode    `toml:"manifest_mode"`
	Filters      filter.Patterns `toml:"filters"`
	Runtime      filter.Patterns `toml:"runtime"`
	Detector     Detector        `toml:"detector"`
	GitHub       GitHub          `toml:"github"`
}

// Job identifies the CI job.
type Job struct {
	ID         string `toml:"id"`
	Correlator string `toml:"correlator"`
}

// Detector identifies this tool in submitted snapshots.
type Detector struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	URL     string `toml:"url"`
}

// GitHub holds the dependency submission endpoint settings.
type GitHub struct {
	APIURL     string `toml:"api_url"`
	Repository string `toml:"repository"`
	Token      string `toml:"-"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// File is a TOML file. Empty means DefaultConfigFile if it exists.
	File string
	// EnvFiles are dotenv files. Empty means DefaultEnvFile if it exists.
	EnvFiles []string
	// Lookup reads the process environment; defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Default returns the configuration before any source is applied.
func Default() *Config {
	return &Config{
		ReportDir:    DefaultReportDir,
		ManifestMode: ManifestPerProject,
		Detector: Detector{
			Name:    buildinfo.Name,
			Version: buildinfo.DetectorVersion(),
			URL:     DefaultDetectorURL,
		},
		GitHub: GitHub{APIURL: DefaultAPIURL},
	}
}

// Load builds a Config from all sources and validates it.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	file, explicit := opts.File, opts.File != ""
	if !explicit {
		file = DefaultConfigFile
	}
	if err := cfg.loadFile(file, explicit); err != nil {
		return nil, err
	}

	env, err := readEnvFiles(opts.EnvFiles)
	if err != nil {
		return nil, err
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if !required && os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	if len(files) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil, nil
		}
		files = []string{DefaultEnvFile}
	}
	env, err := godotenv.Read(files...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read env files %s", strings.Join(files, ", "))
	}
	return env, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	set(&c.Job.ID, EnvJobID)
	set(&c.Job.Correlator, EnvJobCorrelator)
	set(&c.SHA, EnvSHA)
	set(&c.Ref, EnvRef)
	set(&c.Workspace, EnvWorkspace)
	set(&c.ReportDir, EnvReportDir)
	set(&c.GitHub.APIURL, EnvAPIURL)
	set(&c.GitHub.Repository, EnvRepository)
	set(&c.GitHub.Token, EnvToken)

	if v, ok := lookup(EnvManifestMode); ok {
		c.ManifestMode = ManifestMode(v)
	}

	set(&c.Filters.IncludeProjects, EnvIncludeProjects)
	set(&c.Filters.ExcludeProjects, EnvExcludeProjects)
	set(&c.Filters.IncludeConfigurations, EnvIncludeConfigurations)
	set(&c.Filters.ExcludeConfigurations, EnvExcludeConfigurations)

	set(&c.Runtime.IncludeProjects, EnvRuntimeIncludeProjects)
	set(&c.Runtime.ExcludeProjects, EnvRuntimeExcludeProjects)
	set(&c.Runtime.IncludeConfigurations, EnvRuntimeIncludeConfigurations)
	set(&c.Runtime.ExcludeConfigurations, EnvRuntimeExcludeConfigurations)
}
