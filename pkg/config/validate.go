package config

import (
	"strings"

	"github.com/matzehuels/depgraph/pkg/errors"
	"github.com/matzehuels/depgraph/pkg/filter"
	"github.com/matzehuels/depgraph/pkg/upload"
)

// Validate checks settings every command depends on: filter patterns,
// manifest mode and the report directory.
func (c *Config) Validate() error {
	if _, err := filter.New(c.Filters); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "filters")
	}
	if _, err := filter.NewScoper(c.Runtime); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "scope rules")
	}
	switch c.ManifestMode {
	case ManifestPerProject, ManifestSingle:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "%s must be %q or %q, got %q",
			EnvManifestMode, ManifestPerProject, ManifestSingle, c.ManifestMode)
	}
	if c.ReportDir == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "%s must not be empty", EnvReportDir)
	}
	return nil
}

// ValidateSnapshot checks the job metadata required to assemble a snapshot.
func (c *Config) ValidateSnapshot() error {
	var missing []string
	for _, p := range []struct{ name, value string }{
		{EnvJobID, c.Job.ID},
		{EnvJobCorrelator, c.Job.Correlator},
		{EnvSHA, c.SHA},
		{EnvRef, c.Ref},
	} {
		if p.value == "" {
			missing = append(missing, p.name)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"the configuration parameters %s must be set: set an environment variable or add them to %s",
			strings.Join(missing, ", "), DefaultConfigFile)
	}
	if err := errors.ValidateFileName(c.Job.Correlator); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvJobCorrelator)
	}
	return nil
}

// ValidateUpload checks the settings required to submit a snapshot.
func (c *Config) ValidateUpload() error {
	if err := errors.ValidateURL(c.GitHub.APIURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvAPIURL)
	}
	if c.GitHub.Token == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "%s must be set to upload a snapshot", EnvToken)
	}
	if _, _, err := upload.ParseRepoRef(c.GitHub.Repository); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvRepository)
	}
	return nil
}
