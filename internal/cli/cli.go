// Package cli implements the depgraph command-line interface.
//
// The CLI turns resolution event streams into dependency snapshots and
// submits them to GitHub. It is built with cobra and logs through
// charmbracelet/log.
//
// # Commands
//
//   - extract: read event streams and write a snapshot (optionally reports and upload)
//   - serve: collect event streams over HTTP and assemble snapshots on request
//   - upload: submit a snapshot file
//   - graph: render one manifest of a snapshot as DOT or SVG
//   - completion: generate shell completion scripts
//
// # Configuration
//
// Every command loads the configuration once before doing any work:
// defaults, then depgraph.toml (or --config), then .env files (or
// --env-file), then the process environment.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and
// --log-format for text, JSON or logfmt output.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depgraph/pkg/buildinfo"
	"github.com/matzehuels/depgraph/pkg/config"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	envFiles   []string
	logFormat  string

	// lookup replaces the process environment in tests.
	lookup func(string) (string, bool)
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          buildinfo.Name,
		Short:        "depgraph extracts dependency snapshots from build resolution events",
		Long:         `depgraph flattens the resolved dependency graphs of a build into deduplicated manifests and submits them to the GitHub dependency graph.`,
		Version:      buildinfo.DetectorVersion(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setLogFormat(c.Logger, c.logFormat); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "TOML config file (default "+config.DefaultConfigFile+" if present)")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", logFormatText, "log output format: text, json or logfmt")
	root.PersistentFlags().StringSliceVar(&c.envFiles, "env-file", nil, "dotenv file(s) to load (default "+config.DefaultEnvFile+" if present)")

	root.AddCommand(c.extractCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.uploadCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration from all sources.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(config.LoadOptions{
		File:     c.configFile,
		EnvFiles: c.envFiles,
		Lookup:   c.lookup,
	})
}
