package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/depgraph/pkg/config"
	"github.com/matzehuels/depgraph/pkg/engine"
	"github.com/matzehuels/depgraph/pkg/errors"
	depio "github.com/matzehuels/depgraph/pkg/io"
	"github.com/matzehuels/depgraph/pkg/snapshot"
)

// extractOpts holds the command-line flags for the extract command.
type extractOpts struct {
	reportDir string // overrides the configured report directory
	reports   bool   // also write dependency-list.txt and dependency-scopes.json
	upload    bool   // submit the snapshot after writing it
}

func (c *CLI) extractCommand() *cobra.Command {
	var opts extractOpts

	cmd := &cobra.Command{
		Use:   "extract [flags] <events.ndjson>...",
		Short: "Build a dependency snapshot from resolution event streams",
		Long: `Read one or more resolution event streams, merge every resolved
configuration into per-project manifests and write the snapshot to
<report-dir>/<job-correlator>.json.

Streams are decoded concurrently into a single extraction.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExtract(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.reportDir, "output", "o", "", "report directory (overrides "+config.EnvReportDir+")")
	cmd.Flags().BoolVar(&opts.reports, "reports", false, "also write "+snapshot.DependencyListFile+" and "+snapshot.DependencyScopesFile)
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "submit the snapshot to the dependency submission API")

	return cmd
}

func (c *CLI) runExtract(ctx context.Context, files []string, opts extractOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.reportDir != "" {
		cfg.ReportDir = opts.reportDir
	}
	if err := cfg.ValidateSnapshot(); err != nil {
		return err
	}
	if opts.upload {
		if err := cfg.ValidateUpload(); err != nil {
			return err
		}
	}

	ex, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	stats, err := dispatchFiles(ctx, ex, files, logger)
	if err != nil {
		return err
	}
	s, err := ex.Finish(ctx, ex.Params(time.Now()))
	if err != nil {
		for _, cause := range errors.Causes(err) {
			logger.Error("extraction failed", "err", cause)
		}
		return errors.New(errors.ErrCodeExtractionFailed, "%s; no snapshot written", errors.UserMessage(err))
	}
	path, err := snapshot.WriteFile(cfg.ReportDir, s)
	if err != nil {
		return err
	}

	events := 0
	for _, st := range stats {
		events += st.Events
	}
	prog.done(fmt.Sprintf("Extracted %d manifests from %d events", len(s.Manifests), events))
	printSnapshotSummary(s, path)

	if opts.reports {
		written, err := snapshot.WriteReports(cfg.ReportDir, ex.Configurations())
		if err != nil {
			return err
		}
		printInfo("Reports")
		for _, f := range written {
			printFile(f)
		}
	}

	if opts.upload {
		printNewline()
		return c.submit(ctx, cfg, s)
	}
	printNewline()
	printNextStep("Submit it", "depgraph upload "+path)
	return nil
}

// dispatchFiles decodes every stream into h concurrently. The first failing
// stream cancels the others.
func dispatchFiles(ctx context.Context, h depio.Handler, files []string, logger *log.Logger) ([]depio.Stats, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	stats := make([]depio.Stats, len(files))
	for i, f := range files {
		g.Go(func() error {
			st, err := depio.DispatchFile(ctx, f, h, logger.With("stream", f))
			if err != nil {
				return err
			}
			stats[i] = st
			logger.Debug("decoded stream", "stream", f, "schema", st.Schema, "events", st.Events, "skipped", st.Skipped)
			return nil
		})
	}
	return stats, g.Wait()
}
