package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depgraph/pkg/errors"
	"github.com/matzehuels/depgraph/pkg/render/nodelink"
	"github.com/matzehuels/depgraph/pkg/snapshot"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	manifest    string // manifest name to render
	format      string // "dot" or "svg"
	output      string // output file; stdout when empty
	detailed    bool   // include purl, relationship and scope in labels
	interactive bool   // pick the manifest from a list
}

func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: formatSVG}

	cmd := &cobra.Command{
		Use:   "graph <snapshot.json>",
		Short: "Render a manifest of a snapshot as a node-link diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatDOT && opts.format != formatSVG {
				return errors.New(errors.ErrCodeInvalidInput, "invalid format: %s (must be 'dot' or 'svg')", opts.format)
			}
			return runGraph(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "manifest to render (required when the snapshot has several)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), dot")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show package URL, relationship and scope in labels")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "choose the manifest interactively")

	return cmd
}

func runGraph(ctx context.Context, w io.Writer, path string, opts graphOpts) error {
	logger := loggerFromContext(ctx)

	s, err := snapshot.ReadFile(path)
	if err != nil {
		return err
	}
	name, err := chooseManifest(s, opts)
	if err != nil || name == "" {
		return err
	}

	g := nodelink.FromManifest(s.Manifests[name])
	logger.Debug("rendering manifest", "manifest", name, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	data := []byte(nodelink.ToDOT(g, nodelink.Options{Detailed: opts.detailed}))
	if opts.format == formatSVG {
		if data, err = nodelink.RenderSVG(ctx, string(data)); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "render %s", name)
		}
	}

	if opts.output == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, err, "write %s", opts.output)
	}
	printSuccess("Rendered %s", StyleNumber.Render(name))
	printFile(opts.output)
	return nil
}

// chooseManifest resolves the manifest to render. An empty name without an
// error means the user cancelled the picker.
func chooseManifest(s *snapshot.Snapshot, opts graphOpts) (string, error) {
	names := s.ManifestNames()
	switch {
	case opts.manifest != "":
		if _, ok := s.Manifests[opts.manifest]; !ok {
			return "", errors.New(errors.ErrCodeNotFound, "manifest %q not found; available: %s", opts.manifest, strings.Join(names, ", "))
		}
		return opts.manifest, nil
	case len(names) == 0:
		return "", errors.New(errors.ErrCodeNotFound, "snapshot has no manifests")
	case opts.interactive:
		return pickManifest(s)
	case len(names) == 1:
		return names[0], nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "snapshot has %d manifests; choose one with --manifest or --interactive: %s",
			len(names), strings.Join(names, ", "))
	}
}

func pickManifest(s *snapshot.Snapshot) (string, error) {
	final, err := tea.NewProgram(NewManifestListModel(manifestItems(s)), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return "", fmt.Errorf("manifest picker: %w", err)
	}
	m, ok := final.(ManifestListModel)
	if !ok || m.Selected == nil {
		return "", nil
	}
	return m.Selected.Name, nil
}
