package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/depgraph/pkg/dag"
	"github.com/matzehuels/depgraph/pkg/model"
	"github.com/matzehuels/depgraph/pkg/snapshot"
)

// Node metadata keys set by [FromManifest].
const (
	MetaPackageURL   = "purl"
	MetaRelationship = "relationship"
	MetaScope        = "scope"
	MetaFile         = "file"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes package URL, relationship and scope in node labels.
	// When false, only the node ID is shown.
	Detailed bool
}

// FromManifest rebuilds the dependency graph of m.
func FromManifest(m snapshot.Manifest) *dag.DAG {
	meta := dag.Metadata{}
	if m.File != nil {
		meta[MetaFile] = m.File.SourceLocation
	}
	g := dag.New(meta)
	_ = g.AddNode(dag.Node{ID: m.Name, Kind: dag.NodeKindRoot, Meta: maps.Clone(meta)})

	ids := slices.Sorted(maps.Keys(m.Resolved))
	for _, id := range ids {
		if id == m.Name {
			continue
		}
		d := m.Resolved[id]
		nm := dag.Metadata{
			MetaPackageURL:   d.PackageURL,
			MetaRelationship: d.Relationship.String(),
		}
		if d.Scope != model.ScopeUnknown {
			nm[MetaScope] = d.Scope.String()
		}
		_ = g.AddNode(dag.Node{ID: id, Kind: dag.NodeKindComponent, Meta: nm})
	}
	for _, id := range ids {
		d := m.Resolved[id]
		if d.Relationship == model.Direct {
			_ = g.AddEdge(dag.Edge{From: m.Name, To: id})
		}
		for _, dep := range d.Dependencies {
			if _, err := g.EnsureNode(dag.Node{ID: dep, Kind: dag.NodeKindExternal}); err != nil {
				continue
			}
			_ = g.AddEdge(dag.Edge{From: id, To: dep})
		}
	}
	return g
}

// ToDOT converts a DAG to Graphviz DOT format for node-link visualization.
// Nodes and edges are emitted in a stable order.
func ToDOT(g *dag.DAG, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := fmtLabel(*n, opts.Detailed)
		attrs := fmtAttrs(*n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	edges := g.Edges()
	slices.SortFunc(edges, func(a, b dag.Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n dag.Node, detailed bool) string {
	if !detailed || len(n.Meta) == 0 {
		return n.ID
	}
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n dag.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n.IsRoot():
		attrs = append(attrs, "shape=folder", "fillcolor=\"#e8e8e8\"", "penwidth=2")
	case n.IsExternal():
		attrs = append(attrs, "style=\"rounded,dashed\"", "fontcolor=grey40")
	case n.Meta[MetaRelationship] == model.Direct.String():
		attrs = append(attrs, "fillcolor=\"#dbeafe\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
