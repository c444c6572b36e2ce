// Package nodelink renders snapshot manifests as node-link diagrams.
//
// # Overview
//
// A manifest is flattened data: resolved components keyed by id, each with
// the ids it depends on. [FromManifest] rebuilds it as a [dag.DAG] with the
// manifest itself as the root node, an edge to every direct component and
// the recorded dependency edges between components. Dependencies that are
// not part of the manifest, such as other projects, become external nodes.
//
// # Usage
//
//	g := nodelink.FromManifest(m)
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: false})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// The generated DOT uses left-to-right layout with rounded box nodes. Direct
// components are filled, indirect ones are plain, external nodes are dashed.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
