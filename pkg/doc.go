// Package pkg provides the core libraries of depgraph.
//
// # Overview
//
// depgraph turns the dependency resolution results of a build into a
// snapshot for the GitHub dependency submission API. A build reports every
// resolved configuration as an event; each configuration is walked into a
// flat list of components, merged per manifest and finally assembled into
// one snapshot document. The pkg directory is organized into four areas:
//
//  1. Model - [model], [dag] and [errors]
//  2. Extraction - [io], [extract], [filter], [layout] and [engine]
//  3. Reporting - [merge], [snapshot] and [render/nodelink]
//  4. Delivery - [upload], [httputil], [config] and [observability]
//
// # Architecture
//
// The typical data flow:
//
//	NDJSON event stream
//	         ↓
//	    [io] package (decode events, build a resolution graph)
//	         ↓
//	    [engine] package (filter, attribute, walk, scope)
//	         ↓
//	    [merge] package (deduplicate per manifest)
//	         ↓
//	    [snapshot] package (assemble, encode, write)
//	         ↓
//	    [upload] package (submit to GitHub)
//
// # Quick Start
//
// Extract a snapshot from a recorded stream:
//
//	cfg, _ := config.Load(config.LoadOptions{})
//	ex, _ := engine.New(cfg, logger)
//	if _, err := io.DispatchFile(ctx, "events.ndjson", ex, logger); err != nil {
//	    return err
//	}
//	s, err := ex.Finish(ctx, ex.Params(time.Now()))
//	path, err := snapshot.WriteFile(cfg.ReportDir, s)
//
// Submit it:
//
//	client := upload.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Token)
//	res, err := client.Submit(ctx, "octo", "app", s)
//
// # Main Packages
//
// [model] - Coordinates, relationships, scopes and the resolved
// configuration produced by a single walk.
//
// [extract] - Walks a resolution graph from its root. Project components
// become nested sources and never appear as dependencies.
//
// [io] - Decodes event streams. The stream header selects a graph-building
// strategy: schema 1 carries a nested tree, schema 2 a flat component list.
//
// [engine] - The extractor that receives build events, possibly
// concurrently, and aggregates errors until Finish.
//
// [merge] - Deduplicates components by id. Direct wins over indirect and
// runtime scope wins over development.
//
// [snapshot] - Snapshot document types, encoding, the report file and the
// plain-text dependency reports.
//
// [upload] - Client for POST /repos/{owner}/{repo}/dependency-graph/snapshots.
//
// [render/nodelink] - Graphviz diagrams of a single manifest.
//
// # Testing
//
// Run tests:
//
//	go test ./...                 # All tests
//	go test -short ./...          # Skip Graphviz rendering
//	go test -run Example ./pkg/... # Examples only
//
// [model]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/model
// [dag]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/dag
// [errors]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/errors
// [io]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/io
// [extract]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/extract
// [filter]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/filter
// [layout]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/layout
// [engine]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/engine
// [merge]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/merge
// [snapshot]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/snapshot
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/render/nodelink
// [upload]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/upload
// [httputil]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/httputil
// [config]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/depgraph/pkg/observability
package pkg
