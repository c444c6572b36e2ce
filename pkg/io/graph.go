package io

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/depgraph/pkg/dag"
	"github.com/matzehuels/depgraph/pkg/extract"
	"github.com/matzehuels/depgraph/pkg/model"
)

// Node metadata keys of a decoded graph.
const (
	MetaModule     = "module"
	MetaProject    = "project"
	MetaRepository = "repository"
	MetaUnresolved = "unresolved"
)

var (
	// ErrUnknownComponent is returned when an edge or root names a component
	// the event does not define.
	ErrUnknownComponent = errors.New("unknown component")

	// ErrDuplicateComponent is returned when a flat graph defines an id twice.
	ErrDuplicateComponent = errors.New("duplicate component")
)

// Graph is a decoded resolution. It implements [extract.Graph].
type Graph struct {
	dag          *dag.DAG
	root         string
	repositories map[string]string
}

func newGraph(repos []Repository) *Graph {
	g := &Graph{dag: dag.New(nil), repositories: make(map[string]string, len(repos))}
	for _, r := range repos {
		g.repositories[r.ID] = r.URL
	}
	return g
}

// DAG returns the underlying component arena.
func (g *Graph) DAG() *dag.DAG { return g.dag }

// Root implements [extract.Graph].
func (g *Graph) Root() extract.Component {
	if g.root == "" {
		return nil
	}
	return g.component(g.root)
}

// RepositoryURL implements [extract.Graph].
func (g *Graph) RepositoryURL(id string) (string, bool) {
	u, ok := g.repositories[id]
	return u, ok
}

func (g *Graph) component(id string) *component {
	n, ok := g.dag.Node(id)
	if !ok {
		return nil
	}
	return &component{g: g, node: n}
}

// define adds a component node, or reports whether it already existed.
func (g *Graph) define(rec ComponentRecord) (added bool, err error) {
	if strings.TrimSpace(rec.ID) == "" {
		return false, fmt.Errorf("%w: component without id", extract.ErrMalformedGraph)
	}
	if _, ok := g.dag.Node(rec.ID); ok {
		return false, nil
	}
	meta := dag.Metadata{}
	if rec.Module != nil {
		meta[MetaModule] = *rec.Module
	}
	if rec.Project != "" {
		meta[MetaProject] = rec.Project
	}
	if rec.Repository != "" {
		meta[MetaRepository] = rec.Repository
	}
	kind := dag.NodeKindComponent
	if rec.Project != "" {
		kind = dag.NodeKindExternal
	}
	if err := g.dag.AddNode(dag.Node{ID: rec.ID, Kind: kind, Meta: meta}); err != nil {
		return false, err
	}
	return true, nil
}

func (g *Graph) connect(from string, e EdgeRecord) error {
	if e.Selected == "" {
		n, _ := g.dag.Node(from)
		requested := e.Requested
		if requested == "" {
			requested = "unknown"
		}
		unresolved, _ := n.Meta[MetaUnresolved].([]string)
		n.Meta[MetaUnresolved] = append(unresolved, requested)
		return nil
	}
	if err := g.dag.AddEdge(dag.Edge{From: from, To: e.Selected}); err != nil {
		if errors.Is(err, dag.ErrUnknownTargetNode) {
			return fmt.Errorf("%w: %s -> %s", ErrUnknownComponent, from, e.Selected)
		}
		return err
	}
	return nil
}

func (g *Graph) setRoot(id string) error {
	if id == "" {
		return nil
	}
	n, ok := g.dag.Node(id)
	if !ok {
		return fmt.Errorf("%w: root %s", ErrUnknownComponent, id)
	}
	n.Kind = dag.NodeKindRoot
	g.root = id
	return nil
}

// component adapts a DAG node to [extract.Component].
type component struct {
	g    *Graph
	node *dag.Node
}

func (c *component) ID() string { return c.node.ID }

func (c *component) ModuleVersion() (model.Coordinates, bool) {
	m, ok := c.node.Meta[MetaModule].(model.Coordinates)
	return m, ok
}

func (c *component) ProjectPath() (string, bool) {
	p, ok := c.node.Meta[MetaProject].(string)
	return p, ok && p != ""
}

func (c *component) RepositoryID() (string, bool) {
	r, ok := c.node.Meta[MetaRepository].(string)
	return r, ok && r != ""
}

func (c *component) Dependencies() []extract.Dependency {
	children := c.g.dag.Children(c.node.ID)
	unresolved, _ := c.node.Meta[MetaUnresolved].([]string)
	out := make([]extract.Dependency, 0, len(children)+len(unresolved))
	for _, id := range children {
		out = append(out, extract.Dependency{Requested: id, Selected: c.g.component(id)})
	}
	for _, r := range unresolved {
		out = append(out, extract.Dependency{Requested: r})
	}
	return out
}
