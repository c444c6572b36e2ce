package dag

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// Metadata maps are never nil once a node has been added.
type Metadata map[string]any

// NodeKind distinguishes the roles a node plays in a component graph.
type NodeKind int

const (
	// NodeKindComponent is a resolved component.
	NodeKindComponent NodeKind = iota
	// NodeKindRoot is the owner of the graph (a project or a build).
	NodeKindRoot
	// NodeKindExternal is referenced by an edge but reported elsewhere,
	// such as a project component in another manifest.
	NodeKindExternal
)

// Node is a vertex keyed by its ID.
type Node struct {
	ID   string
	Kind NodeKind
	Meta Metadata
}

// IsRoot reports whether the node owns the graph.
func (n Node) IsRoot() bool { return n.Kind == NodeKindRoot }

// IsExternal reports whether the node is only referenced from this graph.
func (n Node) IsExternal() bool { return n.Kind == NodeKindExternal }

// Edge is a directed connection between two node IDs.
type Edge struct {
	From string
	To   string
	Meta Metadata
}

// DAG is an arena of nodes with adjacency lists keyed by node ID. Edges keep
// insertion order per node so traversals are deterministic.
//
// Resolved component graphs may contain cycles through capability
// substitution, so AddEdge does not reject them.
//
// The zero value is not usable; call [New]. DAG is not safe for concurrent
// mutation.
type DAG struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]string
	meta     Metadata
}

// New creates an empty graph with optional graph-level metadata.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node. Returns ErrInvalidNodeID for an empty ID and
// ErrDuplicateNodeID if the ID is taken.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	d.nodes[n.ID] = &n
	return nil
}

// EnsureNode adds n unless a node with its ID exists, and returns the stored node.
func (d *DAG) EnsureNode(n Node) (*Node, error) {
	if existing, ok := d.nodes[n.ID]; ok {
		return existing, nil
	}
	if err := d.AddNode(n); err != nil {
		return nil, err
	}
	return d.nodes[n.ID], nil
}

// AddEdge adds a directed edge between two existing nodes. Repeating an
// existing edge is a no-op.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if slices.Contains(d.outgoing[e.From], e.To) {
		return nil
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	return nil
}

// Nodes returns all nodes sorted by ID.
func (d *DAG) Nodes() []*Node {
	ids := slices.Sorted(maps.Keys(d.nodes))
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = d.nodes[id]
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the targets of id's outgoing edges in insertion order.
// The returned slice must not be modified.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Node returns the node with the given ID.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}
