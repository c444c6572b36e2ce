package extract

import "github.com/matzehuels/depgraph/pkg/model"

// Graph is a resolver's in-memory result for one configuration.
type Graph interface {
	// Root returns the component the configuration was resolved for, or nil
	// when the resolver produced no root.
	Root() Component

	// RepositoryURL maps a repository id declared for the resolution to its URL.
	RepositoryURL(repositoryID string) (string, bool)
}

// Component is one node of a resolved graph.
type Component interface {
	// ID is the component's display identity, unique within the graph.
	ID() string

	// ModuleVersion returns the component's coordinates, if known.
	ModuleVersion() (model.Coordinates, bool)

	// ProjectPath returns the identity path when the component is a build
	// module rather than an external artifact.
	ProjectPath() (string, bool)

	// RepositoryID returns the id of the repository the component was resolved from.
	RepositoryID() (string, bool)

	// Dependencies lists outgoing dependency edges, resolved or not.
	Dependencies() []Dependency
}

// Dependency is an outgoing edge. Selected is nil when the edge failed to
// resolve; Requested then describes what was asked for.
type Dependency struct {
	Requested string
	Selected  Component
}

// Resolved reports whether the edge selected a component.
func (d Dependency) Resolved() bool { return d.Selected != nil }

// Resolution is a single configuration-resolved event.
type Resolution struct {
	BuildPath     string
	Configuration string
	Graph         Graph
}

// resolvedChildren returns the selected components of c's resolved edges,
// skipping self edges.
func resolvedChildren(c Component) []Component {
	deps := c.Dependencies()
	out := make([]Component, 0, len(deps))
	for _, d := range deps {
		if !d.Resolved() || d.Selected.ID() == c.ID() {
			continue
		}
		out = append(out, d.Selected)
	}
	return out
}

// HasDependencies reports whether the root of g declares any dependency at all.
func HasDependencies(g Graph) bool {
	if g == nil || g.Root() == nil {
		return false
	}
	return len(g.Root().Dependencies()) > 0
}
