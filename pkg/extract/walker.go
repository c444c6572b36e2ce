package extract

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/depgraph/pkg/model"
)

var (
	// ErrUnattributableRoot is returned by [Attribute] when a resolution
	// cannot be assigned to a project or a build.
	ErrUnattributableRoot = errors.New("cannot attribute resolution to a project or build")

	// ErrMalformedGraph is returned by [Walk] when a component has no identity.
	ErrMalformedGraph = errors.New("malformed resolved graph")
)

// Attribute determines the owner of a resolution. Project roots own their
// graph; anything else is assigned to the build at buildPath.
func Attribute(g Graph, buildPath string) (model.ResolutionRoot, error) {
	if g == nil || g.Root() == nil {
		return model.ResolutionRoot{}, ErrUnattributableRoot
	}
	root := g.Root()
	if path, ok := root.ProjectPath(); ok && path != "" {
		if root.ID() == "" {
			return model.ResolutionRoot{}, fmt.Errorf("%w: project %s has no component id", ErrUnattributableRoot, path)
		}
		return model.ProjectRoot(root.ID(), path), nil
	}
	if buildPath == "" {
		return model.ResolutionRoot{}, ErrUnattributableRoot
	}
	return model.BuildRoot(buildPath), nil
}

// walker holds the state of a single Walk call.
type walker struct {
	graph   Graph
	root    model.ResolutionRoot
	rootID  string
	visited map[string]struct{}
	cfg     *model.ResolvedConfiguration
}

// Walk flattens g into a configuration owned by root. Direct children of the
// root are recorded before anything transitive, every component is recorded
// at most once, and only resolved edges are followed. Project components
// start a new source for their own dependencies.
func Walk(root model.ResolutionRoot, configuration string, g Graph) (*model.ResolvedConfiguration, error) {
	cfg := &model.ResolvedConfiguration{Root: root, Name: configuration}
	if g == nil || g.Root() == nil {
		return cfg, nil
	}
	w := &walker{
		graph:   g,
		root:    root,
		rootID:  g.Root().ID(),
		visited: map[string]struct{}{},
		cfg:     cfg,
	}

	var direct []Component
	for _, child := range w.children(g.Root()) {
		if _, seen := w.visited[child.ID()]; seen {
			continue
		}
		if err := w.record(child, root, true); err != nil {
			return nil, err
		}
		direct = append(direct, child)
	}
	for _, child := range direct {
		if err := w.walk(child, root); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (w *walker) walk(c Component, parentSource model.ResolutionRoot) error {
	source := sourceOf(c, parentSource)
	direct := !source.Same(parentSource)

	for _, child := range w.children(c) {
		if _, seen := w.visited[child.ID()]; seen {
			continue
		}
		if err := w.record(child, source, direct); err != nil {
			return err
		}
		if err := w.walk(child, source); err != nil {
			return err
		}
	}
	return nil
}

// children returns resolved children of c minus edges back to the walk root.
func (w *walker) children(c Component) []Component {
	return slices.DeleteFunc(resolvedChildren(c), func(d Component) bool {
		return d.ID() == w.rootID
	})
}

func (w *walker) record(c Component, source model.ResolutionRoot, direct bool) error {
	id := c.ID()
	if id == "" {
		return fmt.Errorf("%w: component without id in %s (%s)", ErrMalformedGraph, w.root.ID, w.cfg.Name)
	}
	w.visited[id] = struct{}{}

	children := w.children(c)
	deps := make([]string, 0, len(children))
	for _, d := range children {
		if d.ID() == "" {
			return fmt.Errorf("%w: dependency of %s without id", ErrMalformedGraph, id)
		}
		if !slices.Contains(deps, d.ID()) {
			deps = append(deps, d.ID())
		}
	}

	_, isProject := c.ProjectPath()
	w.cfg.Components = append(w.cfg.Components, model.ResolvedNode{
		ID:            id,
		Source:        source,
		Direct:        direct,
		Project:       isProject,
		Coordinates:   coordinates(c),
		RepositoryURL: w.repositoryURL(c),
		Dependencies:  deps,
	})
	return nil
}

func (w *walker) repositoryURL(c Component) string {
	id, ok := c.RepositoryID()
	if !ok || id == "" {
		return ""
	}
	u, ok := w.graph.RepositoryURL(id)
	if !ok {
		return ""
	}
	return strings.TrimSuffix(u, "/")
}

// sourceOf returns c's own root when it is a project, else the inherited source.
func sourceOf(c Component, inherited model.ResolutionRoot) model.ResolutionRoot {
	if path, ok := c.ProjectPath(); ok {
		return model.ProjectRoot(c.ID(), path)
	}
	return inherited
}

func coordinates(c Component) model.Coordinates {
	if mv, ok := c.ModuleVersion(); ok {
		return mv
	}
	return model.UnknownCoordinates
}
