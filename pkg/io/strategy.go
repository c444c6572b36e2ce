package io

import (
	"fmt"

	"github.com/matzehuels/depgraph/pkg/errors"
)

// Strategy builds a graph from a configuration event of one schema.
type Strategy interface {
	Schema() int
	Build(ev *ConfigurationEvent) (*Graph, error)
}

// StrategyFor returns the strategy for a stream header.
func StrategyFor(h Header) (Strategy, error) {
	switch h.Schema {
	case SchemaGraph:
		return graphStrategy{}, nil
	case SchemaTree:
		return treeStrategy{}, nil
	case 0:
		return nil, errors.New(errors.ErrCodeInvalidEvent, "stream header has no schema")
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported stream schema %d (producer %q)", h.Schema, h.Producer)
	}
}

// graphStrategy decodes flat component lists.
type graphStrategy struct{}

func (graphStrategy) Schema() int { return SchemaGraph }

func (graphStrategy) Build(ev *ConfigurationEvent) (*Graph, error) {
	g := newGraph(ev.Repositories)
	for _, rec := range ev.Components {
		added, err := g.define(rec)
		if err != nil {
			return nil, err
		}
		if !added {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateComponent, rec.ID)
		}
	}
	for _, rec := range ev.Components {
		for _, e := range rec.Dependencies {
			if err := g.connect(rec.ID, e); err != nil {
				return nil, err
			}
		}
	}
	if err := g.setRoot(ev.Root); err != nil {
		return nil, err
	}
	return g, nil
}

// treeStrategy decodes nested dependency trees.
type treeStrategy struct{}

func (treeStrategy) Schema() int { return SchemaTree }

func (treeStrategy) Build(ev *ConfigurationEvent) (*Graph, error) {
	g := newGraph(ev.Repositories)
	if ev.Tree == nil {
		return g, nil
	}
	if err := addTree(g, ev.Tree); err != nil {
		return nil, err
	}
	if err := g.setRoot(ev.Tree.ID); err != nil {
		return nil, err
	}
	return g, nil
}

// addTree defines n and, on its first occurrence, its subtree.
func addTree(g *Graph, n *TreeNode) error {
	added, err := g.define(n.record())
	if err != nil || !added {
		return err
	}
	for _, e := range n.Dependencies {
		if e.Component == nil {
			if err := g.connect(n.ID, EdgeRecord{Requested: e.Requested, Failure: e.Failure}); err != nil {
				return err
			}
			continue
		}
		if err := addTree(g, e.Component); err != nil {
			return err
		}
		if err := g.connect(n.ID, EdgeRecord{Selected: e.Component.ID}); err != nil {
			return err
		}
	}
	return nil
}
