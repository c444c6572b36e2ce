// Package merge folds walked configurations into per-manifest accumulators.
//
// A [Collector] deduplicates components by id within each manifest,
// promotes relationship and scope along their lattices and unions
// dependency ids in first-seen order. Folding is idempotent and
// order-independent for relationship and scope, so resolution events may
// arrive in any order and from several goroutines.
package merge

import (
	"maps"
	"slices"
	"sync"

	"github.com/matzehuels/depgraph/pkg/model"
)

// Entry is the merged view of one component within a manifest.
type Entry struct {
	PackageURL   string
	Relationship model.Relationship
	Scope        model.Scope
	Dependencies []string
}

// Manifest is a finalized copy of one accumulator.
type Manifest struct {
	Key      string
	Root     model.ResolutionRoot
	Resolved map[string]Entry
}

// IDs returns the component ids of m in sorted order.
func (m Manifest) IDs() []string {
	return slices.Sorted(maps.Keys(m.Resolved))
}

type accumulator struct {
	root    model.ResolutionRoot
	entries map[string]*Entry
	order   []string
}

// Collector owns all per-manifest accumulators. The zero value is not
// usable; call [NewCollector].
type Collector struct {
	mu        sync.Mutex
	manifests map[string]*accumulator
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{manifests: make(map[string]*accumulator)}
}

// Merge folds every non-project component of cfg into the manifest named
// key, creating it for cfg.Root on first use. Components equal to the
// configuration root are skipped.
func (c *Collector) Merge(key string, cfg *model.ResolvedConfiguration) {
	if cfg == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	acc, ok := c.manifests[key]
	if !ok {
		acc = &accumulator{root: cfg.Root, entries: make(map[string]*Entry)}
		c.manifests[key] = acc
	}
	for i := range cfg.Components {
		node := &cfg.Components[i]
		if node.ID == cfg.Root.ID || node.Project {
			continue
		}
		acc.add(node, cfg.Scope)
	}
}

func (a *accumulator) add(node *model.ResolvedNode, scope model.Scope) {
	e, ok := a.entries[node.ID]
	if !ok {
		e = &Entry{PackageURL: node.PackageURL(), Dependencies: []string{}}
		a.entries[node.ID] = e
		a.order = append(a.order, node.ID)
	}
	e.Relationship = model.Promote(e.Relationship, node.Relationship())
	e.Scope = model.PromoteScope(e.Scope, scope)
	for _, dep := range node.Dependencies {
		if !slices.Contains(e.Dependencies, dep) {
			e.Dependencies = append(e.Dependencies, dep)
		}
	}
}

// Len returns the number of manifests.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.manifests)
}

// Manifests returns deep copies of all accumulators sorted by key.
func (c *Collector) Manifests() []Manifest {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Manifest, 0, len(c.manifests))
	for _, key := range slices.Sorted(maps.Keys(c.manifests)) {
		acc := c.manifests[key]
		m := Manifest{Key: key, Root: acc.root, Resolved: make(map[string]Entry, len(acc.entries))}
		for _, id := range acc.order {
			e := *acc.entries[id]
			e.Dependencies = slices.Clone(e.Dependencies)
			m.Resolved[id] = e
		}
		out = append(out, m)
	}
	return out
}

// Partition splits cfg into one configuration per node source, in order of
// first appearance. Each part keeps cfg's name and scope; its root is the
// owning source.
func Partition(cfg *model.ResolvedConfiguration) []*model.ResolvedConfiguration {
	var parts []*model.ResolvedConfiguration
	index := map[string]int{}
	for _, n := range cfg.Components {
		i, ok := index[n.Source.ID]
		if !ok {
			i = len(parts)
			index[n.Source.ID] = i
			parts = append(parts, &model.ResolvedConfiguration{Root: n.Source, Name: cfg.Name, Scope: cfg.Scope})
		}
		parts[i].Components = append(parts[i].Components, n)
	}
	return parts
}
