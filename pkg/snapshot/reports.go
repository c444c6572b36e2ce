package snapshot

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/depgraph/pkg/errors"
	"github.com/matzehuels/depgraph/pkg/model"
)

// Report file names written next to the snapshot.
const (
	DependencyListFile   = "dependency-list.txt"
	DependencyScopesFile = "dependency-scopes.json"
)

// DependencyList returns the sorted, distinct group:module:version lines of
// every component in cfgs.
func DependencyList(cfgs []*model.ResolvedConfiguration) []string {
	seen := map[string]struct{}{}
	for _, cfg := range cfgs {
		for _, n := range cfg.Components {
			seen[n.Coordinates.String()] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// ScopedDependency records how one component was resolved across configurations.
type ScopedDependency struct {
	Dependency     string       `json:"dependency"`
	EffectiveScope model.Scope  `json:"effectiveScope,omitempty"`
	ResolvedBy     []Resolution `json:"resolvedBy"`
}

// Resolution is one configuration that resolved a component.
type Resolution struct {
	Path          string      `json:"path"`
	Configuration string      `json:"configuration"`
	Scope         model.Scope `json:"scope,omitempty"`
}

// DependencyScopes groups non-project components by id and computes their
// effective scope. Output is sorted by id; resolutions keep first-seen order
// without repeats.
func DependencyScopes(cfgs []*model.ResolvedConfiguration) []ScopedDependency {
	byID := map[string]*ScopedDependency{}
	for _, cfg := range cfgs {
		res := Resolution{Path: cfg.Root.Path, Configuration: cfg.Name, Scope: cfg.Scope}
		for _, n := range cfg.Components {
			if n.Project {
				continue
			}
			d, ok := byID[n.ID]
			if !ok {
				d = &ScopedDependency{Dependency: n.ID}
				byID[n.ID] = d
			}
			if !slices.Contains(d.ResolvedBy, res) {
				d.ResolvedBy = append(d.ResolvedBy, res)
			}
		}
	}

	out := make([]ScopedDependency, 0, len(byID))
	for _, id := range slices.Sorted(maps.Keys(byID)) {
		d := byID[id]
		for _, r := range d.ResolvedBy {
			d.EffectiveScope = model.PromoteScope(d.EffectiveScope, r.Scope)
		}
		out = append(out, *d)
	}
	return out
}

// WriteReports writes the dependency list and scope reports into dir and
// returns their paths.
func WriteReports(dir string, cfgs []*model.ResolvedConfiguration) ([]string, error) {
	list := strings.Join(DependencyList(cfgs), "\n")
	listPath, err := writeAtomic(dir, DependencyListFile, []byte(list))
	if err != nil {
		return nil, err
	}

	scopes, err := json.MarshalIndent(DependencyScopes(cfgs), "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeWriteFailed, err, "encode dependency scopes")
	}
	scopesPath, err := writeAtomic(dir, DependencyScopesFile, scopes)
	if err != nil {
		return nil, err
	}
	return []string{listPath, scopesPath}, nil
}
