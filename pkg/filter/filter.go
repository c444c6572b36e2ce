// Package filter decides which resolved configurations are extracted and
// which scope they report.
//
// Patterns are regular expressions that must match the whole project path
// or configuration name. Include rules are applied first, then exclude
// rules; an empty include pattern matches everything.
package filter

import (
	"fmt"
	"regexp"

	"github.com/matzehuels/depgraph/pkg/model"
)

// Patterns holds raw include/exclude expressions for projects and configurations.
type Patterns struct {
	IncludeProjects       string `toml:"include_projects"`
	ExcludeProjects       string `toml:"exclude_projects"`
	IncludeConfigurations string `toml:"include_configurations"`
	ExcludeConfigurations string `toml:"exclude_configurations"`
}

// IsZero reports whether no pattern is set.
func (p Patterns) IsZero() bool {
	return p == Patterns{}
}

// rule is a compiled include/exclude pair.
type rule struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
}

func (r rule) matches(s string) bool {
	if r.include != nil && !r.include.MatchString(s) {
		return false
	}
	if r.exclude != nil && r.exclude.MatchString(s) {
		return false
	}
	return true
}

// Filter selects configurations by project path and configuration name.
type Filter struct {
	projects       rule
	configurations rule
}

// New compiles p. An error names the offending pattern.
func New(p Patterns) (*Filter, error) {
	f := &Filter{}
	var err error
	if f.projects, err = compileRule(p.IncludeProjects, p.ExcludeProjects); err != nil {
		return nil, fmt.Errorf("project filter: %w", err)
	}
	if f.configurations, err = compileRule(p.IncludeConfigurations, p.ExcludeConfigurations); err != nil {
		return nil, fmt.Errorf("configuration filter: %w", err)
	}
	return f, nil
}

// Include reports whether the configuration of the given project is extracted.
func (f *Filter) Include(projectPath, configuration string) bool {
	return f.projects.matches(projectPath) && f.configurations.matches(configuration)
}

// Scoper classifies configurations as runtime or development.
type Scoper struct {
	enabled bool
	Filter
}

// NewScoper compiles the runtime rules. With no pattern set every
// configuration reports [model.ScopeUnknown].
func NewScoper(runtime Patterns) (*Scoper, error) {
	f, err := New(runtime)
	if err != nil {
		return nil, fmt.Errorf("runtime %w", err)
	}
	return &Scoper{enabled: !runtime.IsZero(), Filter: *f}, nil
}

// Scope returns the scope of a configuration.
func (s *Scoper) Scope(projectPath, configuration string) model.Scope {
	switch {
	case !s.enabled:
		return model.ScopeUnknown
	case s.Include(projectPath, configuration):
		return model.ScopeRuntime
	default:
		return model.ScopeDevelopment
	}
}

func compileRule(include, exclude string) (rule, error) {
	var r rule
	var err error
	if r.include, err = compileFull(include); err != nil {
		return rule{}, err
	}
	if r.exclude, err = compileFull(exclude); err != nil {
		return rule{}, err
	}
	return r, nil
}

// compileFull anchors expr so it must match the entire input.
func compileFull(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return re, nil
}
