package io

import (
	"github.com/matzehuels/depgraph/pkg/layout"
	"github.com/matzehuels/depgraph/pkg/model"
)

// Schema versions understood by the decoder.
const (
	SchemaTree  = 1
	SchemaGraph = 2
)

// Event kinds.
const (
	KindSettingsEvaluated     = "settings_evaluated"
	KindProjectsLoaded        = "projects_loaded"
	KindConfigurationResolved = "configuration_resolved"
)

// Header is the first line of a stream.
type Header struct {
	Schema   int    `json:"schema"`
	Producer string `json:"producer,omitempty"`
}

type envelope struct {
	Event string `json:"event"`
}

// SettingsEvent reports the settings file evaluated for a build.
type SettingsEvent struct {
	BuildPath    string `json:"build_path"`
	SettingsFile string `json:"settings_file"`
}

// ProjectsEvent reports a build's loaded project tree.
type ProjectsEvent struct {
	RootProject layout.Project `json:"root_project"`
}

// Repository maps a repository id to its URL.
type Repository struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ConfigurationEvent reports one resolved configuration. Root and
// Components are used by schema 2, Tree by schema 1.
type ConfigurationEvent struct {
	BuildPath     string            `json:"build_path"`
	Configuration string            `json:"configuration"`
	Repositories  []Repository      `json:"repositories,omitempty"`
	Root          string            `json:"root,omitempty"`
	Components    []ComponentRecord `json:"components,omitempty"`
	Tree          *TreeNode         `json:"tree,omitempty"`
}

// ComponentRecord describes one component of a flat graph.
type ComponentRecord struct {
	ID           string             `json:"id"`
	Module       *model.Coordinates `json:"module,omitempty"`
	Project      string             `json:"project,omitempty"`
	Repository   string             `json:"repository,omitempty"`
	Dependencies []EdgeRecord       `json:"dependencies,omitempty"`
}

// EdgeRecord is an outgoing edge of a flat graph. Exactly one of Selected
// or Requested is set.
type EdgeRecord struct {
	Selected  string `json:"selected,omitempty"`
	Requested string `json:"requested,omitempty"`
	Failure   string `json:"failure,omitempty"`
}

// TreeNode is one component of a nested tree.
type TreeNode struct {
	ID           string             `json:"id"`
	Module       *model.Coordinates `json:"module,omitempty"`
	Project      string             `json:"project,omitempty"`
	Repository   string             `json:"repository,omitempty"`
	Dependencies []TreeEdge         `json:"dependencies,omitempty"`
}

// TreeEdge is an outgoing edge of a nested tree. Component is nil for an
// unresolved edge.
type TreeEdge struct {
	Component *TreeNode `json:"component,omitempty"`
	Requested string    `json:"requested,omitempty"`
	Failure   string    `json:"failure,omitempty"`
}

func (n *TreeNode) record() ComponentRecord {
	return ComponentRecord{ID: n.ID, Module: n.Module, Project: n.Project, Repository: n.Repository}
}
