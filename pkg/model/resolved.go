package model

import "strings"

// buildRootPrefix marks roots that could not be attributed to a project.
const buildRootPrefix = "build "

// ResolutionRoot identifies the owner of a resolved graph: a project in the
// multi-module tree or, failing that, the enclosing build. Roots compare by ID.
type ResolutionRoot struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// ProjectRoot returns the root for a project component.
func ProjectRoot(componentID, identityPath string) ResolutionRoot {
	return ResolutionRoot{ID: componentID, Path: identityPath}
}

// BuildRoot returns the root for resolutions not bound to any project.
func BuildRoot(buildPath string) ResolutionRoot {
	return ResolutionRoot{ID: buildRootPrefix + buildPath, Path: buildPath}
}

// IsBuild reports whether r stands for a whole build rather than a project.
func (r ResolutionRoot) IsBuild() bool {
	return strings.HasPrefix(r.ID, buildRootPrefix)
}

// Same reports whether two roots name the same owner.
func (r ResolutionRoot) Same(o ResolutionRoot) bool {
	return r.ID == o.ID
}

// ResolvedNode is one component seen during a walk. Dependencies refer to
// other nodes of the same configuration by ID.
type ResolvedNode struct {
	ID            string         `json:"id"`
	Source        ResolutionRoot `json:"source"`
	Direct        bool           `json:"direct"`
	Project       bool           `json:"project,omitempty"`
	Coordinates   Coordinates    `json:"coordinates"`
	RepositoryURL string         `json:"repositoryUrl,omitempty"`
	Dependencies  []string       `json:"dependencies"`
}

// Relationship returns the node's classification relative to its source.
func (n ResolvedNode) Relationship() Relationship {
	return RelationshipOf(n.Direct)
}

// PackageURL returns the package URL for the node's coordinates and repository.
func (n ResolvedNode) PackageURL() string {
	return n.Coordinates.PackageURL(n.RepositoryURL)
}

// ResolvedConfiguration is the flat result of walking one resolution event.
// Components never include the root itself.
type ResolvedConfiguration struct {
	Root       ResolutionRoot `json:"root"`
	Name       string         `json:"configuration"`
	Scope      Scope          `json:"scope,omitempty"`
	Components []ResolvedNode `json:"components"`
}
