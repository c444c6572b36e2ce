package snapshot

import (
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/depgraph/pkg/model"
)

// FormatVersion is the submission document version.
const FormatVersion = 0

// Snapshot is the root submission document for one build.
type Snapshot struct {
	Version   int                 `json:"version"`
	Job       Job                 `json:"job"`
	Sha       string              `json:"sha"`
	Ref       string              `json:"ref"`
	Detector  Detector            `json:"detector"`
	Scanned   string              `json:"scanned,omitempty"`
	Manifests map[string]Manifest `json:"manifests"`
}

// Job identifies the CI job that produced the snapshot.
type Job struct {
	ID         string `json:"id"`
	Correlator string `json:"correlator"`
}

// Detector identifies the tool that produced the snapshot.
type Detector struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	URL     string `json:"url"`
}

// Manifest is the merged dependency report of one build unit.
type Manifest struct {
	Name     string                `json:"name"`
	File     *File                 `json:"file,omitempty"`
	Resolved map[string]Dependency `json:"resolved"`
}

// File references the descriptor a manifest was derived from.
type File struct {
	SourceLocation string `json:"source_location"`
}

// Dependency is one resolved component of a manifest, keyed by component id.
type Dependency struct {
	PackageURL   string             `json:"package_url"`
	Relationship model.Relationship `json:"relationship"`
	Scope        model.Scope        `json:"scope,omitempty"`
	Dependencies []string           `json:"dependencies"`
}

// ManifestNames returns the manifest names in sorted order.
func (s *Snapshot) ManifestNames() []string {
	return slices.Sorted(maps.Keys(s.Manifests))
}

// ComponentCount returns the number of resolved entries over all manifests.
func (s *Snapshot) ComponentCount() int {
	n := 0
	for _, m := range s.Manifests {
		n += len(m.Resolved)
	}
	return n
}

// String renders a one-line description of s.
func (s *Snapshot) String() string {
	return fmt.Sprintf("snapshot %s@%s (%d manifests, %d components)", s.Job.Correlator, s.Sha, len(s.Manifests), s.ComponentCount())
}
