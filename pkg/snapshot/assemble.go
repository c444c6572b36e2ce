package snapshot

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/depgraph/pkg/merge"
	"github.com/matzehuels/depgraph/pkg/model"
)

// Params carries the build metadata that is not derived from the graph.
type Params struct {
	JobID         string
	JobCorrelator string
	Sha           string
	Ref           string
	Detector      Detector
	// Workspace is the absolute repository root used to relativize
	// manifest file references.
	Workspace string
	// Scanned is rendered as RFC 3339 when set.
	Scanned time.Time
}

// FileLocator finds the absolute descriptor file of a manifest.
type FileLocator interface {
	ManifestFile(m merge.Manifest) (string, bool)
}

// FileLocatorFunc adapts a function to [FileLocator].
type FileLocatorFunc func(m merge.Manifest) (string, bool)

// ManifestFile implements [FileLocator].
func (f FileLocatorFunc) ManifestFile(m merge.Manifest) (string, bool) { return f(m) }

// Assemble builds the submission document. Manifests are named by their key.
// A nil locator omits all file references.
func Assemble(p Params, manifests []merge.Manifest, files FileLocator) *Snapshot {
	s := &Snapshot{
		Version:   FormatVersion,
		Job:       Job{ID: p.JobID, Correlator: p.JobCorrelator},
		Sha:       p.Sha,
		Ref:       p.Ref,
		Detector:  p.Detector,
		Manifests: make(map[string]Manifest, len(manifests)),
	}
	if !p.Scanned.IsZero() {
		s.Scanned = p.Scanned.UTC().Format(time.RFC3339)
	}

	for _, m := range manifests {
		out := Manifest{Name: m.Key, Resolved: make(map[string]Dependency, len(m.Resolved))}
		for id, e := range m.Resolved {
			deps := slices.Clone(e.Dependencies)
			if deps == nil {
				deps = []string{}
			}
			out.Resolved[id] = Dependency{
				PackageURL:   e.PackageURL,
				Relationship: e.Relationship,
				Scope:        e.Scope,
				Dependencies: deps,
			}
		}
		if files != nil {
			if abs, ok := files.ManifestFile(m); ok {
				out.File = &File{SourceLocation: RelativePath(p.Workspace, abs)}
			}
		}
		s.Manifests[m.Key] = out
	}
	return s
}

// RelativePath expresses target relative to workspace using forward
// slashes. Targets outside the workspace, or an empty workspace, leave the
// path unchanged apart from separator cleanup.
func RelativePath(workspace, target string) string {
	rel := target
	if workspace != "" {
		if r, err := filepath.Rel(workspace, target); err == nil && !escapes(r) {
			rel = r
		}
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), `\`, "/")
}

// escapes reports whether the relative path r leaves its base directory.
// Names that merely start with dots, like "..gradle", stay inside.
func escapes(r string) bool {
	return r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator))
}

// Totals summarises a snapshot's relationships per manifest.
type Totals struct {
	Manifest string
	Direct   int
	Indirect int
}

// Summarize counts direct and indirect components per manifest, sorted by name.
func Summarize(s *Snapshot) []Totals {
	out := make([]Totals, 0, len(s.Manifests))
	for _, name := range s.ManifestNames() {
		t := Totals{Manifest: name}
		for _, d := range s.Manifests[name].Resolved {
			if d.Relationship == model.Direct {
				t.Direct++
			} else {
				t.Indirect++
			}
		}
		out = append(out, t)
	}
	return out
}
