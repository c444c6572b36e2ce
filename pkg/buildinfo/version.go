// Package buildinfo identifies this build of depgraph.
//
// Release builds set the variables via ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/depgraph/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/depgraph/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/depgraph/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries installed with go install fall back to the module version and
// VCS stamp recorded by the toolchain. Name and the resolved version form
// the detector of every submitted snapshot.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Name is the tool name reported as the snapshot detector.
const Name = "depgraph"

const unset = "dev"

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = unset

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

var resolveOnce sync.Once

// resolve fills unset variables from the embedded module build info.
func resolve() {
	resolveOnce.Do(func() {
		if Version != unset {
			return
		}
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			Version = v
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if Commit == "none" {
					Commit = s.Value
				}
			case "vcs.time":
				if Date == "unknown" {
					Date = s.Value
				}
			}
		}
	})
}

// DetectorVersion returns the version reported in snapshots.
func DetectorVersion() string {
	resolve()
	return Version
}

// Template returns the version template string for cobra.
func Template() string {
	resolve()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// UserAgent returns the User-Agent sent with dependency submissions.
func UserAgent() string {
	return Name + "/" + DetectorVersion()
}
