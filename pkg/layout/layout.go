// Package layout records where a build's descriptor files live so manifests
// can point at their source file.
package layout

import (
	"os"
	"sync"

	"github.com/matzehuels/depgraph/pkg/model"
)

// rootBuildPath is the path of the top-level build and of its root project.
const rootBuildPath = ":"

// Project is one node of a loaded project tree.
type Project struct {
	IdentityPath string    `json:"identity_path"`
	BuildFile    string    `json:"build_file"`
	Children     []Project `json:"children,omitempty"`
}

// Layout maps build paths to settings files and project identity paths to
// build files. It is safe for concurrent use.
type Layout struct {
	mu         sync.RWMutex
	settings   map[string]string
	buildFiles map[string]string
	exists     func(string) bool
}

// New returns an empty layout that checks settings files on disk.
func New() *Layout {
	return &Layout{
		settings:   make(map[string]string),
		buildFiles: make(map[string]string),
		exists:     fileExists,
	}
}

// AddSettings records the settings file evaluated for a build.
func (l *Layout) AddSettings(buildPath, settingsFile string) {
	if settingsFile == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings[buildPath] = settingsFile
}

// AddProject records the build file of a project.
func (l *Layout) AddProject(identityPath, buildFile string) {
	if buildFile == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buildFiles[identityPath] = buildFile
}

// AddProjectTree records p and all of its descendants, level by level.
func (l *Layout) AddProjectTree(p Project) {
	level := []Project{p}
	for len(level) > 0 {
		var next []Project
		for _, project := range level {
			l.AddProject(project.IdentityPath, project.BuildFile)
			next = append(next, project.Children...)
		}
		level = next
	}
}

// Lookup returns the absolute descriptor file for root. Projects resolve to
// their build file. Builds resolve to their settings file when it exists,
// otherwise to the build file of their root project.
func (l *Layout) Lookup(root model.ResolutionRoot) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !root.IsBuild() {
		f, ok := l.buildFiles[root.Path]
		return f, ok
	}
	if f, ok := l.settings[root.Path]; ok && l.exists(f) {
		return f, true
	}
	f, ok := l.buildFiles[root.Path]
	return f, ok
}

// RootFile returns the descriptor of the top-level build.
func (l *Layout) RootFile() (string, bool) {
	return l.Lookup(model.BuildRoot(rootBuildPath))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
