package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/depgraph/pkg/model"
	"github.com/matzehuels/depgraph/pkg/snapshot"
)

func testManifest() snapshot.Manifest {
	return snapshot.Manifest{
		Name: "project :app",
		File: &snapshot.File{SourceLocation: "app/build.gradle"},
		Resolved: map[string]snapshot.Dependency{
			"org:libA:1.0": {
				PackageURL:   "pkg:maven/org/libA@1.0",
				Relationship: model.Direct,
				Scope:        model.ScopeRuntime,
				Dependencies: []string{"org:libB:2.0", "project :core"},
			},
			"org:libB:2.0": {
				PackageURL:   "pkg:maven/org/libB@2.0",
				Relationship: model.Indirect,
				Dependencies: []string{},
			},
		},
	}
}

func TestFromManifest(t *testing.T) {
	g := FromManifest(testManifest())

	if got := g.NodeCount(); got != 4 {
		t.Errorf("NodeCount() = %d, want 4", got)
	}
	if got := g.EdgeCount(); got != 3 {
		t.Errorf("EdgeCount() = %d, want 3", got)
	}
	if got := g.Children("project :app"); len(got) != 1 || got[0] != "org:libA:1.0" {
		t.Errorf("Children(root) = %v, want [org:libA:1.0]", got)
	}
	root, _ := g.Node("project :app")
	if !root.IsRoot() {
		t.Error("manifest node should be the root")
	}
	core, ok := g.Node("project :core")
	if !ok || !core.IsExternal() {
		t.Errorf("project :core should be an external node, got %+v", core)
	}
	if got := g.Meta()[MetaFile]; got != "app/build.gradle" {
		t.Errorf("Meta()[file] = %v, want app/build.gradle", got)
	}
	libB, _ := g.Node("org:libB:2.0")
	if _, ok := libB.Meta[MetaScope]; ok {
		t.Error("unknown scope should not be recorded")
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(FromManifest(testManifest()), Options{})

	for _, want := range []string{
		"digraph G {",
		`"project :app" -> "org:libA:1.0";`,
		`"org:libA:1.0" -> "org:libB:2.0";`,
		`"org:libA:1.0" -> "project :core";`,
		`fillcolor="#dbeafe"`,
		`style="rounded,dashed"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
	if again := ToDOT(FromManifest(testManifest()), Options{}); again != dot {
		t.Error("ToDOT() should be deterministic")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(FromManifest(testManifest()), Options{Detailed: true})
	if !strings.Contains(dot, `purl: pkg:maven/org/libA@1.0\nrelationship: direct\nscope: runtime`) {
		t.Errorf("detailed label missing metadata:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := normalizeViewBox(in)
	if !bytes.Contains(out, []byte(`viewBox="0 0 100.00 50.00" width="100" height="50"`)) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Errorf("normalizeViewBox() without viewBox = %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering is slow")
	}
	svg, err := RenderSVG(context.Background(), ToDOT(FromManifest(testManifest()), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("libA")) {
		t.Errorf("RenderSVG() output does not look like the graph")
	}
}
