package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	e := NoopExtractionHooks{}
	e.OnConfigurationResolved(ctx, "project :app", "runtimeClasspath", 12, time.Second, nil)
	e.OnConfigurationSkipped(ctx, ":", "testRuntimeClasspath", "filtered")
	e.OnSnapshotAssembled(ctx, 2, 40)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "api.github.com", "/repos/o/r/dependency-graph/snapshots")
	h.OnResponse(ctx, "POST", "api.github.com", "/repos/o/r/dependency-graph/snapshots", 201, time.Second)
	h.OnError(ctx, "POST", "api.github.com", "/repos/o/r/dependency-graph/snapshots", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Extraction().(NoopExtractionHooks); !ok {
		t.Error("Extraction() should return NoopExtractionHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customExtraction := &testExtractionHooks{}
	SetExtractionHooks(customExtraction)
	if Extraction() != customExtraction {
		t.Error("SetExtractionHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	SetExtractionHooks(nil)
	if Extraction() != customExtraction {
		t.Error("SetExtractionHooks(nil) should keep the current hooks")
	}

	Reset()
	if _, ok := Extraction().(NoopExtractionHooks); !ok {
		t.Error("Reset should restore NoopExtractionHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset should restore NoopHTTPHooks")
	}
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	hooks := &testExtractionHooks{}
	SetExtractionHooks(hooks)

	ctx := context.Background()
	Extraction().OnConfigurationResolved(ctx, ":", "runtimeClasspath", 3, time.Millisecond, nil)
	Extraction().OnConfigurationSkipped(ctx, ":", "compileClasspath", "filtered")

	if hooks.resolved != 1 {
		t.Errorf("resolved = %d, want 1", hooks.resolved)
	}
	if hooks.skipped != 1 {
		t.Errorf("skipped = %d, want 1", hooks.skipped)
	}
}

type testExtractionHooks struct {
	NoopExtractionHooks
	resolved int
	skipped  int
}

func (h *testExtractionHooks) OnConfigurationResolved(context.Context, string, string, int, time.Duration, error) {
	h.resolved++
}

func (h *testExtractionHooks) OnConfigurationSkipped(context.Context, string, string, string) {
	h.skipped++
}

type testHTTPHooks struct {
	NoopHTTPHooks
}
