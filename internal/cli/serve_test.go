package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/depgraph/pkg/config"
	"github.com/matzehuels/depgraph/pkg/errors"
	"github.com/matzehuels/depgraph/pkg/model"
	"github.com/matzehuels/depgraph/pkg/snapshot"
)

func newTestCollector(t *testing.T) (*httptest.Server, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Job = config.Job{ID: "42", Correlator: "ci-build"}
	cfg.SHA = "0123456789abcdef0123456789abcdef01234567"
	cfg.Ref = "refs/heads/main"
	cfg.Workspace = "/src"
	cfg.ReportDir = t.TempDir()

	c, err := newCollector(cfg, log.New(os.Stderr))
	require.NoError(t, err)
	c.logger.SetLevel(log.ErrorLevel)
	srv := httptest.NewServer(c.routes())
	t.Cleanup(srv.Close)
	return srv, cfg
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/x-ndjson", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCollectorHealthz(t *testing.T) {
	srv, _ := newTestCollector(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestCollectorEventsThenSnapshot(t *testing.T) {
	srv, cfg := newTestCollector(t)
	stream, err := os.ReadFile(testStream)
	require.NoError(t, err)

	resp := post(t, srv.URL+"/v1/events", string(stream))
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var accepted eventsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	assert.NotEmpty(t, accepted.Batch)
	assert.Equal(t, 2, accepted.Schema)
	assert.Equal(t, 4, accepted.Events)

	resp = post(t, srv.URL+"/v1/snapshot", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s, err := snapshot.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []string{"project :app", "project :lib"}, s.ManifestNames())
	assert.Equal(t, model.Direct, s.Manifests["project :app"].Resolved["org:libA:1.0"].Relationship)

	path := resp.Header.Get("X-Snapshot-Path")
	assert.True(t, strings.HasPrefix(path, cfg.ReportDir), "snapshot path %q", path)
	assert.FileExists(t, path)

	// The next snapshot starts from an empty extraction.
	resp = post(t, srv.URL+"/v1/snapshot", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s, err = snapshot.Decode(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, s.Manifests)
}

func TestCollectorRejectsBadStreams(t *testing.T) {
	srv, _ := newTestCollector(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"empty body", "", http.StatusBadRequest, errors.ErrCodeInvalidEvent},
		{"not json", "garbage\n", http.StatusBadRequest, errors.ErrCodeInvalidEvent},
		{"unknown schema", `{"schema": 9}` + "\n", http.StatusUnsupportedMediaType, errors.ErrCodeUnsupported},
		{
			name:   "malformed event",
			body:   `{"schema": 2}` + "\n" + `{"event": "configuration_resolved", "components": "nope"}` + "\n",
			status: http.StatusBadRequest,
			code:   errors.ErrCodeInvalidEvent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/v1/events", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, string(tt.code), body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestCollectorBrokenStreamFailsSnapshot(t *testing.T) {
	srv, cfg := newTestCollector(t)
	stream, err := os.ReadFile(testStream)
	require.NoError(t, err)

	body := strings.TrimRight(string(stream), "\n") + "\n" + `{"event": "configuration_resolved", "components": "nope"}` + "\n"
	resp := post(t, srv.URL+"/v1/events", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/v1/snapshot", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var failed errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&failed))
	assert.Equal(t, string(errors.ErrCodeExtractionFailed), failed.Code)
	require.Len(t, failed.Causes, 1)
	assert.Contains(t, failed.Causes[0], "line 6")

	entries, err := os.ReadDir(cfg.ReportDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The failed extraction is discarded.
	resp = post(t, srv.URL+"/v1/snapshot", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCollectorRejectedHeaderKeepsExtraction(t *testing.T) {
	srv, _ := newTestCollector(t)
	stream, err := os.ReadFile(testStream)
	require.NoError(t, err)

	require.Equal(t, http.StatusAccepted, post(t, srv.URL+"/v1/events", string(stream)).StatusCode)
	require.Equal(t, http.StatusUnsupportedMediaType, post(t, srv.URL+"/v1/events", `{"schema": 9}`+"\n").StatusCode)

	resp := post(t, srv.URL+"/v1/snapshot", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s, err := snapshot.Decode(resp.Body)
	require.NoError(t, err)
	assert.Len(t, s.Manifests, 2)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidEvent, http.StatusBadRequest},
		{errors.ErrCodeInvalidInput, http.StatusBadRequest},
		{errors.ErrCodeUnsupported, http.StatusUnsupportedMediaType},
		{errors.ErrCodeExtractionFailed, http.StatusUnprocessableEntity},
		{errors.ErrCodeWriteFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(errors.New(tt.code, "boom"), tt.code))
		})
	}
}
