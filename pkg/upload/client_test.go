package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/depgraph/pkg/errors"
	"github.com/matzehuels/depgraph/pkg/model"
	"github.com/matzehuels/depgraph/pkg/snapshot"
)

func testSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Version:  snapshot.FormatVersion,
		Job:      snapshot.Job{ID: "42", Correlator: "build"},
		Sha:      "0123456789abcdef0123456789abcdef01234567",
		Ref:      "refs/heads/main",
		Detector: snapshot.Detector{Name: "depgraph", Version: "dev", URL: "https://github.com/matzehuels/depgraph"},
		Manifests: map[string]snapshot.Manifest{
			"project :": {
				Name: "project :",
				Resolved: map[string]snapshot.Dependency{
					"com.example:lib:1.0": {
						PackageURL:   "pkg:maven/com.example/lib@1.0",
						Relationship: model.Direct,
						Dependencies: []string{},
					},
				},
			},
		},
	}
}

func newTestClient(url string) *Client {
	return NewClient(url, "secret", WithRetry(3, time.Millisecond))
}

func TestSubmit(t *testing.T) {
	var got snapshot.Snapshot
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/octo/app/dependency-graph/snapshots", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, APIVersion, r.Header.Get("X-GitHub-Api-Version"))
		assert.Contains(t, r.Header.Get("User-Agent"), "depgraph/")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("X-GitHub-Request-Id", "ABCD:1234")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7,"created_at":"2026-10-19T10:00:00Z","result":"SUCCESS","message":"Dependency results for the repo have been successfully updated."}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Submit(context.Background(), "octo", "app", testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.ID)
	assert.Equal(t, "SUCCESS", res.Result)
	assert.Equal(t, "ABCD:1234", res.RequestID)
	assert.Equal(t, 2026, res.CreatedAt.Year())
	assert.Equal(t, "build", got.Job.Correlator)
	assert.Contains(t, got.Manifests, "project :")
}

func TestSubmitStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   errors.Code
	}{
		{http.StatusUnauthorized, errors.ErrCodeUnauthorized},
		{http.StatusForbidden, errors.ErrCodeForbidden},
		{http.StatusNotFound, errors.ErrCodeNotFound},
		{http.StatusUnprocessableEntity, errors.ErrCodeInvalidInput},
		{http.StatusBadRequest, errors.ErrCodeNetwork},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Submit(context.Background(), "octo", "app", testSnapshot())
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.GetCode(err))
			assert.Contains(t, err.Error(), "nope")
			assert.Equal(t, int32(1), calls.Load(), "permanent failures are not retried")
		})
	}
}

func TestSubmitRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"result":"ACCEPTED"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Submit(context.Background(), "octo", "app", testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "ACCEPTED", res.Result)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSubmitRateLimitedExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"secondary rate limit"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(context.Background(), "octo", "app", testSnapshot())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeRateLimited))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSubmitRejectsBadRepository(t *testing.T) {
	_, err := NewClient("", "secret").Submit(context.Background(), "-octo", "app", testSnapshot())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestSubmitNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "secret", WithRetry(2, time.Millisecond)).
		Submit(context.Background(), "octo", "app", testSnapshot())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNetwork, errors.GetCode(err))
}
