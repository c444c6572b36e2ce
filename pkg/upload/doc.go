// Package upload submits dependency snapshots to the GitHub dependency
// submission API.
//
// A [Client] posts one [snapshot.Snapshot] to
//
//	{api}/repos/{owner}/{repo}/dependency-graph/snapshots
//
// and returns the [Result] reported by the API. Rate-limited (429) and
// server (5xx) responses are retried with exponential backoff using
// [httputil.Retry]; other failures map to coded errors from
// [github.com/matzehuels/depgraph/pkg/errors]:
//
//	401 → UNAUTHORIZED
//	403 → FORBIDDEN
//	404 → NOT_FOUND
//	422 → INVALID_INPUT
//	429 → RATE_LIMITED
//
// Repository references are validated with [ParseRepoRef] before any
// request is made.
package upload
