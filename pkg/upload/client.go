package upload

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depgraph/pkg/buildinfo"
	"github.com/matzehuels/depgraph/pkg/errors"
	"github.com/matzehuels/depgraph/pkg/httputil"
	"github.com/matzehuels/depgraph/pkg/observability"
	"github.com/matzehuels/depgraph/pkg/snapshot"
)

const (
	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com"

	// APIVersion is the REST API version requested on every call.
	APIVersion = "2022-11-28"

	httpTimeout     = 30 * time.Second
	defaultAttempts = 3
	defaultDelay    = time.Second
	maxErrorBody    = 64 << 10
)

// Result is the API's acknowledgement of a submitted snapshot.
type Result struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Result    string    `json:"result"`
	Message   string    `json:"message"`
	RequestID string    `json:"-"`
}

// Client submits snapshots for one GitHub installation.
type Client struct {
	http     *http.Client
	baseURL  string
	token    string
	logger   *log.Logger
	attempts int
	delay    time.Duration
}

// Option customizes a [Client].
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for retry and response diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.delay = delay
	}
}

// NewClient creates a Client for the API at baseURL authenticated with token.
// An empty baseURL selects [DefaultAPIURL].
func NewClient(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	c := &Client{
		http:     &http.Client{Timeout: httpTimeout},
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		token:    token,
		logger:   log.New(io.Discard),
		attempts: defaultAttempts,
		delay:    defaultDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit posts s to the dependency submission endpoint of owner/repo.
func (c *Client) Submit(ctx context.Context, owner, repo string, s *snapshot.Snapshot) (*Result, error) {
	if err := ValidateOwner(owner); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "owner")
	}
	if err := ValidateRepo(repo); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "repo")
	}
	body, err := snapshot.Marshal(s)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/repos/%s/%s/dependency-graph/snapshots",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo))

	var res *Result
	attempt := 0
	err = httputil.Retry(ctx, c.attempts, c.delay, func() error {
		attempt++
		r, err := c.post(ctx, endpoint, body)
		if err != nil {
			var re *httputil.RetryableError
			if stderrors.As(err, &re) && attempt < c.attempts {
				c.logger.Warn("snapshot submission failed, retrying", "attempt", attempt, "err", err)
			}
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		var re *httputil.RetryableError
		if stderrors.As(err, &re) {
			return nil, re.Err
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "submitting snapshot")
		}
		return nil, err
	}
	c.logger.Debug("snapshot submitted", "id", res.ID, "result", res.Result, "request_id", res.RequestID)
	return res, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "building request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", APIVersion)
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "submitting snapshot")
		}
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "submitting snapshot")}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	requestID := resp.Header.Get("X-GitHub-Request-Id")
	if err := checkStatus(resp, requestID); err != nil {
		return nil, err
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decoding submission response")
	}
	res.RequestID = requestID
	return &res, nil
}

type apiError struct {
	Message string `json:"message"`
}

func checkStatus(resp *http.Response, requestID string) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	var body apiError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if json.Unmarshal(data, &body) != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(data))
	}
	msg := fmt.Sprintf("status %d", code)
	if body.Message != "" {
		msg += ": " + body.Message
	}
	if requestID != "" {
		msg += " (request " + requestID + ")"
	}

	switch {
	case code == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "%s", msg)
	case code == http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden, "%s", msg)
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s", msg)
	case code == http.StatusUnprocessableEntity:
		return errors.New(errors.ErrCodeInvalidInput, "%s", msg)
	case code == http.StatusTooManyRequests:
		after := httputil.RetryAfter(resp.Header)
		cause := &errors.RateLimitedError{RetryAfter: int(after / time.Second), Message: body.Message}
		return &httputil.RetryableError{
			Err:   errors.Wrap(errors.ErrCodeRateLimited, cause, "%s", msg),
			After: after,
		}
	case code >= 500:
		return &httputil.RetryableError{Err: errors.New(errors.ErrCodeNetwork, "%s", msg)}
	default:
		return errors.New(errors.ErrCodeNetwork, "%s", msg)
	}
}
