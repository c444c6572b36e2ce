// Package httputil provides retry helpers for outbound HTTP calls.
//
// # Retry
//
// [Retry] runs an operation until it succeeds, fails permanently or runs
// out of attempts. Only errors wrapped in [RetryableError] are retried:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses (honouring Retry-After through [RetryableError.After])
//
// Delays double after each attempt unless the server asked for a specific wait.
//
// # Configuration
//
// [RetryWithBackoff] uses 3 attempts with a 1 second initial delay.
package httputil
