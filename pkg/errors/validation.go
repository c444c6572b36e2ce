package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateFileName validates a value used as a single path element, such
// as the job correlator that names the snapshot file.
//
// The rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 255 characters
func ValidateFileName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "file name cannot be empty")
	}
	if len(name) > 255 {
		return New(ErrCodeInvalidPath, "file name too long (max 255 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "file name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidPath, "file name cannot contain path separators")
	}
	if name == "." || name == ".." {
		return New(ErrCodeInvalidPath, "file name cannot be %q", name)
	}
	return nil
}

// ValidateURL checks an API base URL: it must be absolute, use http or
// https and carry no query or fragment, since request paths are appended
// to it.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL has no host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return New(ErrCodeInvalidInput, "URL must not have a query or fragment")
	}
	return nil
}
