package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ghdash/models"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

var notFoundPattern = regexp.MustCompile(`(?i)not found`)

// IsNotFoundError checks if an error is a "not found" error.
// It matches the ErrNotFound sentinel, a NotFoundError, or a message mentioning "not found".
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	return notFoundPattern.MatchString(err.Error())
}

// ConfigError means the GitHub App signing credentials are missing or unusable
type ConfigError struct {
	Missing []string
	Reason  string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("GitHub App is not configured: missing %s", strings.Join(e.Missing, " and "))
	}
	return fmt.Sprintf("GitHub App is not configured: %s", e.Reason)
}

// AuthError is an authentication or authorization failure against GitHub.
// Message must never contain the token itself.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

type RateLimitError struct {
	Message string
	ResetAt time.Time
	Err     error
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return e.Message
	}
	return fmt.Sprintf("%s (resets at %s)", e.Message, e.ResetAt.UTC().Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Resource string
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.Resource == "" {
		return "GitHub resource not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// APIError is a GitHub API failure that carries the upstream HTTP status
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// GitHubError is the catch-all for platform failures that fit no narrower kind
type GitHubError struct {
	Message string
	Err     error
}

func (e *GitHubError) Error() string { return e.Message }
func (e *GitHubError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "Validation error: " + e.Message
	}
	return fmt.Sprintf("Validation error: %s: %s", e.Field, e.Message)
}

// InstallationRequiredError means the identity is fine but no usable installation was resolved
type InstallationRequiredError struct {
	Resolution models.InstallationResolution
}

func (e *InstallationRequiredError) Error() string {
	if e.Resolution.Error != "" {
		return fmt.Sprintf("installation ID required: %s", e.Resolution.Error)
	}
	return "installation ID required"
}
