package github

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v74/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"ghdash/core"
)

func githubResponse(status int, path string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Request:    &http.Request{Method: http.MethodGet, URL: &url.URL{Path: path}},
	}
}

func TestNormalizeError(t *testing.T) {
	resetAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	retryAfter := 30 * time.Second

	testCases := []struct {
		name  string
		err   error
		check func(t *testing.T, normalized error)
	}{
		{
			name: "primary rate limit keeps reset time",
			err: &github.RateLimitError{
				Rate:     github.Rate{Limit: 5000, Remaining: 0, Reset: github.Timestamp{Time: resetAt}},
				Response: githubResponse(http.StatusForbidden, "/user", nil),
				Message:  "API rate limit exceeded",
			},
			check: func(t *testing.T, normalized error) {
				var rateErr *core.RateLimitError
				require.ErrorAs(t, normalized, &rateErr)
				assert.Equal(t, resetAt, rateErr.ResetAt)
			},
		},
		{
			name: "primary rate limit without reset header",
			err: &github.RateLimitError{
				Rate:     github.Rate{Limit: 5000, Remaining: 0},
				Response: githubResponse(http.StatusForbidden, "/user", nil),
				Message:  "API rate limit exceeded",
			},
			check: func(t *testing.T, normalized error) {
				var rateErr *core.RateLimitError
				require.ErrorAs(t, normalized, &rateErr)
				assert.False(t, rateErr.ResetAt.IsZero())
				assert.WithinDuration(t, time.Now().Add(defaultAbuseRetryAfter), rateErr.ResetAt, 5*time.Second)
			},
		},
		{
			name: "secondary rate limit uses retry-after",
			err: &github.AbuseRateLimitError{
				Response:   githubResponse(http.StatusForbidden, "/user", nil),
				RetryAfter: &retryAfter,
			},
			check: func(t *testing.T, normalized error) {
				var rateErr *core.RateLimitError
				require.ErrorAs(t, normalized, &rateErr)
				assert.WithinDuration(t, time.Now().Add(retryAfter), rateErr.ResetAt, 5*time.Second)
			},
		},
		{
			name: "oauth retrieve error",
			err:  &oauth2.RetrieveError{ErrorCode: "bad_verification_code"},
			check: func(t *testing.T, normalized error) {
				var authErr *core.AuthError
				require.ErrorAs(t, normalized, &authErr)
				assert.Equal(t, "OAuth token exchange failed: bad_verification_code", authErr.Message)
			},
		},
		{
			name: "unauthorized",
			err:  &github.ErrorResponse{Response: githubResponse(http.StatusUnauthorized, "/user", nil), Message: "Bad credentials"},
			check: func(t *testing.T, normalized error) {
				var authErr *core.AuthError
				require.ErrorAs(t, normalized, &authErr)
				assert.Equal(t, "GitHub token is invalid or expired", authErr.Message)
			},
		},
		{
			name: "forbidden with missing scope",
			err: &github.ErrorResponse{
				Response: githubResponse(http.StatusForbidden, "/user/installations", http.Header{
					"X-Accepted-Oauth-Scopes": []string{"read:org"},
					"X-Oauth-Scopes":          []string{"read:user"},
				}),
				Message: "Resource not accessible by integration",
			},
			check: func(t *testing.T, normalized error) {
				var authErr *core.AuthError
				require.ErrorAs(t, normalized, &authErr)
				assert.Contains(t, authErr.Message, "scope")
				assert.Contains(t, authErr.Message, "read:org")
			},
		},
		{
			name: "forbidden with a granted scope that only shares a prefix",
			err: &github.ErrorResponse{
				Response: githubResponse(http.StatusForbidden, "/repos/a/b/hooks", http.Header{
					"X-Accepted-Oauth-Scopes": []string{"repo"},
					"X-Oauth-Scopes":          []string{"public_repo, read:user"},
				}),
				Message: "Not allowed",
			},
			check: func(t *testing.T, normalized error) {
				var authErr *core.AuthError
				require.ErrorAs(t, normalized, &authErr)
				assert.Equal(t, "token is missing a required OAuth scope (accepted: repo)", authErr.Message)
			},
		},
		{
			name: "forbidden although an accepted scope was granted",
			err: &github.ErrorResponse{
				Response: githubResponse(http.StatusForbidden, "/orgs/acme/members", http.Header{
					"X-Accepted-Oauth-Scopes": []string{"admin:org, read:org"},
					"X-Oauth-Scopes":          []string{"read:user, read:org"},
				}),
				Message: "Must be an organization member",
			},
			check: func(t *testing.T, normalized error) {
				var authErr *core.AuthError
				require.ErrorAs(t, normalized, &authErr)
				assert.Equal(t, "GitHub denied access: Must be an organization member", authErr.Message)
			},
		},
		{
			name: "forbidden without scope headers",
			err:  &github.ErrorResponse{Response: githubResponse(http.StatusForbidden, "/repos/a/b", nil), Message: "Must have admin rights"},
			check: func(t *testing.T, normalized error) {
				var authErr *core.AuthError
				require.ErrorAs(t, normalized, &authErr)
				assert.Equal(t, "GitHub denied access: Must have admin rights", authErr.Message)
			},
		},
		{
			name: "not found names the path",
			err:  &github.ErrorResponse{Response: githubResponse(http.StatusNotFound, "/app/installations/7/access_tokens", nil), Message: "Not Found"},
			check: func(t *testing.T, normalized error) {
				var notFound *core.NotFoundError
				require.ErrorAs(t, normalized, &notFound)
				assert.Equal(t, "GitHub resource /app/installations/7/access_tokens", notFound.Resource)
				assert.True(t, core.IsNotFoundError(normalized))
			},
		},
		{
			name: "other status is an api error",
			err:  &github.ErrorResponse{Response: githubResponse(http.StatusUnprocessableEntity, "/user", nil), Message: "Validation Failed"},
			check: func(t *testing.T, normalized error) {
				var apiErr *core.APIError
				require.ErrorAs(t, normalized, &apiErr)
				assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
				assert.Equal(t, "Validation Failed", apiErr.Message)
			},
		},
		{
			name: "transport failure",
			err:  errors.New("dial tcp: connection refused"),
			check: func(t *testing.T, normalized error) {
				var githubErr *core.GitHubError
				require.ErrorAs(t, normalized, &githubErr)
				assert.Equal(t, "GitHub request failed", githubErr.Message)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			normalized := NormalizeError(tc.err)

			require.Error(t, normalized)
			assert.ErrorIs(t, normalized, tc.err)
			tc.check(t, normalized)
		})
	}
}

func TestNormalizeError_PassThrough(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, NormalizeError(nil))
	})

	t.Run("already classified", func(t *testing.T) {
		original := &core.ConfigError{Missing: []string{"GITHUB_APP_ID"}}
		assert.Same(t, original, NormalizeError(original))
	})
}

func TestIsPlatformError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "error response", err: &github.ErrorResponse{Response: githubResponse(http.StatusNotFound, "/user", nil)}, expected: true},
		{name: "wrapped rate limit", err: fmt.Errorf("listing: %w", &github.RateLimitError{Response: githubResponse(http.StatusForbidden, "/user", nil)}), expected: true},
		{name: "oauth retrieve error", err: &oauth2.RetrieveError{}, expected: true},
		{name: "plain error", err: errors.New("boom"), expected: false},
		{name: "core error", err: &core.AuthError{Message: "token required"}, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsPlatformError(tc.err))
		})
	}
}
