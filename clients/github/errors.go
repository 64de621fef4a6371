package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"

	"ghdash/core"
)

// rate limits without a reset hint are assumed to clear within a minute
const defaultAbuseRetryAfter = time.Minute

// NormalizeError maps go-github and oauth2 failures onto the core error hierarchy.
// Errors that are already classified pass through unchanged.
func NormalizeError(err error) error {
	if err == nil || isClassified(err) {
		return err
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		resetAt := rateErr.Rate.Reset.Time
		if resetAt.IsZero() {
			resetAt = time.Now().Add(defaultAbuseRetryAfter)
		}
		return &core.RateLimitError{
			Message: "GitHub API rate limit exceeded",
			ResetAt: resetAt,
			Err:     err,
		}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		retryAfter := defaultAbuseRetryAfter
		if abuseErr.RetryAfter != nil {
			retryAfter = *abuseErr.RetryAfter
		}
		return &core.RateLimitError{
			Message: "GitHub secondary rate limit exceeded",
			ResetAt: time.Now().Add(retryAfter),
			Err:     err,
		}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		message := "OAuth token exchange failed"
		if retrieveErr.ErrorCode != "" {
			message = fmt.Sprintf("%s: %s", message, retrieveErr.ErrorCode)
		}
		return &core.AuthError{Message: message, Err: err}
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		status := 0
		if respErr.Response != nil {
			status = respErr.Response.StatusCode
		}

		switch status {
		case http.StatusUnauthorized:
			return &core.AuthError{Message: "GitHub token is invalid or expired", Err: err}
		case http.StatusForbidden:
			return &core.AuthError{Message: forbiddenMessage(respErr), Err: err}
		case http.StatusNotFound:
			return &core.NotFoundError{Resource: resourceName(respErr), Err: err}
		default:
			return &core.APIError{StatusCode: status, Message: respErr.Message, Err: err}
		}
	}

	return &core.GitHubError{Message: "GitHub request failed", Err: err}
}

// IsPlatformError reports whether err originates from the go-github or oauth2 clients
func IsPlatformError(err error) bool {
	var (
		rateErr     *github.RateLimitError
		abuseErr    *github.AbuseRateLimitError
		respErr     *github.ErrorResponse
		retrieveErr *oauth2.RetrieveError
	)
	return errors.As(err, &rateErr) ||
		errors.As(err, &abuseErr) ||
		errors.As(err, &respErr) ||
		errors.As(err, &retrieveErr)
}

func isClassified(err error) bool {
	var (
		configErr     *core.ConfigError
		authErr       *core.AuthError
		rateErr       *core.RateLimitError
		notFoundErr   *core.NotFoundError
		apiErr        *core.APIError
		githubErr     *core.GitHubError
		validationErr *core.ValidationError
	)
	return errors.As(err, &configErr) ||
		errors.As(err, &authErr) ||
		errors.As(err, &rateErr) ||
		errors.As(err, &notFoundErr) ||
		errors.As(err, &apiErr) ||
		errors.As(err, &githubErr) ||
		errors.As(err, &validationErr)
}

// forbiddenMessage names the missing scopes when GitHub tells us which ones the endpoint accepts
func forbiddenMessage(respErr *github.ErrorResponse) string {
	if respErr.Response != nil {
		accepted := respErr.Response.Header.Get("X-Accepted-OAuth-Scopes")
		granted := respErr.Response.Header.Get("X-OAuth-Scopes")
		if accepted != "" && !hasAnyScope(granted, accepted) {
			return fmt.Sprintf("token is missing a required OAuth scope (accepted: %s)", accepted)
		}
	}
	if respErr.Message == "" {
		return "GitHub denied access"
	}
	return "GitHub denied access: " + respErr.Message
}

// hasAnyScope reports whether any scope in the comma-separated accepted list was granted
func hasAnyScope(granted, accepted string) bool {
	grantedSet := make(map[string]bool)
	for _, scope := range strings.Split(granted, ",") {
		if scope = strings.TrimSpace(scope); scope != "" {
			grantedSet[scope] = true
		}
	}
	for _, scope := range strings.Split(accepted, ",") {
		if grantedSet[strings.TrimSpace(scope)] {
			return true
		}
	}
	return false
}

func resourceName(respErr *github.ErrorResponse) string {
	if respErr.Response == nil || respErr.Response.Request == nil || respErr.Response.Request.URL == nil {
		return "GitHub resource"
	}
	return "GitHub resource " + respErr.Response.Request.URL.Path
}
