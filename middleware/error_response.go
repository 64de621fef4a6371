package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	clientsgithub "ghdash/clients/github"
	"ghdash/core"
	"ghdash/logger"
	"ghdash/metrics"
	"ghdash/models/api"
)

const RequestIDHeader = "X-Request-Id"

// ErrorContext describes where an error surfaced. Only these fields are logged.
type ErrorContext struct {
	Logger    *slog.Logger
	Metrics   metrics.Recorder
	Operation string
	Method    string
	Path      string
	Attrs     []any

	now func() time.Time
}

// APIErrorResponse is everything a handler needs to write an error to the wire
type APIErrorResponse struct {
	Status  int
	Body    api.ErrorResponse
	Headers map[string]string
}

// Classification is the code, status and flags an error maps to
type Classification struct {
	Code              api.ErrorCode
	Status            int
	Title             string
	Details           string
	SignOutRequired   bool
	NeedsInstallation bool
	ResetAt           time.Time
}

// ClassifyError maps any value (usually an error, possibly a recovered panic value) to a Classification
func ClassifyError(value any) Classification {
	err, ok := value.(error)
	if !ok || err == nil {
		return Classification{
			Code:    api.ErrorCodeUnknown,
			Status:  http.StatusInternalServerError,
			Title:   "Internal server error",
			Details: "An unexpected error occurred",
		}
	}

	if clientsgithub.IsPlatformError(err) {
		err = clientsgithub.NormalizeError(err)
	}

	var (
		configErr       *core.ConfigError
		authErr         *core.AuthError
		rateErr         *core.RateLimitError
		notFoundErr     *core.NotFoundError
		apiErr          *core.APIError
		githubErr       *core.GitHubError
		validationErr   *core.ValidationError
		installationErr *core.InstallationRequiredError
	)

	switch {
	case errors.As(err, &configErr):
		return Classification{
			Code:    api.ErrorCodeAppConfig,
			Status:  http.StatusInternalServerError,
			Title:   "GitHub App configuration error",
			Details: configErr.Error(),
		}
	case errors.As(err, &authErr):
		return Classification{
			Code:            authErrorCode(authErr.Message),
			Status:          http.StatusForbidden,
			Title:           "GitHub authentication failed",
			Details:         authErr.Message,
			SignOutRequired: true,
		}
	case errors.As(err, &rateErr):
		return Classification{
			Code:    api.ErrorCodeRateLimit,
			Status:  http.StatusTooManyRequests,
			Title:   "GitHub rate limit exceeded",
			Details: rateErr.Error(),
			ResetAt: rateErr.ResetAt,
		}
	case errors.As(err, &notFoundErr):
		return Classification{
			Code:    api.ErrorCodeNotFound,
			Status:  http.StatusNotFound,
			Title:   "GitHub resource not found",
			Details: notFoundErr.Error(),
		}
	case errors.As(err, &apiErr):
		return Classification{
			Code:    api.ErrorCodeAPI,
			Status:  upstreamStatus(apiErr.StatusCode),
			Title:   "GitHub API error",
			Details: apiErr.Error(),
		}
	case errors.As(err, &githubErr):
		return Classification{
			Code:    api.ErrorCodeGitHub,
			Status:  http.StatusInternalServerError,
			Title:   "GitHub request failed",
			Details: githubErr.Error(),
		}
	case errors.As(err, &installationErr):
		return Classification{
			Code:              api.ErrorCodeInstallationRequired,
			Status:            http.StatusBadRequest,
			Title:             "GitHub App installation required",
			Details:           installationErr.Error(),
			NeedsInstallation: true,
		}
	case errors.As(err, &validationErr), strings.Contains(err.Error(), "Validation error"):
		return Classification{
			Code:    api.ErrorCodeValidation,
			Status:  http.StatusBadRequest,
			Title:   "Invalid request",
			Details: err.Error(),
		}
	default:
		return Classification{
			Code:    api.ErrorCodeUnknown,
			Status:  http.StatusInternalServerError,
			Title:   "Internal server error",
			Details: "An unexpected error occurred",
		}
	}
}

// authErrorCode is the only place message text decides a code
func authErrorCode(message string) api.ErrorCode {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "scope"):
		return api.ErrorCodeScope
	case strings.Contains(lower, "token"):
		return api.ErrorCodeToken
	default:
		return api.ErrorCodeAuth
	}
}

func upstreamStatus(status int) int {
	if status < 400 || status > 599 {
		return http.StatusBadGateway
	}
	return status
}

// CreateAPIErrorResponse classifies err, logs it once under a fresh request id and builds the response
func CreateAPIErrorResponse(err any, ectx ErrorContext, moduleName string) APIErrorResponse {
	log := ectx.Logger
	if log == nil {
		log = logger.Discard()
	}
	recorder := ectx.Metrics
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	now := time.Now
	if ectx.now != nil {
		now = ectx.now
	}

	classification := ClassifyError(err)
	requestID := core.NewID("req")

	body := api.ErrorResponse{
		Error:             classification.Title,
		Code:              classification.Code,
		Details:           classification.Details,
		RequestID:         requestID,
		SignOutRequired:   classification.SignOutRequired,
		NeedsInstallation: classification.NeedsInstallation,
	}
	if !classification.ResetAt.IsZero() {
		body.ResetAt = classification.ResetAt.UTC().Format(time.RFC3339)
		body.Metadata = resetMetadata(classification.ResetAt, now())
	}

	attrs := []any{
		"request_id", requestID,
		"module", moduleName,
		"code", classification.Code,
		"status", classification.Status,
		"error_type", fmt.Sprintf("%T", err),
		"error", errorMessage(err),
	}
	if ectx.Operation != "" {
		attrs = append(attrs, "operation", ectx.Operation)
	}
	if ectx.Method != "" {
		attrs = append(attrs, "method", ectx.Method, "path", ectx.Path)
	}
	attrs = append(attrs, ectx.Attrs...)

	if classification.Status >= http.StatusInternalServerError {
		log.Error("❌ API request failed", attrs...)
	} else {
		log.Warn("⚠️ API request rejected", attrs...)
	}
	recorder.RecordErrorResponse(string(classification.Code), classification.Status)

	return APIErrorResponse{
		Status:  classification.Status,
		Body:    body,
		Headers: map[string]string{RequestIDHeader: requestID},
	}
}

func resetMetadata(resetAt, now time.Time) map[string]any {
	seconds := int64(math.Ceil(resetAt.Sub(now).Seconds()))
	if seconds < 0 {
		seconds = 0
	}
	return map[string]any{
		"secondsUntilReset": seconds,
		"minutesUntilReset": int64(math.Ceil(float64(seconds) / 60)),
	}
}

// errorMessage never formats the value itself, only its message
func errorMessage(value any) string {
	if err, ok := value.(error); ok && err != nil {
		return err.Error()
	}
	return "non-error value"
}

// WriteAPIError writes the headers, status and JSON body of resp.
// Encoding failures are logged to log when it is set.
func WriteAPIError(w http.ResponseWriter, resp APIErrorResponse, log *slog.Logger) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	if err := json.NewEncoder(w).Encode(resp.Body); err != nil && log != nil {
		log.Error("❌ Failed to write error response", "request_id", resp.Body.RequestID, "error", err.Error())
	}
}
