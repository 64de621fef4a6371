package api

// ErrorCode is the stable machine-readable identifier of an error response
type ErrorCode string

const (
	ErrorCodeAppConfig            ErrorCode = "GITHUB_APP_CONFIG_ERROR"
	ErrorCodeScope                ErrorCode = "GITHUB_SCOPE_ERROR"
	ErrorCodeToken                ErrorCode = "GITHUB_TOKEN_ERROR"
	ErrorCodeAuth                 ErrorCode = "GITHUB_AUTH_ERROR"
	ErrorCodeRateLimit            ErrorCode = "GITHUB_RATE_LIMIT_ERROR"
	ErrorCodeNotFound             ErrorCode = "GITHUB_NOT_FOUND_ERROR"
	ErrorCodeAPI                  ErrorCode = "GITHUB_API_ERROR"
	ErrorCodeGitHub               ErrorCode = "GITHUB_ERROR"
	ErrorCodeValidation           ErrorCode = "VALIDATION_ERROR"
	ErrorCodeInstallationRequired ErrorCode = "INSTALLATION_ID_REQUIRED"
	ErrorCodeUnknown              ErrorCode = "UNKNOWN_ERROR"
)

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Error             string         `json:"error"`
	Code              ErrorCode      `json:"code"`
	Details           string         `json:"details"`
	RequestID         string         `json:"requestId"`
	SignOutRequired   bool           `json:"signOutRequired,omitempty"`
	NeedsInstallation bool           `json:"needsInstallation,omitempty"`
	ResetAt           string         `json:"resetAt,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}
