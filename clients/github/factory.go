package github

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"

	"ghdash/core"
	"ghdash/metrics"
	"ghdash/models"
	"ghdash/utils"
)

const (
	appIDEnvVar      = "GITHUB_APP_ID"
	privateKeyEnvVar = "GITHUB_APP_PRIVATE_KEY"
)

// ClientFactory turns a Credential into a ready-to-use GitHub API client.
// All fields are set at construction and never mutated, so one factory is shared across requests.
type ClientFactory struct {
	appID      string
	signingKey *rsa.PrivateKey
	keyErr     error
	hasKey     bool

	httpClient *http.Client
	baseURL    *url.URL
	logger     *slog.Logger
	metrics    metrics.Recorder
	now        func() time.Time
}

type FactoryOption func(*ClientFactory)

func WithHTTPClient(client *http.Client) FactoryOption {
	return func(f *ClientFactory) { f.httpClient = client }
}

// WithBaseURL points the clients at a different API root, e.g. GitHub Enterprise or a test server
func WithBaseURL(raw string) FactoryOption {
	return func(f *ClientFactory) {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		if parsed, err := url.Parse(raw); err == nil {
			f.baseURL = parsed
		}
	}
}

func WithMetrics(recorder metrics.Recorder) FactoryOption {
	return func(f *ClientFactory) { f.metrics = recorder }
}

func withClock(now func() time.Time) FactoryOption {
	return func(f *ClientFactory) { f.now = now }
}

// NewClientFactory creates a factory for the given app credentials.
// Empty credentials are allowed; installed-app clients then fail with a ConfigError.
func NewClientFactory(appID, privateKeyPEM string, logger *slog.Logger, opts ...FactoryOption) *ClientFactory {
	f := &ClientFactory{
		appID:      strings.TrimSpace(appID),
		hasKey:     strings.TrimSpace(privateKeyPEM) != "",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		metrics:    metrics.Noop{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.hasKey {
		f.signingKey, f.keyErr = parseAppPrivateKey(privateKeyPEM)
		if f.keyErr != nil {
			logger.Warn("⚠️ GitHub App private key could not be parsed", "key_length", len(privateKeyPEM))
		}
	}

	return f
}

// CreateAuthenticatedClient builds a client for the credential.
// Delegated credentials need no network; installed credentials mint an installation token first.
func (f *ClientFactory) CreateAuthenticatedClient(ctx context.Context, credential models.Credential) (*github.Client, error) {
	switch cred := credential.(type) {
	case models.DelegatedCredential:
		return f.createDelegatedClient(cred)
	case models.InstalledCredential:
		return f.createInstallationClient(ctx, cred)
	case nil:
		return nil, &core.AuthError{Message: "credential required"}
	default:
		return nil, &core.ValidationError{Field: "credential", Message: fmt.Sprintf("unsupported credential kind %q", cred.Kind())}
	}
}

func (f *ClientFactory) createDelegatedClient(cred models.DelegatedCredential) (*github.Client, error) {
	if err := cred.Validate(); err != nil {
		return nil, &core.AuthError{Message: "token required"}
	}

	f.logger.Debug("🔑 Creating delegated GitHub client", "token", utils.DescribeSecret(cred.Token))
	return f.newClient(cred.Token), nil
}

func (f *ClientFactory) createInstallationClient(ctx context.Context, cred models.InstalledCredential) (*github.Client, error) {
	if err := cred.Validate(); err != nil {
		return nil, &core.ValidationError{Field: "installationId", Message: err.Error()}
	}

	var missing []string
	if f.appID == "" {
		missing = append(missing, appIDEnvVar)
	}
	if !f.hasKey {
		missing = append(missing, privateKeyEnvVar)
	}
	if len(missing) > 0 {
		f.logger.Error("❌ GitHub App credentials missing", "app_id_set", f.appID != "", "private_key_set", f.hasKey)
		return nil, &core.ConfigError{Missing: missing}
	}
	if f.keyErr != nil {
		return nil, &core.ConfigError{Reason: "invalid private key"}
	}

	appJWT, _, err := generateAppJWT(f.appID, f.signingKey, f.now())
	if err != nil {
		return nil, &core.ConfigError{Reason: err.Error()}
	}

	token, _, err := f.newClient(appJWT).Apps.CreateInstallationToken(ctx, cred.InstallationID, nil)
	if err != nil {
		f.metrics.RecordTokenMint(false)
		normalized := NormalizeError(err)
		f.logger.Error("❌ Failed to create installation access token",
			"installation_id", cred.InstallationID,
			"error_type", fmt.Sprintf("%T", normalized),
			"error", normalized.Error())
		return nil, fmt.Errorf("failed to create installation access token: %w", normalized)
	}
	if token.GetToken() == "" {
		f.metrics.RecordTokenMint(false)
		return nil, &core.GitHubError{Message: "installation token response did not contain a token"}
	}

	f.metrics.RecordTokenMint(true)
	f.logger.Debug("✅ Minted installation access token",
		"installation_id", cred.InstallationID,
		"token", utils.DescribeSecret(token.GetToken()),
		"expires_at", token.GetExpiresAt().Time)

	return f.newClient(token.GetToken()), nil
}

func (f *ClientFactory) newClient(token string) *github.Client {
	client := github.NewClient(f.httpClient).WithAuthToken(token)
	if f.baseURL != nil {
		client.BaseURL = f.baseURL
	}
	return client
}
