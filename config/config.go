package config

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/mo"
)

type GitHubConfig struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	AppID         string
	AppSlug       string
	AppPrivateKey string
	OAuthScopes   []string

	// Used when no installation can be resolved from the request, session or listing
	DefaultInstallationID mo.Option[int64]
}

// IsConfigured returns true if all required GitHub configuration is present
func (c GitHubConfig) IsConfigured() bool {
	return c.ClientID != "" &&
		c.ClientSecret != "" &&
		c.AppID != "" &&
		c.AppPrivateKey != ""
}

// AppIDNumber returns the numeric app ID, or zero when unset or malformed
func (c GitHubConfig) AppIDNumber() int64 {
	id, err := strconv.ParseInt(c.AppID, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

type SessionConfig struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

type AppConfig struct {
	DatabaseURL        string
	DatabaseSchema     string
	Port               string // Optional with default "8080"
	BaseURL            string
	CORSAllowedOrigins string // Optional with default "http://localhost:3000"
	DashboardURL       string // Where sign-in redirects back to; defaults to the first CORS origin
	Environment        string
	LogLevel           slog.Level
	LogFormat          string
	UseStrictConfig    bool // If true, error when GitHub is not fully configured

	SlackAlertWebhookURL string
	ServerLogsURL        string

	GitHubConfig  GitHubConfig
	SessionConfig SessionConfig
}

func LoadConfig(logger *slog.Logger) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("⚠️ Could not load .env file, continuing with system env vars")
	}

	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	baseURL, err := getEnvRequired("BASE_URL")
	if err != nil {
		return nil, err
	}

	privateKey, err := loadPrivateKey()
	if err != nil {
		return nil, err
	}

	defaultInstallationID, err := getEnvOptionalInt64("GITHUB_DEFAULT_INSTALLATION_ID")
	if err != nil {
		return nil, err
	}

	sessionMaxAge, err := time.ParseDuration(getEnvWithDefault("SESSION_MAX_AGE", "720h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_MAX_AGE is not a valid duration: %w", err)
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(getEnvWithDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	corsAllowedOrigins := getEnvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	firstOrigin, _, _ := strings.Cut(corsAllowedOrigins, ",")

	config := &AppConfig{
		DatabaseURL:        databaseURL,
		DatabaseSchema:     getEnvWithDefault("DB_SCHEMA", "public"),
		Port:               getEnvWithDefault("PORT", "8080"),
		BaseURL:            strings.TrimSuffix(baseURL, "/"),
		CORSAllowedOrigins: corsAllowedOrigins,
		DashboardURL:       getEnvWithDefault("DASHBOARD_URL", strings.TrimSpace(firstOrigin)),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		LogLevel:           logLevel,
		LogFormat:          getEnvWithDefault("LOG_FORMAT", "text"),
		UseStrictConfig:    getEnvWithDefault("USE_STRICT_CONFIG", "false") == "true",

		SlackAlertWebhookURL: os.Getenv("SLACK_ALERT_WEBHOOK_URL"),
		ServerLogsURL:        os.Getenv("SERVER_LOGS_URL"),

		GitHubConfig: GitHubConfig{
			ClientID:              os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret:          os.Getenv("GITHUB_CLIENT_SECRET"),
			RedirectURL:           getEnvWithDefault("GITHUB_REDIRECT_URL", strings.TrimSuffix(baseURL, "/")+"/auth/github/callback"),
			AppID:                 os.Getenv("GITHUB_APP_ID"),
			AppSlug:               os.Getenv("GITHUB_APP_SLUG"),
			AppPrivateKey:         privateKey,
			OAuthScopes:           splitList(getEnvWithDefault("GITHUB_OAUTH_SCOPES", "read:user,read:org")),
			DefaultInstallationID: defaultInstallationID,
		},

		SessionConfig: SessionConfig{
			CookieName: getEnvWithDefault("SESSION_COOKIE_NAME", "ghdash_session"),
			MaxAge:     sessionMaxAge,
			Secure:     strings.HasPrefix(baseURL, "https://"),
		},
	}

	if config.GitHubConfig.IsConfigured() {
		logger.Info("✅ GitHub integration configured", "app_id", config.GitHubConfig.AppID)
	} else {
		// The delegated flow may still work; installation tokens will fail with a config error
		logger.Warn("⚠️ GitHub integration not fully configured - installation access will be unavailable")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("GitHub integration is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	return config, nil
}

// loadPrivateKey reads the PEM private key either raw or base64 encoded
func loadPrivateKey() (string, error) {
	if key := os.Getenv("GITHUB_APP_PRIVATE_KEY"); key != "" {
		// Single-line env files commonly carry escaped newlines
		return strings.ReplaceAll(key, `\n`, "\n"), nil
	}

	encoded := os.Getenv("GITHUB_APP_PRIVATE_KEY_B64")
	if encoded == "" {
		return "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("GITHUB_APP_PRIVATE_KEY_B64 is not valid base64: %w", err)
	}
	return string(decoded), nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOptionalInt64(key string) (mo.Option[int64], error) {
	value := os.Getenv(key)
	if value == "" {
		return mo.None[int64](), nil
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return mo.None[int64](), fmt.Errorf("%s must be a positive integer", key)
	}
	return mo.Some(parsed), nil
}

func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
