package testutils

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/samber/mo"
	"github.com/stretchr/testify/require"

	"ghdash/appctx"
	"ghdash/config"
	"ghdash/core"
	"ghdash/db"
	"ghdash/models"
)

// LoadTestConfig loads database settings for tests, skipping the test when no database is configured
func LoadTestConfig(t *testing.T) *config.AppConfig {
	t.Helper()

	// Try to load environment variables from various possible locations
	_ = godotenv.Load("../.env.test") // From package directories
	_ = godotenv.Load(".env.test")    // From root directory
	_ = godotenv.Load()               // Default .env file

	databaseURL := os.Getenv("DB_URL")
	if databaseURL == "" {
		t.Skip("DB_URL is not set, skipping database test")
	}

	databaseSchema := os.Getenv("DB_SCHEMA")
	if databaseSchema == "" {
		databaseSchema = "ghdash_test"
	}

	return &config.AppConfig{
		DatabaseURL:    databaseURL,
		DatabaseSchema: databaseSchema,
	}
}

// NewTestSessionsRepository connects to the test database, migrates it and returns a sessions repository
func NewTestSessionsRepository(t *testing.T) *db.PostgresSessionsRepository {
	t.Helper()
	cfg := LoadTestConfig(t)

	conn, err := db.NewConnection(cfg.DatabaseURL)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = conn.Close() })

	err = db.RunMigrations(context.Background(), conn, cfg.DatabaseURL, cfg.DatabaseSchema)
	require.NoError(t, err, "Failed to migrate test database")

	return db.NewPostgresSessionsRepository(conn, cfg.DatabaseSchema)
}

// CreateTestSession stores a session for a unique test user
func CreateTestSession(t *testing.T, repo *db.PostgresSessionsRepository, installationID mo.Option[int64]) *models.Session {
	t.Helper()
	session := &models.Session{
		ID:             core.NewID("sess"),
		UserLogin:      "test-user-" + uuid.New().String(),
		AccessToken:    mo.Some("gho_test_" + uuid.New().String()),
		InstallationID: installationID,
		ExpiresAt:      time.Now().Add(time.Hour),
	}

	err := repo.CreateSession(context.Background(), session)
	require.NoError(t, err, "Failed to create test session")
	return session
}

// CreateTestContext creates a context with the given session set for testing
func CreateTestContext(session *models.Session) context.Context {
	return appctx.SetSession(context.Background(), session)
}
