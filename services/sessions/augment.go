package sessions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/mo"

	"ghdash/models"
)

// InstallationProber checks which installation, if any, a freshly issued user token can reach
type InstallationProber interface {
	FindUserInstallation(ctx context.Context, accessToken string) (mo.Option[int64], error)
}

// AugmentToken attaches the access token and, when the probe finds one, an installation ID to record.
// The probe can never fail sign-in: its errors are logged and dropped.
func AugmentToken(
	ctx context.Context,
	logger *slog.Logger,
	prober InstallationProber,
	record models.TokenRecord,
	accessToken string,
) models.TokenRecord {
	augmented := record
	augmented.AccessToken = accessToken
	if prober == nil || accessToken == "" {
		return augmented
	}

	installationID, err := prober.FindUserInstallation(ctx, accessToken)
	if err != nil {
		logger.Warn("⚠️ Installation lookup failed during sign-in, continuing without installation",
			"user_login", record.UserLogin,
			"error_type", fmt.Sprintf("%T", err),
			"error", err.Error())
		return augmented
	}

	if id, ok := installationID.Get(); ok {
		logger.Info("✅ Found GitHub App installation for user", "user_login", record.UserLogin, "installation_id", id)
		augmented.InstallationID = mo.Some(id)
	}
	return augmented
}

// MaterializeSession copies the token and installation ID from record into a copy of session
func MaterializeSession(record models.TokenRecord, session models.Session) models.Session {
	materialized := session
	if record.UserLogin != "" {
		materialized.UserLogin = record.UserLogin
	}
	if record.AccessToken != "" {
		materialized.AccessToken = mo.Some(record.AccessToken)
	}
	if id, ok := record.InstallationID.Get(); ok {
		materialized.InstallationID = mo.Some(id)
	}
	return materialized
}
