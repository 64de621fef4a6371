package clients

import (
	"context"

	"github.com/samber/mo"

	"ghdash/models"
)

// GitHubClient is the collaborator the handlers and session handshake talk to GitHub through
type GitHubClient interface {
	// AuthCodeURL returns the consent page URL for the delegated OAuth flow
	AuthCodeURL(state string) string
	ExchangeCodeForAccessToken(ctx context.Context, code string) (string, error)
	GetAuthenticatedUserLogin(ctx context.Context, accessToken string) (string, error)
	ListUserInstallations(ctx context.Context, accessToken string) ([]models.AppInstallation, error)
	FindUserInstallation(ctx context.Context, accessToken string) (mo.Option[int64], error)
	ListInstallationRepositories(ctx context.Context, installationID int64) ([]models.GitHubRepository, error)
}
