package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v74/github"
	"github.com/samber/mo"
	"golang.org/x/oauth2"
	oauthendpoints "golang.org/x/oauth2/github"

	"ghdash/clients"
	"ghdash/core"
	"ghdash/models"
)

const listPageSize = 100

// GitHubClient implements the clients.GitHubClient interface
type GitHubClient struct {
	oauthConfig *oauth2.Config
	factory     *ClientFactory
	appID       int64
	logger      *slog.Logger
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Endpoint overrides the github.com OAuth endpoints when set
	Endpoint *oauth2.Endpoint
}

// NewGitHubClient creates a new GitHub client with the provided configuration.
// appID filters installation listings to this app's installations when non-zero.
func NewGitHubClient(oauthCfg OAuthConfig, factory *ClientFactory, appID int64, logger *slog.Logger) clients.GitHubClient {
	endpoint := oauthendpoints.Endpoint
	if oauthCfg.Endpoint != nil {
		endpoint = *oauthCfg.Endpoint
	}

	return &GitHubClient{
		oauthConfig: &oauth2.Config{
			ClientID:     oauthCfg.ClientID,
			ClientSecret: oauthCfg.ClientSecret,
			RedirectURL:  oauthCfg.RedirectURL,
			Scopes:       oauthCfg.Scopes,
			Endpoint:     endpoint,
		},
		factory: factory,
		appID:   appID,
		logger:  logger,
	}
}

func (c *GitHubClient) AuthCodeURL(state string) string {
	return c.oauthConfig.AuthCodeURL(state)
}

// ExchangeCodeForAccessToken exchanges an OAuth authorization code for an access token
func (c *GitHubClient) ExchangeCodeForAccessToken(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.factory.httpClient)

	token, err := c.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", NormalizeError(err))
	}
	if token.AccessToken == "" {
		return "", &core.AuthError{Message: "OAuth exchange returned no access token"}
	}

	return token.AccessToken, nil
}

func (c *GitHubClient) GetAuthenticatedUserLogin(ctx context.Context, accessToken string) (string, error) {
	client, err := c.factory.CreateAuthenticatedClient(ctx, models.DelegatedCredential{Token: accessToken})
	if err != nil {
		return "", err
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", NormalizeError(err))
	}

	return user.GetLogin(), nil
}

// ListUserInstallations lists the app installations reachable with a user access token
func (c *GitHubClient) ListUserInstallations(ctx context.Context, accessToken string) ([]models.AppInstallation, error) {
	client, err := c.factory.CreateAuthenticatedClient(ctx, models.DelegatedCredential{Token: accessToken})
	if err != nil {
		return nil, err
	}

	installations := []models.AppInstallation{}
	opts := &github.ListOptions{PerPage: listPageSize}
	for {
		page, resp, err := client.Apps.ListUserInstallations(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list user installations: %w", NormalizeError(err))
		}

		for _, installation := range page {
			if c.appID != 0 && installation.GetAppID() != c.appID {
				continue
			}
			installations = append(installations, toAppInstallation(installation))
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return installations, nil
}

// FindUserInstallation returns the first installation reachable with the token, if any
func (c *GitHubClient) FindUserInstallation(ctx context.Context, accessToken string) (mo.Option[int64], error) {
	installations, err := c.ListUserInstallations(ctx, accessToken)
	if err != nil {
		return mo.None[int64](), err
	}
	if len(installations) == 0 {
		return mo.None[int64](), nil
	}

	c.logger.Debug("🔎 Found user installations", "count", len(installations), "first_installation_id", installations[0].ID)
	return mo.Some(installations[0].ID), nil
}

// ListInstallationRepositories lists repositories accessible by a GitHub App installation
func (c *GitHubClient) ListInstallationRepositories(ctx context.Context, installationID int64) ([]models.GitHubRepository, error) {
	client, err := c.factory.CreateAuthenticatedClient(ctx, models.InstalledCredential{InstallationID: installationID})
	if err != nil {
		return nil, err
	}

	repositories := []models.GitHubRepository{}
	opts := &github.ListOptions{PerPage: listPageSize}
	for {
		page, resp, err := client.Apps.ListRepos(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories: %w", NormalizeError(err))
		}

		for _, repo := range page.Repositories {
			repositories = append(repositories, models.GitHubRepository{
				ID:            repo.GetID(),
				Name:          repo.GetName(),
				FullName:      repo.GetFullName(),
				Private:       repo.GetPrivate(),
				HTMLURL:       repo.GetHTMLURL(),
				DefaultBranch: repo.GetDefaultBranch(),
			})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repositories, nil
}

func toAppInstallation(installation *github.Installation) models.AppInstallation {
	return models.AppInstallation{
		ID: installation.GetID(),
		Account: models.InstallationAccount{
			Login: installation.GetAccount().GetLogin(),
			Type:  models.AccountType(installation.GetAccount().GetType()),
		},
		AppSlug:             installation.GetAppSlug(),
		AppID:               installation.GetAppID(),
		RepositorySelection: installation.GetRepositorySelection(),
		TargetType:          installation.GetTargetType(),
	}
}

var _ clients.GitHubClient = (*GitHubClient)(nil)
