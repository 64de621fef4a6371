package github

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"ghdash/clients"
	"ghdash/models"
)

// MockGitHubClient is a mock implementation of the GitHubClient interface
type MockGitHubClient struct {
	mock.Mock
}

var _ clients.GitHubClient = (*MockGitHubClient)(nil)

func (m *MockGitHubClient) AuthCodeURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

// ExchangeCodeForAccessToken mocks the OAuth code exchange
func (m *MockGitHubClient) ExchangeCodeForAccessToken(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *MockGitHubClient) GetAuthenticatedUserLogin(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(ctx, accessToken)
	return args.String(0), args.Error(1)
}

func (m *MockGitHubClient) ListUserInstallations(ctx context.Context, accessToken string) ([]models.AppInstallation, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AppInstallation), args.Error(1)
}

func (m *MockGitHubClient) FindUserInstallation(ctx context.Context, accessToken string) (mo.Option[int64], error) {
	args := m.Called(ctx, accessToken)
	return args.Get(0).(mo.Option[int64]), args.Error(1)
}

// ListInstallationRepositories mocks listing repositories for an installation
func (m *MockGitHubClient) ListInstallationRepositories(ctx context.Context, installationID int64) ([]models.GitHubRepository, error) {
	args := m.Called(ctx, installationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GitHubRepository), args.Error(1)
}
