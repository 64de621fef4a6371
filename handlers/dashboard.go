package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/samber/mo"

	"ghdash/clients"
	"ghdash/core"
	"ghdash/models"
	"ghdash/models/api"
	"ghdash/services/installations"
)

type DashboardAPIHandler struct {
	githubClient clients.GitHubClient
	resolver     *installations.Resolver
	resolverOpts installations.Options
	logger       *slog.Logger
}

func NewDashboardAPIHandler(
	githubClient clients.GitHubClient,
	resolver *installations.Resolver,
	resolverOpts installations.Options,
	logger *slog.Logger,
) *DashboardAPIHandler {
	return &DashboardAPIHandler{
		githubClient: githubClient,
		resolver:     resolver,
		resolverOpts: resolverOpts,
		logger:       logger,
	}
}

// ListInstallations returns the app installations the signed-in user can reach
func (h *DashboardAPIHandler) ListInstallations(
	ctx context.Context,
	session *models.Session,
) ([]models.AppInstallation, error) {
	accessToken, ok := session.AccessToken.Get()
	if !ok {
		return nil, &core.AuthError{Message: "session has no GitHub token"}
	}

	installationsList, err := h.githubClient.ListUserInstallations(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("📋 Listed user installations", "user_login", session.UserLogin, "count", len(installationsList))
	return installationsList, nil
}

// ResolveInstallation resolves the installation for the request against what the user can reach
func (h *DashboardAPIHandler) ResolveInstallation(
	r *http.Request,
	session *models.Session,
) (models.InstallationResolution, error) {
	available, err := h.ListInstallations(r.Context(), session)
	if err != nil {
		return models.InstallationResolution{}, err
	}

	return h.resolver.ResolveInstallationID(r, session, available, h.resolverOpts), nil
}

// ListRepositories lists repositories of the single installation resolved for the request.
// App credentials are only ever used for installations the signed-in user can reach.
func (h *DashboardAPIHandler) ListRepositories(
	r *http.Request,
	session *models.Session,
) (*api.RepositoriesResponse, error) {
	available, err := h.ListInstallations(r.Context(), session)
	if err != nil {
		return nil, err
	}

	installationID, err := h.resolver.RequireInstallationID(r, session, available, h.resolverOpts)
	if err != nil {
		return nil, err
	}
	if !models.ContainsInstallation(available, installationID) {
		return nil, &core.InstallationRequiredError{Resolution: models.InstallationResolution{
			ID:     mo.Some(installationID),
			Source: models.InstallationIDSourceNone,
			Error:  installations.ErrInstallationNotAvailable,
		}}
	}

	repositories, err := h.githubClient.ListInstallationRepositories(r.Context(), installationID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("✅ Listed installation repositories", "installation_id", installationID, "count", len(repositories))
	return &api.RepositoriesResponse{
		InstallationIDs: []int64{installationID},
		Repositories:    api.DomainRepositoriesToAPIRepositories(installationID, repositories),
	}, nil
}

// ListRepositoriesMulti lists repositories across every installation selected by the request.
// Zero selected installations is a valid, empty result.
func (h *DashboardAPIHandler) ListRepositoriesMulti(
	r *http.Request,
	session *models.Session,
) (*api.RepositoriesResponse, error) {
	available, err := h.ListInstallations(r.Context(), session)
	if err != nil {
		return nil, err
	}

	resolution := h.resolver.ResolveMultipleWithDiagnostics(r, session, available, h.resolverOpts)

	reachable := []int64{}
	for _, installationID := range resolution.IDs {
		if models.ContainsInstallation(available, installationID) {
			reachable = append(reachable, installationID)
		}
	}

	repositories := []api.RepositoryModel{}
	for _, installationID := range reachable {
		repos, err := h.githubClient.ListInstallationRepositories(r.Context(), installationID)
		if err != nil {
			return nil, err
		}
		repositories = append(repositories, api.DomainRepositoriesToAPIRepositories(installationID, repos)...)
	}

	h.logger.Info("✅ Listed repositories across installations",
		"installation_count", len(reachable),
		"source", resolution.Source,
		"count", len(repositories))
	return &api.RepositoriesResponse{
		InstallationIDs: reachable,
		Source:          string(resolution.Source),
		Repositories:    repositories,
	}, nil
}
