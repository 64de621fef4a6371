package api

import "ghdash/models"

// DomainSessionToAPIUser converts a session to the user model returned by the API
func DomainSessionToAPIUser(session *models.Session) *UserModel {
	if session == nil {
		return nil
	}

	user := &UserModel{
		Login:     session.UserLogin,
		ExpiresAt: session.ExpiresAt,
	}
	if id, ok := session.InstallationID.Get(); ok {
		user.InstallationID = &id
	}
	return user
}

func DomainInstallationsToAPIInstallations(installations []models.AppInstallation) []InstallationModel {
	result := make([]InstallationModel, 0, len(installations))
	for _, installation := range installations {
		result = append(result, InstallationModel{
			ID:                  installation.ID,
			AccountLogin:        installation.Account.Login,
			AccountType:         string(installation.Account.Type),
			AppSlug:             installation.AppSlug,
			RepositorySelection: installation.RepositorySelection,
		})
	}
	return result
}

func DomainResolutionToAPIResolution(resolution models.InstallationResolution) ResolutionModel {
	model := ResolutionModel{
		Source:  string(resolution.Source),
		IsValid: resolution.IsValid,
		Error:   resolution.Error,
	}
	if id, ok := resolution.ID.Get(); ok {
		model.ID = &id
	}
	return model
}

// DomainRepositoriesToAPIRepositories tags each repository with the installation it was listed through
func DomainRepositoriesToAPIRepositories(installationID int64, repositories []models.GitHubRepository) []RepositoryModel {
	result := make([]RepositoryModel, 0, len(repositories))
	for _, repo := range repositories {
		result = append(result, RepositoryModel{
			ID:             repo.ID,
			InstallationID: installationID,
			Name:           repo.Name,
			FullName:       repo.FullName,
			Private:        repo.Private,
			HTMLURL:        repo.HTMLURL,
			DefaultBranch:  repo.DefaultBranch,
		})
	}
	return result
}
