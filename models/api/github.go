package api

import "time"

// UserModel is the signed-in user as returned by /api/me
type UserModel struct {
	Login          string    `json:"login"`
	InstallationID *int64    `json:"installationId,omitempty"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

type InstallationModel struct {
	ID                  int64  `json:"id"`
	AccountLogin        string `json:"accountLogin"`
	AccountType         string `json:"accountType"`
	AppSlug             string `json:"appSlug,omitempty"`
	RepositorySelection string `json:"repositorySelection,omitempty"`
}

type InstallationsResponse struct {
	Installations []InstallationModel `json:"installations"`
}

// ResolutionModel mirrors models.InstallationResolution with a nullable id
type ResolutionModel struct {
	ID      *int64 `json:"id"`
	Source  string `json:"source"`
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

type RepositoryModel struct {
	ID             int64  `json:"id"`
	InstallationID int64  `json:"installationId"`
	Name           string `json:"name"`
	FullName       string `json:"fullName"`
	Private        bool   `json:"private"`
	HTMLURL        string `json:"htmlUrl"`
	DefaultBranch  string `json:"defaultBranch,omitempty"`
}

// RepositoriesResponse lists repositories with the installations they were read through.
// Source is only set for multi-installation listings.
type RepositoriesResponse struct {
	InstallationIDs []int64           `json:"installationIds"`
	Source          string            `json:"source,omitempty"`
	Repositories    []RepositoryModel `json:"repositories"`
}
