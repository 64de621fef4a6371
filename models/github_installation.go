package models

type AccountType string

const (
	AccountTypeUser         AccountType = "User"
	AccountTypeOrganization AccountType = "Organization"
)

type InstallationAccount struct {
	Login string      `json:"login"`
	Type  AccountType `json:"type"`
}

// AppInstallation is one tenant context the current identity can act in.
// IDs are unique within a single listing.
type AppInstallation struct {
	ID                  int64               `json:"id"`
	Account             InstallationAccount `json:"account"`
	AppSlug             string              `json:"app_slug"`
	AppID               int64               `json:"app_id"`
	RepositorySelection string              `json:"repository_selection"`
	TargetType          string              `json:"target_type"`
}

// ContainsInstallation reports whether id is one of the given installations
func ContainsInstallation(installations []AppInstallation, id int64) bool {
	for _, installation := range installations {
		if installation.ID == id {
			return true
		}
	}
	return false
}

type GitHubRepository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
}
