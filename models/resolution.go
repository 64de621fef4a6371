package models

import "github.com/samber/mo"

// InstallationIDSource records where a candidate installation ID came from.
// Used for diagnostics and tie-breaking only, never persisted.
type InstallationIDSource string

const (
	InstallationIDSourceQuery                  InstallationIDSource = "query"
	InstallationIDSourceSession                InstallationIDSource = "session"
	InstallationIDSourceCookie                 InstallationIDSource = "cookie"
	InstallationIDSourceAvailableInstallations InstallationIDSource = "available_installations"
	InstallationIDSourceFallback               InstallationIDSource = "fallback"
	InstallationIDSourceNone                   InstallationIDSource = "none"
)

// InstallationResolution is the outcome of resolving a single installation ID.
// When IsValid is true, ID is always present.
type InstallationResolution struct {
	ID      mo.Option[int64]     `json:"id"`
	Source  InstallationIDSource `json:"source"`
	IsValid bool                 `json:"isValid"`
	Error   string               `json:"error,omitempty"`
}

// MultiInstallationResolution carries the resolved IDs plus what was dropped along the way
type MultiInstallationResolution struct {
	IDs     []int64              `json:"ids"`
	Source  InstallationIDSource `json:"source"`
	Dropped []int64              `json:"dropped,omitempty"`
	Invalid []string             `json:"invalid,omitempty"`
}
