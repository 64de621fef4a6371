package models

import "fmt"

type CredentialKind string

const (
	CredentialKindDelegated CredentialKind = "delegated"
	CredentialKindInstalled CredentialKind = "installed"
)

// Credential describes how to authenticate against GitHub.
// It is implemented only by DelegatedCredential and InstalledCredential.
type Credential interface {
	Kind() CredentialKind
	Validate() error
	isCredential()
}

// DelegatedCredential is a user access token obtained through the OAuth consent flow
type DelegatedCredential struct {
	Token string
}

func (DelegatedCredential) Kind() CredentialKind { return CredentialKindDelegated }

func (c DelegatedCredential) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("token required")
	}
	return nil
}

func (DelegatedCredential) isCredential() {}

// InstalledCredential acts as the GitHub App on behalf of a single installation
type InstalledCredential struct {
	InstallationID int64
}

func (InstalledCredential) Kind() CredentialKind { return CredentialKindInstalled }

func (c InstalledCredential) Validate() error {
	if c.InstallationID <= 0 {
		return fmt.Errorf("installation ID must be a positive integer, got %d", c.InstallationID)
	}
	return nil
}

func (InstalledCredential) isCredential() {}
