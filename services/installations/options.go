package installations

import "github.com/samber/mo"

const (
	DefaultQueryParamName = "installation_id"
	DefaultCookieName     = "github_installation_id"
)

type Options struct {
	QueryParamName              string
	CookieName                  string
	ValidateAgainstAvailable    bool
	UseFirstAvailableAsFallback bool

	// FallbackInstallationID is tried after the available-installations fallback
	// and reported with source "fallback".
	FallbackInstallationID mo.Option[int64]
}

func DefaultOptions() Options {
	return Options{
		QueryParamName:              DefaultQueryParamName,
		CookieName:                  DefaultCookieName,
		ValidateAgainstAvailable:    true,
		UseFirstAvailableAsFallback: true,
		FallbackInstallationID:      mo.None[int64](),
	}
}

func (o Options) withDefaults() Options {
	if o.QueryParamName == "" {
		o.QueryParamName = DefaultQueryParamName
	}
	if o.CookieName == "" {
		o.CookieName = DefaultCookieName
	}
	return o
}
