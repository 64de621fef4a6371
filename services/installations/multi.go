package installations

import (
	"net/http"
	"strings"

	"ghdash/models"
)

// ResolveMultipleInstallationIDs resolves an ordered list of installation IDs.
// It never fails: an empty list means the caller has no tenants selected.
func (r *Resolver) ResolveMultipleInstallationIDs(
	req *http.Request,
	session *models.Session,
	available []models.AppInstallation,
	opts Options,
) []int64 {
	return r.ResolveMultipleWithDiagnostics(req, session, available, opts).IDs
}

// ResolveMultipleWithDiagnostics is ResolveMultipleInstallationIDs plus the tokens
// and IDs that were discarded on the way.
func (r *Resolver) ResolveMultipleWithDiagnostics(
	req *http.Request,
	session *models.Session,
	available []models.AppInstallation,
	opts Options,
) models.MultiInstallationResolution {
	opts = opts.withDefaults()
	filter := func(ids []int64) (kept, dropped []int64) {
		if !opts.ValidateAgainstAvailable || len(available) == 0 {
			return ids, nil
		}
		for _, id := range ids {
			if models.ContainsInstallation(available, id) {
				kept = append(kept, id)
			} else {
				dropped = append(dropped, id)
			}
		}
		return kept, dropped
	}

	result := models.MultiInstallationResolution{
		IDs:    []int64{},
		Source: models.InstallationIDSourceNone,
	}
	settle := func(ids []int64, src models.InstallationIDSource) bool {
		kept, dropped := filter(ids)
		result.Dropped = append(result.Dropped, dropped...)
		if len(kept) == 0 {
			return false
		}
		result.IDs = kept
		result.Source = src
		return true
	}

	done := false
	if req != nil && req.URL != nil {
		if raw := req.URL.Query().Get(opts.QueryParamName); strings.TrimSpace(raw) != "" {
			ids, invalid := parseIDList(raw)
			result.Invalid = append(result.Invalid, invalid...)
			done = settle(ids, models.InstallationIDSourceQuery)
		}
	}

	if !done && session != nil {
		if id, ok := session.InstallationID.Get(); ok && id > 0 {
			done = settle([]int64{id}, models.InstallationIDSourceSession)
		}
	}

	if !done && req != nil {
		if raw, ok := cookieValue(req.Header, opts.CookieName); ok {
			if id, err := ParseInstallationID(raw); err == nil {
				done = settle([]int64{id}, models.InstallationIDSourceCookie)
			} else {
				result.Invalid = append(result.Invalid, raw)
			}
		}
	}

	if !done && opts.UseFirstAvailableAsFallback && len(available) > 0 {
		done = settle([]int64{available[0].ID}, models.InstallationIDSourceAvailableInstallations)
	}

	if !done {
		if id, ok := opts.FallbackInstallationID.Get(); ok && id > 0 {
			settle([]int64{id}, models.InstallationIDSourceFallback)
		}
	}

	if len(result.Dropped) > 0 || len(result.Invalid) > 0 {
		r.logger.Info("⚠️ Discarded installation IDs during multi resolution",
			"dropped", result.Dropped,
			"invalid_count", len(result.Invalid),
			"source", result.Source)
	}
	r.metrics.RecordMultiResolution(string(result.Source), len(result.IDs), len(result.Dropped))

	return result
}

// parseIDList splits a comma-separated list, keeping the first occurrence of each valid ID
func parseIDList(raw string) (ids []int64, invalid []string) {
	seen := make(map[int64]bool)
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		id, err := ParseInstallationID(token)
		if err != nil {
			invalid = append(invalid, token)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, invalid
}
