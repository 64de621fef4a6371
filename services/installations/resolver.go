package installations

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/mo"

	"ghdash/core"
	"ghdash/metrics"
	"ghdash/models"
)

const (
	ErrNoInstallationID         = "No installation ID found"
	ErrInstallationNotAvailable = "Installation ID not found in available installations"
)

// Resolver picks the installation a request should act on.
// It holds no per-request state and is safe for concurrent use.
type Resolver struct {
	logger  *slog.Logger
	metrics metrics.Recorder
}

func NewResolver(logger *slog.Logger, recorder metrics.Recorder) *Resolver {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Resolver{
		logger:  logger,
		metrics: recorder,
	}
}

type resolutionInput struct {
	request   *http.Request
	session   *models.Session
	available []models.AppInstallation
	opts      Options
}

// source returns a definitive resolution (a match or an explicit invalid value)
// or false when it has nothing to say and the next source should be tried.
type source func(in resolutionInput) (models.InstallationResolution, bool)

// sourceChain is the fixed priority order. The first definitive result wins.
var sourceChain = []source{
	fromQuery,
	fromSession,
	fromCookie,
	fromFallback,
}

// ResolveInstallationID determines the single installation ID to use for a request.
// Failures are reported in the returned resolution, never as an error.
func (r *Resolver) ResolveInstallationID(
	req *http.Request,
	session *models.Session,
	available []models.AppInstallation,
	opts Options,
) models.InstallationResolution {
	in := resolutionInput{
		request:   req,
		session:   session,
		available: available,
		opts:      opts.withDefaults(),
	}

	resolution := models.InstallationResolution{
		ID:      mo.None[int64](),
		Source:  models.InstallationIDSourceNone,
		IsValid: false,
		Error:   ErrNoInstallationID,
	}
	for _, next := range sourceChain {
		if res, ok := next(in); ok {
			resolution = res
			break
		}
	}

	r.metrics.RecordResolution(string(resolution.Source), resolution.IsValid)
	if resolution.IsValid {
		r.logger.Debug("✅ Resolved installation ID",
			"installation_id", resolution.ID.MustGet(),
			"source", resolution.Source,
			"available_count", len(available))
	} else {
		r.logger.Debug("⚠️ Installation ID resolution failed",
			"source", resolution.Source,
			"error", resolution.Error,
			"available_count", len(available))
	}

	return resolution
}

// RequireInstallationID is ResolveInstallationID for call sites that cannot proceed without an ID
func (r *Resolver) RequireInstallationID(
	req *http.Request,
	session *models.Session,
	available []models.AppInstallation,
	opts Options,
) (int64, error) {
	resolution := r.ResolveInstallationID(req, session, available, opts)
	if !resolution.IsValid {
		return 0, &core.InstallationRequiredError{Resolution: resolution}
	}
	return resolution.ID.MustGet(), nil
}

func fromQuery(in resolutionInput) (models.InstallationResolution, bool) {
	if in.request == nil || in.request.URL == nil {
		return models.InstallationResolution{}, false
	}
	raw := in.request.URL.Query().Get(in.opts.QueryParamName)
	if raw == "" {
		return models.InstallationResolution{}, false
	}
	return checkRaw(raw, models.InstallationIDSourceQuery, in), true
}

func fromSession(in resolutionInput) (models.InstallationResolution, bool) {
	if in.session == nil {
		return models.InstallationResolution{}, false
	}
	id, ok := in.session.InstallationID.Get()
	if !ok {
		return models.InstallationResolution{}, false
	}
	if id <= 0 {
		return invalidFormat(strconv.FormatInt(id, 10), models.InstallationIDSourceSession), true
	}
	return checkMembership(id, models.InstallationIDSourceSession, in), true
}

func fromCookie(in resolutionInput) (models.InstallationResolution, bool) {
	if in.request == nil {
		return models.InstallationResolution{}, false
	}
	raw, ok := cookieValue(in.request.Header, in.opts.CookieName)
	if !ok {
		return models.InstallationResolution{}, false
	}
	return checkRaw(raw, models.InstallationIDSourceCookie, in), true
}

func fromFallback(in resolutionInput) (models.InstallationResolution, bool) {
	if in.opts.UseFirstAvailableAsFallback && len(in.available) > 0 {
		return models.InstallationResolution{
			ID:      mo.Some(in.available[0].ID),
			Source:  models.InstallationIDSourceAvailableInstallations,
			IsValid: true,
		}, true
	}
	if id, ok := in.opts.FallbackInstallationID.Get(); ok {
		if id <= 0 {
			return invalidFormat(strconv.FormatInt(id, 10), models.InstallationIDSourceFallback), true
		}
		return checkMembership(id, models.InstallationIDSourceFallback, in), true
	}
	return models.InstallationResolution{}, false
}

func checkRaw(raw string, src models.InstallationIDSource, in resolutionInput) models.InstallationResolution {
	id, err := ParseInstallationID(raw)
	if err != nil {
		return invalidFormat(raw, src)
	}
	return checkMembership(id, src, in)
}

// checkMembership keeps "well-formed but not authorized" apart from "malformed":
// the attempted ID is still reported.
func checkMembership(id int64, src models.InstallationIDSource, in resolutionInput) models.InstallationResolution {
	if in.opts.ValidateAgainstAvailable && len(in.available) > 0 && !models.ContainsInstallation(in.available, id) {
		return models.InstallationResolution{
			ID:      mo.Some(id),
			Source:  src,
			IsValid: false,
			Error:   ErrInstallationNotAvailable,
		}
	}
	return models.InstallationResolution{
		ID:      mo.Some(id),
		Source:  src,
		IsValid: true,
	}
}

func invalidFormat(raw string, src models.InstallationIDSource) models.InstallationResolution {
	return models.InstallationResolution{
		ID:      mo.None[int64](),
		Source:  src,
		IsValid: false,
		Error:   fmt.Sprintf("Invalid installation ID %q from %s: must be a positive integer", raw, src),
	}
}

// ParseInstallationID parses a positive base-10 integer made of digits only.
// Surrounding whitespace is ignored; signs and leading zeros are rejected.
func ParseInstallationID(raw string) (int64, error) {
	digits := strings.TrimSpace(raw)
	if digits == "" || digits[0] == '0' || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, fmt.Errorf("installation ID %q is not a positive integer", raw)
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("installation ID %q is not an integer", raw)
	}
	if id <= 0 {
		return 0, fmt.Errorf("installation ID %d is not positive", id)
	}
	return id, nil
}

// cookieValue scans the raw Cookie headers for name=value without going through
// net/http's cookie parser, which drops values containing characters it considers invalid.
func cookieValue(header http.Header, name string) (string, bool) {
	for _, line := range header.Values("Cookie") {
		for _, part := range strings.Split(line, ";") {
			key, value, found := strings.Cut(strings.TrimSpace(part), "=")
			if !found || strings.TrimSpace(key) != name {
				continue
			}
			value = strings.Trim(strings.TrimSpace(value), `"`)
			if value == "" {
				continue
			}
			return value, true
		}
	}
	return "", false
}
