package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"ghdash/appctx"
	"ghdash/core"
	"ghdash/metrics"
	"ghdash/middleware"
	"ghdash/models"
	"ghdash/models/api"
)

// CookieSettings controls the cookies the dashboard endpoints set
type CookieSettings struct {
	InstallationCookieName string
	MaxAge                 time.Duration
	Secure                 bool
}

type DashboardHTTPHandler struct {
	handler *DashboardAPIHandler
	cookies CookieSettings
	logger  *slog.Logger
	metrics metrics.Recorder
}

func NewDashboardHTTPHandler(
	handler *DashboardAPIHandler,
	cookies CookieSettings,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *DashboardHTTPHandler {
	return &DashboardHTTPHandler{
		handler: handler,
		cookies: cookies,
		logger:  logger,
		metrics: recorder,
	}
}

func (h *DashboardHTTPHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFromContext(w, r, "me")
	if !ok {
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.DomainSessionToAPIUser(session))
}

func (h *DashboardHTTPHandler) HandleListInstallations(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFromContext(w, r, "installations")
	if !ok {
		return
	}

	installationsList, err := h.handler.ListInstallations(r.Context(), session)
	if err != nil {
		h.writeError(w, r, err, "installations", "list_installations")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.InstallationsResponse{
		Installations: api.DomainInstallationsToAPIInstallations(installationsList),
	})
}

// HandleResolveInstallation reports the installation the request resolves to.
// A valid id picked from the query is remembered in the installation cookie.
func (h *DashboardHTTPHandler) HandleResolveInstallation(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFromContext(w, r, "installations")
	if !ok {
		return
	}

	resolution, err := h.handler.ResolveInstallation(r, session)
	if err != nil {
		h.writeError(w, r, err, "installations", "resolve_installation")
		return
	}

	if id, ok := resolution.ID.Get(); ok && resolution.IsValid && resolution.Source == models.InstallationIDSourceQuery {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookies.InstallationCookieName,
			Value:    strconv.FormatInt(id, 10),
			Path:     "/",
			MaxAge:   int(h.cookies.MaxAge.Seconds()),
			HttpOnly: true,
			Secure:   h.cookies.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	h.writeJSONResponse(w, http.StatusOK, api.DomainResolutionToAPIResolution(resolution))
}

func (h *DashboardHTTPHandler) HandleListRepositories(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFromContext(w, r, "repositories")
	if !ok {
		return
	}

	response, err := h.handler.ListRepositories(r, session)
	if err != nil {
		h.writeError(w, r, err, "repositories", "list_repositories")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *DashboardHTTPHandler) HandleListRepositoriesMulti(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFromContext(w, r, "repositories")
	if !ok {
		return
	}

	response, err := h.handler.ListRepositoriesMulti(r, session)
	if err != nil {
		h.writeError(w, r, err, "repositories", "list_repositories_multi")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// SetupEndpoints registers the dashboard API routes behind the session middleware
func (h *DashboardHTTPHandler) SetupEndpoints(router *mux.Router, authMiddleware *middleware.SessionAuthMiddleware) {
	h.logger.Info("🚀 Registering dashboard API endpoints")

	router.HandleFunc("/api/me", authMiddleware.WithAuth(h.HandleGetMe)).Methods("GET")
	router.HandleFunc("/api/installations", authMiddleware.WithAuth(h.HandleListInstallations)).Methods("GET")
	router.HandleFunc("/api/installations/resolve", authMiddleware.WithAuth(h.HandleResolveInstallation)).Methods("GET")
	router.HandleFunc("/api/repositories", authMiddleware.WithAuth(h.HandleListRepositories)).Methods("GET")
	router.HandleFunc("/api/repositories/multi", authMiddleware.WithAuth(h.HandleListRepositoriesMulti)).Methods("GET")

	h.logger.Info("✅ Dashboard API endpoints registered")
}

// sessionFromContext writes an auth error when the middleware did not attach a session
func (h *DashboardHTTPHandler) sessionFromContext(w http.ResponseWriter, r *http.Request, module string) (*models.Session, bool) {
	session, ok := appctx.GetSession(r.Context())
	if !ok {
		h.writeError(w, r, &core.AuthError{Message: "not signed in"}, module, "session")
		return nil, false
	}
	return session, true
}

func (h *DashboardHTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error, module, operation string) {
	middleware.WriteAPIError(w, middleware.CreateAPIErrorResponse(err, middleware.ErrorContext{
		Logger:    h.logger,
		Metrics:   h.metrics,
		Operation: operation,
		Method:    r.Method,
		Path:      r.URL.Path,
	}, module), h.logger)
}

func (h *DashboardHTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("❌ Failed to encode JSON response", "error", err.Error())
	}
}
