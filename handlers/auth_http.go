package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/samber/mo"

	"ghdash/clients"
	"ghdash/core"
	"ghdash/metrics"
	"ghdash/middleware"
	"ghdash/models"
	"ghdash/services"
	"ghdash/services/sessions"
)

const (
	oauthStateCookieName = "ghdash_oauth_state"
	oauthStateMaxAge     = 10 * time.Minute
)

type SessionCookieSettings struct {
	Name                   string
	InstallationCookieName string
	MaxAge                 time.Duration
	Secure                 bool
}

// AuthHTTPHandler runs the GitHub sign-in handshake and sign-out
type AuthHTTPHandler struct {
	githubClient    clients.GitHubClient
	sessionsService services.SessionsService
	cookies         SessionCookieSettings
	dashboardURL    string
	logger          *slog.Logger
	metrics         metrics.Recorder
}

func NewAuthHTTPHandler(
	githubClient clients.GitHubClient,
	sessionsService services.SessionsService,
	cookies SessionCookieSettings,
	dashboardURL string,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		githubClient:    githubClient,
		sessionsService: sessionsService,
		cookies:         cookies,
		dashboardURL:    dashboardURL,
		logger:          logger,
		metrics:         recorder,
	}
}

// HandleLogin starts the OAuth flow with a fresh state bound to the browser by cookie
func (h *AuthHTTPHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	h.setCookie(w, oauthStateCookieName, state, oauthStateMaxAge)

	h.logger.Debug("🔐 Redirecting to GitHub for sign-in")
	http.Redirect(w, r, h.githubClient.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback completes sign-in: exchanges the code, looks up the user and their installation,
// and stores the session
func (h *AuthHTTPHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if oauthErr := query.Get("error"); oauthErr != "" {
		h.writeError(w, r, &core.AuthError{Message: "GitHub sign-in was not completed: " + oauthErr}, "callback")
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value == "" ||
		subtle.ConstantTimeCompare([]byte(stateCookie.Value), []byte(query.Get("state"))) != 1 {
		h.writeError(w, r, &core.AuthError{Message: "OAuth state mismatch"}, "callback")
		return
	}
	h.clearCookie(w, oauthStateCookieName)

	code := query.Get("code")
	if code == "" {
		h.writeError(w, r, &core.ValidationError{Field: "code", Message: "missing authorization code"}, "callback")
		return
	}

	accessToken, err := h.githubClient.ExchangeCodeForAccessToken(r.Context(), code)
	if err != nil {
		h.writeError(w, r, err, "callback")
		return
	}

	login, err := h.githubClient.GetAuthenticatedUserLogin(r.Context(), accessToken)
	if err != nil {
		h.writeError(w, r, err, "callback")
		return
	}

	record := sessions.AugmentToken(r.Context(), h.logger, h.githubClient, models.TokenRecord{
		UserLogin:      login,
		InstallationID: mo.None[int64](),
	}, accessToken)

	session, err := h.sessionsService.CreateSession(r.Context(), record)
	if err != nil {
		h.writeError(w, r, err, "callback")
		return
	}

	h.setCookie(w, h.cookies.Name, session.ID, h.cookies.MaxAge)
	h.logger.Info("✅ User signed in", "user_login", login, "session_id", session.ID)
	http.Redirect(w, r, h.dashboardURL, http.StatusFound)
}

// HandleSignOut destroys the session and clears every auth cookie
func (h *AuthHTTPHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookies.Name); err == nil && cookie.Value != "" {
		if err := h.sessionsService.DeleteSession(r.Context(), cookie.Value); err != nil {
			h.writeError(w, r, err, "signout")
			return
		}
	}

	h.clearCookie(w, h.cookies.Name)
	h.clearCookie(w, h.cookies.InstallationCookieName)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHTTPHandler) SetupEndpoints(router *mux.Router) {
	h.logger.Info("🚀 Registering auth endpoints")

	router.HandleFunc("/auth/github/login", h.HandleLogin).Methods("GET")
	router.HandleFunc("/auth/github/callback", h.HandleCallback).Methods("GET")
	router.HandleFunc("/auth/signout", h.HandleSignOut).Methods("POST")

	h.logger.Info("✅ Auth endpoints registered")
}

func (h *AuthHTTPHandler) setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHTTPHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	middleware.WriteAPIError(w, middleware.CreateAPIErrorResponse(err, middleware.ErrorContext{
		Logger:    h.logger,
		Metrics:   h.metrics,
		Operation: operation,
		Method:    r.Method,
		Path:      r.URL.Path,
	}, "auth"), h.logger)
}
