package middleware

import (
	"log/slog"
	"net/http"

	"ghdash/appctx"
	"ghdash/core"
	"ghdash/metrics"
	"ghdash/services"
)

// SessionAuthMiddleware authenticates requests by their session cookie
type SessionAuthMiddleware struct {
	sessionsService services.SessionsService
	cookieName      string
	logger          *slog.Logger
	metrics         metrics.Recorder
}

// NewSessionAuthMiddleware creates a new authentication middleware instance
func NewSessionAuthMiddleware(
	sessionsService services.SessionsService,
	cookieName string,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{
		sessionsService: sessionsService,
		cookieName:      cookieName,
		logger:          logger,
		metrics:         recorder,
	}
}

// WithAuth wraps an HTTP handler with session authentication.
// Missing or expired sessions get a 403 with signOutRequired so the dashboard starts a fresh sign-in.
func (m *SessionAuthMiddleware) WithAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ectx := ErrorContext{
			Logger:    m.logger,
			Metrics:   m.metrics,
			Operation: "authenticate",
			Method:    r.Method,
			Path:      r.URL.Path,
		}

		cookie, err := r.Cookie(m.cookieName)
		if err != nil || cookie.Value == "" {
			WriteAPIError(w, CreateAPIErrorResponse(&core.AuthError{Message: "not signed in"}, ectx, "auth"), m.logger)
			return
		}

		maybeSession, err := m.sessionsService.GetSession(r.Context(), cookie.Value)
		if err != nil {
			WriteAPIError(w, CreateAPIErrorResponse(err, ectx, "auth"), m.logger)
			return
		}

		session, ok := maybeSession.Get()
		if !ok {
			WriteAPIError(w, CreateAPIErrorResponse(&core.AuthError{Message: "session expired or signed out"}, ectx, "auth"), m.logger)
			return
		}

		m.logger.Debug("✅ Session authenticated", "session_id", session.ID, "user_login", session.UserLogin)
		next(w, r.WithContext(appctx.SetSession(r.Context(), session)))
	}
}
