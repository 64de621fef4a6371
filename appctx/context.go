package appctx

import (
	"context"

	"ghdash/models"
)

// Context key for storing the authenticated session
type contextKey string

const SessionContextKey contextKey = "session"

// SetSession adds the session to the request context
func SetSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, session)
}

// GetSession extracts the session from the request context
func GetSession(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*models.Session)
	return session, ok && session != nil
}
