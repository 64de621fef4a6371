package services

import (
	"context"

	"github.com/samber/mo"

	"ghdash/models"
)

// SessionsService defines the interface for session-related operations
type SessionsService interface {
	CreateSession(ctx context.Context, record models.TokenRecord) (*models.Session, error)
	GetSession(ctx context.Context, id string) (mo.Option[*models.Session], error)
	DeleteSession(ctx context.Context, id string) error
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}
