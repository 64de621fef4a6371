package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/mo"

	"ghdash/core"
	"ghdash/models"
)

// SessionsRepository is the storage the service needs, implemented by db.PostgresSessionsRepository
type SessionsRepository interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByID(ctx context.Context, id string) (mo.Option[*models.Session], error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type SessionsService struct {
	repo   SessionsRepository
	maxAge time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewSessionsService(repo SessionsRepository, maxAge time.Duration, logger *slog.Logger) *SessionsService {
	return &SessionsService{repo: repo, maxAge: maxAge, logger: logger, now: time.Now}
}

// CreateSession materializes the signed-in token record into a new persisted session
func (s *SessionsService) CreateSession(ctx context.Context, record models.TokenRecord) (*models.Session, error) {
	if record.UserLogin == "" {
		return nil, &core.ValidationError{Field: "userLogin", Message: "cannot be empty"}
	}

	now := s.now()
	session := MaterializeSession(record, models.Session{
		ID:             core.NewID("sess"),
		AccessToken:    mo.None[string](),
		InstallationID: mo.None[int64](),
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.maxAge),
	})

	if err := s.repo.CreateSession(ctx, &session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("✅ Session created",
		"session_id", session.ID,
		"user_login", session.UserLogin,
		"has_installation", session.InstallationID.IsPresent())
	return &session, nil
}

// GetSession returns the session if it exists and has not expired
func (s *SessionsService) GetSession(ctx context.Context, id string) (mo.Option[*models.Session], error) {
	if id == "" {
		return mo.None[*models.Session](), nil
	}

	maybeSession, err := s.repo.GetSessionByID(ctx, id)
	if err != nil {
		return mo.None[*models.Session](), fmt.Errorf("failed to get session: %w", err)
	}

	session, ok := maybeSession.Get()
	if !ok {
		return mo.None[*models.Session](), nil
	}
	if session.IsExpired(s.now()) {
		s.logger.Debug("⏰ Session expired", "session_id", session.ID)
		return mo.None[*models.Session](), nil
	}

	return mo.Some(session), nil
}

// DeleteSession destroys the session at sign-out. Deleting an unknown session is not an error.
func (s *SessionsService) DeleteSession(ctx context.Context, id string) error {
	if err := s.repo.DeleteSession(ctx, id); err != nil && !core.IsNotFoundError(err) {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Info("👋 Session deleted", "session_id", id)
	return nil
}

func (s *SessionsService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	if removed > 0 {
		s.logger.Info("🧹 Purged expired sessions", "count", removed)
	}
	return removed, nil
}
