package models

import (
	"time"

	"github.com/samber/mo"
)

type Session struct {
	ID             string
	UserLogin      string
	AccessToken    mo.Option[string]
	InstallationID mo.Option[int64]
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// IsExpired reports whether the session is past its expiry at the given time
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TokenRecord is the intermediate produced by the sign-in handshake
// before it is materialized into a Session.
type TokenRecord struct {
	UserLogin      string
	AccessToken    string
	InstallationID mo.Option[int64]
}
