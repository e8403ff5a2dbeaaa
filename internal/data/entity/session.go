package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is a bearer token issued to a member at login
type Session struct {
	BaseSimple
	UserID    uuid.UUID  `db:"user_id"`
	Token     uuid.UUID  `db:"token"`
	UserAgent *string    `db:"user_agent"`
	IPAddress *string    `db:"ip_address"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

// ValidAt reports whether the token still authenticates at t
func (s *Session) ValidAt(t time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(t)
}
