package model

import (
	"time"

	"github.com/ssargent/skulddb/pkg/ids"
)

// Session is one refresh-rotation window for a user. CurrentRefreshJTI is
// the only field that changes after creation; it is swapped transactionally
// on every refresh-token exchange.
type Session struct {
	ID                ids.SessionID
	UserID            ids.UserID
	CreatedAt         int64
	ExpiresAt         int64
	CurrentRefreshJTI ids.RefreshID
}

// NewSession returns a session expiring ttl from now.
func NewSession(userID ids.UserID, refreshJTI ids.RefreshID, ttl time.Duration) Session {
	now := time.Now().Unix()
	return Session{
		ID:                ids.NewSessionID(),
		UserID:            userID,
		CreatedAt:         now,
		ExpiresAt:         now + int64(ttl/time.Second),
		CurrentRefreshJTI: refreshJTI,
	}
}

// Expired reports whether the session's window has passed. Storage never
// enforces this; callers check it.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt <= now.Unix()
}
