package models

import (
	"time"

	"github.com/google/uuid"
)

// Grant lifetime and member cooldown window.
// Both are part of the controller protocol contract, do not tune per gym.
const (
	GrantTTL      = 30 * time.Second
	GrantCooldown = 5 * time.Minute
)

// AccessGrant is a one-time capability to open a gym turnstile.
// It is consumed exactly once by the controller poll or silently
// becomes unreachable after ExpiresAt. Grants are never deleted,
// they stay around as an audit trail.
type AccessGrant struct {
	ID        uuid.UUID
	GymID     uuid.UUID
	MemberID  *uuid.UUID // nil for admin-issued grants
	IsAdmin   bool
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time // nil while the grant is still pending
}

// Pending reports whether the grant may still be consumed at the given time.
func (g AccessGrant) Pending(now time.Time) bool {
	return g.UsedAt == nil && g.ExpiresAt.After(now)
}
