package models

import (
	"time"

	"github.com/google/uuid"
)

// Attendance is written when the controller consumes a member grant.
// Admin grants carry no member and leave no attendance trail.
type Attendance struct {
	ID          uuid.UUID
	GymID       uuid.UUID
	MemberID    uuid.UUID
	GrantID     uuid.UUID
	CheckedInAt time.Time
}
