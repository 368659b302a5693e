package models

import (
	"time"

	"github.com/google/uuid"
)

type Gym struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Name      string

	// Static shared secret the turnstile controller polls with.
	// nil until the owner configures the device
	TurnstileKey *string
}

type Owner struct {
	ID             uuid.UUID
	GymID          uuid.UUID
	CreatedAt      time.Time
	Email          string
	HashedPassword string
}
