package models

import (
	"time"

	"github.com/google/uuid"
)

type Member struct {
	ID        uuid.UUID
	GymID     uuid.UUID
	CreatedAt time.Time
	Name      string
	Email     string
	PinHash   string
}
