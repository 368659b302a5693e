package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MembershipActive   = "ACTIVE"
	MembershipPaused   = "PAUSED"
	MembershipCanceled = "CANCELED"
	MembershipExpired  = "EXPIRED"
)

type Plan struct {
	ID           uuid.UUID
	GymID        uuid.UUID
	Name         string
	Price        decimal.Decimal
	DurationDays int
}

type Membership struct {
	ID       uuid.UUID
	MemberID uuid.UUID
	PlanID   uuid.UUID
	Status   string
	StartsAt time.Time
	EndsAt   time.Time
}
