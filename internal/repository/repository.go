package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avdeev/gymgate/internal/models"
)

// Gym repository interface
type GymRepo interface {
	// Create gym with optional turnstile key
	CreateGym(ctx context.Context, name string, turnstileKey *string) (models.Gym, error)

	// Get gym by its id
	// If gym not found must return apperrors.ErrGymNotFound
	GetGymByID(ctx context.Context, gymID uuid.UUID) (models.Gym, error)

	// Resolve the static controller key to exactly one gym
	// If no gym carries the key must return apperrors.ErrTurnstileKeyUnknown
	GetGymByTurnstileKey(ctx context.Context, key string) (models.Gym, error)

	// Set (or rotate) the turnstile key for the gym
	SetTurnstileKey(ctx context.Context, gymID uuid.UUID, key string) error
}

// Owner repository interface
type OwnerRepo interface {
	// Create owner
	// If owner with the email exists already must return apperrors.ErrOwnerAlreadyExists
	CreateOwner(ctx context.Context, gymID uuid.UUID, email string, hashedPassword string) (models.Owner, error)

	// Get owner by id or email
	// If owner not found must return apperrors.ErrOwnerNotFound
	GetOwnerByID(ctx context.Context, ownerID uuid.UUID) (models.Owner, error)
	GetOwnerByEmail(ctx context.Context, email string) (models.Owner, error)
}

// Member repository interface
type MemberRepo interface {
	// Create member
	// If member with the email exists in the gym already must return apperrors.ErrMemberAlreadyExists
	CreateMember(ctx context.Context, gymID uuid.UUID, name string, email string, pinHash string) (models.Member, error)

	// Get member by id, or by email within a gym
	// If member not found must return apperrors.ErrMemberNotFound
	GetMemberByID(ctx context.Context, memberID uuid.UUID) (models.Member, error)
	GetMemberByEmail(ctx context.Context, gymID uuid.UUID, email string) (models.Member, error)
}

// Membership repository interface
type MembershipRepo interface {
	CreatePlan(ctx context.Context, plan models.Plan) (models.Plan, error)
	CreateMembership(ctx context.Context, membership models.Membership) (models.Membership, error)

	// Report whether the member holds at least one membership with status ACTIVE
	HasActiveMembership(ctx context.Context, memberID uuid.UUID) (bool, error)
}

// Grant repository interface
//
// Grants are append-and-consume only: nothing updates a grant except the
// single used_at transition and nothing ever deletes one.
type GrantRepo interface {
	// Create grant as is (the service decides timestamps and ownership)
	CreateGrant(ctx context.Context, grant models.AccessGrant) (models.AccessGrant, error)

	// Return the oldest pending grant for the gym: used_at IS NULL and
	// expires_at after the given time, first-issued first
	// If there is none must return apperrors.ErrNoGrantPending
	FindOldestPending(ctx context.Context, gymID uuid.UUID, now time.Time) (models.AccessGrant, error)

	// Mark the grant used at the given time. The update is conditional on
	// used_at still being NULL, so exactly one caller wins under concurrent polls.
	// If the grant lost the race must return apperrors.ErrGrantAlreadyUsed
	// If the grant does not exist must return apperrors.ErrGrantNotFound
	Consume(ctx context.Context, grantID uuid.UUID, usedAt time.Time) (models.AccessGrant, error)

	// Return the most recent grant the member created at or after 'since'
	// If there is none must return apperrors.ErrGrantNotFound
	FindRecentForMember(ctx context.Context, memberID uuid.UUID, since time.Time) (models.AccessGrant, error)
}

// Attendance repository interface
type AttendanceRepo interface {
	// Record attendance for a consumed member grant
	RecordAttendance(ctx context.Context, attendance models.Attendance) (models.Attendance, error)

	// List attendance for a gym, newest first
	ListAttendance(ctx context.Context, gymID uuid.UUID, limit int) ([]models.Attendance, error)
}

// Storage combines all repositories and allows running them in one transaction
type Storage interface {
	Gym() GymRepo
	Owner() OwnerRepo
	Member() MemberRepo
	Membership() MembershipRepo
	Grant() GrantRepo
	Attendance() AttendanceRepo

	InTx(ctx context.Context, fn func(Storage) error) error
}
