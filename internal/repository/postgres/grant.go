package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/avdeev/gymgate/internal/apperrors"
	"github.com/avdeev/gymgate/internal/models"
)

type GrantRepo struct {
	DB DBTX
}

const createGrant = `-- name: CreateGrant
INSERT INTO access_grants (id, gym_id, member_id, is_admin, created_at, expires_at, used_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, gym_id, member_id, is_admin, created_at, expires_at, used_at
`

func (r *GrantRepo) CreateGrant(ctx context.Context, grant models.AccessGrant) (models.AccessGrant, error) {
	if grant.ID == uuid.Nil {
		grant.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createGrant,
		grant.ID, grant.GymID, grant.MemberID, grant.IsAdmin,
		grant.CreatedAt, grant.ExpiresAt, grant.UsedAt,
	)
	grant, err := pgx.CollectOneRow(rows, rowToGrant)
	if err != nil {
		return grant, fmt.Errorf("db error: %w", err)
	}
	return grant, nil
}

const findOldestPending = `-- name: FindOldestPending
SELECT id, gym_id, member_id, is_admin, created_at, expires_at, used_at
FROM access_grants
WHERE gym_id = $1 AND used_at IS NULL AND expires_at > $2
ORDER BY created_at ASC
LIMIT 1
`

// Find the oldest grant still consumable at 'now'.
// First-issued first-served: an admin open does not jump the queue.
func (r *GrantRepo) FindOldestPending(ctx context.Context, gymID uuid.UUID, now time.Time) (models.AccessGrant, error) {
	rows, _ := r.DB.Query(ctx, findOldestPending, gymID, now)
	grant, err := pgx.CollectOneRow(rows, rowToGrant)

	switch {
	case err == nil:
		return grant, nil
	case errors.Is(err, pgx.ErrNoRows):
		return grant, fmt.Errorf("repo error: %w", apperrors.ErrNoGrantPending)
	default:
		return grant, fmt.Errorf("db error: %w", err)
	}
}

const consumeGrant = `-- name: ConsumeGrant
UPDATE access_grants
SET used_at = $2
WHERE id = $1 AND used_at IS NULL
RETURNING id, gym_id, member_id, is_admin, created_at, expires_at, used_at
`

// Consume marks the grant used with a single conditional update.
// The WHERE used_at IS NULL clause is the whole concurrency story:
// of any number of concurrent pollers exactly one update matches a row,
// every other caller gets zero rows back and must treat the grant as gone.
func (r *GrantRepo) Consume(ctx context.Context, grantID uuid.UUID, usedAt time.Time) (models.AccessGrant, error) {
	rows, _ := r.DB.Query(ctx, consumeGrant, grantID, usedAt)
	grant, err := pgx.CollectOneRow(rows, rowToGrant)

	if err == nil {
		return grant, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return grant, fmt.Errorf("db error: %w", err)
	}

	// Zero rows updated: either the grant never existed or someone
	// else consumed it first. Tell the two apart for the audit log.
	var exists bool
	err = r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM access_grants WHERE id = $1)`, grantID).Scan(&exists)
	if err != nil {
		return grant, fmt.Errorf("db error: %w", err)
	}
	if exists {
		return grant, fmt.Errorf("repo error: %w", apperrors.ErrGrantAlreadyUsed)
	}
	return grant, fmt.Errorf("repo error: %w", apperrors.ErrGrantNotFound)
}

const findRecentForMember = `-- name: FindRecentForMember
SELECT id, gym_id, member_id, is_admin, created_at, expires_at, used_at
FROM access_grants
WHERE member_id = $1 AND created_at >= $2
ORDER BY created_at DESC
LIMIT 1
`

// Most recent grant the member created within the cooldown window.
// Used or expired grants still count: the cooldown is on issuance, not on entry.
func (r *GrantRepo) FindRecentForMember(ctx context.Context, memberID uuid.UUID, since time.Time) (models.AccessGrant, error) {
	rows, _ := r.DB.Query(ctx, findRecentForMember, memberID, since)
	grant, err := pgx.CollectOneRow(rows, rowToGrant)

	switch {
	case err == nil:
		return grant, nil
	case errors.Is(err, pgx.ErrNoRows):
		return grant, fmt.Errorf("repo error: %w", apperrors.ErrGrantNotFound)
	default:
		return grant, fmt.Errorf("db error: %w", err)
	}
}

func rowToGrant(row pgx.CollectableRow) (models.AccessGrant, error) {
	var g models.AccessGrant
	err := row.Scan(&g.ID, &g.GymID, &g.MemberID, &g.IsAdmin, &g.CreatedAt, &g.ExpiresAt, &g.UsedAt)
	return g, err
}
