package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/avdeev/gymgate/internal/models"
)

type MembershipRepo struct {
	DB DBTX
}

const createPlan = `-- name: CreatePlan
INSERT INTO plans (id, gym_id, name, price, duration_days)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, gym_id, name, price, duration_days
`

func (r *MembershipRepo) CreatePlan(ctx context.Context, plan models.Plan) (models.Plan, error) {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createPlan, plan.ID, plan.GymID, plan.Name, plan.Price, plan.DurationDays)
	plan, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Plan, error) {
		var p models.Plan
		err := row.Scan(&p.ID, &p.GymID, &p.Name, &p.Price, &p.DurationDays)
		return p, err
	})
	if err != nil {
		return plan, fmt.Errorf("db error: %w", err)
	}
	return plan, nil
}

const createMembership = `-- name: CreateMembership
INSERT INTO memberships (id, member_id, plan_id, status, starts_at, ends_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, member_id, plan_id, status, starts_at, ends_at
`

func (r *MembershipRepo) CreateMembership(ctx context.Context, membership models.Membership) (models.Membership, error) {
	if membership.ID == uuid.Nil {
		membership.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createMembership,
		membership.ID, membership.MemberID, membership.PlanID,
		membership.Status, membership.StartsAt, membership.EndsAt,
	)
	membership, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Membership, error) {
		var m models.Membership
		err := row.Scan(&m.ID, &m.MemberID, &m.PlanID, &m.Status, &m.StartsAt, &m.EndsAt)
		return m, err
	})
	if err != nil {
		return membership, fmt.Errorf("db error: %w", err)
	}
	return membership, nil
}

const hasActiveMembership = `-- name: HasActiveMembership
SELECT EXISTS (
	SELECT 1 FROM memberships
	WHERE member_id = $1 AND status = $2
)
`

func (r *MembershipRepo) HasActiveMembership(ctx context.Context, memberID uuid.UUID) (bool, error) {
	var active bool
	err := r.DB.QueryRow(ctx, hasActiveMembership, memberID, models.MembershipActive).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return active, nil
}
