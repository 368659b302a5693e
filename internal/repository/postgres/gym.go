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

type GymRepo struct {
	DB DBTX
}

const createGym = `-- name: CreateGym
INSERT INTO gyms (id, created_at, name, turnstile_key)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, name, turnstile_key
`

func (r *GymRepo) CreateGym(ctx context.Context, name string, turnstileKey *string) (models.Gym, error) {
	rows, _ := r.DB.Query(ctx, createGym, uuid.New(), time.Now(), name, turnstileKey)
	gym, err := pgx.CollectOneRow(rows, rowToGym)
	if err != nil {
		return gym, fmt.Errorf("db error: %w", err)
	}
	return gym, nil
}

const getGymByID = `-- name: GetGymByID
SELECT id, created_at, name, turnstile_key FROM gyms
WHERE id = $1
`

func (r *GymRepo) GetGymByID(ctx context.Context, gymID uuid.UUID) (models.Gym, error) {
	rows, _ := r.DB.Query(ctx, getGymByID, gymID)
	gym, err := pgx.CollectOneRow(rows, rowToGym)

	switch {
	case err == nil:
		return gym, nil
	case errors.Is(err, pgx.ErrNoRows):
		return gym, fmt.Errorf("repo error: %w", apperrors.ErrGymNotFound)
	default:
		return gym, fmt.Errorf("db error: %w", err)
	}
}

const getGymByTurnstileKey = `-- name: GetGymByTurnstileKey
SELECT id, created_at, name, turnstile_key FROM gyms
WHERE turnstile_key = $1
`

func (r *GymRepo) GetGymByTurnstileKey(ctx context.Context, key string) (models.Gym, error) {
	rows, _ := r.DB.Query(ctx, getGymByTurnstileKey, key)
	gym, err := pgx.CollectOneRow(rows, rowToGym)

	switch {
	case err == nil:
		return gym, nil
	case errors.Is(err, pgx.ErrNoRows):
		return gym, fmt.Errorf("repo error: %w", apperrors.ErrTurnstileKeyUnknown)
	default:
		return gym, fmt.Errorf("db error: %w", err)
	}
}

const setTurnstileKey = `-- name: SetTurnstileKey
UPDATE gyms
SET turnstile_key = $2
WHERE id = $1
`

func (r *GymRepo) SetTurnstileKey(ctx context.Context, gymID uuid.UUID, key string) error {
	tag, err := r.DB.Exec(ctx, setTurnstileKey, gymID, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrGymNotFound)
	}
	return nil
}

func rowToGym(row pgx.CollectableRow) (models.Gym, error) {
	var g models.Gym
	err := row.Scan(&g.ID, &g.CreatedAt, &g.Name, &g.TurnstileKey)
	return g, err
}
