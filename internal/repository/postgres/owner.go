package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avdeev/gymgate/internal/apperrors"
	"github.com/avdeev/gymgate/internal/models"
)

type OwnerRepo struct {
	DB DBTX
}

const createOwner = `-- name: CreateOwner
INSERT INTO owners (id, gym_id, created_at, email, password_hash)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, gym_id, created_at, email, password_hash
`

func (r *OwnerRepo) CreateOwner(ctx context.Context, gymID uuid.UUID, email string, hashedPassword string) (models.Owner, error) {
	rows, _ := r.DB.Query(ctx, createOwner, uuid.New(), gymID, time.Now(), email, hashedPassword)
	owner, err := pgx.CollectOneRow(rows, rowToOwner)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return owner, fmt.Errorf("repo error: %w", apperrors.ErrOwnerAlreadyExists)
		}
		return owner, fmt.Errorf("db error: %w", err)
	}

	return owner, nil
}

const getOwnerByID = `-- name: GetOwnerByID
SELECT id, gym_id, created_at, email, password_hash FROM owners
WHERE id = $1
`

func (r *OwnerRepo) GetOwnerByID(ctx context.Context, ownerID uuid.UUID) (models.Owner, error) {
	rows, _ := r.DB.Query(ctx, getOwnerByID, ownerID)
	return collectOwner(rows)
}

const getOwnerByEmail = `-- name: GetOwnerByEmail
SELECT id, gym_id, created_at, email, password_hash FROM owners
WHERE email = $1
`

func (r *OwnerRepo) GetOwnerByEmail(ctx context.Context, email string) (models.Owner, error) {
	rows, _ := r.DB.Query(ctx, getOwnerByEmail, email)
	return collectOwner(rows)
}

func collectOwner(rows pgx.Rows) (models.Owner, error) {
	owner, err := pgx.CollectOneRow(rows, rowToOwner)

	switch {
	case err == nil:
		return owner, nil
	case errors.Is(err, pgx.ErrNoRows):
		return owner, fmt.Errorf("repo error: %w", apperrors.ErrOwnerNotFound)
	default:
		return owner, fmt.Errorf("db error: %w", err)
	}
}

func rowToOwner(row pgx.CollectableRow) (models.Owner, error) {
	var o models.Owner
	err := row.Scan(&o.ID, &o.GymID, &o.CreatedAt, &o.Email, &o.HashedPassword)
	return o, err
}
