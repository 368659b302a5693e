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

type MemberRepo struct {
	DB DBTX
}

const createMember = `-- name: CreateMember
INSERT INTO members (id, gym_id, created_at, name, email, pin_hash)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, gym_id, created_at, name, email, pin_hash
`

func (r *MemberRepo) CreateMember(ctx context.Context, gymID uuid.UUID, name string, email string, pinHash string) (models.Member, error) {
	rows, _ := r.DB.Query(ctx, createMember, uuid.New(), gymID, time.Now(), name, email, pinHash)
	member, err := pgx.CollectOneRow(rows, rowToMember)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return member, fmt.Errorf("repo error: %w", apperrors.ErrMemberAlreadyExists)
		}
		return member, fmt.Errorf("db error: %w", err)
	}

	return member, nil
}

const getMemberByID = `-- name: GetMemberByID
SELECT id, gym_id, created_at, name, email, pin_hash FROM members
WHERE id = $1
`

func (r *MemberRepo) GetMemberByID(ctx context.Context, memberID uuid.UUID) (models.Member, error) {
	rows, _ := r.DB.Query(ctx, getMemberByID, memberID)
	return collectMember(rows)
}

const getMemberByEmail = `-- name: GetMemberByEmail
SELECT id, gym_id, created_at, name, email, pin_hash FROM members
WHERE gym_id = $1 AND email = $2
`

func (r *MemberRepo) GetMemberByEmail(ctx context.Context, gymID uuid.UUID, email string) (models.Member, error) {
	rows, _ := r.DB.Query(ctx, getMemberByEmail, gymID, email)
	return collectMember(rows)
}

func collectMember(rows pgx.Rows) (models.Member, error) {
	member, err := pgx.CollectOneRow(rows, rowToMember)

	switch {
	case err == nil:
		return member, nil
	case errors.Is(err, pgx.ErrNoRows):
		return member, fmt.Errorf("repo error: %w", apperrors.ErrMemberNotFound)
	default:
		return member, fmt.Errorf("db error: %w", err)
	}
}

func rowToMember(row pgx.CollectableRow) (models.Member, error) {
	var m models.Member
	err := row.Scan(&m.ID, &m.GymID, &m.CreatedAt, &m.Name, &m.Email, &m.PinHash)
	return m, err
}
