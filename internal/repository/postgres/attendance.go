package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/avdeev/gymgate/internal/models"
)

type AttendanceRepo struct {
	DB DBTX
}

const recordAttendance = `-- name: RecordAttendance
INSERT INTO attendance (id, gym_id, member_id, grant_id, checked_in_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, gym_id, member_id, grant_id, checked_in_at
`

func (r *AttendanceRepo) RecordAttendance(ctx context.Context, attendance models.Attendance) (models.Attendance, error) {
	if attendance.ID == uuid.Nil {
		attendance.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, recordAttendance,
		attendance.ID, attendance.GymID, attendance.MemberID,
		attendance.GrantID, attendance.CheckedInAt,
	)
	attendance, err := pgx.CollectOneRow(rows, rowToAttendance)
	if err != nil {
		return attendance, fmt.Errorf("db error: %w", err)
	}
	return attendance, nil
}

const listAttendance = `-- name: ListAttendance
SELECT id, gym_id, member_id, grant_id, checked_in_at
FROM attendance
WHERE gym_id = $1
ORDER BY checked_in_at DESC
LIMIT $2
`

func (r *AttendanceRepo) ListAttendance(ctx context.Context, gymID uuid.UUID, limit int) ([]models.Attendance, error) {
	rows, _ := r.DB.Query(ctx, listAttendance, gymID, limit)
	list, err := pgx.CollectRows(rows, rowToAttendance)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func rowToAttendance(row pgx.CollectableRow) (models.Attendance, error) {
	var a models.Attendance
	err := row.Scan(&a.ID, &a.GymID, &a.MemberID, &a.GrantID, &a.CheckedInAt)
	return a, err
}
