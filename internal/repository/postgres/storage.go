package postgres

import (
	"context"
	"fmt"

	"github.com/avdeev/gymgate/internal/repository"
)

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) Gym() repository.GymRepo {
	return &GymRepo{DB: s.db}
}

func (s *Storage) Owner() repository.OwnerRepo {
	return &OwnerRepo{DB: s.db}
}

func (s *Storage) Member() repository.MemberRepo {
	return &MemberRepo{DB: s.db}
}

func (s *Storage) Membership() repository.MembershipRepo {
	return &MembershipRepo{DB: s.db}
}

func (s *Storage) Grant() repository.GrantRepo {
	return &GrantRepo{DB: s.db}
}

func (s *Storage) Attendance() repository.AttendanceRepo {
	return &AttendanceRepo{DB: s.db}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(NewStorage(tx))

	return err
}
