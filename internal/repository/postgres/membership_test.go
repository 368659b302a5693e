package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeev/gymgate/internal/apperrors"
	"github.com/avdeev/gymgate/internal/models"
	"github.com/avdeev/gymgate/internal/testutil"
)

func Test_MembershipRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	setup := func(t *testing.T, tx pgx.Tx) (models.Member, models.Plan) {
		gymRepo := GymRepo{DB: tx}
		memberRepo := MemberRepo{DB: tx}
		membershipRepo := MembershipRepo{DB: tx}

		gym, err := gymRepo.CreateGym(t.Context(), "Iron Temple", nil)
		require.NoError(t, err)
		member, err := memberRepo.CreateMember(t.Context(), gym.ID, "Lena", "lena@example.com", "pin-hash")
		require.NoError(t, err)
		plan, err := membershipRepo.CreatePlan(t.Context(), models.Plan{
			GymID:        gym.ID,
			Name:         "Monthly",
			Price:        decimal.NewFromInt(49),
			DurationDays: 30,
		})
		require.NoError(t, err)

		return member, plan
	}

	membership := func(member models.Member, plan models.Plan, status string) models.Membership {
		now := time.Now()
		return models.Membership{
			MemberID: member.ID,
			PlanID:   plan.ID,
			Status:   status,
			StartsAt: now,
			EndsAt:   now.AddDate(0, 0, plan.DurationDays),
		}
	}

	t.Run("active membership found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MembershipRepo{DB: tx}
			member, plan := setup(t, tx)

			_, err := repo.CreateMembership(t.Context(), membership(member, plan, models.MembershipActive))
			require.NoError(t, err)

			active, err := repo.HasActiveMembership(t.Context(), member.ID)

			require.NoError(t, err)
			assert.True(t, active)
		})
	})

	t.Run("paused membership does not count", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MembershipRepo{DB: tx}
			member, plan := setup(t, tx)

			_, err := repo.CreateMembership(t.Context(), membership(member, plan, models.MembershipPaused))
			require.NoError(t, err)

			active, err := repo.HasActiveMembership(t.Context(), member.ID)

			require.NoError(t, err)
			assert.False(t, active)
		})
	})

	t.Run("no membership at all", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MembershipRepo{DB: tx}
			member, _ := setup(t, tx)

			active, err := repo.HasActiveMembership(t.Context(), member.ID)

			require.NoError(t, err)
			assert.False(t, active)
		})
	})

	t.Run("plan keeps price exact", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MembershipRepo{DB: tx}
			gymRepo := GymRepo{DB: tx}
			gym, err := gymRepo.CreateGym(t.Context(), "Pricey Gym", nil)
			require.NoError(t, err)

			plan, err := repo.CreatePlan(t.Context(), models.Plan{
				GymID:        gym.ID,
				Name:         "Annual",
				Price:        decimal.RequireFromString("399.90"),
				DurationDays: 365,
			})

			require.NoError(t, err)
			assert.True(t, plan.Price.Equal(decimal.RequireFromString("399.90")), "price must round trip exactly")
		})
	})
}

func Test_MemberRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("duplicate email in one gym", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			gymRepo := GymRepo{DB: tx}
			repo := MemberRepo{DB: tx}

			gym, err := gymRepo.CreateGym(t.Context(), "Iron Temple", nil)
			require.NoError(t, err)

			_, err = repo.CreateMember(t.Context(), gym.ID, "Lena", "lena@example.com", "hash")
			require.NoError(t, err)

			_, err = repo.CreateMember(t.Context(), gym.ID, "Other Lena", "lena@example.com", "hash")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrMemberAlreadyExists)
		})
	})

	t.Run("same email in different gyms is fine", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			gymRepo := GymRepo{DB: tx}
			repo := MemberRepo{DB: tx}

			gym, err := gymRepo.CreateGym(t.Context(), "Iron Temple", nil)
			require.NoError(t, err)
			yaGym, err := gymRepo.CreateGym(t.Context(), "Another Gym", nil)
			require.NoError(t, err)

			_, err = repo.CreateMember(t.Context(), gym.ID, "Lena", "lena@example.com", "hash")
			require.NoError(t, err)
			_, err = repo.CreateMember(t.Context(), yaGym.ID, "Lena", "lena@example.com", "hash")
			require.NoError(t, err)
		})
	})

	t.Run("get by email within gym", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			gymRepo := GymRepo{DB: tx}
			repo := MemberRepo{DB: tx}

			gym, err := gymRepo.CreateGym(t.Context(), "Iron Temple", nil)
			require.NoError(t, err)
			member, err := repo.CreateMember(t.Context(), gym.ID, "Lena", "lena@example.com", "hash")
			require.NoError(t, err)

			got, err := repo.GetMemberByEmail(t.Context(), gym.ID, "lena@example.com")
			require.NoError(t, err)
			assert.Equal(t, member.ID, got.ID)

			_, err = repo.GetMemberByEmail(t.Context(), gym.ID, "nobody@example.com")
			assert.ErrorIs(t, err, apperrors.ErrMemberNotFound)
		})
	})
}
