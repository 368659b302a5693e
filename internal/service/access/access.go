// Package access implements the turnstile grant protocol: short-lived
// single-use grants issued by members and admins, consumed by the
// controller poll.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/maypok86/otter"

	"github.com/avdeev/gymgate/internal/apperrors"
	"github.com/avdeev/gymgate/internal/models"
	"github.com/avdeev/gymgate/internal/repository"
)

const (
	// Turnstile key lookups run on every controller poll (1-2s cadence),
	// keep them out of postgres. Grants themselves are never cached.
	keyCacheSize = 1024
	keyCacheTTL  = 30 * time.Second
)

// PollResult is the controller-facing answer: open or not, and who entered.
type PollResult struct {
	Open       bool
	Grant      models.AccessGrant
	MemberName string // empty for admin grants
}

// Observer receives protocol events for metrics.
type Observer interface {
	ObserveGrantIssued(isAdmin bool)
	ObservePoll(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveGrantIssued(bool) {}
func (nopObserver) ObservePoll(string)      {}

type Service struct {
	storage repository.Storage
	obs     Observer

	// turnstile key -> gym id, uuid.Nil marks a cached miss
	keyCache otter.Cache[string, uuid.UUID]
}

func NewService(storage repository.Storage, obs Observer) (*Service, error) {
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}
	if obs == nil {
		obs = nopObserver{}
	}

	cache, err := otter.MustBuilder[string, uuid.UUID](keyCacheSize).
		WithTTL(keyCacheTTL).
		Build()
	if err != nil {
		return nil, fmt.Errorf("error while building key cache. Err: %w", err)
	}

	return &Service{
		storage:  storage,
		obs:      obs,
		keyCache: cache,
	}, nil
}

// RequestOpen creates a grant on behalf of a member.
// Gates, in order: active membership, then the per-member cooldown window.
// On an active cooldown returns *apperrors.CooldownError with the remaining wait.
//
// The cooldown check is a read followed by a write without isolation: a
// member double-clicking "open" may slip two grants through. Accepted,
// the cost is one wasted unlock slot, not a security hole.
func (s *Service) RequestOpen(ctx context.Context, memberID uuid.UUID, gymID uuid.UUID) (models.AccessGrant, error) {
	var grant models.AccessGrant

	active, err := s.storage.Membership().HasActiveMembership(ctx, memberID)
	if err != nil {
		return grant, fmt.Errorf("error while checking membership. Err: %w", err)
	}
	if !active {
		return grant, apperrors.ErrNoActiveMembership
	}

	now := time.Now()
	recent, err := s.storage.Grant().FindRecentForMember(ctx, memberID, now.Add(-models.GrantCooldown))
	switch {
	case err == nil:
		return grant, &apperrors.CooldownError{
			Remaining: recent.CreatedAt.Add(models.GrantCooldown).Sub(now),
		}
	case errors.Is(err, apperrors.ErrGrantNotFound):
		// no grant within the window, go ahead
	default:
		return grant, fmt.Errorf("error while checking cooldown. Err: %w", err)
	}

	grant, err = s.storage.Grant().CreateGrant(ctx, models.AccessGrant{
		GymID:     gymID,
		MemberID:  &memberID,
		IsAdmin:   false,
		CreatedAt: now,
		ExpiresAt: now.Add(models.GrantTTL),
	})
	if err != nil {
		return grant, fmt.Errorf("error while creating grant. Err: %w", err)
	}

	s.obs.ObserveGrantIssued(false)
	return grant, nil
}

// AdminOpen creates a grant on behalf of the gym owner.
// No membership or cooldown gate applies, this is the administrative override.
// The gym must exist and have a turnstile key configured, otherwise the
// grant would sit unconsumable until it expires.
func (s *Service) AdminOpen(ctx context.Context, gymID uuid.UUID) (models.AccessGrant, error) {
	var grant models.AccessGrant

	gym, err := s.storage.Gym().GetGymByID(ctx, gymID)
	if err != nil {
		return grant, err
	}
	if gym.TurnstileKey == nil || *gym.TurnstileKey == "" {
		return grant, apperrors.ErrTurnstileNotConfigured
	}

	now := time.Now()
	grant, err = s.storage.Grant().CreateGrant(ctx, models.AccessGrant{
		GymID:     gym.ID,
		MemberID:  nil,
		IsAdmin:   true,
		CreatedAt: now,
		ExpiresAt: now.Add(models.GrantTTL),
	})
	if err != nil {
		return grant, fmt.Errorf("error while creating grant. Err: %w", err)
	}

	s.obs.ObserveGrantIssued(true)
	return grant, nil
}

// Poll is the controller-facing step: find the oldest pending grant for
// the gym behind the key, consume it exactly once and record attendance.
//
// "Nothing pending" is the steady state, not an error: the result is
// simply not open. Losing the consume race to a concurrent poller is
// reported the same way, the grant is someone else's now.
func (s *Service) Poll(ctx context.Context, key string) (PollResult, error) {
	gymID, err := s.resolveKey(ctx, key)
	if err != nil {
		s.obs.ObservePoll("denied")
		return PollResult{}, err
	}

	now := time.Now()
	pending, err := s.storage.Grant().FindOldestPending(ctx, gymID, now)
	switch {
	case errors.Is(err, apperrors.ErrNoGrantPending):
		s.obs.ObservePoll("idle")
		return PollResult{Open: false}, nil
	case err != nil:
		return PollResult{}, fmt.Errorf("error while looking up pending grant. Err: %w", err)
	}

	grant, err := s.storage.Grant().Consume(ctx, pending.ID, now)
	switch {
	case errors.Is(err, apperrors.ErrGrantAlreadyUsed), errors.Is(err, apperrors.ErrGrantNotFound):
		// lost the race to another poller
		s.obs.ObservePoll("idle")
		return PollResult{Open: false}, nil
	case err != nil:
		return PollResult{}, fmt.Errorf("error while consuming grant. Err: %w", err)
	}

	s.obs.ObservePoll("open")
	result := PollResult{Open: true, Grant: grant}

	// Admin grants carry no member and leave no attendance trail
	if grant.MemberID != nil {
		member, err := s.storage.Member().GetMemberByID(ctx, *grant.MemberID)
		if err != nil {
			return result, fmt.Errorf("error while loading member for grant. Err: %w", err)
		}
		result.MemberName = member.Name

		_, err = s.storage.Attendance().RecordAttendance(ctx, models.Attendance{
			GymID:       grant.GymID,
			MemberID:    *grant.MemberID,
			GrantID:     grant.ID,
			CheckedInAt: now,
		})
		if err != nil {
			return result, fmt.Errorf("error while recording attendance. Err: %w", err)
		}
	}

	return result, nil
}

// resolveKey maps the static controller key to a gym through the TTL cache.
// Misses are cached too (as uuid.Nil) so an unknown key cannot turn the
// poll cadence into a postgres scan cadence.
func (s *Service) resolveKey(ctx context.Context, key string) (uuid.UUID, error) {
	if id, found := s.keyCache.Get(key); found {
		if id == uuid.Nil {
			return uuid.Nil, apperrors.ErrTurnstileKeyUnknown
		}
		return id, nil
	}

	gym, err := s.storage.Gym().GetGymByTurnstileKey(ctx, key)
	switch {
	case err == nil:
		s.keyCache.Set(key, gym.ID)
		return gym.ID, nil
	case errors.Is(err, apperrors.ErrTurnstileKeyUnknown):
		s.keyCache.Set(key, uuid.Nil)
		return uuid.Nil, apperrors.ErrTurnstileKeyUnknown
	default:
		return uuid.Nil, fmt.Errorf("error while resolving turnstile key. Err: %w", err)
	}
}
