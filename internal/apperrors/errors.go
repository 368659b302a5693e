package apperrors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrGymNotFound    = errors.New("gym not found")
	ErrOwnerNotFound  = errors.New("owner not found")
	ErrMemberNotFound = errors.New("member not found")

	ErrMemberAlreadyExists = errors.New("member already exists")
	ErrOwnerAlreadyExists  = errors.New("owner already exists")

	ErrNoActiveMembership = errors.New("member has no active membership")

	ErrTurnstileKeyUnknown    = errors.New("turnstile key is unknown")
	ErrTurnstileNotConfigured = errors.New("turnstile not configured")

	ErrGrantNotFound    = errors.New("access grant not found")
	ErrGrantAlreadyUsed = errors.New("access grant already used")
	ErrNoGrantPending   = errors.New("no pending access grant")

	ErrPortalTokenInvalid = errors.New("portal token is invalid")
	ErrUnauthorized       = errors.New("Unauthorized")
)

// CooldownError is returned when a member asks to open the turnstile
// again before the cooldown window elapsed.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, %s remaining", e.Remaining)
}

// RemainingMinutes is the wait shown to the member, rounded up to whole minutes.
func (e *CooldownError) RemainingMinutes() int {
	mins := int(e.Remaining / time.Minute)
	if e.Remaining%time.Minute != 0 {
		mins++
	}
	return mins
}
