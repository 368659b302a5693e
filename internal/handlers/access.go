package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/avdeev/gymgate/internal/apperrors"
	"github.com/avdeev/gymgate/internal/handlers/render"
	"github.com/avdeev/gymgate/internal/logger"
	"github.com/avdeev/gymgate/internal/models"
)

// OpenResponse is the member-facing answer of POST /api/access/open.
// ExpiresIn lets the portal show a countdown next to the open button.
type OpenResponse struct {
	Success   bool   `json:"success"`
	GrantID   string `json:"grantId,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
	Cooldown  bool   `json:"cooldown,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Member-issued open: portal cookie -> membership gate -> cooldown gate -> grant.
// Each gate short-circuits with its own status, in that order.
func handleMemberOpen(accessService accessService, portalService portalService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := portalService.IdentityFromRequest(r)
		if err != nil {
			render.JSONWithStatus(w, OpenResponse{Success: false, Error: "Unauthorized"}, http.StatusUnauthorized)
			return
		}

		grant, err := accessService.RequestOpen(r.Context(), identity.MemberID, identity.GymID)
		if err != nil {
			var cooldown *apperrors.CooldownError
			switch {
			case errors.Is(err, apperrors.ErrNoActiveMembership):
				render.JSONWithStatus(w, OpenResponse{
					Success: false,
					Error:   "No active membership. Please contact your gym administrator.",
				}, http.StatusForbidden)
			case errors.As(err, &cooldown):
				mins := cooldown.RemainingMinutes()
				render.JSONWithStatus(w, OpenResponse{
					Success:  false,
					Cooldown: true,
					Error:    fmt.Sprintf("Please wait %d min before opening the turnstile again", mins),
				}, http.StatusTooManyRequests)
			default:
				logger.Error("member open failed", "error", err.Error())
				render.JSONWithStatus(w, OpenResponse{Success: false, Error: err.Error()}, http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, OpenResponse{
			Success:   true,
			GrantID:   grant.ID.String(),
			ExpiresIn: int(models.GrantTTL.Seconds()),
		})
	})
}

// PollResponse is the controller-facing answer of GET /api/access/poll.
// The controller only acts on Open; Member and GrantID feed its display and logs.
type PollResponse struct {
	Open    bool   `json:"open"`
	Member  string `json:"member,omitempty"`
	GrantID string `json:"grantId,omitempty"`
}

type pollErrorResponse struct {
	Error string `json:"error"`
}

// Controller poll. Called every 1-2 seconds per device, so the common
// "nothing pending" answer must stay cheap and side-effect free.
func handlePoll(accessService accessService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		if key == "" {
			render.JSONWithStatus(w, pollErrorResponse{Error: "missing key"}, http.StatusBadRequest)
			return
		}

		result, err := accessService.Poll(r.Context(), key)
		if err != nil {
			if errors.Is(err, apperrors.ErrTurnstileKeyUnknown) {
				render.JSONWithStatus(w, pollErrorResponse{Error: "unknown key"}, http.StatusUnauthorized)
				return
			}
			logger.Error("poll failed", "error", err.Error())
			render.JSONWithStatus(w, pollErrorResponse{Error: err.Error()}, http.StatusInternalServerError)
			return
		}

		if !result.Open {
			render.JSON(w, PollResponse{Open: false})
			return
		}

		render.JSON(w, PollResponse{
			Open:    true,
			Member:  result.MemberName,
			GrantID: result.Grant.ID.String(),
		})
	})
}
