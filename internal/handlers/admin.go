package handlers

import (
	"errors"
	"net/http"

	"github.com/avdeev/gymgate/internal/apperrors"
	"github.com/avdeev/gymgate/internal/handlers/ownerctx"
	"github.com/avdeev/gymgate/internal/handlers/render"
	"github.com/avdeev/gymgate/internal/logger"
)

func handleAdminLogin(adminAuth adminAuthService, logger logger.Logger) http.Handler {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[LoginRequest](w, r)
		if err != nil {
			return
		}

		token, err := adminAuth.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUnauthorized):
				render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
			default:
				logger.Error("admin login failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		adminAuth.SetCookie(w, token)
		render.JSON(w, LoginSuccessResponse{Message: "Logged in successfully"})
	})
}

// Owner override: open the turnstile without membership or cooldown checks.
// Runs behind middleware.OwnerAuth, so the owner is already resolved.
func handleAdminOpen(accessService accessService, logger logger.Logger) http.Handler {
	type OpenSuccessResponse struct {
		Success bool   `json:"success"`
		GrantID string `json:"grantId"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		grant, err := accessService.AdminOpen(r.Context(), owner.GymID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrGymNotFound):
				render.ServiceError(w, "Gym not found", http.StatusNotFound)
			case errors.Is(err, apperrors.ErrTurnstileNotConfigured):
				render.ServiceError(w, "turnstile not configured", http.StatusConflict)
			default:
				logger.Error("admin open failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, OpenSuccessResponse{Success: true, GrantID: grant.ID.String()})
	})
}
