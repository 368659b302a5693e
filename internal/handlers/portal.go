package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/avdeev/gymgate/internal/apperrors"
	"github.com/avdeev/gymgate/internal/handlers/render"
	"github.com/avdeev/gymgate/internal/logger"
)

func handlePortalLogin(portalService portalService, logger logger.Logger) http.Handler {
	type LoginRequest struct {
		GymID uuid.UUID `json:"gymId" validate:"required"`
		Email string    `json:"email" validate:"required,email"`
		Pin   string    `json:"pin" validate:"required,min=4"`
	}
	type LoginSuccessResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[LoginRequest](w, r)
		if err != nil {
			return
		}

		token, err := portalService.Login(r.Context(), data.GymID, data.Email, data.Pin)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUnauthorized):
				render.ServiceError(w, "Invalid email or PIN", http.StatusUnauthorized)
			default:
				logger.Error("portal login failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		portalService.SetCookie(w, token)
		render.JSON(w, LoginSuccessResponse{Message: "Logged in successfully"})
	})
}
