package middleware

import (
	"context"
	"net/http"

	"github.com/avdeev/gymgate/internal/handlers/ownerctx"
	"github.com/avdeev/gymgate/internal/handlers/render"
	"github.com/avdeev/gymgate/internal/models"
)

type authService interface {
	OwnerFromRequest(ctx context.Context, r *http.Request) (models.Owner, error)
}

// OwnerAuth guards admin routes: the request must carry a valid owner session
func OwnerAuth(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := as.OwnerFromRequest(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := ownerctx.New(r.Context(), owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
