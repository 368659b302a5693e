package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/justinas/alice"
	"github.com/rs/cors"

	"github.com/avdeev/gymgate/internal/handlers/middleware"
	"github.com/avdeev/gymgate/internal/logger"
	"github.com/avdeev/gymgate/internal/models"
	"github.com/avdeev/gymgate/internal/service/access"
	"github.com/avdeev/gymgate/internal/service/portal"
)

type accessService interface {
	// Member-issued grant; gates: active membership, then cooldown.
	// Cooldown is reported as *apperrors.CooldownError
	RequestOpen(ctx context.Context, memberID uuid.UUID, gymID uuid.UUID) (models.AccessGrant, error)

	// Owner-issued grant, bypasses membership and cooldown
	AdminOpen(ctx context.Context, gymID uuid.UUID) (models.AccessGrant, error)

	// Controller poll: consume the oldest pending grant for the gym behind the key
	Poll(ctx context.Context, key string) (access.PollResult, error)
}

type portalService interface {
	Login(ctx context.Context, gymID uuid.UUID, email string, pin string) (string, error)
	IdentityFromRequest(r *http.Request) (portal.Identity, error)
	SetCookie(w http.ResponseWriter, token string)
}

type adminAuthService interface {
	Login(ctx context.Context, email string, password string) (string, error)
	OwnerFromRequest(ctx context.Context, r *http.Request) (models.Owner, error)
	SetCookie(w http.ResponseWriter, token string)
}

type RouterConfig struct {
	// Origins the member portal SPA is served from
	PortalOrigins []string

	// Optional middleware recording request metrics (may be nil)
	Metrics func(http.Handler) http.Handler
}

func NewRouter(
	cfg RouterConfig,
	accessService accessService,
	portalService portalService,
	adminAuth adminAuthService,
	logger logger.Logger,
) http.Handler {
	withOwner := middleware.OwnerAuth(adminAuth)

	portalCORS := cors.New(cors.Options{
		AllowedOrigins:   cfg.PortalOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
	})

	mux := http.NewServeMux()

	// Member portal: session issuance and the open button
	mux.Handle("POST /api/portal/login", portalCORS.Handler(handlePortalLogin(portalService, logger)))
	mux.Handle("POST /api/access/open", portalCORS.Handler(handleMemberOpen(accessService, portalService, logger)))

	// Controller-facing poll, authenticated by the static per-gym key
	mux.Handle("GET /api/access/poll", handlePoll(accessService, logger))

	// Admin side
	mux.Handle("POST /api/admin/login", handleAdminLogin(adminAuth, logger))
	mux.Handle("POST /api/admin/access/open", withOwner(handleAdminOpen(accessService, logger)))

	chain := alice.New(middleware.LoggerMiddleware(logger))
	if cfg.Metrics != nil {
		chain = chain.Append(cfg.Metrics)
	}

	return chain.Then(mux)
}
