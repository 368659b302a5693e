package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/avdeev/gymgate/internal/handlers"
	"github.com/avdeev/gymgate/internal/logger"
	"github.com/avdeev/gymgate/internal/repository"
	"github.com/avdeev/gymgate/internal/repository/postgres"
	"github.com/avdeev/gymgate/internal/service/access"
	"github.com/avdeev/gymgate/internal/service/auth"
	"github.com/avdeev/gymgate/internal/service/portal"
	"github.com/avdeev/gymgate/internal/testutil"
)

type Services struct {
	Storage       repository.Storage
	AccessService *access.Service
	PortalService *portal.Service
	AuthService   *auth.Service
}

// Create db transaction and run server in with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		// Initialize services
		accessService, err := access.NewService(storage, nil)
		require.NoError(t, err, "access service should be created without errors")

		portalService, err := portal.NewService(portal.Config{SecretKey: "test-secret"}, storage.Member())
		require.NoError(t, err, "portal service should be created without errors")

		authService, err := auth.NewService(auth.Config{SecretKey: "test-secret"}, storage.Owner())
		require.NoError(t, err, "auth service should be created without errors")

		// Complete all together as router
		router := handlers.NewRouter(
			handlers.RouterConfig{},
			accessService,
			portalService,
			authService,
			logger.NewNoOpLogger(),
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Storage:       storage,
			AccessService: accessService,
			PortalService: portalService,
			AuthService:   authService,
		})
	})
}
