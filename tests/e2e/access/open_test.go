package access

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/avdeev/gymgate/internal/models"
	"github.com/avdeev/gymgate/internal/service/auth"
	"github.com/avdeev/gymgate/internal/testutil"
	"github.com/avdeev/gymgate/tests/e2e"
)

const (
	PortalLoginURL = "/api/portal/login"
	OpenURL        = "/api/access/open"
)

func Test_MemberOpen(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		key := "e2e-controller-key"
		gym, err := s.Storage.Gym().CreateGym(t.Context(), "Iron Temple", &key)
		require.NoError(t, err)

		pinHash, err := auth.DefaultHasher.Hash("4242")
		require.NoError(t, err)
		member, err := s.Storage.Member().CreateMember(t.Context(), gym.ID, "Lena", "lena@example.com", pinHash)
		require.NoError(t, err)

		plan, err := s.Storage.Membership().CreatePlan(t.Context(), models.Plan{
			GymID:        gym.ID,
			Name:         "Monthly",
			Price:        decimal.NewFromInt(49),
			DurationDays: 30,
		})
		require.NoError(t, err)
		_, err = s.Storage.Membership().CreateMembership(t.Context(), models.Membership{
			MemberID: member.ID,
			PlanID:   plan.ID,
			Status:   models.MembershipActive,
			StartsAt: time.Now(),
			EndsAt:   time.Now().AddDate(0, 0, plan.DurationDays),
		})
		require.NoError(t, err)

		// Member without an active membership, to hit the 403 path
		lapsedHash, err := auth.DefaultHasher.Hash("9999")
		require.NoError(t, err)
		_, err = s.Storage.Member().CreateMember(t.Context(), gym.ID, "Max", "max@example.com", lapsedHash)
		require.NoError(t, err)

		login := func(t *testing.T, email string, pin string) *http.Cookie {
			body := `{"gymId": "` + gym.ID.String() + `", "email": "` + email + `", "pin": "` + pin + `"}`
			resp, err := http.Post(srvURL+PortalLoginURL, "application/json", strings.NewReader(body))
			require.NoError(t, err, "failed to send login request")
			defer resp.Body.Close() // nolint:errcheck

			require.Equal(t, http.StatusOK, resp.StatusCode, "login should succeed")
			for _, c := range resp.Cookies() {
				if c.Name == "portal_token" {
					return c
				}
			}
			t.Fatal("portal_token cookie not set on login")
			return nil
		}

		open := func(t *testing.T, cookie *http.Cookie) (*http.Response, string) {
			req, err := http.NewRequest(http.MethodPost, srvURL+OpenURL, nil)
			require.NoError(t, err, "failed to create request")
			if cookie != nil {
				req.AddCookie(cookie)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err, "failed to send request")
			defer resp.Body.Close() // nolint:errcheck

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "failed to read response body")

			return resp, string(body)
		}

		t.Run("open ok", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				cookie := login(t, "lena@example.com", "4242")

				resp, body := open(t, cookie)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "open should return 200. Body: %s", body)
				require.Contains(t, body, `"success":true`)
				require.Contains(t, body, `"expiresIn":30`)
				require.Contains(t, body, `"grantId"`)
			})
		})

		t.Run("open without session", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp, body := open(t, nil)

				require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "open without cookie should return 401. Body: %s", body)
				require.JSONEq(t, `{"success": false, "error": "Unauthorized"}`, body)
			})
		})

		t.Run("open without active membership", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				cookie := login(t, "max@example.com", "9999")

				resp, body := open(t, cookie)

				require.Equalf(t, http.StatusForbidden, resp.StatusCode, "open should return 403. Body: %s", body)
				require.JSONEq(t, `{
					"success": false,
					"error": "No active membership. Please contact your gym administrator."
				}`, body)
			})
		})

		t.Run("second open hits cooldown", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				cookie := login(t, "lena@example.com", "4242")

				resp, body := open(t, cookie)
				require.Equalf(t, http.StatusOK, resp.StatusCode, "first open should succeed. Body: %s", body)

				resp, body = open(t, cookie)

				require.Equalf(t, http.StatusTooManyRequests, resp.StatusCode, "second open should return 429. Body: %s", body)
				require.Contains(t, body, `"cooldown":true`)
				require.Contains(t, body, "Please wait 5 min")
			})
		})

		t.Run("login with wrong pin", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				body := `{"gymId": "` + gym.ID.String() + `", "email": "lena@example.com", "pin": "0000"}`
				resp, err := http.Post(srvURL+PortalLoginURL, "application/json", strings.NewReader(body))
				require.NoError(t, err, "failed to send login request")
				defer resp.Body.Close() // nolint:errcheck

				require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "wrong pin should return 401")
			})
		})
	})
}
