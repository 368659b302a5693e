package access

import (
	"encoding/json"
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
	PollURL       = "/api/access/poll"
	AdminLoginURL = "/api/admin/login"
	AdminOpenURL  = "/api/admin/access/open"
)

func Test_Poll(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		key := "poll-controller-key"
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

		pwdHash, err := auth.DefaultHasher.Hash("owner-pwd")
		require.NoError(t, err)
		_, err = s.Storage.Owner().CreateOwner(t.Context(), gym.ID, "owner@example.com", pwdHash)
		require.NoError(t, err)

		poll := func(t *testing.T, key string) (*http.Response, string) {
			url := srvURL + PollURL
			if key != "" {
				url += "?key=" + key
			}

			resp, err := http.Get(url)
			require.NoError(t, err, "failed to send poll request")
			defer resp.Body.Close() // nolint:errcheck

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "failed to read response body")

			return resp, string(body)
		}

		t.Run("missing key", func(t *testing.T) {
			resp, body := poll(t, "")

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "poll without key should return 400. Body: %s", body)
			require.JSONEq(t, `{"error": "missing key"}`, body)
		})

		t.Run("unknown key", func(t *testing.T) {
			resp, body := poll(t, "no-such-key")

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "unknown key should return 401. Body: %s", body)
			require.JSONEq(t, `{"error": "unknown key"}`, body)
		})

		t.Run("idle poll", func(t *testing.T) {
			resp, body := poll(t, key)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "idle poll should return 200. Body: %s", body)
			require.JSONEq(t, `{"open": false}`, body)
		})

		t.Run("member grant round trip", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				memberGrant, err := s.AccessService.RequestOpen(t.Context(), member.ID, gym.ID)
				require.NoError(t, err)

				resp, body := poll(t, key)
				require.Equalf(t, http.StatusOK, resp.StatusCode, "poll should return 200. Body: %s", body)

				var parsed struct {
					Open    bool   `json:"open"`
					Member  string `json:"member"`
					GrantID string `json:"grantId"`
				}
				require.NoError(t, json.Unmarshal([]byte(body), &parsed))
				require.True(t, parsed.Open, "poll must open for a pending member grant")
				require.Equal(t, "Lena", parsed.Member)
				require.Equal(t, memberGrant.ID.String(), parsed.GrantID)

				// The grant is consumed, next poll is idle again
				resp, body = poll(t, key)
				require.Equal(t, http.StatusOK, resp.StatusCode)
				require.JSONEq(t, `{"open": false}`, body)
			})
		})

		t.Run("admin open round trip", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				// Login as the gym owner
				loginBody := `{"email": "owner@example.com", "password": "owner-pwd"}`
				resp, err := http.Post(srvURL+AdminLoginURL, "application/json", strings.NewReader(loginBody))
				require.NoError(t, err, "failed to send login request")
				resp.Body.Close() // nolint:errcheck
				require.Equal(t, http.StatusOK, resp.StatusCode, "owner login should succeed")

				var adminCookie *http.Cookie
				for _, c := range resp.Cookies() {
					if c.Name == "admin_token" {
						adminCookie = c
					}
				}
				require.NotNil(t, adminCookie, "admin_token cookie must be set on login")

				// Open the turnstile as admin
				req, err := http.NewRequest(http.MethodPost, srvURL+AdminOpenURL, nil)
				require.NoError(t, err)
				req.AddCookie(adminCookie)

				resp, err = http.DefaultClient.Do(req)
				require.NoError(t, err, "failed to send admin open request")
				body, err := io.ReadAll(resp.Body)
				resp.Body.Close() // nolint:errcheck
				require.NoError(t, err)
				require.Equalf(t, http.StatusOK, resp.StatusCode, "admin open should return 200. Body: %s", body)
				require.Contains(t, string(body), `"success":true`)

				// Admin grants open the gate but carry no member name
				resp, pollBody := poll(t, key)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var parsed struct {
					Open   bool   `json:"open"`
					Member string `json:"member"`
				}
				require.NoError(t, json.Unmarshal([]byte(pollBody), &parsed))
				require.True(t, parsed.Open, "poll must open for a pending admin grant")
				require.Empty(t, parsed.Member)
			})
		})

		t.Run("admin open without session", func(t *testing.T) {
			resp, err := http.Post(srvURL+AdminOpenURL, "application/json", nil)
			require.NoError(t, err, "failed to send request")
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close() // nolint:errcheck
			require.NoError(t, err)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "admin open without cookie should return 401. Body: %s", body)
		})
	})
}
