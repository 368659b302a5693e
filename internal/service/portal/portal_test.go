package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeev/gymgate/internal/apperrors"
	"github.com/avdeev/gymgate/internal/models"
	"github.com/avdeev/gymgate/internal/service/auth"
)

// memberRepoStub keeps a single member in memory, enough for session tests
type memberRepoStub struct {
	member models.Member
}

func (s *memberRepoStub) CreateMember(ctx context.Context, gymID uuid.UUID, name string, email string, pinHash string) (models.Member, error) {
	return s.member, nil
}

func (s *memberRepoStub) GetMemberByID(ctx context.Context, memberID uuid.UUID) (models.Member, error) {
	if memberID != s.member.ID {
		return models.Member{}, apperrors.ErrMemberNotFound
	}
	return s.member, nil
}

func (s *memberRepoStub) GetMemberByEmail(ctx context.Context, gymID uuid.UUID, email string) (models.Member, error) {
	if gymID != s.member.GymID || email != s.member.Email {
		return models.Member{}, apperrors.ErrMemberNotFound
	}
	return s.member, nil
}

func newStub(t *testing.T, pin string) *memberRepoStub {
	t.Helper()

	pinHash, err := auth.DefaultHasher.Hash(pin)
	require.NoError(t, err)

	return &memberRepoStub{
		member: models.Member{
			ID:      uuid.New(),
			GymID:   uuid.New(),
			Name:    "Lena",
			Email:   "lena@example.com",
			PinHash: pinHash,
		},
	}
}

func TestPortalService(t *testing.T) {
	t.Parallel()

	t.Run("token round trip", func(t *testing.T) {
		stub := newStub(t, "4242")
		s, err := NewService(Config{SecretKey: "test-secret"}, stub)
		require.NoError(t, err)

		token, err := s.IssueToken(stub.member)
		require.NoError(t, err)

		identity, err := s.Verify(token)

		require.NoError(t, err)
		assert.Equal(t, stub.member.ID, identity.MemberID)
		assert.Equal(t, stub.member.GymID, identity.GymID)
	})

	t.Run("login with valid pin", func(t *testing.T) {
		stub := newStub(t, "4242")
		s, err := NewService(Config{SecretKey: "test-secret"}, stub)
		require.NoError(t, err)

		token, err := s.Login(t.Context(), stub.member.GymID, stub.member.Email, "4242")

		require.NoError(t, err)
		require.NotEmpty(t, token)
	})

	t.Run("login with wrong pin", func(t *testing.T) {
		stub := newStub(t, "4242")
		s, err := NewService(Config{SecretKey: "test-secret"}, stub)
		require.NoError(t, err)

		_, err = s.Login(t.Context(), stub.member.GymID, stub.member.Email, "0000")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("login with unknown email", func(t *testing.T) {
		stub := newStub(t, "4242")
		s, err := NewService(Config{SecretKey: "test-secret"}, stub)
		require.NoError(t, err)

		_, err = s.Login(t.Context(), stub.member.GymID, "nobody@example.com", "4242")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("garbage token fails closed", func(t *testing.T) {
		stub := newStub(t, "4242")
		s, err := NewService(Config{SecretKey: "test-secret"}, stub)
		require.NoError(t, err)

		for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
			_, err := s.Verify(token)
			assert.ErrorIs(t, err, apperrors.ErrPortalTokenInvalid, "token %q must be rejected", token)
		}
	})

	t.Run("token signed with other key fails", func(t *testing.T) {
		stub := newStub(t, "4242")
		s, err := NewService(Config{SecretKey: "test-secret"}, stub)
		require.NoError(t, err)
		other, err := NewService(Config{SecretKey: "other-secret"}, stub)
		require.NoError(t, err)

		token, err := other.IssueToken(stub.member)
		require.NoError(t, err)

		_, err = s.Verify(token)

		assert.ErrorIs(t, err, apperrors.ErrPortalTokenInvalid)
	})

	t.Run("expired token fails", func(t *testing.T) {
		stub := newStub(t, "4242")
		s, err := NewService(Config{SecretKey: "test-secret", SessionTTL: -time.Minute}, stub)
		require.NoError(t, err)

		token, err := s.IssueToken(stub.member)
		require.NoError(t, err)

		_, err = s.Verify(token)

		assert.ErrorIs(t, err, apperrors.ErrPortalTokenInvalid)
	})

	t.Run("cookie attributes", func(t *testing.T) {
		stub := newStub(t, "4242")
		s, err := NewService(Config{SecretKey: "test-secret", SecureCookie: true}, stub)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		s.SetCookie(rec, "token-value")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		cookie := cookies[0]
		assert.Equal(t, CookieName, cookie.Name)
		assert.Equal(t, "token-value", cookie.Value)
		assert.Equal(t, "/", cookie.Path)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		assert.Equal(t, int(7*24*time.Hour/time.Second), cookie.MaxAge, "portal session lives seven days")
	})

	t.Run("identity from request", func(t *testing.T) {
		stub := newStub(t, "4242")
		s, err := NewService(Config{SecretKey: "test-secret"}, stub)
		require.NoError(t, err)

		token, err := s.IssueToken(stub.member)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodPost, "/api/access/open", nil)
		r.AddCookie(&http.Cookie{Name: CookieName, Value: token})

		identity, err := s.IdentityFromRequest(r)

		require.NoError(t, err)
		assert.Equal(t, stub.member.ID, identity.MemberID)

		// No cookie at all
		bare := httptest.NewRequest(http.MethodPost, "/api/access/open", nil)
		_, err = s.IdentityFromRequest(bare)
		assert.ErrorIs(t, err, apperrors.ErrPortalTokenInvalid)
	})
}
