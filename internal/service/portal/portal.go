// Package portal issues and verifies member portal sessions.
//
// A portal session is an HS256 JWT carrying the member and gym ids,
// delivered as an HttpOnly cookie. Verification is idempotent, has no
// side effects and fails closed: anything doubtful is an invalid token.
package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avdeev/gymgate/internal/apperrors"
	"github.com/avdeev/gymgate/internal/models"
	"github.com/avdeev/gymgate/internal/repository"
	"github.com/avdeev/gymgate/internal/service/auth"
)

const (
	CookieName = "portal_token"

	defaultSessionTTL = 7 * 24 * time.Hour
	signingMethod     = "HS256"
)

// Identity is the resolved portal session: which member of which gym.
type Identity struct {
	MemberID uuid.UUID
	GymID    uuid.UUID
}

type memberClaims struct {
	jwt.RegisteredClaims
	MemberID uuid.UUID `json:"mid"`
	GymID    uuid.UUID `json:"gid"`
}

type Config struct {
	// Secret key to sign portal tokens
	// Required to be set
	SecretKey string

	// Session lifetime, default (7 days) is used if not set
	SessionTTL time.Duration

	// Set 'Secure' on the session cookie (should be true in prod)
	SecureCookie bool
}

type Service struct {
	key        string
	alg        jwt.SigningMethod
	sessionTTL time.Duration
	secure     bool
	hasher     auth.PasswordHasher
	memberRepo repository.MemberRepo
}

func NewService(cfg Config, memberRepo repository.MemberRepo) (*Service, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}
	if memberRepo == nil {
		return nil, errors.New("member repo must not be nil")
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	return &Service{
		key:        cfg.SecretKey,
		alg:        jwt.GetSigningMethod(signingMethod),
		sessionTTL: cfg.SessionTTL,
		secure:     cfg.SecureCookie,
		hasher:     auth.DefaultHasher,
		memberRepo: memberRepo,
	}, nil
}

// Login member with email and PIN, return signed portal token
// Has to return apperrors.ErrUnauthorized on any credential mismatch
func (s *Service) Login(ctx context.Context, gymID uuid.UUID, email string, pin string) (string, error) {
	member, err := s.memberRepo.GetMemberByEmail(ctx, gymID, email)
	if err != nil {
		return "", apperrors.ErrUnauthorized
	}

	if err := s.hasher.Compare(member.PinHash, pin); err != nil {
		return "", apperrors.ErrUnauthorized
	}

	return s.IssueToken(member)
}

// IssueToken signs a portal session for the member
func (s *Service) IssueToken(member models.Member) (string, error) {
	now := time.Now().Truncate(time.Second)

	token := jwt.NewWithClaims(
		s.alg,
		memberClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
			},
			MemberID: member.ID,
			GymID:    member.GymID,
		},
	)

	signed, err := token.SignedString([]byte(s.key))
	if err != nil {
		return "", fmt.Errorf("error while signing portal token. Err: %w", err)
	}
	return signed, nil
}

// Verify parses the token and returns the identity it carries.
// Has to return apperrors.ErrPortalTokenInvalid on any doubt.
func (s *Service) Verify(token string) (Identity, error) {
	claims := &memberClaims{}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(s.key), nil },
		jwt.WithValidMethods([]string{s.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, apperrors.ErrPortalTokenInvalid
	}
	if claims.MemberID == uuid.Nil || claims.GymID == uuid.Nil {
		return Identity{}, apperrors.ErrPortalTokenInvalid
	}

	return Identity{MemberID: claims.MemberID, GymID: claims.GymID}, nil
}

// IdentityFromRequest reads the portal cookie and verifies it
func (s *Service) IdentityFromRequest(r *http.Request) (Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Identity{}, apperrors.ErrPortalTokenInvalid
	}
	return s.Verify(cookie.Value)
}

// SetCookie writes the portal session cookie to the response
func (s *Service) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
