// Package auth authenticates gym owners and manages their admin sessions.
package auth

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
)

const (
	CookieName = "admin_token"

	defaultTokenTTL = 24 * time.Hour
	signingMethod   = "HS256"
)

type Config struct {
	// Secret key to sign owner tokens
	// Required to be set
	SecretKey string

	// Token lifetime, default is used if not set
	TokenTTL time.Duration

	// Set 'Secure' on the session cookie (should be true in prod)
	SecureCookie bool
}

type ownerClaims struct {
	jwt.RegisteredClaims
	OwnerID uuid.UUID `json:"oid"`
	GymID   uuid.UUID `json:"gid"`
}

type Service struct {
	key       string
	alg       jwt.SigningMethod
	tokenTTL  time.Duration
	secure    bool
	hasher    PasswordHasher
	ownerRepo repository.OwnerRepo
}

func NewService(cfg Config, ownerRepo repository.OwnerRepo) (*Service, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}
	if ownerRepo == nil {
		return nil, errors.New("owner repo must not be nil")
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	return &Service{
		key:       cfg.SecretKey,
		alg:       jwt.GetSigningMethod(signingMethod),
		tokenTTL:  cfg.TokenTTL,
		secure:    cfg.SecureCookie,
		hasher:    DefaultHasher,
		ownerRepo: ownerRepo,
	}, nil
}

// Login owner with email and password, return signed session token
// Has to return apperrors.ErrUnauthorized on any credential mismatch
func (s *Service) Login(ctx context.Context, email string, password string) (string, error) {
	owner, err := s.ownerRepo.GetOwnerByEmail(ctx, email)
	if err != nil {
		// Don't leak whether the email exists
		return "", apperrors.ErrUnauthorized
	}

	if err := s.hasher.Compare(owner.HashedPassword, password); err != nil {
		return "", apperrors.ErrUnauthorized
	}

	return s.issueToken(owner)
}

func (s *Service) issueToken(owner models.Owner) (string, error) {
	now := time.Now().Truncate(time.Second)

	token := jwt.NewWithClaims(
		s.alg,
		ownerClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			},
			OwnerID: owner.ID,
			GymID:   owner.GymID,
		},
	)

	signed, err := token.SignedString([]byte(s.key))
	if err != nil {
		return "", fmt.Errorf("error while signing owner token. Err: %w", err)
	}
	return signed, nil
}

// OwnerFromRequest resolves the admin cookie into the owner it was issued to.
// Fails closed: any parse, claims or lookup problem is apperrors.ErrUnauthorized.
func (s *Service) OwnerFromRequest(ctx context.Context, r *http.Request) (models.Owner, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return models.Owner{}, apperrors.ErrUnauthorized
	}

	claims := &ownerClaims{}
	_, err = jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(s.key), nil },
		jwt.WithValidMethods([]string{s.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.Owner{}, apperrors.ErrUnauthorized
	}

	owner, err := s.ownerRepo.GetOwnerByID(ctx, claims.OwnerID)
	if err != nil {
		return models.Owner{}, apperrors.ErrUnauthorized
	}

	return owner, nil
}

// SetCookie writes the admin session cookie to the response
func (s *Service) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokenTTL / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
