package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"natours/internal/caching"
	"natours/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const PasswordResetTTL = 10 * time.Minute

// AuthService issues and verifies access tokens and password reset tokens
type AuthService interface {
	SignToken(userID string) (*models.IssuedToken, error)
	ParseToken(token string) (*TokenClaims, error)
	RevokeToken(ctx context.Context, claims *TokenClaims) error
	IsRevoked(ctx context.Context, claims *TokenClaims) (bool, error)

	CreatePasswordResetToken() (*models.PasswordReset, error)
	HashResetToken(token string) string
}

// TokenClaims carries the user id next to the registered iat/exp/jti claims
type TokenClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

type authService struct {
	cacheSvc  caching.CacheService
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewAuthService creates the token service. cacheSvc may be nil, in which case
// logout cannot revoke tokens before they expire.
func NewAuthService(cacheSvc caching.CacheService, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		cacheSvc:  cacheSvc,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// SignToken signs an HS256 token for the user
func (s *authService) SignToken(userID string) (*models.IssuedToken, error) {
	now := s.now()
	expires := now.Add(s.tokenTTL)

	claims := TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	return &models.IssuedToken{Token: signed, IssuedAt: now, ExpiresAt: expires}, nil
}

// ParseToken verifies signature and expiry. jwt errors are returned unwrapped
// so callers can match jwt.ErrTokenExpired and friends.
func (s *authService) ParseToken(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.UserID == "" || claims.IssuedAt == nil {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// RevokeToken blacklists a token until it would have expired anyway
func (s *authService) RevokeToken(ctx context.Context, claims *TokenClaims) error {
	if s.cacheSvc == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.cacheSvc.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Sub(s.now()))
}

func (s *authService) IsRevoked(ctx context.Context, claims *TokenClaims) (bool, error) {
	if s.cacheSvc == nil || claims == nil || claims.ID == "" {
		return false, nil
	}
	return s.cacheSvc.IsTokenRevoked(ctx, claims.ID)
}

// CreatePasswordResetToken returns a random token and the hash to persist
func (s *authService) CreatePasswordResetToken() (*models.PasswordReset, error) {
	plain, err := s.generateSecureToken()
	if err != nil {
		return nil, err
	}
	return &models.PasswordReset{
		Plain:     plain,
		Hash:      s.HashResetToken(plain),
		ExpiresAt: s.now().Add(PasswordResetTTL),
	}, nil
}

// HashResetToken creates a SHA-256 hash of the token for secure storage
func (s *authService) HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// generateSecureToken generates a cryptographically secure random token
func (s *authService) generateSecureToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
