package middleware

import (
	"context"
	"errors"
	"net/http"

	"natours/internal/common"
	"natours/internal/models"
	"natours/internal/repositories"
	"natours/internal/services"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	// ClaimsKey holds the verified *services.TokenClaims on the echo context
	ClaimsKey = "jwt_claims"

	// TokenCookie is the cookie the token is delivered in
	TokenCookie = "jwt"

	// LoggedOutCookie replaces the token cookie on logout
	LoggedOutCookie = "loggedout"

	tokenLookup = "header:Authorization:Bearer ,cookie:" + TokenCookie
)

var errNoToken = errors.New("no token presented")

// UserFinder loads the account a token was issued for
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type AuthMiddleware struct {
	authService services.AuthService
	users       UserFinder
}

func NewAuthMiddleware(authService services.AuthService, users UserFinder) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		users:       users,
	}
}

// tokenError marks failures of a presented token so they can be told apart
// from a missing token once echo-jwt hands them back
type tokenError struct {
	err error
}

func (e *tokenError) Error() string { return e.err.Error() }
func (e *tokenError) Unwrap() error { return e.err }

func (m *AuthMiddleware) parseToken(c echo.Context, auth string) (interface{}, error) {
	if auth == LoggedOutCookie {
		return nil, errNoToken
	}
	claims, err := m.authService.ParseToken(auth)
	if err != nil {
		return nil, &tokenError{err: err}
	}
	return claims, nil
}

// Protect requires a valid bearer token or jwt cookie, loads its user and
// rejects tokens issued before the last password change
func (m *AuthMiddleware) Protect() echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		TokenLookup:    tokenLookup,
		ContextKey:     ClaimsKey,
		ParseTokenFunc: m.parseToken,
		ErrorHandler: func(c echo.Context, err error) error {
			var te *tokenError
			if errors.As(err, &te) {
				return te.err
			}
			return common.NewAppError("You are not logged in! Please log in to get access", http.StatusUnauthorized)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return common.NewAppError("You are not logged in! Please log in to get access", http.StatusUnauthorized)
			}
			ctx := c.Request().Context()

			revoked, err := m.authService.IsRevoked(ctx, claims)
			if err != nil {
				c.Logger().Errorf("Failed to check token revocation: %v", err)
			}
			if revoked {
				return common.NewAppError("You are not logged in! Please log in to get access", http.StatusUnauthorized)
			}

			user, err := m.users.GetByID(ctx, claims.UserID)
			if err != nil {
				var castErr *repositories.CastError
				if errors.Is(err, repositories.ErrNotFound) || errors.As(err, &castErr) {
					return common.NewAppError("The user belonging to this token does no longer exist", http.StatusUnauthorized)
				}
				return err
			}

			if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
				return common.NewAppError("User recently changed password! Please log in again", http.StatusUnauthorized)
			}

			common.SetCurrentUser(c, user)
			return next(c)
		})
	}
}

// Identify stores the token claims when a valid token is presented and lets
// every request through
func (m *AuthMiddleware) Identify() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup:            tokenLookup,
		ContextKey:             ClaimsKey,
		ParseTokenFunc:         m.parseToken,
		ContinueOnIgnoredError: true,
		ErrorHandler: func(c echo.Context, err error) error {
			return nil
		},
	})
}

// RestrictTo allows only users holding one of the roles. Must run after Protect.
func (m *AuthMiddleware) RestrictTo(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := common.CurrentUser(c)
			if !ok {
				return common.NewAppError("You are not logged in! Please log in to get access", http.StatusUnauthorized)
			}
			if !user.HasRole(roles...) {
				return common.NewAppError("You do not have permission to perform this action", http.StatusForbidden)
			}
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims stored by Protect or Identify
func ClaimsFrom(c echo.Context) (*services.TokenClaims, bool) {
	claims, ok := c.Get(ClaimsKey).(*services.TokenClaims)
	return claims, ok && claims != nil
}
