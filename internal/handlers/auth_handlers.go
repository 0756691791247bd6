package handlers

import (
	"fmt"
	"net/http"
	"time"

	"natours/internal/common"
	"natours/internal/middleware"
	"natours/internal/models"
	"natours/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	users     services.UserService
	auth      services.AuthService
	cookieTTL time.Duration
	secure    bool
}

// NewAuthHandlers creates the auth handlers. secure marks the token cookie
// as HTTPS only.
func NewAuthHandlers(users services.UserService, auth services.AuthService, cookieTTL time.Duration, secure bool) *AuthHandlers {
	return &AuthHandlers{
		users:     users,
		auth:      auth,
		cookieTTL: cookieTTL,
		secure:    secure,
	}
}

var userMessages = map[string]string{
	"name.required":            "Please tell us your name",
	"email.required":           "A user must have an email",
	"email.email":              "Please provide a valid email",
	"password.required":        "Please provide a password",
	"password.min":             "Password must have at least 8 characters",
	"passwordConfirm.required": "Please provide a password confirm",
	"passwordCurrent.required": "Please provide your current password",
	"role.oneof":               "Role is either: user, guide, lead-guide, admin",
}

// SignupRequest represents the signup request payload. A role is never
// accepted here.
type SignupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Photo           string `json:"photo"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

func (r *SignupRequest) Messages() map[string]string { return userMessages }

func (r *SignupRequest) Check() error {
	return common.SanitizeHTMLField(&r.Name, "name")
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *ForgotPasswordRequest) Messages() map[string]string { return userMessages }

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

func (r *ResetPasswordRequest) Messages() map[string]string { return userMessages }

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

func (r *UpdatePasswordRequest) Messages() map[string]string { return userMessages }

// Signup creates a user account and logs it in
func (h *AuthHandlers) Signup(c echo.Context) error {
	var req SignupRequest
	if err := bindPayload(c, &req); err != nil {
		return err
	}

	session, err := h.users.Signup(c.Request().Context(), services.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Photo:           req.Photo,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusCreated, session)
}

// Login handles user login with email and password
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	session, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusOK, session)
}

// Logout overwrites the token cookie and revokes the presented token
func (h *AuthHandlers) Logout(c echo.Context) error {
	if claims, ok := middleware.ClaimsFrom(c); ok {
		if err := h.auth.RevokeToken(c.Request().Context(), claims); err != nil {
			c.Logger().Errorf("Failed to revoke token: %v", err)
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    middleware.LoggedOutCookie,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.secure,
	})
	return c.JSON(http.StatusOK, common.Response{Status: common.StatusSuccess})
}

// ForgotPassword mails a reset link to the account owner
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bindPayload(c, &req); err != nil {
		return err
	}

	resetURL := func(token string) string {
		return fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s", c.Scheme(), c.Request().Host, token)
	}
	if err := h.users.ForgotPassword(c.Request().Context(), req.Email, resetURL); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, common.Response{
		Status:  common.StatusSuccess,
		Message: "Token sent to email",
	})
}

// ResetPassword sets a new password from a mailed reset token and logs the user in
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bindPayload(c, &req); err != nil {
		return err
	}

	session, err := h.users.ResetPassword(c.Request().Context(), c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusOK, session)
}

// UpdatePassword changes the password of the logged in user
func (h *AuthHandlers) UpdatePassword(c echo.Context) error {
	user, ok := common.CurrentUser(c)
	if !ok {
		return common.NewAppError("You are not logged in! Please log in to get access", http.StatusUnauthorized)
	}

	var req UpdatePasswordRequest
	if err := bindPayload(c, &req); err != nil {
		return err
	}

	session, err := h.users.UpdatePassword(c.Request().Context(), user.ID.Hex(), req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusOK, session)
}

// sendToken delivers the token as an httpOnly cookie and in the body
func (h *AuthHandlers) sendToken(c echo.Context, code int, session *services.Session) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    session.Token.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		Secure:   h.secure,
	})

	return c.JSON(code, common.Response{
		Status: common.StatusSuccess,
		Token:  session.Token.Token,
		Data:   map[string]*models.User{"user": session.User},
	})
}
