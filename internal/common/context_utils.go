package common

import (
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"natours/internal/models"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserKey        contextKey = "user"
	RequestTimeKey contextKey = "request_time"
)

// SetCurrentUser stores the authenticated user for later middleware and handlers
func SetCurrentUser(c echo.Context, user *models.User) {
	c.Set(string(UserKey), user)
}

// CurrentUser returns the user stored by the protect middleware
func CurrentUser(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(string(UserKey)).(*models.User)
	return user, ok && user != nil
}

// SetRequestTime stamps the time the request entered the stack
func SetRequestTime(c echo.Context, t time.Time) {
	c.Set(string(RequestTimeKey), t)
}

func RequestTime(c echo.Context) (time.Time, bool) {
	t, ok := c.Get(string(RequestTimeKey)).(time.Time)
	return t, ok
}

// SanitizeHTMLElement escapes HTML characters to prevent XSS attacks
func SanitizeHTMLElement(input string) string {
	return html.EscapeString(input)
}

// SanitizeHTMLField trims and escapes user supplied text before it is stored
func SanitizeHTMLField(field *string, fieldName string) error {
	if field != nil && *field != "" {
		sanitized := SanitizeHTMLElement(strings.TrimSpace(*field))

		// Limit length to prevent abuse
		if len(sanitized) > 1000 {
			return NewAppErrorf(http.StatusBadRequest, "%s content exceeds maximum allowed length", fieldName)
		}

		*field = sanitized
	}
	return nil
}

// ValidatePaginationParams validates pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, fmt.Errorf("offset cannot exceed 1,000,000")
	}

	return limit, offset, nil
}
