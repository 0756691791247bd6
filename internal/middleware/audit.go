package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"natours/internal/common"
	"natours/internal/models"
	"natours/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditMiddleware records every mutating API request in the audit trail
type AuditMiddleware struct {
	auditService services.AuditLogsService
	prefix       string
}

// NewAuditMiddleware audits requests below prefix, e.g. "/api/v1"
func NewAuditMiddleware(auditService services.AuditLogsService, prefix string) *AuditMiddleware {
	return &AuditMiddleware{
		auditService: auditService,
		prefix:       strings.TrimSuffix(prefix, "/"),
	}
}

// AuditRequest logs the request after the handler ran. Failures to write the
// audit entry never fail the request.
func (m *AuditMiddleware) AuditRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqErr := next(c)

			if !m.auditService.Enabled() {
				return reqErr
			}
			action, ok := actionFor(c.Request().Method)
			if !ok {
				return reqErr
			}
			resource, ok := m.resourceFor(c.Request().URL.Path)
			if !ok {
				return reqErr
			}

			var actorID *string
			if user, ok := common.CurrentUser(c); ok {
				id := user.ID.Hex()
				actorID = &id
			}

			data := map[string]interface{}{
				"method":       c.Request().Method,
				"path":         c.Path(),
				"uri":          c.Request().URL.Path,
				"user_agent":   c.Request().UserAgent(),
				"ip":           c.RealIP(),
				"timestamp":    time.Now().Format(time.RFC3339),
				"query_params": c.QueryParams(),
				"headers":      m.sanitizeHeaders(c.Request().Header),
			}
			if reqErr != nil {
				data["error"] = reqErr.Error()
			}

			ctx := c.Request().Context()
			if err := m.auditService.LogActivity(ctx, resource, c.Param("id"), action, actorID, statusOf(c, reqErr), data); err != nil {
				c.Logger().Errorf("Failed to log audit activity: %v", err)
			}
			return reqErr
		}
	}
}

func actionFor(method string) (string, bool) {
	switch method {
	case http.MethodPost:
		return models.ActionCreate, true
	case http.MethodPatch, http.MethodPut:
		return models.ActionUpdate, true
	case http.MethodDelete:
		return models.ActionDelete, true
	}
	return "", false
}

// resourceFor returns the first path segment below the audited prefix
func (m *AuditMiddleware) resourceFor(path string) (string, bool) {
	if !strings.HasPrefix(path, m.prefix+"/") {
		return "", false
	}
	rest := strings.TrimPrefix(path, m.prefix+"/")
	resource, _, _ := strings.Cut(rest, "/")
	return resource, resource != ""
}

// statusOf is the status the client will see, including errors the central
// handler has not written yet
func statusOf(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	if appErr, ok := common.AsAppError(err); ok {
		return appErr.StatusCode
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// sanitizeHeaders removes sensitive headers before logging
func (m *AuditMiddleware) sanitizeHeaders(headers http.Header) map[string]interface{} {
	sanitized := make(map[string]interface{}, len(headers))
	for key, values := range headers {
		if m.isSensitiveHeader(key) {
			sanitized[key] = "[REDACTED]"
			continue
		}
		sanitized[key] = values
	}
	return sanitized
}

func (m *AuditMiddleware) isSensitiveHeader(header string) bool {
	switch strings.ToLower(header) {
	case "authorization", "cookie", "x-api-key", "x-auth-token", "proxy-authorization":
		return true
	}
	return false
}
