package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"natours/internal/common"
	"natours/internal/models"
	"natours/internal/repositories"
	"natours/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers exposes the request audit trail to admins
type AuditLogsHandlers struct {
	auditLogsService services.AuditLogsService
}

func NewAuditLogsHandlers(auditLogsService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditLogsService: auditLogsService}
}

// ListAuditLogs supports ?resource=, ?actor_id=, ?limit= and ?offset=
func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	filters := &models.AuditLogFilters{}
	if resource := c.QueryParam("resource"); resource != "" {
		filters.Resource = &resource
	}
	if actor := c.QueryParam("actor_id"); actor != "" {
		filters.ActorID = &actor
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	var err error
	if filters.Limit, filters.Offset, err = common.ValidatePaginationParams(limit, offset); err != nil {
		return common.WrapAppError(err, err.Error(), http.StatusBadRequest)
	}

	logs, err := h.auditLogsService.ListAuditLogs(c.Request().Context(), filters)
	if err != nil {
		return auditError(err)
	}
	return common.SendList(c, logs)
}

func (h *AuditLogsHandlers) GetAuditLog(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.NewAppErrorf(http.StatusBadRequest, "Invalid value %s for field id", c.Param("id"))
	}

	entry, err := h.auditLogsService.GetAuditLog(c.Request().Context(), id)
	if err != nil {
		return auditError(err)
	}
	return common.SendData(c, http.StatusOK, entry)
}

func auditError(err error) error {
	switch {
	case errors.Is(err, services.ErrAuditDisabled):
		return common.WrapAppError(err, "Audit logging is not enabled", http.StatusServiceUnavailable)
	case errors.Is(err, repositories.ErrNotFound):
		return common.NewAppError(notFoundMessage, http.StatusNotFound)
	}
	return err
}
