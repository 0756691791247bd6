package services

import (
	"context"
	"errors"
	"time"

	"natours/internal/models"
	"natours/internal/repositories"

	"github.com/google/uuid"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 1000
)

type AuditLogsService interface {
	LogActivity(ctx context.Context, resource, recordID, action string, actorID *string, statusCode int, data map[string]interface{}) error
	GetAuditLog(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)
	ListAuditLogs(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
	Enabled() bool
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
	now           func() time.Time
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{
		auditLogsRepo: auditLogsRepo,
		now:           time.Now,
	}
}

// LogActivity creates a new audit log entry with validation
func (s *auditLogsService) LogActivity(ctx context.Context, resource, recordID, action string, actorID *string, statusCode int, data map[string]interface{}) error {
	if resource == "" {
		return errors.New("resource is required")
	}
	if action == "" {
		return errors.New("action is required")
	}

	return s.auditLogsRepo.Create(ctx, &models.AuditLog{
		ID:         uuid.New(),
		Resource:   resource,
		RecordID:   recordID,
		Action:     action,
		ActorID:    actorID,
		StatusCode: statusCode,
		Data:       data,
		CreatedAt:  s.now(),
	})
}

func (s *auditLogsService) GetAuditLog(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	return s.auditLogsRepo.GetByID(ctx, id)
}

func (s *auditLogsService) ListAuditLogs(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}
	if filters.Limit <= 0 || filters.Limit > maxAuditLimit {
		filters.Limit = defaultAuditLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	return s.auditLogsRepo.List(ctx, filters)
}

func (s *auditLogsService) Enabled() bool { return true }

// ErrAuditDisabled is returned by the read side when no audit database is configured
var ErrAuditDisabled = errors.New("audit logging is not configured")

type noopAuditLogsService struct{}

// NewNoopAuditLogsService drops every entry. Used when AUDIT_DATABASE_URL is unset.
func NewNoopAuditLogsService() AuditLogsService {
	return noopAuditLogsService{}
}

func (noopAuditLogsService) LogActivity(context.Context, string, string, string, *string, int, map[string]interface{}) error {
	return nil
}

func (noopAuditLogsService) GetAuditLog(context.Context, uuid.UUID) (*models.AuditLog, error) {
	return nil, ErrAuditDisabled
}

func (noopAuditLogsService) ListAuditLogs(context.Context, *models.AuditLogFilters) ([]*models.AuditLog, error) {
	return nil, ErrAuditDisabled
}

func (noopAuditLogsService) Enabled() bool { return false }
