package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records one mutating API request
type AuditLog struct {
	ID         uuid.UUID              `json:"id" db:"id"`
	Resource   string                 `json:"resource" db:"resource"`
	RecordID   string                 `json:"record_id" db:"record_id"`
	Action     string                 `json:"action" db:"action"`
	ActorID    *string                `json:"actor_id" db:"actor_id"`
	StatusCode int                    `json:"status_code" db:"status_code"`
	Data       map[string]interface{} `json:"data" db:"data"`
	CreatedAt  time.Time              `json:"created_at" db:"created_at"`
}

// Action constants for audit logs
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// AuditLogFilters represents filters for querying audit logs
type AuditLogFilters struct {
	Resource *string `json:"resource"`
	ActorID  *string `json:"actor_id"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
}
