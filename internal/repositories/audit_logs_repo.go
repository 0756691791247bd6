package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"natours/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type AuditLogsRepository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, auditLog *models.AuditLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)
	List(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db DBTX
}

func NewAuditLogsRepo(db DBTX) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY,
			resource TEXT NOT NULL,
			record_id TEXT NOT NULL,
			action TEXT NOT NULL,
			actor_id TEXT,
			status_code INTEGER NOT NULL,
			data JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}
	if auditLog.CreatedAt.IsZero() {
		auditLog.CreatedAt = time.Now()
	}

	var data []byte
	if auditLog.Data != nil {
		var err error
		data, err = json.Marshal(auditLog.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal data: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (id, resource, record_id, action, actor_id, status_code, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		auditLog.ID,
		auditLog.Resource,
		auditLog.RecordID,
		auditLog.Action,
		auditLog.ActorID,
		auditLog.StatusCode,
		data,
		auditLog.CreatedAt,
	)
	return err
}

func (r *auditLogsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	query := `
		SELECT id, resource, record_id, action, actor_id, status_code, data, created_at
		FROM audit_logs
		WHERE id = $1
	`
	auditLog, err := scanAuditLog(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return auditLog, err
}

func (r *auditLogsRepo) List(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}

	query := `
		SELECT id, resource, record_id, action, actor_id, status_code, data, created_at
		FROM audit_logs
		WHERE 1 = 1
	`
	args := []interface{}{}
	argIdx := 0

	if filters.Resource != nil {
		argIdx++
		query += fmt.Sprintf(" AND resource = $%d", argIdx)
		args = append(args, *filters.Resource)
	}

	if filters.ActorID != nil {
		argIdx++
		query += fmt.Sprintf(" AND actor_id = $%d", argIdx)
		args = append(args, *filters.ActorID)
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		argIdx++
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
		if filters.Offset > 0 {
			argIdx++
			query += fmt.Sprintf(" OFFSET $%d", argIdx)
			args = append(args, filters.Offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	auditLogs := []*models.AuditLog{}
	for rows.Next() {
		auditLog, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		auditLogs = append(auditLogs, auditLog)
	}
	return auditLogs, rows.Err()
}

func scanAuditLog(row pgx.Row) (*models.AuditLog, error) {
	auditLog := &models.AuditLog{}
	var data []byte

	err := row.Scan(
		&auditLog.ID,
		&auditLog.Resource,
		&auditLog.RecordID,
		&auditLog.Action,
		&auditLog.ActorID,
		&auditLog.StatusCode,
		&data,
		&auditLog.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &auditLog.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}
	return auditLog, nil
}
