package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sitesync/sitesync-server/internal/models"
)

// CreateAuditLog creates an audit log entry
func (s *PostgresStore) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO audit_logs (
			id, created_at, organization_id, user_id, action, resource_type,
			resource_id, metadata, ip_address, user_agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.getDB().ExecContext(ctx, query,
		entry.ID, entry.CreatedAt, entry.OrganizationID, entry.UserID,
		entry.Action, entry.ResourceType, entry.ResourceID, entry.Metadata,
		entry.IPAddress, entry.UserAgent,
	)

	return err
}

// ListAuditLogs lists audit logs with filters
func (s *PostgresStore) ListAuditLogs(ctx context.Context, orgID uuid.UUID, filters AuditFilters, limit, offset int) ([]*models.AuditLog, int64, error) {
	where := "WHERE organization_id = $1"
	args := []interface{}{orgID}
	argCount := 1

	if filters.UserID != nil {
		argCount++
		where += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, *filters.UserID)
	}

	if filters.Action != nil {
		argCount++
		where += fmt.Sprintf(" AND action = $%d", argCount)
		args = append(args, *filters.Action)
	}

	if filters.ResourceType != nil {
		argCount++
		where += fmt.Sprintf(" AND resource_type = $%d", argCount)
		args = append(args, *filters.ResourceType)
	}

	if filters.StartTime != nil {
		argCount++
		where += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, *filters.StartTime)
	}

	if filters.EndTime != nil {
		argCount++
		where += fmt.Sprintf(" AND created_at < $%d", argCount)
		args = append(args, *filters.EndTime)
	}

	var count int64
	err := s.getDB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM audit_logs "+where, args...,
	).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, created_at, organization_id, user_id, action, resource_type,
		       resource_id, metadata, ip_address, user_agent
		FROM audit_logs ` + where + fmt.Sprintf(`
		ORDER BY created_at DESC
		LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.getDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		err := rows.Scan(
			&entry.ID, &entry.CreatedAt, &entry.OrganizationID, &entry.UserID,
			&entry.Action, &entry.ResourceType, &entry.ResourceID,
			&entry.Metadata, &entry.IPAddress, &entry.UserAgent,
		)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, entry)
	}

	return logs, count, rows.Err()
}
