package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sitesync/sitesync-server/internal/models"
)

// ========== Log Entry Methods ==========

// CreateLogEntry appends a log entry to the organization's logbook
func (s *PostgresStore) CreateLogEntry(ctx context.Context, entry *models.LogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.CheckInTime.IsZero() {
		entry.CheckInTime = now.UTC().Truncate(time.Second)
	}

	query := `
		INSERT INTO log_entries (
			id, created_at, updated_at, organization_id, site_id, site_name,
			user_id, user_name, check_in_time, check_out_time, purpose,
			notes, work_completed, images
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		entry.ID, entry.CreatedAt, entry.UpdatedAt, entry.OrganizationID,
		entry.SiteID, entry.SiteName, entry.UserID, entry.UserName,
		entry.CheckInTime, entry.CheckOutTime, entry.Purpose, entry.Notes,
		entry.WorkCompleted, entry.Images,
	)

	return err
}

// GetLogEntry gets a log entry by ID
func (s *PostgresStore) GetLogEntry(ctx context.Context, id uuid.UUID) (*models.LogEntry, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, site_id, site_name,
		       user_id, user_name, check_in_time, check_out_time, purpose,
		       notes, work_completed, images
		FROM log_entries
		WHERE id = $1`

	entry := &models.LogEntry{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.CreatedAt, &entry.UpdatedAt, &entry.OrganizationID,
		&entry.SiteID, &entry.SiteName, &entry.UserID, &entry.UserName,
		&entry.CheckInTime, &entry.CheckOutTime, &entry.Purpose, &entry.Notes,
		&entry.WorkCompleted, &entry.Images,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return entry, err
}

// CompleteLogEntry writes the check-out. The predicate requires
// check_out_time IS NULL so two racing check-outs cannot both win:
// the loser matches zero rows and gets ErrConflict.
func (s *PostgresStore) CompleteLogEntry(ctx context.Context, entry *models.LogEntry) error {
	entry.UpdatedAt = time.Now()

	query := `
		UPDATE log_entries SET
			updated_at = $2, check_out_time = $3, notes = $4,
			work_completed = $5, images = $6
		WHERE id = $1 AND check_out_time IS NULL`

	result, err := s.getDB().ExecContext(ctx, query,
		entry.ID, entry.UpdatedAt, entry.CheckOutTime, entry.Notes,
		entry.WorkCompleted, entry.Images,
	)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		// Either the entry is gone or it is already terminal.
		var exists bool
		err := s.getDB().QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM log_entries WHERE id = $1)", entry.ID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return ErrConflict
		}
		return ErrNotFound
	}

	return nil
}

// DeleteLogEntry deletes a log entry. Maintenance primitive only;
// the normal visit lifecycle never deletes entries.
func (s *PostgresStore) DeleteLogEntry(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM log_entries WHERE id = $1", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListLogEntries lists log entries with persistence-level filters.
// limit <= 0 disables pagination so callers can aggregate the full set.
func (s *PostgresStore) ListLogEntries(ctx context.Context, orgID uuid.UUID, filters EntryFilters, limit, offset int) ([]*models.LogEntry, int64, error) {
	where := "WHERE organization_id = $1"
	args := []interface{}{orgID}
	argCount := 1

	if filters.SiteID != nil {
		argCount++
		where += fmt.Sprintf(" AND site_id = $%d", argCount)
		args = append(args, *filters.SiteID)
	}

	if filters.UserID != nil {
		argCount++
		where += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, *filters.UserID)
	}

	if filters.StartTime != nil {
		argCount++
		where += fmt.Sprintf(" AND check_in_time >= $%d", argCount)
		args = append(args, *filters.StartTime)
	}

	if filters.EndTime != nil {
		argCount++
		where += fmt.Sprintf(" AND check_in_time < $%d", argCount)
		args = append(args, *filters.EndTime)
	}

	// Get count
	var count int64
	err := s.getDB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM log_entries "+where, args...,
	).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	// Get rows
	query := `
		SELECT id, created_at, updated_at, organization_id, site_id, site_name,
		       user_id, user_name, check_in_time, check_out_time, purpose,
		       notes, work_completed, images
		FROM log_entries ` + where + `
		ORDER BY check_in_time DESC`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := s.getDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*models.LogEntry
	for rows.Next() {
		entry := &models.LogEntry{}
		err := rows.Scan(
			&entry.ID, &entry.CreatedAt, &entry.UpdatedAt, &entry.OrganizationID,
			&entry.SiteID, &entry.SiteName, &entry.UserID, &entry.UserName,
			&entry.CheckInTime, &entry.CheckOutTime, &entry.Purpose,
			&entry.Notes, &entry.WorkCompleted, &entry.Images,
		)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}

	return entries, count, rows.Err()
}
