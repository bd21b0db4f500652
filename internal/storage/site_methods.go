package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sitesync/sitesync-server/internal/models"
)

// ========== Site Methods ==========

// CreateSite creates a new site
func (s *PostgresStore) CreateSite(ctx context.Context, site *models.Site) error {
	if site.ID == uuid.Nil {
		site.ID = uuid.New()
	}

	now := time.Now()
	site.CreatedAt = now
	site.UpdatedAt = now

	query := `
		INSERT INTO sites (
			id, created_at, updated_at, organization_id, name, address,
			qr_code, settings, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		site.ID, site.CreatedAt, site.UpdatedAt, site.OrganizationID,
		site.Name, site.Address, site.QRCode, site.Settings, site.CreatedBy,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetSite gets a site by ID
func (s *PostgresStore) GetSite(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, name, address,
		       qr_code, settings, created_by
		FROM sites
		WHERE id = $1`

	site := &models.Site{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&site.ID, &site.CreatedAt, &site.UpdatedAt, &site.OrganizationID,
		&site.Name, &site.Address, &site.QRCode, &site.Settings, &site.CreatedBy,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return site, err
}

// FindSiteByQRCode resolves a scanned QR token to a site within the
// organization scope
func (s *PostgresStore) FindSiteByQRCode(ctx context.Context, orgID uuid.UUID, qrCode string) (*models.Site, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, name, address,
		       qr_code, settings, created_by
		FROM sites
		WHERE organization_id = $1 AND qr_code = $2`

	site := &models.Site{}
	err := s.getDB().QueryRowContext(ctx, query, orgID, qrCode).Scan(
		&site.ID, &site.CreatedAt, &site.UpdatedAt, &site.OrganizationID,
		&site.Name, &site.Address, &site.QRCode, &site.Settings, &site.CreatedBy,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return site, err
}

// UpdateSite updates a site's name, address and settings. The QR code
// token is immutable after creation.
func (s *PostgresStore) UpdateSite(ctx context.Context, site *models.Site) error {
	site.UpdatedAt = time.Now()

	query := `
		UPDATE sites SET
			updated_at = $2, name = $3, address = $4, settings = $5
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		site.ID, site.UpdatedAt, site.Name, site.Address, site.Settings,
	)

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

// DeleteSite deletes a site. Log entries referencing it keep their
// denormalized site name; no reconciliation is performed.
func (s *PostgresStore) DeleteSite(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM sites WHERE id = $1", id)
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

// ListSites lists an organization's sites
func (s *PostgresStore) ListSites(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Site, int64, error) {
	count, err := s.CountSites(ctx, orgID)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, created_at, updated_at, organization_id, name, address,
		       qr_code, settings, created_by
		FROM sites
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.getDB().QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sites []*models.Site
	for rows.Next() {
		site := &models.Site{}
		err := rows.Scan(
			&site.ID, &site.CreatedAt, &site.UpdatedAt, &site.OrganizationID,
			&site.Name, &site.Address, &site.QRCode, &site.Settings,
			&site.CreatedBy,
		)
		if err != nil {
			return nil, 0, err
		}
		sites = append(sites, site)
	}

	return sites, count, rows.Err()
}

// CountSites counts an organization's sites
func (s *PostgresStore) CountSites(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := s.getDB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sites WHERE organization_id = $1", orgID,
	).Scan(&count)
	return count, err
}
