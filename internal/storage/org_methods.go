package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sitesync/sitesync-server/internal/models"
)

// ========== Organization Methods ==========

// CreateOrganization creates a new organization
func (s *PostgresStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}

	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now
	if org.SubscriptionStatus == "" {
		org.SubscriptionStatus = models.SubscriptionTrialing
	}

	query := `
		INSERT INTO organizations (
			id, created_at, updated_at, name, owner_id, settings,
			subscription_status, subscription_plan, stripe_customer_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		org.ID, org.CreatedAt, org.UpdatedAt, org.Name, org.OwnerID,
		org.Settings, org.SubscriptionStatus, org.SubscriptionPlan,
		org.StripeCustomerID,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetOrganization gets an organization by ID
func (s *PostgresStore) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	query := `
		SELECT id, created_at, updated_at, name, owner_id, settings,
		       subscription_status, subscription_plan, stripe_customer_id
		FROM organizations
		WHERE id = $1`

	org := &models.Organization{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&org.ID, &org.CreatedAt, &org.UpdatedAt, &org.Name, &org.OwnerID,
		&org.Settings, &org.SubscriptionStatus, &org.SubscriptionPlan,
		&org.StripeCustomerID,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return org, err
}

// UpdateOrganization updates an organization
func (s *PostgresStore) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	org.UpdatedAt = time.Now()

	query := `
		UPDATE organizations SET
			updated_at = $2, name = $3, settings = $4,
			subscription_status = $5, subscription_plan = $6,
			stripe_customer_id = $7
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		org.ID, org.UpdatedAt, org.Name, org.Settings,
		org.SubscriptionStatus, org.SubscriptionPlan, org.StripeCustomerID,
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

// DeleteOrganization deletes an organization
func (s *PostgresStore) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM organizations WHERE id = $1", id)
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

// ListOrganizationsForUser lists the organizations a user belongs to
func (s *PostgresStore) ListOrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	query := `
		SELECT o.id, o.created_at, o.updated_at, o.name, o.owner_id, o.settings,
		       o.subscription_status, o.subscription_plan, o.stripe_customer_id
		FROM organizations o
		JOIN organization_members m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.created_at`

	rows, err := s.getDB().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org := &models.Organization{}
		err := rows.Scan(
			&org.ID, &org.CreatedAt, &org.UpdatedAt, &org.Name, &org.OwnerID,
			&org.Settings, &org.SubscriptionStatus, &org.SubscriptionPlan,
			&org.StripeCustomerID,
		)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}

	return orgs, rows.Err()
}

// ========== Membership Methods ==========

// AddMember adds a user to an organization
func (s *PostgresStore) AddMember(ctx context.Context, member *models.OrganizationMember) error {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}

	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO organization_members (
			id, organization_id, user_id, role, invited_by, invited_at,
			joined_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.getDB().ExecContext(ctx, query,
		member.ID, member.OrganizationID, member.UserID, member.Role,
		member.InvitedBy, member.InvitedAt, member.JoinedAt, member.CreatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetMember gets a membership record
func (s *PostgresStore) GetMember(ctx context.Context, orgID, userID uuid.UUID) (*models.OrganizationMember, error) {
	query := `
		SELECT id, organization_id, user_id, role, invited_by, invited_at,
		       joined_at, created_at
		FROM organization_members
		WHERE organization_id = $1 AND user_id = $2`

	member := &models.OrganizationMember{}
	err := s.getDB().QueryRowContext(ctx, query, orgID, userID).Scan(
		&member.ID, &member.OrganizationID, &member.UserID, &member.Role,
		&member.InvitedBy, &member.InvitedAt, &member.JoinedAt, &member.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return member, err
}

// UpdateMember updates a membership record
func (s *PostgresStore) UpdateMember(ctx context.Context, member *models.OrganizationMember) error {
	query := `
		UPDATE organization_members SET
			role = $3, joined_at = $4
		WHERE organization_id = $1 AND user_id = $2`

	result, err := s.getDB().ExecContext(ctx, query,
		member.OrganizationID, member.UserID, member.Role, member.JoinedAt,
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

// RemoveMember removes a user from an organization
func (s *PostgresStore) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx,
		"DELETE FROM organization_members WHERE organization_id = $1 AND user_id = $2",
		orgID, userID,
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

// ListMembers lists organization members
func (s *PostgresStore) ListMembers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.OrganizationMember, int64, error) {
	count, err := s.CountMembers(ctx, orgID)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, organization_id, user_id, role, invited_by, invited_at,
		       joined_at, created_at
		FROM organization_members
		WHERE organization_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`

	rows, err := s.getDB().QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var members []*models.OrganizationMember
	for rows.Next() {
		member := &models.OrganizationMember{}
		err := rows.Scan(
			&member.ID, &member.OrganizationID, &member.UserID, &member.Role,
			&member.InvitedBy, &member.InvitedAt, &member.JoinedAt, &member.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		members = append(members, member)
	}

	return members, count, rows.Err()
}

// CountMembers counts organization members
func (s *PostgresStore) CountMembers(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := s.getDB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM organization_members WHERE organization_id = $1", orgID,
	).Scan(&count)
	return count, err
}
