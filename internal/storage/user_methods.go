package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sitesync/sitesync-server/internal/models"
	"github.com/sitesync/sitesync-server/pkg/crypto"
)

// ========== User Methods ==========

// CreateUser creates a new user
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	// Hash password if provided in settings
	if pwd, ok := user.Settings["password"].(string); ok && pwd != "" {
		hash, err := crypto.HashPassword(pwd)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
		delete(user.Settings, "password")
	}

	query := `
		INSERT INTO users (
			id, created_at, updated_at, email, full_name, phone,
			password_hash, avatar_url, is_active, settings
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		user.ID, user.CreatedAt, user.UpdatedAt, user.Email, user.FullName,
		user.Phone, user.PasswordHash, user.AvatarURL, user.IsActive,
		user.Settings,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetUser gets a user by ID
func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, created_at, updated_at, email, full_name, phone,
		       password_hash, avatar_url, is_active, last_login_at, settings
		FROM users
		WHERE id = $1`

	user := &models.User{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.Email, &user.FullName,
		&user.Phone, &user.PasswordHash, &user.AvatarURL, &user.IsActive,
		&user.LastLoginAt, &user.Settings,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return user, err
}

// GetUserByEmail gets a user by email
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, created_at, updated_at, email, full_name, phone,
		       password_hash, avatar_url, is_active, last_login_at, settings
		FROM users
		WHERE email = $1`

	user := &models.User{}
	err := s.getDB().QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.Email, &user.FullName,
		&user.Phone, &user.PasswordHash, &user.AvatarURL, &user.IsActive,
		&user.LastLoginAt, &user.Settings,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return user, err
}

// UpdateUser updates a user
func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users SET
			updated_at = $2, email = $3, full_name = $4, phone = $5,
			avatar_url = $6, is_active = $7, last_login_at = $8, settings = $9
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		user.ID, user.UpdatedAt, user.Email, user.FullName, user.Phone,
		user.AvatarURL, user.IsActive, user.LastLoginAt, user.Settings,
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

// DeleteUser deletes a user
func (s *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
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

// ========== API Key Methods ==========

// CreateAPIKey creates an API key record
func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}

	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO api_keys (
			id, created_at, organization_id, created_by, name, key_hash,
			permissions, is_active, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.getDB().ExecContext(ctx, query,
		key.ID, key.CreatedAt, key.OrganizationID, key.CreatedBy, key.Name,
		key.KeyHash, key.Permissions, key.IsActive, key.ExpiresAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetAPIKeyByHash gets an active API key by its hash
func (s *PostgresStore) GetAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	query := `
		SELECT id, created_at, organization_id, created_by, name, key_hash,
		       permissions, is_active, expires_at, last_used_at
		FROM api_keys
		WHERE key_hash = $1 AND is_active = true`

	key := &models.APIKey{}
	err := s.getDB().QueryRowContext(ctx, query, keyHash).Scan(
		&key.ID, &key.CreatedAt, &key.OrganizationID, &key.CreatedBy, &key.Name,
		&key.KeyHash, &key.Permissions, &key.IsActive, &key.ExpiresAt,
		&key.LastUsedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return key, err
}

// ListAPIKeys lists an organization's API keys
func (s *PostgresStore) ListAPIKeys(ctx context.Context, orgID uuid.UUID) ([]*models.APIKey, error) {
	query := `
		SELECT id, created_at, organization_id, created_by, name, key_hash,
		       permissions, is_active, expires_at, last_used_at
		FROM api_keys
		WHERE organization_id = $1
		ORDER BY created_at DESC`

	rows, err := s.getDB().QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		key := &models.APIKey{}
		err := rows.Scan(
			&key.ID, &key.CreatedAt, &key.OrganizationID, &key.CreatedBy,
			&key.Name, &key.KeyHash, &key.Permissions, &key.IsActive,
			&key.ExpiresAt, &key.LastUsedAt,
		)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// RevokeAPIKey deactivates an API key
func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx,
		"UPDATE api_keys SET is_active = false WHERE id = $1", id,
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
