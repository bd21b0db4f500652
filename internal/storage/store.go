package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sitesync/sitesync-server/internal/models"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidData  = errors.New("invalid data")
	ErrConflict     = errors.New("conflict")
)

// Store defines the storage interface
type Store interface {
	// Transaction support
	BeginTx(ctx context.Context) (Store, error)
	Commit() error
	Rollback() error

	// User methods
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Organization methods
	CreateOrganization(ctx context.Context, org *models.Organization) error
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, org *models.Organization) error
	DeleteOrganization(ctx context.Context, id uuid.UUID) error
	ListOrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)

	// Membership methods
	AddMember(ctx context.Context, member *models.OrganizationMember) error
	GetMember(ctx context.Context, orgID, userID uuid.UUID) (*models.OrganizationMember, error)
	UpdateMember(ctx context.Context, member *models.OrganizationMember) error
	RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error
	ListMembers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.OrganizationMember, int64, error)
	CountMembers(ctx context.Context, orgID uuid.UUID) (int64, error)

	// Site methods
	CreateSite(ctx context.Context, site *models.Site) error
	GetSite(ctx context.Context, id uuid.UUID) (*models.Site, error)
	FindSiteByQRCode(ctx context.Context, orgID uuid.UUID, qrCode string) (*models.Site, error)
	UpdateSite(ctx context.Context, site *models.Site) error
	DeleteSite(ctx context.Context, id uuid.UUID) error
	ListSites(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Site, int64, error)
	CountSites(ctx context.Context, orgID uuid.UUID) (int64, error)

	// Log entry methods
	CreateLogEntry(ctx context.Context, entry *models.LogEntry) error
	GetLogEntry(ctx context.Context, id uuid.UUID) (*models.LogEntry, error)
	// CompleteLogEntry writes the check-out as a compare-and-swap on
	// check_out_time IS NULL. A racing second call gets ErrConflict.
	CompleteLogEntry(ctx context.Context, entry *models.LogEntry) error
	DeleteLogEntry(ctx context.Context, id uuid.UUID) error
	ListLogEntries(ctx context.Context, orgID uuid.UUID, filters EntryFilters, limit, offset int) ([]*models.LogEntry, int64, error)

	// API key methods
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error)
	ListAPIKeys(ctx context.Context, orgID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	// Audit log methods
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, orgID uuid.UUID, filters AuditFilters, limit, offset int) ([]*models.AuditLog, int64, error)

	// Close the store
	Close() error
}

// EntryFilters represents persistence-level filters for log entries.
// In-memory status/search/sort filtering is the logbook package's job.
type EntryFilters struct {
	SiteID    *uuid.UUID
	UserID    *uuid.UUID
	StartTime *time.Time
	EndTime   *time.Time
}

// AuditFilters represents filters for audit logs
type AuditFilters struct {
	UserID       *uuid.UUID
	Action       *models.AuditAction
	ResourceType *string
	StartTime    *time.Time
	EndTime      *time.Time
}
