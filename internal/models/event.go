package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog represents an audit trail entry for an administrative action
type AuditLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	OrganizationID uuid.UUID  `json:"organizationId" db:"organization_id"`
	UserID         *uuid.UUID `json:"userId,omitempty" db:"user_id"`

	Action       AuditAction `json:"action" db:"action"`
	ResourceType string      `json:"resourceType" db:"resource_type"`
	ResourceID   *uuid.UUID  `json:"resourceId,omitempty" db:"resource_id"`

	Metadata Variables `json:"metadata,omitempty" db:"metadata"`

	IPAddress string `json:"ipAddress,omitempty" db:"ip_address"`
	UserAgent string `json:"userAgent,omitempty" db:"user_agent"`
}

// AuditAction represents audited action types
type AuditAction string

const (
	// Site actions
	AuditSiteCreated AuditAction = "SITE_CREATED"
	AuditSiteUpdated AuditAction = "SITE_UPDATED"
	AuditSiteDeleted AuditAction = "SITE_DELETED"

	// Visit actions
	AuditEntryCheckIn  AuditAction = "ENTRY_CHECK_IN"
	AuditEntryCheckOut AuditAction = "ENTRY_CHECK_OUT"
	AuditEntryDeleted  AuditAction = "ENTRY_DELETED"

	// Team actions
	AuditMemberInvited AuditAction = "MEMBER_INVITED"
	AuditMemberUpdated AuditAction = "MEMBER_UPDATED"
	AuditMemberRemoved AuditAction = "MEMBER_REMOVED"

	// API key actions
	AuditAPIKeyCreated AuditAction = "API_KEY_CREATED"
	AuditAPIKeyRevoked AuditAction = "API_KEY_REVOKED"
)

// WebhookEvent is the payload published to NATS and delivered to an
// organization's configured webhook endpoint
type WebhookEvent struct {
	ID             uuid.UUID   `json:"id"`
	Type           string      `json:"type"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	Timestamp      time.Time   `json:"timestamp"`
	Data           interface{} `json:"data"`
}

// Webhook event types
const (
	EventEntryCheckedIn  = "entry.checked_in"
	EventEntryCheckedOut = "entry.checked_out"
	EventSiteCreated     = "site.created"
	EventSiteDeleted     = "site.deleted"
)
