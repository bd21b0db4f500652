package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the billing state of an organization
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Organization represents a tenant organization
type Organization struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name    string    `json:"name" db:"name"`
	OwnerID uuid.UUID `json:"ownerId" db:"owner_id"`

	Settings OrganizationSettings `json:"settings" db:"settings"`

	// Billing
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus" db:"subscription_status"`
	SubscriptionPlan   string             `json:"subscriptionPlan,omitempty" db:"subscription_plan"`
	StripeCustomerID   string             `json:"stripeCustomerId,omitempty" db:"stripe_customer_id"`
}

// OrganizationSettings represents per-organization configuration
type OrganizationSettings struct {
	Branding struct {
		PrimaryColor string `json:"primary_color"`
		LogoURL      string `json:"logo_url,omitempty"`
	} `json:"branding"`

	Features struct {
		Analytics  bool `json:"analytics"`
		APIAccess  bool `json:"api_access"`
		WhiteLabel bool `json:"white_label"`
		AuditLogs  bool `json:"audit_logs"`
	} `json:"features"`

	Notifications struct {
		EmailReports bool   `json:"email_reports"`
		SlackWebhook string `json:"slack_webhook,omitempty"`
		WebhookURL   string `json:"webhook_url,omitempty"`
	} `json:"notifications"`
}

// Value implements driver.Valuer
func (s OrganizationSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner
func (s *OrganizationSettings) Scan(value interface{}) error {
	if value == nil {
		*s = OrganizationSettings{}
		return nil
	}

	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, s)
	case string:
		return json.Unmarshal([]byte(data), s)
	default:
		*s = OrganizationSettings{}
		return nil
	}
}

// Role represents a member's role within an organization
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// CanManageSites reports whether the role may create, update or delete sites
func (r Role) CanManageSites() bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanManageTeam reports whether the role may invite or remove members
func (r Role) CanManageTeam() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleManager
}

// OrganizationMember represents a user's membership in an organization
type OrganizationMember struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`
	UserID         uuid.UUID `json:"userId" db:"user_id"`

	Role Role `json:"role" db:"role"`

	InvitedBy *uuid.UUID `json:"invitedBy,omitempty" db:"invited_by"`
	InvitedAt *time.Time `json:"invitedAt,omitempty" db:"invited_at"`
	JoinedAt  *time.Time `json:"joinedAt,omitempty" db:"joined_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}
