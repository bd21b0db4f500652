package models

import (
	"github.com/google/uuid"
)

// Site represents a physical facility that can be visited.
// The QR code token is an opaque string printed at the site entrance;
// it is unique within the owning organization.
type Site struct {
	OrgModel

	Name    string `json:"name" db:"name"`
	Address string `json:"address" db:"address"`
	QRCode  string `json:"qrCode" db:"qr_code"`

	Settings Variables `json:"settings" db:"settings"`

	CreatedBy uuid.UUID `json:"createdBy" db:"created_by"`
}
