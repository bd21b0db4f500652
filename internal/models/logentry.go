package models

import (
	"time"

	"github.com/google/uuid"
)

// EntryStatus classifies a log entry by visit state
type EntryStatus string

const (
	EntryStatusActive    EntryStatus = "active"
	EntryStatusCompleted EntryStatus = "completed"
)

// LogEntry represents a single visit: a check-in, the work performed,
// and an optional check-out. SiteName and UserName are denormalized at
// check-in time so the logbook keeps a historical snapshot even after
// the site or user record changes.
type LogEntry struct {
	OrgModel

	SiteID   uuid.UUID `json:"siteId" db:"site_id"`
	SiteName string    `json:"siteName" db:"site_name"`

	UserID   uuid.UUID `json:"userId" db:"user_id"`
	UserName string    `json:"userName" db:"user_name"`

	CheckInTime  time.Time  `json:"checkInTime" db:"check_in_time"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty" db:"check_out_time"`

	Purpose       string `json:"purpose" db:"purpose"`
	Notes         string `json:"notes,omitempty" db:"notes"`
	WorkCompleted bool   `json:"workCompleted" db:"work_completed"`

	Images StringArray `json:"images,omitempty" db:"images"`
}

// IsActive reports whether the visit has not been checked out yet
func (e *LogEntry) IsActive() bool {
	return e.CheckOutTime == nil
}

// Status returns the entry's visit state
func (e *LogEntry) Status() EntryStatus {
	if e.IsActive() {
		return EntryStatusActive
	}
	return EntryStatusCompleted
}

// Duration returns the visit duration. Zero for active entries.
func (e *LogEntry) Duration() time.Duration {
	if e.CheckOutTime == nil {
		return 0
	}
	return e.CheckOutTime.Sub(e.CheckInTime)
}
