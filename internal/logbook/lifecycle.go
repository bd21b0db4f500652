package logbook

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sitesync/sitesync-server/internal/models"
	"github.com/sitesync/sitesync-server/internal/storage"
)

// EventPublisher publishes visit events to downstream consumers.
// Publishing is best-effort: a failed publish never fails the visit.
type EventPublisher interface {
	PublishEntryEvent(eventType string, entry *models.LogEntry)
}

// Identity identifies the authenticated visitor performing an operation
type Identity struct {
	UserID uuid.UUID
	Name   string
	Role   models.Role
}

// CheckInInput is the input for a check-in
type CheckInInput struct {
	QRCode  string
	Purpose string
	Notes   string
}

// CheckOutInput is the input for a check-out
type CheckOutInput struct {
	Notes         string
	WorkCompleted bool
}

// Service implements the visit lifecycle over a storage.Store.
// All operations are synchronous; concurrent-safety lives at the
// persistence boundary (see Store.CompleteLogEntry).
type Service struct {
	store     storage.Store
	publisher EventPublisher
	now       func() time.Time
}

// NewService creates a lifecycle service. publisher may be nil.
func NewService(store storage.Store, publisher EventPublisher) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// CheckIn creates a new active log entry for the site identified by the
// scanned QR code token. The visitor may hold multiple simultaneous
// active entries; the model does not prevent that.
func (s *Service) CheckIn(ctx context.Context, orgID uuid.UUID, identity Identity, input CheckInInput) (*models.LogEntry, error) {
	if orgID == uuid.Nil {
		return nil, ErrNoOrganization
	}

	qrCode := strings.TrimSpace(input.QRCode)
	if qrCode == "" {
		return nil, ErrInvalidInput
	}

	purpose := strings.TrimSpace(input.Purpose)
	if purpose == "" {
		return nil, ErrInvalidInput
	}

	site, err := s.store.FindSiteByQRCode(ctx, orgID, qrCode)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}

	entry := &models.LogEntry{
		OrgModel: models.OrgModel{
			OrganizationID: orgID,
		},
		SiteID:      site.ID,
		SiteName:    site.Name,
		UserID:      identity.UserID,
		UserName:    identity.Name,
		CheckInTime: s.now().UTC().Truncate(time.Second),
		Purpose:     purpose,
		Notes:       strings.TrimSpace(input.Notes),
	}

	if err := s.store.CreateLogEntry(ctx, entry); err != nil {
		return nil, err
	}

	log.Info().
		Str("entry_id", entry.ID.String()).
		Str("site", site.Name).
		Str("user", identity.Name).
		Msg("Visitor checked in")

	if s.publisher != nil {
		s.publisher.PublishEntryEvent(models.EventEntryCheckedIn, entry)
	}

	return entry, nil
}

// CheckOut records the departure time and outcome on an active entry.
// A second check-out on the same entry fails with ErrAlreadyCheckedOut;
// the store enforces this with a compare-and-swap on check_out_time so
// only one of two racing calls wins.
func (s *Service) CheckOut(ctx context.Context, entryID uuid.UUID, input CheckOutInput) (*models.LogEntry, error) {
	entry, err := s.store.GetLogEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	if entry.CheckOutTime != nil {
		return nil, ErrAlreadyCheckedOut
	}

	checkOut := s.now().UTC().Truncate(time.Second)
	if checkOut.Before(entry.CheckInTime) {
		// Clock skew must not produce a negative visit duration.
		checkOut = entry.CheckInTime
	}

	entry.CheckOutTime = &checkOut
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		entry.Notes = notes
	}
	entry.WorkCompleted = input.WorkCompleted

	if err := s.store.CompleteLogEntry(ctx, entry); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return nil, ErrAlreadyCheckedOut
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	log.Info().
		Str("entry_id", entry.ID.String()).
		Str("site", entry.SiteName).
		Dur("duration", entry.Duration()).
		Bool("work_completed", entry.WorkCompleted).
		Msg("Visitor checked out")

	if s.publisher != nil {
		s.publisher.PublishEntryEvent(models.EventEntryCheckedOut, entry)
	}

	return entry, nil
}
