package logbook

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesync/sitesync-server/internal/models"
	"github.com/sitesync/sitesync-server/internal/storage"
)

type capturingPublisher struct {
	events []string
}

func (p *capturingPublisher) PublishEntryEvent(eventType string, entry *models.LogEntry) {
	p.events = append(p.events, eventType)
}

func seedSite(t *testing.T, store storage.Store, orgID uuid.UUID, name, qrCode string) *models.Site {
	t.Helper()
	site := &models.Site{
		Name:   name,
		QRCode: qrCode,
	}
	site.OrganizationID = orgID
	require.NoError(t, store.CreateSite(context.Background(), site))
	return site
}

func TestCheckIn(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	orgID := uuid.New()
	site := seedSite(t, store, orgID, "Warehouse A", "qr-token-1")

	publisher := &capturingPublisher{}
	svc := NewService(store, publisher)

	identity := Identity{UserID: uuid.New(), Name: "Dana Field", Role: models.RoleMember}

	entry, err := svc.CheckIn(ctx, orgID, identity, CheckInInput{
		QRCode:  "qr-token-1",
		Purpose: "Quarterly inspection",
		Notes:   "  gate was open  ",
	})
	require.NoError(t, err)

	assert.Equal(t, site.ID, entry.SiteID)
	assert.Equal(t, "Warehouse A", entry.SiteName)
	assert.Equal(t, identity.UserID, entry.UserID)
	assert.Equal(t, "Dana Field", entry.UserName)
	assert.Equal(t, "Quarterly inspection", entry.Purpose)
	assert.Equal(t, "gate was open", entry.Notes)
	assert.Nil(t, entry.CheckOutTime)
	assert.True(t, entry.IsActive())
	assert.Equal(t, time.UTC, entry.CheckInTime.Location())

	assert.Equal(t, []string{models.EventEntryCheckedIn}, publisher.events)

	stored, err := store.GetLogEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, stored.ID)
}

func TestCheckInValidation(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	orgID := uuid.New()
	seedSite(t, store, orgID, "Warehouse A", "qr-token-1")

	svc := NewService(store, nil)
	identity := Identity{UserID: uuid.New(), Name: "Dana Field"}

	tests := []struct {
		name    string
		orgID   uuid.UUID
		input   CheckInInput
		wantErr error
	}{
		{
			name:    "no organization",
			orgID:   uuid.Nil,
			input:   CheckInInput{QRCode: "qr-token-1", Purpose: "delivery"},
			wantErr: ErrNoOrganization,
		},
		{
			name:    "blank qr code",
			orgID:   orgID,
			input:   CheckInInput{QRCode: "   ", Purpose: "delivery"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "blank purpose",
			orgID:   orgID,
			input:   CheckInInput{QRCode: "qr-token-1", Purpose: ""},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown qr code",
			orgID:   orgID,
			input:   CheckInInput{QRCode: "qr-token-bogus", Purpose: "delivery"},
			wantErr: ErrSiteNotFound,
		},
		{
			name:    "qr code from another organization",
			orgID:   uuid.New(),
			input:   CheckInInput{QRCode: "qr-token-1", Purpose: "delivery"},
			wantErr: ErrSiteNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CheckIn(ctx, tt.orgID, identity, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckInAllowsMultipleActiveVisits(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	orgID := uuid.New()
	seedSite(t, store, orgID, "Warehouse A", "qr-a")
	seedSite(t, store, orgID, "Warehouse B", "qr-b")

	svc := NewService(store, nil)
	identity := Identity{UserID: uuid.New(), Name: "Dana Field"}

	first, err := svc.CheckIn(ctx, orgID, identity, CheckInInput{QRCode: "qr-a", Purpose: "inspection"})
	require.NoError(t, err)
	second, err := svc.CheckIn(ctx, orgID, identity, CheckInInput{QRCode: "qr-b", Purpose: "inspection"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, first.IsActive())
	assert.True(t, second.IsActive())
}

func TestCheckOut(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	orgID := uuid.New()
	seedSite(t, store, orgID, "Warehouse A", "qr-a")

	publisher := &capturingPublisher{}
	svc := NewService(store, publisher)
	identity := Identity{UserID: uuid.New(), Name: "Dana Field"}

	entry, err := svc.CheckIn(ctx, orgID, identity, CheckInInput{QRCode: "qr-a", Purpose: "repair"})
	require.NoError(t, err)

	updated, err := svc.CheckOut(ctx, entry.ID, CheckOutInput{
		Notes:         "replaced the pump",
		WorkCompleted: true,
	})
	require.NoError(t, err)

	require.NotNil(t, updated.CheckOutTime)
	assert.False(t, updated.IsActive())
	assert.Equal(t, models.EntryStatusCompleted, updated.Status())
	assert.Equal(t, "replaced the pump", updated.Notes)
	assert.True(t, updated.WorkCompleted)
	assert.False(t, updated.CheckOutTime.Before(updated.CheckInTime))

	assert.Equal(t, []string{models.EventEntryCheckedIn, models.EventEntryCheckedOut}, publisher.events)
}

func TestCheckOutKeepsNotesWhenBlank(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	orgID := uuid.New()
	seedSite(t, store, orgID, "Warehouse A", "qr-a")

	svc := NewService(store, nil)
	identity := Identity{UserID: uuid.New(), Name: "Dana Field"}

	entry, err := svc.CheckIn(ctx, orgID, identity, CheckInInput{
		QRCode:  "qr-a",
		Purpose: "repair",
		Notes:   "arrived on time",
	})
	require.NoError(t, err)

	updated, err := svc.CheckOut(ctx, entry.ID, CheckOutInput{Notes: "   "})
	require.NoError(t, err)
	assert.Equal(t, "arrived on time", updated.Notes)
}

func TestCheckOutTwice(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	orgID := uuid.New()
	seedSite(t, store, orgID, "Warehouse A", "qr-a")

	svc := NewService(store, nil)
	identity := Identity{UserID: uuid.New(), Name: "Dana Field"}

	entry, err := svc.CheckIn(ctx, orgID, identity, CheckInInput{QRCode: "qr-a", Purpose: "repair"})
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, entry.ID, CheckOutInput{})
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, entry.ID, CheckOutInput{})
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
}

func TestCheckOutUnknownEntry(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewService(store, nil)

	_, err := svc.CheckOut(context.Background(), uuid.New(), CheckOutInput{})
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestCheckOutClampsClockSkew(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	orgID := uuid.New()
	seedSite(t, store, orgID, "Warehouse A", "qr-a")

	svc := NewService(store, nil)
	identity := Identity{UserID: uuid.New(), Name: "Dana Field"}

	// Check in "now", then check out with a clock that runs behind.
	entry, err := svc.CheckIn(ctx, orgID, identity, CheckInInput{QRCode: "qr-a", Purpose: "repair"})
	require.NoError(t, err)

	svc.now = func() time.Time { return entry.CheckInTime.Add(-5 * time.Minute) }

	updated, err := svc.CheckOut(ctx, entry.ID, CheckOutInput{})
	require.NoError(t, err)
	require.NotNil(t, updated.CheckOutTime)
	assert.Equal(t, entry.CheckInTime, *updated.CheckOutTime)
	assert.Equal(t, time.Duration(0), updated.Duration())
}
