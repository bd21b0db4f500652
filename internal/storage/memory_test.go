package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesync/sitesync-server/internal/models"
	"github.com/sitesync/sitesync-server/pkg/crypto"
)

func TestMemoryStoreUsers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	user := &models.User{
		Email:    "ann@example.com",
		FullName: "Ann Smith",
		IsActive: true,
		Settings: models.Variables{"password": "hunter2-hunter2"},
	}
	require.NoError(t, store.CreateUser(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	// Password is hashed at create and removed from settings.
	assert.NotEmpty(t, user.PasswordHash)
	assert.True(t, crypto.VerifyPassword("hunter2-hunter2", user.PasswordHash))
	_, hasPassword := user.Settings["password"]
	assert.False(t, hasPassword)

	// Duplicate email rejected.
	err := store.CreateUser(ctx, &models.User{Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	byEmail, err := store.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = store.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSiteQRScope(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	orgA := uuid.New()
	orgB := uuid.New()

	siteA := &models.Site{Name: "Depot", QRCode: "shared-token"}
	siteA.OrganizationID = orgA
	require.NoError(t, store.CreateSite(ctx, siteA))

	// The same token may exist in a different organization.
	siteB := &models.Site{Name: "Depot", QRCode: "shared-token"}
	siteB.OrganizationID = orgB
	require.NoError(t, store.CreateSite(ctx, siteB))

	// But not twice within one.
	dup := &models.Site{Name: "Other", QRCode: "shared-token"}
	dup.OrganizationID = orgA
	assert.ErrorIs(t, store.CreateSite(ctx, dup), ErrDuplicateKey)

	found, err := store.FindSiteByQRCode(ctx, orgA, "shared-token")
	require.NoError(t, err)
	assert.Equal(t, siteA.ID, found.ID)

	_, err = store.FindSiteByQRCode(ctx, uuid.New(), "shared-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSiteQRImmutable(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	site := &models.Site{Name: "Depot", QRCode: "original-token"}
	site.OrganizationID = uuid.New()
	require.NoError(t, store.CreateSite(ctx, site))

	site.Name = "Depot Renamed"
	site.QRCode = "tampered-token"
	require.NoError(t, store.UpdateSite(ctx, site))

	stored, err := store.GetSite(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, "Depot Renamed", stored.Name)
	assert.Equal(t, "original-token", stored.QRCode)
}

func TestCompleteLogEntryCAS(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entry := &models.LogEntry{
		SiteName:    "Depot",
		UserName:    "Ann",
		Purpose:     "repair",
		CheckInTime: time.Now().UTC().Truncate(time.Second),
	}
	entry.OrganizationID = uuid.New()
	require.NoError(t, store.CreateLogEntry(ctx, entry))

	out := entry.CheckInTime.Add(time.Hour)
	first := *entry
	first.CheckOutTime = &out
	require.NoError(t, store.CompleteLogEntry(ctx, &first))

	// The second writer lost the race.
	second := *entry
	second.CheckOutTime = &out
	assert.ErrorIs(t, store.CompleteLogEntry(ctx, &second), ErrConflict)

	missing := *entry
	missing.ID = uuid.New()
	assert.ErrorIs(t, store.CompleteLogEntry(ctx, &missing), ErrNotFound)
}

func TestCompleteLogEntryConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entry := &models.LogEntry{
		SiteName:    "Depot",
		UserName:    "Ann",
		CheckInTime: time.Now().UTC().Truncate(time.Second),
	}
	entry.OrganizationID = uuid.New()
	require.NoError(t, store.CreateLogEntry(ctx, entry))

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := time.Now().UTC()
			attempt := *entry
			attempt.CheckOutTime = &out
			results <- store.CompleteLogEntry(ctx, &attempt)
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch err {
		case nil:
			wins++
		case ErrConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, writers-1, conflicts)
}

func TestMemoryStoreListLogEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	orgID := uuid.New()
	siteID := uuid.New()
	userID := uuid.New()
	base := time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		entry := &models.LogEntry{
			SiteID:      siteID,
			UserID:      userID,
			CheckInTime: base.Add(time.Duration(i) * time.Hour),
		}
		entry.OrganizationID = orgID
		require.NoError(t, store.CreateLogEntry(ctx, entry))
	}

	other := &models.LogEntry{SiteID: uuid.New(), CheckInTime: base}
	other.OrganizationID = uuid.New()
	require.NoError(t, store.CreateLogEntry(ctx, other))

	entries, total, err := store.ListLogEntries(ctx, orgID, EntryFilters{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, entries, 5)

	// Newest first.
	assert.Equal(t, base.Add(4*time.Hour), entries[0].CheckInTime)

	start := base.Add(2 * time.Hour)
	end := base.Add(4 * time.Hour)
	entries, total, err = store.ListLogEntries(ctx, orgID, EntryFilters{StartTime: &start, EndTime: &end}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, entries, 2)

	entries, total, err = store.ListLogEntries(ctx, orgID, EntryFilters{SiteID: &siteID}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, entries, 2)
}

func TestMemoryStoreMembers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	orgID := uuid.New()
	userID := uuid.New()

	member := &models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           models.RoleAdmin,
	}
	require.NoError(t, store.AddMember(ctx, member))
	assert.ErrorIs(t, store.AddMember(ctx, &models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         userID,
	}), ErrDuplicateKey)

	member.Role = models.RoleManager
	require.NoError(t, store.UpdateMember(ctx, member))

	got, err := store.GetMember(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, got.Role)

	count, err := store.CountMembers(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, store.RemoveMember(ctx, orgID, userID))
	_, err = store.GetMember(ctx, orgID, userID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreAPIKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	orgID := uuid.New()
	key := &models.APIKey{
		OrganizationID: orgID,
		Name:           "ci",
		KeyHash:        "hash-1",
		IsActive:       true,
	}
	require.NoError(t, store.CreateAPIKey(ctx, key))

	got, err := store.GetAPIKeyByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, key.ID, got.ID)

	require.NoError(t, store.RevokeAPIKey(ctx, key.ID))

	// Revoked keys no longer resolve.
	_, err = store.GetAPIKeyByHash(ctx, "hash-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
