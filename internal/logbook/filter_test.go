package logbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sitesync/sitesync-server/internal/models"
)

func makeEntry(site, user, purpose, notes string, checkIn time.Time, checkOut *time.Time) *models.LogEntry {
	return &models.LogEntry{
		SiteName:     site,
		UserName:     user,
		Purpose:      purpose,
		Notes:        notes,
		CheckInTime:  checkIn,
		CheckOutTime: checkOut,
	}
}

func entryNames(entries []*models.LogEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.SiteName
	}
	return names
}

func TestFilterStatus(t *testing.T) {
	now := time.Now().UTC()
	out := now.Add(time.Hour)

	entries := []*models.LogEntry{
		makeEntry("Alpha", "Ann", "delivery", "", now, nil),
		makeEntry("Bravo", "Bob", "repair", "", now, &out),
		makeEntry("Charlie", "Cal", "audit", "", now, nil),
	}

	tests := []struct {
		name   string
		status StatusFilter
		want   []string
	}{
		{"all", StatusAll, []string{"Alpha", "Bravo", "Charlie"}},
		{"active", StatusActive, []string{"Alpha", "Charlie"}},
		{"completed", StatusCompleted, []string{"Bravo"}},
		{"unset defaults to all", "", []string{"Alpha", "Bravo", "Charlie"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter{Status: tt.status}.Apply(entries)
			assert.Equal(t, tt.want, entryNames(got))
		})
	}
}

func TestFilterQuery(t *testing.T) {
	now := time.Now().UTC()

	entries := []*models.LogEntry{
		makeEntry("North Depot", "Ann Smith", "Monthly inspection", "", now, nil),
		makeEntry("South Depot", "Bob Jones", "Emergency repair", "pump leak", now, nil),
		makeEntry("East Yard", "Cal Reyes", "Delivery", "", now, nil),
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"matches site name", "depot", []string{"North Depot", "South Depot"}},
		{"matches user name case-insensitively", "SMITH", []string{"North Depot"}},
		{"matches purpose", "repair", []string{"South Depot"}},
		{"matches notes", "leak", []string{"South Depot"}},
		{"no match", "helicopter", []string{}},
		{"blank query matches everything", "  ", []string{"North Depot", "South Depot", "East Yard"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter{Query: tt.query}.Apply(entries)
			assert.Equal(t, tt.want, entryNames(got))
		})
	}
}

func TestFilterSort(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	out := base.Add(2 * time.Hour)

	entries := []*models.LogEntry{
		makeEntry("Bravo", "Zoe", "b-purpose", "", base.Add(time.Hour), nil),
		makeEntry("Alpha", "Ann", "a-purpose", "", base, &out),
		makeEntry("Charlie", "Mia", "c-purpose", "", base.Add(2*time.Hour), nil),
	}

	t.Run("sort by site name ascending", func(t *testing.T) {
		got := Filter{SortKey: "site_name", Direction: SortAsc}.Apply(entries)
		assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, entryNames(got))
	})

	t.Run("sort by site name descending", func(t *testing.T) {
		got := Filter{SortKey: "site_name", Direction: SortDesc}.Apply(entries)
		assert.Equal(t, []string{"Charlie", "Bravo", "Alpha"}, entryNames(got))
	})

	t.Run("sort by check-in time", func(t *testing.T) {
		got := Filter{SortKey: "check_in_time", Direction: SortAsc}.Apply(entries)
		assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, entryNames(got))
	})

	t.Run("active entries sort first on check-out time ascending", func(t *testing.T) {
		got := Filter{SortKey: "check_out_time", Direction: SortAsc}.Apply(entries)
		// Active entries have no check-out, i.e. the empty string.
		assert.Equal(t, []string{"Bravo", "Charlie", "Alpha"}, entryNames(got))
	})

	t.Run("unknown key preserves input order", func(t *testing.T) {
		got := Filter{SortKey: "bogus", Direction: SortAsc}.Apply(entries)
		assert.Equal(t, []string{"Bravo", "Alpha", "Charlie"}, entryNames(got))
	})

	t.Run("camelCase alias", func(t *testing.T) {
		got := Filter{SortKey: "siteName", Direction: SortAsc}.Apply(entries)
		assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, entryNames(got))
	})
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	now := time.Now().UTC()

	entries := []*models.LogEntry{
		makeEntry("Bravo", "Bob", "x", "", now, nil),
		makeEntry("Alpha", "Ann", "y", "", now, nil),
	}

	_ = Filter{SortKey: "site_name", Direction: SortAsc}.Apply(entries)

	assert.Equal(t, []string{"Bravo", "Alpha"}, entryNames(entries))
}

func TestFilterDeterministic(t *testing.T) {
	now := time.Now().UTC()

	entries := []*models.LogEntry{
		makeEntry("Same", "One", "p", "", now, nil),
		makeEntry("Same", "Two", "p", "", now, nil),
		makeEntry("Same", "Three", "p", "", now, nil),
	}

	first := Filter{SortKey: "site_name", Direction: SortAsc}.Apply(entries)
	second := Filter{SortKey: "site_name", Direction: SortAsc}.Apply(entries)

	// Equal keys keep their relative order on every run.
	for i := range first {
		assert.Same(t, first[i], second[i])
	}
	assert.Equal(t, []string{"One", "Two", "Three"}, func() []string {
		users := make([]string, len(first))
		for i, e := range first {
			users[i] = e.UserName
		}
		return users
	}())
}
