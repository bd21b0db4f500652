package logbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sitesync/sitesync-server/internal/models"
)

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil, 0, 0, Window{})

	assert.Equal(t, 0, summary.TotalVisits)
	assert.Equal(t, 0, summary.ActiveVisits)
	assert.Equal(t, 0, summary.AvgVisitDuration)
	assert.Empty(t, summary.VisitsByDay)
	assert.Empty(t, summary.VisitsBySite)
	assert.Empty(t, summary.VisitsByUser)
}

func TestSummarizeTwoSites(t *testing.T) {
	day := time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC)
	out := day.Add(90 * time.Minute)

	entries := []*models.LogEntry{
		makeEntry("Site A", "Ann", "inspection", "", day, &out),
		makeEntry("Site B", "Bob", "delivery", "", day.Add(time.Hour), nil),
	}

	summary := Summarize(entries, 2, 2, Window{})

	assert.Equal(t, 2, summary.TotalVisits)
	assert.Equal(t, 1, summary.ActiveVisits)
	assert.Equal(t, 2, summary.TotalSites)
	assert.Equal(t, 2, summary.TotalUsers)
	assert.Equal(t, 90, summary.AvgVisitDuration)

	assert.Equal(t, []DayCount{{Date: "2026-05-12", Count: 2}}, summary.VisitsByDay)
	assert.Equal(t, []NameCount{{Name: "Site A", Count: 1}, {Name: "Site B", Count: 1}}, summary.VisitsBySite)
	assert.Equal(t, []NameCount{{Name: "Ann", Count: 1}, {Name: "Bob", Count: 1}}, summary.VisitsByUser)
}

func TestSummarizeGroupingOrderIsFirstOccurrence(t *testing.T) {
	base := time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC)

	entries := []*models.LogEntry{
		makeEntry("Zulu", "Zoe", "p", "", base, nil),
		makeEntry("Alpha", "Ann", "p", "", base.Add(time.Minute), nil),
		makeEntry("Zulu", "Ann", "p", "", base.Add(2*time.Minute), nil),
	}

	summary := Summarize(entries, 2, 2, Window{})

	assert.Equal(t, []NameCount{{Name: "Zulu", Count: 2}, {Name: "Alpha", Count: 1}}, summary.VisitsBySite)
	assert.Equal(t, []NameCount{{Name: "Zoe", Count: 1}, {Name: "Ann", Count: 2}}, summary.VisitsByUser)
}

func TestSummarizeSkipsEmptyDays(t *testing.T) {
	entries := []*models.LogEntry{
		makeEntry("Site A", "Ann", "p", "", time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC), nil),
		makeEntry("Site A", "Ann", "p", "", time.Date(2026, 5, 13, 9, 0, 0, 0, time.UTC), nil),
	}

	summary := Summarize(entries, 1, 1, Window{})

	// Two visits three days apart: exactly two pairs, no zero-filled days.
	assert.Equal(t, []DayCount{
		{Date: "2026-05-10", Count: 1},
		{Date: "2026-05-13", Count: 1},
	}, summary.VisitsByDay)
}

func TestSummarizeWindow(t *testing.T) {
	inWindow := time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC)
	outOfWindow := inWindow.AddDate(0, -2, 0)
	out := outOfWindow.Add(time.Hour)

	entries := []*models.LogEntry{
		makeEntry("Site A", "Ann", "p", "", inWindow, nil),
		makeEntry("Site B", "Bob", "p", "", outOfWindow, &out),
		// Still-active old visit: excluded from totals, counted as active.
		makeEntry("Site C", "Cal", "p", "", outOfWindow, nil),
	}

	window := Window{Start: inWindow.AddDate(0, 0, -30)}
	summary := Summarize(entries, 3, 3, window)

	assert.Equal(t, 1, summary.TotalVisits)
	assert.Equal(t, 2, summary.ActiveVisits)
	assert.Equal(t, 0, summary.AvgVisitDuration)
	assert.Equal(t, []NameCount{{Name: "Site A", Count: 1}}, summary.VisitsBySite)
}

func TestSummarizeAverageRounds(t *testing.T) {
	base := time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC)
	outA := base.Add(10 * time.Minute)
	outB := base.Add(15 * time.Minute)

	entries := []*models.LogEntry{
		makeEntry("Site A", "Ann", "p", "", base, &outA),
		makeEntry("Site A", "Bob", "p", "", base, &outB),
	}

	// Mean of 10 and 15 minutes is 12.5, rounded to 13.
	summary := Summarize(entries, 1, 2, Window{})
	assert.Equal(t, 13, summary.AvgVisitDuration)
}

func TestSummarizeIsPure(t *testing.T) {
	base := time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC)
	entries := []*models.LogEntry{
		makeEntry("Site A", "Ann", "p", "", base, nil),
		makeEntry("Site B", "Bob", "p", "", base, nil),
	}

	first := Summarize(entries, 2, 2, Window{})
	second := Summarize(entries, 2, 2, Window{})
	assert.Equal(t, first, second)
}

func TestWindowContains(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		window Window
		t      time.Time
		want   bool
	}{
		{"zero window contains everything", Window{}, start.AddDate(-10, 0, 0), true},
		{"inside", Window{Start: start, End: end}, start.AddDate(0, 0, 15), true},
		{"start is inclusive", Window{Start: start, End: end}, start, true},
		{"end is exclusive", Window{Start: start, End: end}, end, false},
		{"before start", Window{Start: start, End: end}, start.Add(-time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.window.Contains(tt.t))
		})
	}
}
