package logbook

import (
	"math"
	"time"

	"github.com/sitesync/sitesync-server/internal/models"
)

// DayCount is one (date, count) pair in the visits-by-day series.
// Date is an ISO calendar date in UTC.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// NameCount is one (name, count) pair in a grouped breakdown
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary is the aggregate view over an organization's logbook
type Summary struct {
	TotalVisits      int         `json:"totalVisits"`
	ActiveVisits     int         `json:"activeVisits"`
	TotalSites       int         `json:"totalSites"`
	TotalUsers       int         `json:"totalUsers"`
	AvgVisitDuration int         `json:"avgVisitDuration"`
	VisitsByDay      []DayCount  `json:"visitsByDay"`
	VisitsBySite     []NameCount `json:"visitsBySite"`
	VisitsByUser     []NameCount `json:"visitsByUser"`
}

// Window restricts aggregation to entries checked in within [Start, End).
// A zero Window means no restriction.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

// LastDays returns a window covering the past n days up to now
func LastDays(n int) Window {
	return Window{Start: time.Now().UTC().AddDate(0, 0, -n)}
}

// Summarize computes exact aggregate counts over the entry set.
// Windowing applies to totals and groupings; active visits are always
// counted against the full set. Average duration is in whole minutes
// over completed entries only, and 0 when none exist. The computation
// is pure: calling it twice on unchanged input yields identical output.
func Summarize(entries []*models.LogEntry, totalSites, totalUsers int, window Window) Summary {
	summary := Summary{
		TotalSites:   totalSites,
		TotalUsers:   totalUsers,
		VisitsByDay:  []DayCount{},
		VisitsBySite: []NameCount{},
		VisitsByUser: []NameCount{},
	}

	dayIndex := map[string]int{}
	siteIndex := map[string]int{}
	userIndex := map[string]int{}

	var totalDuration time.Duration
	var completed int

	for _, e := range entries {
		if e.IsActive() {
			summary.ActiveVisits++
		}

		if !window.Contains(e.CheckInTime) {
			continue
		}

		summary.TotalVisits++

		// Group by UTC calendar date of check-in. Days with no visits
		// produce no pair; the series is not zero-filled.
		day := e.CheckInTime.UTC().Format("2006-01-02")
		if i, ok := dayIndex[day]; ok {
			summary.VisitsByDay[i].Count++
		} else {
			dayIndex[day] = len(summary.VisitsByDay)
			summary.VisitsByDay = append(summary.VisitsByDay, DayCount{Date: day, Count: 1})
		}

		// Groupings use the denormalized names; order is first occurrence.
		if i, ok := siteIndex[e.SiteName]; ok {
			summary.VisitsBySite[i].Count++
		} else {
			siteIndex[e.SiteName] = len(summary.VisitsBySite)
			summary.VisitsBySite = append(summary.VisitsBySite, NameCount{Name: e.SiteName, Count: 1})
		}

		if i, ok := userIndex[e.UserName]; ok {
			summary.VisitsByUser[i].Count++
		} else {
			userIndex[e.UserName] = len(summary.VisitsByUser)
			summary.VisitsByUser = append(summary.VisitsByUser, NameCount{Name: e.UserName, Count: 1})
		}

		if e.CheckOutTime != nil {
			totalDuration += e.Duration()
			completed++
		}
	}

	if completed > 0 {
		summary.AvgVisitDuration = int(math.Round(totalDuration.Minutes() / float64(completed)))
	}

	return summary
}
