package logbook

import (
	"sort"
	"strings"

	"github.com/sitesync/sitesync-server/internal/models"
)

// StatusFilter selects entries by visit state
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusActive    StatusFilter = "active"
	StatusCompleted StatusFilter = "completed"
)

// SortDirection for logbook listings
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Filter describes a logbook listing: status partition, free-text
// search and a stable sort on one of the string-valued entry fields.
type Filter struct {
	Status    StatusFilter
	Query     string
	SortKey   string
	Direction SortDirection
}

// Apply returns a new ordered slice of the entries matching the filter.
// The input slice is never mutated and the result is deterministic for
// a given input and configuration.
func (f Filter) Apply(entries []*models.LogEntry) []*models.LogEntry {
	out := make([]*models.LogEntry, 0, len(entries))

	query := strings.ToLower(strings.TrimSpace(f.Query))
	for _, e := range entries {
		if !f.matchStatus(e) {
			continue
		}
		if query != "" && !matchQuery(e, query) {
			continue
		}
		out = append(out, e)
	}

	if f.SortKey != "" {
		desc := f.Direction == SortDesc
		sort.SliceStable(out, func(i, j int) bool {
			a := sortValue(out[i], f.SortKey)
			b := sortValue(out[j], f.SortKey)
			if desc {
				return a > b
			}
			return a < b
		})
	}

	return out
}

func (f Filter) matchStatus(e *models.LogEntry) bool {
	switch f.Status {
	case StatusActive:
		return e.IsActive()
	case StatusCompleted:
		return !e.IsActive()
	default:
		return true
	}
}

// matchQuery performs a case-insensitive substring match across the
// entry's searchable text fields. An entry matches if any field
// contains the query.
func matchQuery(e *models.LogEntry, query string) bool {
	for _, field := range []string{e.SiteName, e.UserName, e.Purpose, e.Notes} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// sortValue extracts the entry's string value for a sort key. Unknown
// keys yield the empty string so the order stays total.
func sortValue(e *models.LogEntry, key string) string {
	switch key {
	case "site_name", "siteName":
		return e.SiteName
	case "user_name", "userName":
		return e.UserName
	case "purpose":
		return e.Purpose
	case "notes":
		return e.Notes
	case "check_in_time", "checkInTime":
		return e.CheckInTime.Format("2006-01-02T15:04:05Z07:00")
	case "check_out_time", "checkOutTime":
		if e.CheckOutTime == nil {
			return ""
		}
		return e.CheckOutTime.Format("2006-01-02T15:04:05Z07:00")
	default:
		return ""
	}
}
