package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sitesync/sitesync-server/internal/billing"
	"github.com/sitesync/sitesync-server/internal/logbook"
	"github.com/sitesync/sitesync-server/internal/storage"
)

// HandleGetAnalytics aggregates the organization's logbook into a
// dashboard summary. The window defaults to the last 30 days; `days=0`
// requests the all-time view.
func (s *RESTServer) HandleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	plan := billing.GetPlan(org.SubscriptionPlan)
	if !org.Settings.Features.Analytics && plan.ID == "starter" {
		s.respondError(w, http.StatusForbidden, "analytics is not enabled for this organization")
		return
	}

	window := logbook.LastDays(30)
	if v := r.URL.Query().Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 || days > 365 {
			s.respondError(w, http.StatusBadRequest, "invalid days parameter")
			return
		}
		if days == 0 {
			window = logbook.Window{}
		} else {
			window = logbook.LastDays(days)
		}
	}

	entries, _, err := s.store.ListLogEntries(ctx, orgID, storage.EntryFilters{}, 0, 0)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	siteCount, err := s.store.CountSites(ctx, orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	memberCount, err := s.store.CountMembers(ctx, orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summary := logbook.Summarize(entries, int(siteCount), int(memberCount), window)

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"summary":      summary,
		"generated_at": time.Now().UTC(),
	})
}
