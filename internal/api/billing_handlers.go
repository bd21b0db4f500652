package api

import (
	"net/http"
	"sort"

	"github.com/sitesync/sitesync-server/internal/billing"
)

// HandleListPlans returns the subscription plan catalog
func (s *RESTServer) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	plans := make([]billing.Plan, 0, len(billing.Plans))
	for _, p := range billing.Plans {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Price < plans[j].Price })

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"plans": plans,
	})
}

// HandleGetSubscription returns the organization's subscription state
func (s *RESTServer) HandleGetSubscription(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	org, err := s.store.GetOrganization(r.Context(), orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": org.SubscriptionStatus,
		"plan":   billing.GetPlan(org.SubscriptionPlan),
	})
}

// HandleGetUsage returns consumption against the current plan's limits
func (s *RESTServer) HandleGetUsage(w http.ResponseWriter, r *http.Request) {
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

	memberCount, err := s.store.CountMembers(ctx, orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	siteCount, err := s.store.CountSites(ctx, orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	usage := billing.ComputeUsage(billing.GetPlan(org.SubscriptionPlan), billing.Counts{
		Users: int(memberCount),
		Sites: int(siteCount),
	})

	s.respondJSON(w, http.StatusOK, usage)
}
