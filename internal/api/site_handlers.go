package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sitesync/sitesync-server/internal/billing"
	"github.com/sitesync/sitesync-server/internal/models"
	"github.com/sitesync/sitesync-server/internal/storage"
	"github.com/sitesync/sitesync-server/pkg/crypto"
)

// HandleListSites lists the organization's sites
func (s *RESTServer) HandleListSites(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	limit, offset := parsePagination(r)

	sites, total, err := s.store.ListSites(r.Context(), orgID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sites":  sites,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// HandleCreateSite creates a new site with a generated QR token
func (s *RESTServer) HandleCreateSite(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	if !claims.Role.CanManageSites() {
		s.respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req struct {
		Name     string           `json:"name" validate:"required,min=2,max=100"`
		Address  string           `json:"address,omitempty" validate:"omitempty,max=255"`
		Settings models.Variables `json:"settings,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	// Enforce the subscription's site limit
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	plan := billing.GetPlan(org.SubscriptionPlan)
	if plan.Limits.Sites != billing.Unlimited {
		count, err := s.store.CountSites(ctx, orgID)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if count >= int64(plan.Limits.Sites) {
			s.respondError(w, http.StatusForbidden, "site limit reached for current plan")
			return
		}
	}

	qrCode, err := crypto.NewQRToken()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate QR token")
		return
	}

	site := &models.Site{
		Name:      req.Name,
		Address:   req.Address,
		QRCode:    qrCode,
		Settings:  req.Settings,
		CreatedBy: claims.UserID,
	}
	site.OrganizationID = orgID

	if err := s.store.CreateSite(ctx, site); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(r, orgID, models.AuditSiteCreated, "site", &site.ID, models.Variables{"name": site.Name})

	if s.publisher != nil {
		s.publisher.PublishSiteEvent(models.EventSiteCreated, site)
	}

	s.respondJSON(w, http.StatusCreated, site)
}

// HandleGetSite gets a site
func (s *RESTServer) HandleGetSite(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	site, ok := s.siteFromRequest(w, r, orgID)
	if !ok {
		return
	}

	s.respondJSON(w, http.StatusOK, site)
}

// HandleUpdateSite updates a site. The QR token is immutable; printed
// codes in the field must keep working.
func (s *RESTServer) HandleUpdateSite(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	if !claims.Role.CanManageSites() {
		s.respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	site, ok := s.siteFromRequest(w, r, orgID)
	if !ok {
		return
	}

	var req struct {
		Name     string           `json:"name" validate:"required,min=2,max=100"`
		Address  string           `json:"address,omitempty" validate:"omitempty,max=255"`
		Settings models.Variables `json:"settings,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	site.Name = req.Name
	site.Address = req.Address
	if req.Settings != nil {
		site.Settings = req.Settings
	}

	if err := s.store.UpdateSite(r.Context(), site); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(r, orgID, models.AuditSiteUpdated, "site", &site.ID, models.Variables{"name": site.Name})

	s.respondJSON(w, http.StatusOK, site)
}

// HandleDeleteSite deletes a site
func (s *RESTServer) HandleDeleteSite(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	if !claims.Role.CanManageSites() {
		s.respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	site, ok := s.siteFromRequest(w, r, orgID)
	if !ok {
		return
	}

	if err := s.store.DeleteSite(r.Context(), site.ID); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(r, orgID, models.AuditSiteDeleted, "site", &site.ID, models.Variables{"name": site.Name})

	if s.publisher != nil {
		s.publisher.PublishSiteEvent(models.EventSiteDeleted, site)
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "site deleted"})
}

// siteFromRequest loads the site named in the URL and checks it
// belongs to the caller's organization.
func (s *RESTServer) siteFromRequest(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) (*models.Site, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid site id")
		return nil, false
	}

	site, err := s.store.GetSite(r.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "site not found")
			return nil, false
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	if site.OrganizationID != orgID {
		s.respondError(w, http.StatusNotFound, "site not found")
		return nil, false
	}

	return site, true
}

// parsePagination reads limit/offset query params with sane defaults
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
