package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sitesync/sitesync-server/internal/logbook"
	"github.com/sitesync/sitesync-server/internal/models"
	"github.com/sitesync/sitesync-server/internal/storage"
)

// HandleCheckIn creates a new visit by scanning a site QR token
func (s *RESTServer) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	var req struct {
		QRCode  string `json:"qr_code" validate:"required"`
		Purpose string `json:"purpose" validate:"required,min=2,max=255"`
		Notes   string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity := logbook.Identity{
		UserID: claims.UserID,
		Name:   claims.Name,
		Role:   claims.Role,
	}

	entry, err := s.lifecycle.CheckIn(r.Context(), orgID, identity, logbook.CheckInInput{
		QRCode:  req.QRCode,
		Purpose: req.Purpose,
		Notes:   req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, logbook.ErrSiteNotFound):
			s.respondError(w, http.StatusNotFound, "no site matches this QR code")
		case errors.Is(err, logbook.ErrInvalidInput):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, logbook.ErrNoOrganization):
			s.respondError(w, http.StatusBadRequest, "no organization selected")
		default:
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.audit(r, orgID, models.AuditEntryCheckIn, "log_entry", &entry.ID, models.Variables{"site": entry.SiteName})

	s.respondJSON(w, http.StatusCreated, entry)
}

// HandleCheckOut completes an active visit
func (s *RESTServer) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	entry, ok := s.entryFromRequest(w, r, orgID)
	if !ok {
		return
	}

	var req struct {
		Notes         string `json:"notes,omitempty" validate:"omitempty,max=2000"`
		WorkCompleted bool   `json:"work_completed,omitempty"`
	}

	// An empty body is a valid check-out
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.lifecycle.CheckOut(r.Context(), entry.ID, logbook.CheckOutInput{
		Notes:         req.Notes,
		WorkCompleted: req.WorkCompleted,
	})
	if err != nil {
		switch {
		case errors.Is(err, logbook.ErrAlreadyCheckedOut):
			s.respondError(w, http.StatusConflict, "entry is already checked out")
		case errors.Is(err, logbook.ErrEntryNotFound):
			s.respondError(w, http.StatusNotFound, "entry not found")
		default:
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.audit(r, orgID, models.AuditEntryCheckOut, "log_entry", &updated.ID, models.Variables{"site": updated.SiteName})

	s.respondJSON(w, http.StatusOK, updated)
}

// HandleListEntries lists log entries with status, search and sort
// applied in memory on top of the persistence-level filters.
func (s *RESTServer) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()

	var filters storage.EntryFilters
	if v := q.Get("site_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid site_id")
			return
		}
		filters.SiteID = &id
	}
	if v := q.Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		filters.UserID = &id
	}
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid start time")
			return
		}
		filters.StartTime = &t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid end time")
			return
		}
		filters.EndTime = &t
	}

	entries, _, err := s.store.ListLogEntries(r.Context(), orgID, filters, 0, 0)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filter := logbook.Filter{
		Status:    logbook.StatusAll,
		Query:     q.Get("q"),
		SortKey:   q.Get("sort"),
		Direction: logbook.SortDesc,
	}
	switch q.Get("status") {
	case "active":
		filter.Status = logbook.StatusActive
	case "completed":
		filter.Status = logbook.StatusCompleted
	}
	if q.Get("dir") == "asc" {
		filter.Direction = logbook.SortAsc
	}

	filtered := filter.Apply(entries)

	// Paginate after filtering so totals reflect what matched
	limit, offset := parsePagination(r)
	total := len(filtered)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": filtered[offset:end],
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// HandleGetEntry gets a log entry
func (s *RESTServer) HandleGetEntry(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	entry, ok := s.entryFromRequest(w, r, orgID)
	if !ok {
		return
	}

	s.respondJSON(w, http.StatusOK, entry)
}

// HandleDeleteEntry deletes a log entry. Managers and above only.
func (s *RESTServer) HandleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	if !claims.Role.CanManageTeam() {
		s.respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	entry, ok := s.entryFromRequest(w, r, orgID)
	if !ok {
		return
	}

	if err := s.store.DeleteLogEntry(r.Context(), entry.ID); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(r, orgID, models.AuditEntryDeleted, "log_entry", &entry.ID, nil)

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "entry deleted"})
}

// entryFromRequest loads the entry named in the URL and checks it
// belongs to the caller's organization.
func (s *RESTServer) entryFromRequest(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) (*models.LogEntry, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid entry id")
		return nil, false
	}

	entry, err := s.store.GetLogEntry(r.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "entry not found")
			return nil, false
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	if entry.OrganizationID != orgID {
		s.respondError(w, http.StatusNotFound, "entry not found")
		return nil, false
	}

	return entry, true
}
