package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sitesync/sitesync-server/internal/models"
	"github.com/sitesync/sitesync-server/internal/storage"
	"github.com/sitesync/sitesync-server/pkg/crypto"
)

// HandleListAPIKeys lists the organization's API keys. Only the hash
// is stored so the plaintext key is never shown again.
func (s *RESTServer) HandleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	if !claims.Role.CanManageSites() {
		s.respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	keys, err := s.store.ListAPIKeys(r.Context(), orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"api_keys": keys,
		"total":    len(keys),
	})
}

// HandleCreateAPIKey creates an API key and returns the plaintext key
// once in the creation response
func (s *RESTServer) HandleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
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
		Name        string   `json:"name" validate:"required,min=2,max=100"`
		Permissions []string `json:"permissions,omitempty" validate:"omitempty,dive,oneof=read write"`
		ExpiresIn   int      `json:"expires_in_days,omitempty" validate:"omitempty,min=1,max=3650"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	plaintext, err := crypto.NewAPIKey()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate key")
		return
	}

	permissions := req.Permissions
	if len(permissions) == 0 {
		permissions = []string{"read"}
	}

	key := &models.APIKey{
		OrganizationID: orgID,
		CreatedBy:      claims.UserID,
		Name:           req.Name,
		KeyHash:        crypto.HashAPIKey(plaintext),
		Permissions:    models.StringArray(permissions),
		IsActive:       true,
	}
	if req.ExpiresIn > 0 {
		expires := time.Now().AddDate(0, 0, req.ExpiresIn)
		key.ExpiresAt = &expires
	}

	if err := s.store.CreateAPIKey(r.Context(), key); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(r, orgID, models.AuditAPIKeyCreated, "api_key", &key.ID, models.Variables{"name": key.Name})

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"api_key": key,
		"key":     plaintext,
	})
}

// HandleRevokeAPIKey revokes an API key
func (s *RESTServer) HandleRevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	if !claims.Role.CanManageSites() {
		s.respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	if err := s.store.RevokeAPIKey(r.Context(), id); err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "key not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(r, orgID, models.AuditAPIKeyRevoked, "api_key", &id, nil)

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "key revoked"})
}

// HandleListAuditLogs lists the organization's audit trail
func (s *RESTServer) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	if !claims.Role.CanManageTeam() {
		s.respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	q := r.URL.Query()

	var filters storage.AuditFilters
	if v := q.Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		filters.UserID = &id
	}
	if v := q.Get("action"); v != "" {
		action := models.AuditAction(v)
		filters.Action = &action
	}
	if v := q.Get("resource_type"); v != "" {
		filters.ResourceType = &v
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

	limit, offset := parsePagination(r)

	logs, total, err := s.store.ListAuditLogs(r.Context(), orgID, filters, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"audit_logs": logs,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}
