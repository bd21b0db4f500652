package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sitesync/sitesync-server/internal/models"
	"github.com/sitesync/sitesync-server/internal/storage"
)

// ========== Auth handlers ==========

// HandleSignUp registers a user and their organization
func (s *RESTServer) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email            string `json:"email" validate:"required,email"`
		Password         string `json:"password" validate:"required,min=8"`
		FullName         string `json:"full_name" validate:"required,min=2,max=100"`
		OrganizationName string `json:"organization_name" validate:"required,min=2,max=100"`
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

	user := &models.User{
		Email:    req.Email,
		FullName: req.FullName,
		IsActive: true,
		Settings: models.Variables{"password": req.Password},
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if err == storage.ErrDuplicateKey {
			s.respondError(w, http.StatusConflict, "user with this email already exists")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	org := &models.Organization{
		Name:    req.OrganizationName,
		OwnerID: user.ID,
	}
	org.Settings.Features.Analytics = true

	if err := s.store.CreateOrganization(ctx, org); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now()
	member := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           models.RoleOwner,
		JoinedAt:       &now,
	}

	if err := s.store.AddMember(ctx, member); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	accessToken, refreshToken, err := s.auth.GenerateTokenPair(user, &org.ID, models.RoleOwner)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	user.PasswordHash = ""

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"user":          user,
		"organization":  org,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// HandleLogin handles user login
func (s *RESTServer) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email          string     `json:"email" validate:"required,email"`
		Password       string     `json:"password" validate:"required"`
		OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()

	// Get user
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// Verify password
	if !s.auth.VerifyPassword(req.Password, user.PasswordHash) {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// Check user status
	if !user.IsActive {
		s.respondError(w, http.StatusForbidden, "account is disabled")
		return
	}

	orgID, role, err := s.resolveMembership(r, user.ID, req.OrganizationID)
	if err != nil {
		s.respondError(w, http.StatusForbidden, "no organization membership")
		return
	}

	// Generate tokens
	accessToken, refreshToken, err := s.auth.GenerateTokenPair(user, orgID, role)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		log.Warn().Err(err).Msg("Failed to record last login")
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// resolveMembership picks the organization and role for a token. When
// no organization is requested the user's first membership wins.
func (s *RESTServer) resolveMembership(r *http.Request, userID uuid.UUID, requested *uuid.UUID) (*uuid.UUID, models.Role, error) {
	ctx := r.Context()

	if requested != nil {
		member, err := s.store.GetMember(ctx, *requested, userID)
		if err != nil {
			return nil, "", err
		}
		return requested, member.Role, nil
	}

	orgs, err := s.store.ListOrganizationsForUser(ctx, userID)
	if err != nil || len(orgs) == 0 {
		return nil, "", storage.ErrNotFound
	}

	member, err := s.store.GetMember(ctx, orgs[0].ID, userID)
	if err != nil {
		return nil, "", err
	}
	return &orgs[0].ID, member.Role, nil
}

// HandleRefresh handles token refresh
func (s *RESTServer) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken   string     `json:"refresh_token" validate:"required"`
		OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := s.auth.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil || !user.IsActive {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	orgID, role, err := s.resolveMembership(r, user.ID, req.OrganizationID)
	if err != nil {
		s.respondError(w, http.StatusForbidden, "no organization membership")
		return
	}

	accessToken, refreshToken, err := s.auth.GenerateTokenPair(user, orgID, role)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// ========== User handlers ==========

// HandleGetCurrentUser gets the authenticated user's profile
func (s *RESTServer) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	user, err := s.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "user not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user.PasswordHash = ""

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":            user,
		"role":            claims.Role,
		"organization_id": claims.OrganizationID,
	})
}

// HandleUpdateCurrentUser updates the authenticated user's profile
func (s *RESTServer) HandleUpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req struct {
		FullName  string `json:"full_name" validate:"required,min=2,max=100"`
		Phone     string `json:"phone,omitempty"`
		AvatarURL string `json:"avatar_url,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "user not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user.FullName = req.FullName
	user.Phone = req.Phone
	user.AvatarURL = req.AvatarURL

	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user.PasswordHash = ""

	s.respondJSON(w, http.StatusOK, user)
}

// ========== Organization handlers ==========

// HandleListOrganizations lists the caller's organizations
func (s *RESTServer) HandleListOrganizations(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	orgs, err := s.store.ListOrganizationsForUser(r.Context(), claims.UserID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"organizations": orgs,
		"total":         len(orgs),
	})
}

// HandleGetOrganization gets an organization
func (s *RESTServer) HandleGetOrganization(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	if _, err := s.store.GetMember(r.Context(), id, claims.UserID); err != nil {
		s.respondError(w, http.StatusForbidden, "not a member of this organization")
		return
	}

	org, err := s.store.GetOrganization(r.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "organization not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, org)
}

// HandleUpdateOrganization updates an organization's name and settings
func (s *RESTServer) HandleUpdateOrganization(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	member, err := s.store.GetMember(r.Context(), id, claims.UserID)
	if err != nil || !member.Role.CanManageSites() {
		s.respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req struct {
		Name     string                       `json:"name" validate:"required,min=2,max=100"`
		Settings *models.OrganizationSettings `json:"settings,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	org, err := s.store.GetOrganization(r.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "organization not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	org.Name = req.Name
	if req.Settings != nil {
		org.Settings = *req.Settings
	}

	if err := s.store.UpdateOrganization(r.Context(), org); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, org)
}

// ========== Helper methods ==========

// HandleHealth health check
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}

// HandleRoot root handler
func (s *RESTServer) HandleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "SiteSync Server",
		"version": s.config.Server.Version,
		"health":  "/api/v1/health",
	})
}

// respondJSON responds with JSON
func (s *RESTServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError responds with error
func (s *RESTServer) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// audit records an administrative action. Audit failures are logged,
// never surfaced to the caller.
func (s *RESTServer) audit(r *http.Request, orgID uuid.UUID, action models.AuditAction, resourceType string, resourceID *uuid.UUID, metadata models.Variables) {
	claims := claimsFrom(r)

	entry := &models.AuditLog{
		OrganizationID: orgID,
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Metadata:       metadata,
		IPAddress:      r.RemoteAddr,
		UserAgent:      r.UserAgent(),
	}
	if claims != nil {
		entry.UserID = &claims.UserID
	}

	if err := s.store.CreateAuditLog(r.Context(), entry); err != nil {
		log.Warn().Err(err).Str("action", string(action)).Msg("Failed to write audit log")
	}
}

// requireOrg extracts the organization from claims; requests without
// an organization context are rejected.
func (s *RESTServer) requireOrg(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims := claimsFrom(r)
	if claims == nil || claims.OrganizationID == nil {
		s.respondError(w, http.StatusBadRequest, "no organization selected")
		return uuid.Nil, false
	}
	return *claims.OrganizationID, true
}
