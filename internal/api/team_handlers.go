package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sitesync/sitesync-server/internal/billing"
	"github.com/sitesync/sitesync-server/internal/models"
	"github.com/sitesync/sitesync-server/internal/storage"
)

// memberView joins a membership with the member's profile
type memberView struct {
	*models.OrganizationMember
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// HandleListMembers lists the organization's team
func (s *RESTServer) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	limit, offset := parsePagination(r)

	members, total, err := s.store.ListMembers(r.Context(), orgID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]memberView, 0, len(members))
	for _, m := range members {
		view := memberView{OrganizationMember: m}
		if user, err := s.store.GetUser(r.Context(), m.UserID); err == nil {
			view.Email = user.Email
			view.FullName = user.FullName
		}
		views = append(views, view)
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"members": views,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// HandleInviteMember adds an existing user to the organization
func (s *RESTServer) HandleInviteMember(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	if !claims.Role.CanManageTeam() {
		s.respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req struct {
		Email string      `json:"email" validate:"required,email"`
		Role  models.Role `json:"role" validate:"required,oneof=admin manager member"`
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

	// Enforce the subscription's team size limit
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	plan := billing.GetPlan(org.SubscriptionPlan)
	if plan.Limits.Users != billing.Unlimited {
		count, err := s.store.CountMembers(ctx, orgID)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if count >= int64(plan.Limits.Users) {
			s.respondError(w, http.StatusForbidden, "team member limit reached for current plan")
			return
		}
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "no user with this email")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now()
	member := &models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         user.ID,
		Role:           req.Role,
		InvitedBy:      &claims.UserID,
		InvitedAt:      &now,
		JoinedAt:       &now,
	}

	if err := s.store.AddMember(ctx, member); err != nil {
		if err == storage.ErrDuplicateKey {
			s.respondError(w, http.StatusConflict, "user is already a member")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(r, orgID, models.AuditMemberInvited, "member", &user.ID, models.Variables{"email": user.Email, "role": string(req.Role)})

	s.respondJSON(w, http.StatusCreated, member)
}

// HandleUpdateMember changes a member's role
func (s *RESTServer) HandleUpdateMember(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	if !claims.Role.CanManageTeam() {
		s.respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		Role models.Role `json:"role" validate:"required,oneof=admin manager member"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := s.store.GetMember(r.Context(), orgID, userID)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "member not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if member.Role == models.RoleOwner {
		s.respondError(w, http.StatusForbidden, "cannot change the owner's role")
		return
	}

	member.Role = req.Role

	if err := s.store.UpdateMember(r.Context(), member); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(r, orgID, models.AuditMemberUpdated, "member", &userID, models.Variables{"role": string(req.Role)})

	s.respondJSON(w, http.StatusOK, member)
}

// HandleRemoveMember removes a member from the organization
func (s *RESTServer) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID, ok := s.requireOrg(w, r)
	if !ok {
		return
	}

	if !claims.Role.CanManageTeam() {
		s.respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	member, err := s.store.GetMember(r.Context(), orgID, userID)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "member not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if member.Role == models.RoleOwner {
		s.respondError(w, http.StatusForbidden, "cannot remove the organization owner")
		return
	}

	if err := s.store.RemoveMember(r.Context(), orgID, userID); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(r, orgID, models.AuditMemberRemoved, "member", &userID, nil)

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "member removed"})
}
