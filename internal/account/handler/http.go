// Package handler exposes personal account and organization use cases over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"contract-rbac/internal/account/domain"
	"contract-rbac/internal/account/service"
	"contract-rbac/internal/apperr"
	membership "contract-rbac/internal/membership/domain"
	"contract-rbac/internal/platform/httpapi"
	"contract-rbac/internal/server/interceptors"
)

// Handler serves /api/accounts and /api/organizations. Every route expects an
// authenticated caller in the request context.
type Handler struct {
	personal *service.PersonalService
	orgs     *service.OrganizationService
}

// New returns a Handler backed by the given services.
func New(personal *service.PersonalService, orgs *service.OrganizationService) *Handler {
	return &Handler{personal: personal, orgs: orgs}
}

// Routes registers the account and organization routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/accounts/{id}", h.getAccount)
	r.Patch("/accounts/{id}", h.updateAccount)
	r.Delete("/accounts/{id}", h.deleteAccount)

	r.Post("/organizations", h.createOrganization)
	r.Get("/organizations", h.listOrganizations)
	r.Get("/organizations/{orgID}", h.getOrganization)
	r.Patch("/organizations/{orgID}", h.updateOrganization)
	r.Delete("/organizations/{orgID}", h.deleteOrganization)
	r.Get("/organizations/{orgID}/members", h.listMembers)
	r.Post("/organizations/{orgID}/members", h.addMember)
	r.Patch("/organizations/{orgID}/members/{memberID}", h.updateMemberRole)
	r.Delete("/organizations/{orgID}/members/{memberID}", h.removeMember)
}

type personalView struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPersonalView(p *domain.Personal) personalView {
	return personalView{ID: p.ID, Type: string(domain.TypePersonal), Email: p.Email, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

type organizationView struct {
	ID          string                  `json:"id"`
	Type        string                  `json:"type"`
	OwnerID     string                  `json:"owner_id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Members     []membership.Membership `json:"members"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func toOrganizationView(o *domain.Organization) organizationView {
	return organizationView{
		ID:          o.ID,
		Type:        string(domain.TypeOrganization),
		OwnerID:     o.OwnerID,
		Name:        o.Name,
		Description: o.Description,
		Members:     o.Members,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func callerID(r *http.Request) string {
	id, _ := interceptors.GetAccountID(r.Context())
	return id
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	p, err := h.personal.Get(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toPersonalView(p))
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  *string `json:"email"`
		Secret *string `json:"secret"`
	}
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	p, err := h.personal.Update(r.Context(), callerID(r), chi.URLParam(r, "id"), service.UpdatePersonalInput{Email: req.Email, Secret: req.Secret})
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toPersonalView(p))
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.personal.Delete(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type organizationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	org, err := h.orgs.Create(r.Context(), callerID(r), req.Name, req.Description)
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toOrganizationView(org))
}

// listOrganizations returns the caller's owned organizations, or with ?scope=member
// the organizations the caller belongs to as editor or viewer.
func (h *Handler) listOrganizations(w http.ResponseWriter, r *http.Request) {
	var (
		orgs []*domain.Organization
		err  error
	)
	switch r.URL.Query().Get("scope") {
	case "", "owned":
		orgs, err = h.orgs.ListOwned(r.Context(), callerID(r))
	case "member":
		orgs, err = h.orgs.ListMemberOf(r.Context(), callerID(r))
	default:
		err = apperr.E(apperr.InvalidArgument, "organization.list", "scope must be owned or member")
	}
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	out := make([]organizationView, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, toOrganizationView(o))
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.Get(r.Context(), callerID(r), chi.URLParam(r, "orgID"))
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toOrganizationView(org))
}

func (h *Handler) updateOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	org, err := h.orgs.Update(r.Context(), callerID(r), chi.URLParam(r, "orgID"), req.Name, req.Description)
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toOrganizationView(org))
}

func (h *Handler) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	if err := h.orgs.Delete(r.Context(), callerID(r), chi.URLParam(r, "orgID")); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.orgs.ListMembers(r.Context(), callerID(r), chi.URLParam(r, "orgID"))
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, members)
}

type memberRequest struct {
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	org, err := h.orgs.AddMember(r.Context(), callerID(r), chi.URLParam(r, "orgID"), req.MemberID, membership.Role(req.Role))
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toOrganizationView(org))
}

func (h *Handler) updateMemberRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	org, err := h.orgs.UpdateMemberRole(r.Context(), callerID(r), chi.URLParam(r, "orgID"), chi.URLParam(r, "memberID"), membership.Role(req.Role))
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toOrganizationView(org))
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	if _, err := h.orgs.RemoveMember(r.Context(), callerID(r), chi.URLParam(r, "orgID"), chi.URLParam(r, "memberID")); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
