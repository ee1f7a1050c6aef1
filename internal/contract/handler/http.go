// Package handler exposes contract use cases over HTTP for personal and organization owners.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"contract-rbac/internal/contract/domain"
	"contract-rbac/internal/contract/service"
	"contract-rbac/internal/platform/httpapi"
	"contract-rbac/internal/server/interceptors"
)

// Handler serves /api/contracts and /api/organizations/{orgID}/contracts.
type Handler struct {
	svc *service.ContractService
}

// New returns a Handler backed by svc.
func New(svc *service.ContractService) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the contract routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/contracts", h.listPersonal)
	r.Post("/contracts", h.createPersonal)
	r.Get("/contracts/{contractID}", h.getPersonal)
	r.Patch("/contracts/{contractID}", h.updatePersonal)
	r.Delete("/contracts/{contractID}", h.deletePersonal)

	r.Get("/organizations/{orgID}/contracts", h.listForOrg)
	r.Post("/organizations/{orgID}/contracts", h.createForOrg)
	r.Get("/organizations/{orgID}/contracts/{contractID}", h.getForOrg)
	r.Patch("/organizations/{orgID}/contracts/{contractID}", h.updateForOrg)
	r.Delete("/organizations/{orgID}/contracts/{contractID}", h.deleteForOrg)
}

type contractView struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	OwnerID     string    `json:"owner_id"`
	OwnerType   string    `json:"owner_type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toView(c *domain.Contract) contractView {
	return contractView{
		ID:          c.ID,
		Kind:        string(c.Kind()),
		OwnerID:     c.Owner.ID,
		OwnerType:   string(c.Owner.Type),
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toViews(cs []*domain.Contract) []contractView {
	out := make([]contractView, 0, len(cs))
	for _, c := range cs {
		out = append(out, toView(c))
	}
	return out
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (u updateRequest) input() service.UpdateContractInput {
	return service.UpdateContractInput{Name: u.Name, Description: u.Description}
}

func callerID(r *http.Request) string {
	id, _ := interceptors.GetAccountID(r.Context())
	return id
}

func (h *Handler) listPersonal(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.ListPersonal(r.Context(), callerID(r))
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toViews(cs))
}

func (h *Handler) createPersonal(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	c, err := h.svc.CreatePersonal(r.Context(), callerID(r), req.Name, req.Description)
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toView(c))
}

func (h *Handler) getPersonal(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetPersonal(r.Context(), callerID(r), chi.URLParam(r, "contractID"))
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) updatePersonal(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	c, err := h.svc.UpdatePersonal(r.Context(), callerID(r), chi.URLParam(r, "contractID"), req.input())
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) deletePersonal(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePersonal(r.Context(), callerID(r), chi.URLParam(r, "contractID")); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listForOrg(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.ListForOrg(r.Context(), callerID(r), chi.URLParam(r, "orgID"))
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toViews(cs))
}

func (h *Handler) createForOrg(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	c, err := h.svc.CreateForOrg(r.Context(), callerID(r), chi.URLParam(r, "orgID"), req.Name, req.Description)
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toView(c))
}

func (h *Handler) getForOrg(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetForOrg(r.Context(), callerID(r), chi.URLParam(r, "orgID"), chi.URLParam(r, "contractID"))
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) updateForOrg(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	c, err := h.svc.UpdateForOrg(r.Context(), callerID(r), chi.URLParam(r, "orgID"), chi.URLParam(r, "contractID"), req.input())
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) deleteForOrg(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteForOrg(r.Context(), callerID(r), chi.URLParam(r, "orgID"), chi.URLParam(r, "contractID")); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
