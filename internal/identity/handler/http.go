// Package handler exposes registration and login over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"contract-rbac/internal/identity/service"
	"contract-rbac/internal/platform/httpapi"
)

// Handler serves the public authentication routes.
type Handler struct {
	auth *service.AuthService
}

// New returns a Handler backed by auth.
func New(auth *service.AuthService) *Handler {
	return &Handler{auth: auth}
}

// Routes registers POST /accounts (register) and POST /sessions (login) on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/accounts", h.register)
	r.Post("/sessions", h.login)
}

type credentialsRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type tokenResponse struct {
	AccountID   string    `json:"account_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	res, err := h.auth.Register(r.Context(), req.Email, req.Secret)
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	w.Header().Set("X-Api-Key", res.AccessToken)
	httpapi.WriteJSON(w, http.StatusCreated, tokenResponse{AccountID: res.AccountID, AccessToken: res.AccessToken, ExpiresAt: res.ExpiresAt})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Secret)
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	w.Header().Set("X-Api-Key", res.AccessToken)
	httpapi.WriteJSON(w, http.StatusOK, tokenResponse{AccountID: res.AccountID, AccessToken: res.AccessToken, ExpiresAt: res.ExpiresAt})
}
