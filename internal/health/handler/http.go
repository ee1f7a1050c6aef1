package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"contract-rbac/internal/platform/httpapi"
)

type statusBody struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ServeHTTP answers GET /healthz with 200 when ready and 503 otherwise.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := s.Ready(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
		httpapi.WriteJSON(w, http.StatusServiceUnavailable, statusBody{Status: "unavailable", Error: err.Error()})
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, statusBody{Status: "ok"})
}
