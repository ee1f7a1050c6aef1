// Package httpapi holds the JSON request and response helpers shared by the HTTP handlers.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"contract-rbac/internal/apperr"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its HTTP status and writes an ErrorBody. Internal failures
// are logged and their details withheld from the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("kind", string(kind)).Msg("request failed")
		if kind == apperr.Internal {
			msg = "internal error"
		}
	}
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Msg != "" && status < http.StatusInternalServerError {
		msg = ae.Msg
	}
	WriteJSON(w, status, ErrorBody{Error: string(kind), Message: msg})
}

// DecodeJSON decodes the request body into dst. Unknown fields, trailing data and
// bodies over 1 MiB are InvalidArgument.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, "decode", fmt.Errorf("invalid JSON body: %w", err))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.E(apperr.InvalidArgument, "decode", "body must contain a single JSON object")
	}
	return nil
}
