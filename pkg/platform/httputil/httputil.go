// Package httputil centralizes JSON response and domain error translation so
// every handler emits the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "reclamacidade/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Unrecognized errors map to 500 without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := string(dErrors.CodeInternal)
	message := "internal error"

	var de *dErrors.Error
	if errors.As(err, &de) {
		status = dErrors.ToHTTPStatus(de.Code)
		code = string(de.Code)
		message = de.Message
	}

	WriteJSON(w, status, map[string]string{
		"error":             code,
		"error_description": message,
	})
}

// DecodeJSON decodes the request body into v, returning a coded error the
// caller can pass straight to WriteError.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
