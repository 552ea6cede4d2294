// Package httputil centralizes JSON response envelopes and domain error
// translation so every handler and middleware answers in the same shape.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "registrar/pkg/domain-errors"
)

// ErrorBody is the machine-readable error envelope. No stack traces, no
// store detail; just a code and an operator-facing message.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ToHTTPStatus maps a domain error code to its HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeValidation, dErrors.CodeFailure, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteError translates a coded error into the JSON error envelope.
// Uncoded errors become 500 internal.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := ToHTTPStatus(code)
	message := dErrors.MessageOf(err)
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	WriteJSON(w, status, ErrorBody{Error: string(code), Message: message})
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
