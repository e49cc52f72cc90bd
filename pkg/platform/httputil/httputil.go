// Package httputil writes the uniform response envelope used by every
// endpoint: {status, message, data?, errors?}. Handlers never build JSON
// responses by hand.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "propmarket/pkg/domain-errors"
)

// Envelope is the wire shape of every API response.
type Envelope struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Data    any                  `json:"data,omitempty"`
	Errors  []dErrors.FieldError `json:"errors,omitempty"`
}

// WriteSuccess writes a success envelope with the given status code.
func WriteSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	write(w, statusCode, Envelope{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// WriteError translates a domain error onto the envelope. Internal errors are
// collapsed to a generic message so storage detail never leaks to callers;
// the handler is responsible for logging the full error server-side.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := "internal server error"
	var fields []dErrors.FieldError

	var de *dErrors.Error
	if errors.As(err, &de) && de.Code != dErrors.CodeInternal {
		message = de.Message
		fields = de.Fields
	}

	write(w, dErrors.ToHTTPStatus(code), Envelope{
		Status:  "error",
		Message: message,
		Errors:  fields,
	})
}

func write(w http.ResponseWriter, statusCode int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(env)
}
