// Package handler implements the HTTP API over the view engine.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/matthewbaird/tapestry/internal/engine"
	"github.com/matthewbaird/tapestry/internal/graph"
	"github.com/matthewbaird/tapestry/internal/view"
	"github.com/matthewbaird/tapestry/internal/vtl"
)

// writeJSON marshals v as JSON and writes it with the given status code.
// Encode errors mean the client went away; there is nothing useful to do.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// engineErrorToHTTP maps engine errors to HTTP responses.
func engineErrorToHTTP(w http.ResponseWriter, log *zap.Logger, err error) {
	var nf *engine.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	var mv *view.MalformedViewError
	if errors.As(err, &mv) {
		writeError(w, http.StatusUnprocessableEntity, "MALFORMED_VIEW", err.Error())
		return
	}
	var pe *graph.PreconditionError
	if errors.As(err, &pe) {
		writeError(w, http.StatusPreconditionFailed, "PRECONDITION_FAILED", err.Error())
		return
	}
	var parseErr *vtl.ParseError
	if errors.As(err, &parseErr) {
		writeError(w, http.StatusUnprocessableEntity, "PARSE_ERROR", err.Error())
		return
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
