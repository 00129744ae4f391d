package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/warp/frontdesk/generic"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps the engine's error taxonomy to a status code:
//
//	ValidationError  400  {error, details: {field}}
//	NotFoundError    404
//	ConflictError    409  {error, details: conflict detail}
//	anything else    500  opaque message, cause logged
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var (
		ve *generic.ValidationError
		ce *generic.ConflictError
		ne *generic.NotFoundError
	)
	switch {
	case errors.Is(err, errUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Missing bearer token"})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Error(), Details: map[string]string{"field": ve.Field}})
	case errors.As(err, &ne):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: ne.Error()})
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: ce.Reason, Details: ce.Detail})
	default:
		log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
	}
}
