package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies accepted by the JSON handlers
const maxBodyBytes = 1 << 20

// responder writes JSON responses for a handler
type responder struct {
	logger zerolog.Logger
}

// jsonResponse writes a JSON response
func (h responder) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h responder) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}

// decodeJSON reads a size-limited JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
