package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/wesm/claudesessions/internal/store"
)

// envelope wraps every successful API payload.
type envelope struct {
	Data any `json:"data"`
}

// writeJSON writes v as JSON with the given HTTP status code.
// Logs a warning if JSON encoding fails.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: encoding response: %v", err)
	}
}

// writeData writes v inside the {"data": ...} envelope.
func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, envelope{Data: v})
}

// writeError writes a JSON error response with the given status
// and message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, jsonError{Error: msg})
}

// writeStoreError maps a store failure to a response: invalid
// identifiers are the caller's fault, anything else is ours. The
// underlying error is logged, not returned, since it carries
// filesystem paths.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrInvalidID) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Printf("%s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "failed "+op)
}
