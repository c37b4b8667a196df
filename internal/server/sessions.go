package server

import (
	"encoding/json"
	"net/http"
)

const maxBatchBodyBytes = 1 << 20

func (s *Server) handleListSessions(
	w http.ResponseWriter, r *http.Request,
) {
	sessions, err := s.store.ListSessions(r.PathValue("hash"))
	if err != nil {
		writeStoreError(w, "listing sessions", err)
		return
	}
	writeData(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(
	w http.ResponseWriter, r *http.Request,
) {
	session, err := s.store.GetSession(
		r.PathValue("hash"), r.PathValue("id"),
	)
	if err != nil {
		writeStoreError(w, "getting session", err)
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeData(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(
	w http.ResponseWriter, r *http.Request,
) {
	ok, err := s.store.DeleteSession(
		r.PathValue("hash"), r.PathValue("id"),
	)
	if err != nil {
		writeStoreError(w, "deleting session", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"deleted": true})
}

type batchDeleteRequest struct {
	SessionIDs []string `json:"sessionIds"`
}

func (s *Server) handleBatchDeleteSessions(
	w http.ResponseWriter, r *http.Request,
) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBatchBodyBytes)
	var req batchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		len(req.SessionIDs) == 0 {
		writeError(w, http.StatusBadRequest, "sessionIds array is required")
		return
	}

	res, err := s.store.DeleteSessions(r.PathValue("hash"), req.SessionIDs)
	if err != nil {
		writeStoreError(w, "batch deleting sessions", err)
		return
	}
	writeData(w, http.StatusOK, res)
}
