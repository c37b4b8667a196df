package server

import (
	"log"
	"net/http"
	"time"
)

// handleEvents streams change notifications as SSE. The client
// gets a "connected" event first, then one "session-change" event
// per watcher event and a "heartbeat" while idle. Events missed
// while disconnected are not replayed; clients re-fetch instead.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	stream, err := NewSSEStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id, ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(id)

	if !stream.SendJSON("connected", map[string]string{"id": id}) {
		return
	}

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				stream.Send("shutdown", "{}")
				return
			}
			if !stream.SendJSON("session-change", ev) {
				log.Printf("events: dropping subscriber %s", id)
				return
			}
		case t := <-heartbeat.C:
			if !stream.Send("heartbeat", t.UTC().Format(time.RFC3339)) {
				return
			}
		}
	}
}
