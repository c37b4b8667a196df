package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

const (
	sseWriteTimeout = 3 * time.Second
	// sseRetry is the reconnect delay suggested to EventSource
	// clients when the stream drops.
	sseRetry = 3 * time.Second
)

var errStreamingUnsupported = errors.New("streaming not supported")

// SSEStream writes Server-Sent Events to one client.
type SSEStream struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewSSEStream sets the event-stream headers, sends the retry
// hint and flushes. It fails when w cannot stream.
func NewSSEStream(w http.ResponseWriter) (*SSEStream, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "retry: %d\n\n", sseRetry.Milliseconds())
	f.Flush()
	return &SSEStream{w: w, f: f}, nil
}

// Send writes one named event. It returns false when the client
// is gone or the write stalls past sseWriteTimeout.
func (s *SSEStream) Send(event, data string) bool {
	rc := http.NewResponseController(s.w)
	_ = rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout))
	defer func() { _ = rc.SetWriteDeadline(time.Time{}) }()

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		log.Printf("SSE write error for %q: %v", event, err)
		return false
	}
	s.f.Flush()
	return true
}

// SendJSON writes an event whose data is v encoded as JSON.
func (s *SSEStream) SendJSON(event string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("SSE marshal error for %q: %v", event, err)
		return false
	}
	return s.Send(event, string(data))
}
