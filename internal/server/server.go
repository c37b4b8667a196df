// Package server exposes the session store over a JSON REST API
// and pushes change notifications to browsers over SSE.
package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/wesm/claudesessions/internal/config"
	"github.com/wesm/claudesessions/internal/store"
	"github.com/wesm/claudesessions/internal/watch"
)

const defaultHeartbeat = 30 * time.Second

// VersionInfo holds build-time version metadata.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Server is the HTTP server for the REST API and event stream.
type Server struct {
	mu        sync.RWMutex
	cfg       config.Config
	store     *store.Store
	hub       *Hub
	mux       *http.ServeMux
	httpSrv   *http.Server
	version   VersionInfo
	heartbeat time.Duration

	// handlerDelay is injected before each timeout-wrapped
	// handler, used only by tests to guarantee handlers
	// exceed a short timeout. Zero in production.
	handlerDelay time.Duration
}

// New creates a new Server.
func New(cfg config.Config, st *store.Store, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		store:     st,
		hub:       NewHub(defaultSubscriberBuffer),
		mux:       http.NewServeMux(),
		heartbeat: defaultHeartbeat,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the build-time version metadata.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) { s.version = v }
}

// WithHeartbeat sets the interval between SSE keepalives.
// Non-positive values are ignored.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

func (s *Server) routes() {
	s.mux.Handle("GET /api/projects", s.withTimeout(s.handleListProjects))
	s.mux.Handle("GET /api/projects/{hash}", s.withTimeout(s.handleGetProject))
	s.mux.Handle(
		"GET /api/projects/{hash}/claude-md", s.withTimeout(s.handleGetClaudeMd),
	)
	s.mux.Handle(
		"GET /api/projects/{hash}/memory", s.withTimeout(s.handleGetMemory),
	)
	s.mux.Handle(
		"GET /api/projects/{hash}/skills", s.withTimeout(s.handleGetSkills),
	)
	s.mux.Handle(
		"GET /api/projects/{hash}/sessions", s.withTimeout(s.handleListSessions),
	)
	s.mux.Handle(
		"GET /api/projects/{hash}/sessions/{id}", s.withTimeout(s.handleGetSession),
	)
	s.mux.Handle(
		"DELETE /api/projects/{hash}/sessions/{id}",
		s.withTimeout(s.handleDeleteSession),
	)
	s.mux.Handle(
		"POST /api/projects/{hash}/sessions/batch-delete",
		s.withTimeout(s.handleBatchDeleteSessions),
	)

	s.mux.Handle("GET /api/settings", s.withTimeout(s.handleGetSettings))
	s.mux.Handle("GET /api/user-claude-md", s.withTimeout(s.handleGetUserClaudeMd))
	s.mux.Handle("GET /api/rules", s.withTimeout(s.handleGetRules))
	s.mux.Handle("GET /api/stats", s.withTimeout(s.handleGetStats))
	s.mux.Handle("GET /api/version", s.withTimeout(s.handleGetVersion))

	// SSE: Do not use timeout, as this is a long-lived connection.
	s.mux.HandleFunc("GET /api/events", s.handleEvents)

	s.mux.HandleFunc("GET /health", s.handleHealth)
}

func (s *Server) handleGetVersion(
	w http.ResponseWriter, _ *http.Request,
) {
	writeData(w, http.StatusOK, s.version)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"configDir": s.cfg.ConfigDir,
	})
}

// Publish broadcasts watcher events to every connected event
// stream. It never blocks on slow subscribers.
func (s *Server) Publish(events []watch.Event) {
	for _, ev := range events {
		s.hub.Publish(ev)
	}
}

// SetPort updates the listen port (for testing).
func (s *Server) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Port = port
}

// Handler returns the http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.cfg.CORSOrigin, logMiddleware(s.mux))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	addr := s.cfg.Addr()
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	s.httpSrv = srv
	s.mu.Unlock()
	log.Printf("Starting server at http://%s", addr)
	return srv.ListenAndServe()
}

// Shutdown ends every event stream and then gracefully shuts
// down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()

	s.mu.RLock()
	srv := s.httpSrv
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// FindAvailablePort finds an available port starting from the
// given port, binding to the specified host.
func FindAvailablePort(host string, start int) int {
	for port := start; port < start+100; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			ln.Close()
			return port
		}
	}
	return start
}
