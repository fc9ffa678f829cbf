package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionInfo describes a live session on the admin API.
type SessionInfo struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Remote    string    `json:"remote"`
	Closed    bool      `json:"closed"`
	Frames    int64     `json:"frames"`
	LowMemory bool      `json:"low_memory"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminHandler returns the admin router:
//
//	GET /healthz   liveness
//	GET /metrics   Prometheus collectors
//	GET /sessions  live sessions and totals as JSON
//
// When WebSocketPath is set the game protocol is mounted there too.
func (s *Server) AdminHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if s.closed.Load() {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{
		Registry: s.config.Registry,
	}))

	r.Get("/sessions", s.handleSessions)

	if s.config.WebSocketPath != "" {
		r.Get(s.config.WebSocketPath, s.HandleWebSocket)
	}
	return r
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	snapshot := s.sessions.Snapshot()
	infos := make([]SessionInfo, 0, len(snapshot))
	for _, session := range snapshot {
		infos = append(infos, SessionInfo{
			ID:        session.ID,
			Username:  session.Login.Username,
			Remote:    remoteString(session.conn),
			Closed:    session.Closed(),
			Frames:    session.FramesReceived(),
			LowMemory: session.Login.LowMemory,
			CreatedAt: session.CreatedAt(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Stats    ManagerStats  `json:"stats"`
		Sessions []SessionInfo `json:"sessions"`
	}{
		Stats:    s.sessions.Stats(),
		Sessions: infos,
	})
}
