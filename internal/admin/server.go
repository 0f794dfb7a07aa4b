// Package admin exposes the coordinator's state as read-only JSON HTTP
// endpoints for operator visibility, mirroring the teacher's
// internal/admin package but without any mutating handler: a production
// coordination core has no chaos-injection or manual-launch surface.
package admin

import (
	"encoding/json"
	"net/http"

	"github.com/papyruslabs-ai/seshat-swarm/internal/coordinator"
)

// Server serves the coordinator's status over HTTP.
type Server struct {
	Coordinator *coordinator.Coordinator
}

// NewServer builds a Server over co.
func NewServer(co *coordinator.Coordinator) *Server {
	return &Server{Coordinator: co}
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/drones", s.handleDrones)
	mux.HandleFunc("/assignments", s.handleAssignments)
	mux.HandleFunc("/roles", s.handleRoles)
}

// Start builds the mux and blocks serving on addr.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	s.routes(mux)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	drones := s.Coordinator.Snapshot()
	stale := 0
	for _, d := range drones {
		if d.Stale {
			stale++
		}
	}
	writeJSON(w, map[string]any{
		"tick":        s.Coordinator.TickCount(),
		"drone_count": len(drones),
		"stale_count": stale,
	})
}

func (s *Server) handleDrones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Coordinator.Snapshot())
}

func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Coordinator.LastAssignments())
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Coordinator.LastRoleChanges())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
