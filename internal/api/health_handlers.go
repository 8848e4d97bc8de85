// internal/api/health_handlers.go
package api

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":   "healthy",
		"uptime":   time.Since(s.startTime).Seconds(),
		"requests": atomic.LoadInt64(&s.requestCount),
	}
	if s.sweep != nil {
		p := s.sweep.Progress()
		health["run_id"] = p.RunID
		health["running"] = p.Running
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if s.sweep == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no sweep attached"})
		return
	}
	writeJSON(w, http.StatusOK, s.sweep.Progress())
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	if s.sweep == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no sweep attached"})
		return
	}
	writeJSON(w, http.StatusOK, s.sweep.Summaries())
}
