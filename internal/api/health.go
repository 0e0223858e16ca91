package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
	Workers   []workerHealth `json:"workers"`
}

type healthServices struct {
	Database string `json:"database"`
}

type workerHealth struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	Cycles int64  `json:"cycles"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "not configured"
	if s.db != nil {
		dbStatus = "connected"
		if err := s.db.Ping(r.Context()); err != nil {
			dbStatus = "disconnected"
		}
	}

	workers := make([]workerHealth, len(s.workers))
	for i, wk := range s.workers {
		workers[i] = workerHealth{Name: wk.Name(), State: wk.State().String(), Cycles: wk.Cycles()}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  healthServices{Database: dbStatus},
		Workers:   workers,
	})
}
