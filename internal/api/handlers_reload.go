package api

import (
	"net/http"

	"github.com/dgallion1/navdoc/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = "api"
	}
	job, err := s.orchestrator.Reload(reason)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     job.ID,
		"status":     pipeline.StatusQueued,
		"status_url": "/api/reload/" + job.ID + "/status",
	})
}

func (s *Server) handleReloadStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleLoadStats(w http.ResponseWriter, r *http.Request) {
	recent := s.orchestrator.Recent(10)
	jobs := make([]pipeline.JobSnapshot, len(recent))
	for i, j := range recent {
		jobs[i] = j.Snapshot()
	}
	resp := map[string]any{
		"stats":       s.orchestrator.LoadStats(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"recent":      jobs,
	}
	if site := s.orchestrator.Catalog().Site(); site != nil {
		resp["site"] = site.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}
