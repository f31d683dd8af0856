package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/partidas/internal/budget"
	"github.com/dgallion1/partidas/internal/export"
)

// jobExists reports whether the job is either still tracked in memory or
// has documents in the store.
func (s *Server) jobExists(r *http.Request, jobID string) (bool, error) {
	if s.orchestrator.GetJob(jobID) != nil {
		return true, nil
	}
	return s.orchestrator.Store().HasJob(r.Context(), jobID)
}

// jobReady writes an error response and returns false unless the job's
// records can be read.
func (s *Server) jobReady(w http.ResponseWriter, r *http.Request, jobID string) bool {
	if job := s.orchestrator.GetJob(jobID); job != nil {
		if snap := job.Snapshot(); !snap.Status.Done() {
			jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
			return false
		}
		return true
	}
	ok, err := s.orchestrator.Store().HasJob(r.Context(), jobID)
	if err != nil {
		s.log.Error("job lookup failed", "job_id", jobID, "error", err)
		jsonError(w, "job lookup failed", http.StatusInternalServerError)
		return false
	}
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return false
	}
	return true
}

func (s *Server) handleJobRecords(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !s.jobReady(w, r, jobID) {
		return
	}
	recs, err := s.orchestrator.Store().JobRecords(r.Context(), jobID)
	if err != nil {
		s.log.Error("load records failed", "job_id", jobID, "error", err)
		jsonError(w, "failed to load records", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":  jobID,
		"count":   len(recs),
		"records": recs,
	})
}

func (s *Server) handleJobExport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !s.jobReady(w, r, jobID) {
		return
	}
	recs, err := s.orchestrator.Store().JobRecords(r.Context(), jobID)
	if err != nil {
		s.log.Error("load records failed", "job_id", jobID, "error", err)
		jsonError(w, "failed to load records", http.StatusInternalServerError)
		return
	}
	if len(recs) == 0 {
		jsonError(w, msgNoRecords, http.StatusBadRequest)
		return
	}
	data, err := export.XLSX(recs, export.Options{IncludeChecks: r.URL.Query().Get("revision") == "1"})
	if err != nil {
		s.log.Error("export failed", "job_id", jobID, "error", err)
		jsonError(w, msgInternal, http.StatusInternalServerError)
		return
	}
	writeXLSX(w, data, export.DefaultFilename)
}

// handleJobDocuments lists the stored documents of a job.
func (s *Server) handleJobDocuments(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	docs, err := s.orchestrator.Store().JobDocuments(r.Context(), jobID)
	if err != nil {
		s.log.Error("list documents failed", "job_id", jobID, "error", err)
		jsonError(w, "failed to list documents", http.StatusInternalServerError)
		return
	}
	if len(docs) == 0 {
		if ok, _ := s.jobExists(r, jobID); !ok {
			jsonError(w, "job not found", http.StatusNotFound)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// handleDeleteJob deletes a job's stored documents and records.
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if job := s.orchestrator.GetJob(jobID); job != nil && !job.Snapshot().Status.Done() {
		jsonError(w, "job is still running", http.StatusConflict)
		return
	}
	n, err := s.orchestrator.Store().DeleteJob(r.Context(), jobID)
	if err != nil {
		s.log.Error("delete job failed", "job_id", jobID, "error", err)
		jsonError(w, "failed to delete job", http.StatusInternalServerError)
		return
	}
	if n == 0 {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	s.log.Info("job deleted", "job_id", jobID, "documents", n)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":            jobID,
		"documents_deleted": n,
	})
}

func (s *Server) handleRecordSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	json.NewEncoder(w).Encode(budget.RecordSchema())
}
