package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/partidas/internal/export"
	"github.com/dgallion1/partidas/internal/parser"
	"github.com/dgallion1/partidas/internal/pipeline"
)

// FailedHeader lists, comma-separated, the uploads that could not be read.
const FailedHeader = "X-Partidas-Failed"

const (
	msgNoFiles   = "No se envió ningún archivo."
	msgNoRecords = "No se extrajo ninguna partida. Revisa el formato de tus PDFs."
	msgInternal  = "Error interno procesando tus archivos."
)

type uploadError struct {
	msg  string
	code int
}

func isPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// readUploads reads every "files" part of a multipart request. Parts with an
// empty filename are what browsers send for an empty file input and are
// ignored.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request, allowed func(string) bool) ([]pipeline.Input, *uploadError) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, &uploadError{"request too large", http.StatusRequestEntityTooLarge}
		case errors.Is(err, http.ErrNotMultipart):
			return nil, &uploadError{msgNoFiles, http.StatusBadRequest}
		default:
			return nil, &uploadError{"invalid multipart form: " + err.Error(), http.StatusBadRequest}
		}
	}

	var inputs []pipeline.Input
	for _, fh := range r.MultipartForm.File["files"] {
		if fh.Filename == "" {
			continue
		}
		filename := sanitizeFilename(fh.Filename)
		if !allowed(filename) {
			return nil, &uploadError{"Extensión no permitida: " + filename, http.StatusBadRequest}
		}

		f, err := fh.Open()
		if err != nil {
			return nil, &uploadError{"failed to open " + filename, http.StatusInternalServerError}
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, &uploadError{"failed to read " + filename, http.StatusInternalServerError}
		}
		inputs = append(inputs, pipeline.Input{Filename: filename, Data: data})
	}
	if len(inputs) == 0 {
		return nil, &uploadError{msgNoFiles, http.StatusBadRequest}
	}
	return inputs, nil
}

// handleConvert parses the uploaded PDFs synchronously and answers with the
// workbook.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	inputs, uerr := s.readUploads(w, r, isPDF)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if uerr != nil {
		jsonError(w, uerr.msg, uerr.code)
		return
	}

	results := s.orchestrator.ParseNow(r.Context(), inputs)
	if failed := pipeline.Failed(results); len(failed) > 0 {
		w.Header().Set(FailedHeader, strings.Join(failed, ","))
	}

	recs := pipeline.Records(results)
	if len(recs) == 0 {
		jsonError(w, msgNoRecords, http.StatusBadRequest)
		return
	}

	data, err := export.XLSX(recs, export.Options{IncludeChecks: r.FormValue("revision") == "1"})
	if err != nil {
		s.log.Error("export failed", "error", err)
		jsonError(w, msgInternal, http.StatusInternalServerError)
		return
	}
	writeXLSX(w, data, export.DefaultFilename)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	inputs, uerr := s.readUploads(w, r, parser.IsSupportedExtension)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if uerr != nil {
		jsonError(w, uerr.msg, uerr.code)
		return
	}

	job := pipeline.NewJob(inputs)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"files":    job.Files,
		"poll_url": fmt.Sprintf("/api/jobs/%s/status", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func writeXLSX(w http.ResponseWriter, data []byte, filename string) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
