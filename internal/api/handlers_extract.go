package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/specgest/internal/extract"
	"github.com/dgallion1/specgest/internal/parser"
	"github.com/dgallion1/specgest/internal/pipeline"
)

const maxBatchFiles = 20

var errTooLarge = errors.New("upload too large")

// handleExtract runs the extraction inline and returns the records.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Extract.MaxUploadBytes+1024*1024) // extra 1MB for form overhead
	if !s.parseForm(w, r, 32<<20) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	fh, err := formFile(r, "file")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	filename, data, err := s.readUpload(fh)
	if err != nil {
		writeError(w, err)
		return
	}

	job := pipeline.NewJob(filename, data)
	if err := s.orchestrator.Run(r.Context(), job); err != nil {
		writeError(w, err)
		return
	}

	res := job.Result()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":             job.ID,
		"filename":           filename,
		"requirements":       res.Requirements,
		"sections":           res.Sections,
		"skipped_sections":   res.SkippedSections,
		"requirement_tables": res.RequirementTables,
	})
}

// handleSubmitJob queues one archive and returns a poll URL.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Extract.MaxUploadBytes+1024*1024)
	if !s.parseForm(w, r, 32<<20) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	fh, err := formFile(r, "file")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	filename, data, err := s.readUpload(fh)
	if err != nil {
		writeError(w, err)
		return
	}

	job := pipeline.NewJob(filename, data)
	if err := s.orchestrator.Submit(job); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(acceptedJob(job))
}

// handleSubmitBatch queues every archive in the "files" field. Per-file
// failures are reported inline.
func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Extract.MaxUploadBytes*maxBatchFiles+10*1024*1024)
	if !s.parseForm(w, r, 64<<20) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	if len(files) > maxBatchFiles {
		jsonError(w, fmt.Sprintf("at most %d files per batch", maxBatchFiles), http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename, data, err := s.readUpload(fh)
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
				"kind":     errorKind(err),
			})
			continue
		}

		job := pipeline.NewJob(filename, data)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
				"kind":     errorKind(err),
			})
			continue
		}
		results = append(results, acceptedJob(job))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func acceptedJob(job *pipeline.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"job_id":   snap.ID,
		"filename": snap.Filename,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/extract/jobs/%s", snap.ID),
	}
}

// parseForm parses a multipart body, writing the error response itself on
// failure.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request, maxMemory int64) bool {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", mbe.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func formFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, fmt.Errorf("%s is required", field)
	}
	return files[0], nil
}

// readUpload validates the file name and reads at most the configured upload
// size.
func (s *Server) readUpload(fh *multipart.FileHeader) (string, []byte, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return filename, nil, fmt.Errorf("%w: unsupported file type %q", extract.ErrInvalidInput, filepath.Ext(filename))
	}

	f, err := fh.Open()
	if err != nil {
		return filename, nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	limit := s.cfg.Extract.MaxUploadBytes
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return filename, nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return filename, nil, fmt.Errorf("%w: file exceeds max size (%d bytes)", errTooLarge, limit)
	}
	return filename, data, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, errTooLarge):
		return "too_large"
	case errors.Is(err, pipeline.ErrQueueFull), errors.Is(err, pipeline.ErrStopped):
		return "unavailable"
	}
	return extract.Kind(err)
}

// statusFor maps an extraction failure to its HTTP status.
func statusFor(err error) int {
	switch errorKind(err) {
	case "too_large":
		return http.StatusRequestEntityTooLarge
	case "unavailable":
		return http.StatusServiceUnavailable
	case extract.KindInvalidInput:
		return http.StatusBadRequest
	case extract.KindInvalidArchive, extract.KindNoSections, extract.KindMalformedDocument:
		return http.StatusUnprocessableEntity
	case extract.KindNoRequirements:
		return http.StatusNotFound
	case extract.KindCanceled:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"kind":  errorKind(err),
	})
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
