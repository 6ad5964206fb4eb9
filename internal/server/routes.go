package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/portledger/sofextract/internal/ingest"
	"github.com/portledger/sofextract/internal/llmcall"
	"github.com/portledger/sofextract/internal/sof"
	"github.com/portledger/sofextract/web"
)

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("GET /api/llmcalls", s.handleLLMCalls)

	mux.HandleFunc("GET /{$}", servePage("index.html"))
	mux.HandleFunc("GET /upload", servePage("upload.html"))
	mux.HandleFunc("GET /data", servePage("data.html"))
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS())))
}

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body for error responses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// DocumentResult is one processed document: the extracted record plus the
// name of the file it came from.
type DocumentResult struct {
	sof.Record
	FileName string `json:"fileName"`
}

// LLMCallsResponse contains recent LLM call history.
type LLMCallsResponse struct {
	Calls []llmcall.Call `json:"calls"`
	Total int            `json:"total"`
}

// handleHealth returns basic server health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleProcess accepts multipart document uploads, runs each through the
// pipeline, and returns the extracted records. A failure on any file fails
// the whole request with that file's detail.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 50 << 20 // 50MB
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}
	for _, fh := range files {
		if !ingest.Supported(fh.Filename) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", fh.Filename))
			return
		}
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create upload dir: %v", err))
		return
	}

	results := make([]DocumentResult, 0, len(files))
	for _, fh := range files {
		rec, err := s.processUpload(r, fh)
		if err != nil {
			s.logger.Error("document processing failed", "file", fh.Filename, "error", err)
			writeError(w, http.StatusInternalServerError,
				fmt.Sprintf("error while processing %s: %v", fh.Filename, err))
			return
		}
		results = append(results, DocumentResult{Record: *rec, FileName: fh.Filename})
	}

	s.writeSnapshot(results)
	writeJSON(w, http.StatusOK, results)
}

// processUpload stages one uploaded file on disk, extracts its text, and runs
// the pipeline. The staged file is removed on every exit path.
func (s *Server) processUpload(r *http.Request, fh *multipart.FileHeader) (*sof.Record, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	path := filepath.Join(s.uploadDir, filepath.Base(fh.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stage uploaded file: %w", err)
	}
	defer os.Remove(path)

	_, err = io.Copy(dst, src)
	dst.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to save uploaded file: %w", err)
	}

	text, err := ingest.Text(path, s.logger)
	if err != nil {
		return nil, err
	}

	return s.processor.Process(r.Context(), text)
}

// writeSnapshot persists the last batch of results to the output file, then
// wipes it in the background once the response has gone out. The wipe keeps
// extracted cargo and party details off disk.
func (s *Server) writeSnapshot(results []DocumentResult) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		s.logger.Error("failed to serialize results snapshot", "error", err)
		return
	}
	if err := os.WriteFile(s.outputFile, data, 0o644); err != nil {
		s.logger.Error("failed to write results snapshot", "path", s.outputFile, "error", err)
		return
	}

	s.snapshotWG.Add(1)
	go func() {
		defer s.snapshotWG.Done()
		if err := os.WriteFile(s.outputFile, []byte("[]"), 0o644); err != nil {
			s.logger.Error("failed to clear results snapshot", "path", s.outputFile, "error", err)
			return
		}
		s.logger.Debug("cleared results snapshot", "path", s.outputFile)
	}()
}

// handleLLMCalls returns recent LLM call history, newest first. The limit
// query parameter caps the result count.
func (s *Server) handleLLMCalls(w http.ResponseWriter, r *http.Request) {
	if s.calls == nil {
		writeJSON(w, http.StatusOK, LLMCallsResponse{Calls: []llmcall.Call{}})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q", v))
			return
		}
		limit = n
	}

	calls := s.calls.Recent(limit)
	writeJSON(w, http.StatusOK, LLMCallsResponse{Calls: calls, Total: len(calls)})
}

// servePage serves a single embedded frontend page.
func servePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, web.StaticFS(), name)
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
