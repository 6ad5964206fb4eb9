package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/portledger/sofextract/internal/llmcall"
	"github.com/portledger/sofextract/internal/sof"
)

// stubProcessor returns a fixed record or error and remembers the last text.
type stubProcessor struct {
	record   *sof.Record
	err      error
	lastText string
	calls    int
}

func (p *stubProcessor) Process(ctx context.Context, documentText string) (*sof.Record, error) {
	p.calls++
	p.lastText = documentText
	if p.err != nil {
		return nil, p.err
	}
	return p.record, nil
}

func sampleRecord() *sof.Record {
	vessel := "MV Horizon"
	conf := 0.95
	return &sof.Record{
		DocumentDetails: sof.DocumentDetails{VesselName: &vessel, Confidence: &conf},
		Events:          []sof.Event{},
		LaytimeNotes:    sof.LaytimeNotes{Confidence: &conf},
	}
}

func newTestServer(t *testing.T, proc Processor, calls *llmcall.Store) *Server {
	t.Helper()
	dir := t.TempDir()
	s, err := New(Config{
		Processor:  proc,
		Calls:      calls,
		UploadDir:  filepath.Join(dir, "uploads"),
		OutputFile: filepath.Join(dir, "output.json"),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

// multipartBody builds a multipart form with one part per file under the
// "files" field.
func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("part write error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart close error = %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &stubProcessor{record: sampleRecord()}, nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("status = %q, want ok", resp.Status)
	}
}

func TestProcess_ReturnsRecordsWithFileNames(t *testing.T) {
	proc := &stubProcessor{record: sampleRecord()}
	s := newTestServer(t, proc, nil)

	body, contentType := multipartBody(t, map[string]string{
		"sof-horizon.txt": "MV Horizon arrived Rotterdam. Commenced loading 08:00.",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/process", body)
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	var results []DocumentResult
	if err := json.Unmarshal(rr.Body.Bytes(), &results); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].FileName != "sof-horizon.txt" {
		t.Fatalf("fileName = %q, want sof-horizon.txt", results[0].FileName)
	}
	if results[0].DocumentDetails.VesselName == nil || *results[0].DocumentDetails.VesselName != "MV Horizon" {
		t.Fatalf("vessel_name = %v, want MV Horizon", results[0].DocumentDetails.VesselName)
	}
	if !strings.Contains(proc.lastText, "Commenced loading") {
		t.Fatalf("processor received text %q", proc.lastText)
	}
}

func TestProcess_RemovesStagedUploads(t *testing.T) {
	s := newTestServer(t, &stubProcessor{record: sampleRecord()}, nil)

	body, contentType := multipartBody(t, map[string]string{"doc.txt": "some text"})
	req := httptest.NewRequest(http.MethodPost, "/api/process", body)
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		t.Fatalf("failed to read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("upload dir has %d leftover files, want 0", len(entries))
	}
}

func TestProcess_WipesSnapshotAfterResponse(t *testing.T) {
	s := newTestServer(t, &stubProcessor{record: sampleRecord()}, nil)

	body, contentType := multipartBody(t, map[string]string{"doc.txt": "some text"})
	req := httptest.NewRequest(http.MethodPost, "/api/process", body)
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	s.snapshotWG.Wait()
	data, err := os.ReadFile(s.outputFile)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("output file = %q, want wiped []", data)
	}
}

func TestProcess_NoFilesIsBadRequest(t *testing.T) {
	s := newTestServer(t, &stubProcessor{record: sampleRecord()}, nil)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/process", body)
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestProcess_UnsupportedTypeIsBadRequest(t *testing.T) {
	proc := &stubProcessor{record: sampleRecord()}
	s := newTestServer(t, proc, nil)

	body, contentType := multipartBody(t, map[string]string{"sheet.xlsx": "binary"})
	req := httptest.NewRequest(http.MethodPost, "/api/process", body)
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if proc.calls != 0 {
		t.Fatalf("processor calls = %d, want 0", proc.calls)
	}
}

func TestProcess_PipelineFailureIsServerError(t *testing.T) {
	proc := &stubProcessor{err: errors.New("model unavailable")}
	s := newTestServer(t, proc, nil)

	body, contentType := multipartBody(t, map[string]string{"doc.txt": "some text"})
	req := httptest.NewRequest(http.MethodPost, "/api/process", body)
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp.Detail, "doc.txt") || !strings.Contains(resp.Detail, "model unavailable") {
		t.Fatalf("detail = %q, want file name and cause", resp.Detail)
	}
}

func TestLLMCalls_ReturnsRecentHistory(t *testing.T) {
	store := llmcall.NewStore(10)
	for i := 0; i < 3; i++ {
		store.Record(&llmcall.Call{PromptKey: fmt.Sprintf("key-%d", i)})
	}
	s := newTestServer(t, &stubProcessor{record: sampleRecord()}, store)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/llmcalls?limit=2", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp LLMCallsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Total)
	}
	if resp.Calls[0].PromptKey != "key-2" {
		t.Fatalf("first call = %q, want newest (key-2)", resp.Calls[0].PromptKey)
	}
}

func TestLLMCalls_InvalidLimit(t *testing.T) {
	s := newTestServer(t, &stubProcessor{record: sampleRecord()}, llmcall.NewStore(10))

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/llmcalls?limit=abc", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t, &stubProcessor{record: sampleRecord()}, nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/process", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS allow-origin header")
	}
}

func TestStaticPages(t *testing.T) {
	s := newTestServer(t, &stubProcessor{record: sampleRecord()}, nil)

	for path, want := range map[string]string{
		"/":       "Statement of Facts extraction",
		"/upload": "upload-form",
		"/data":   "Latest results",
	} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), want) {
			t.Fatalf("GET %s body missing %q", path, want)
		}
	}
}
