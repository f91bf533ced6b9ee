package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/config"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/history"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/llm"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/pipeline"
)

const testAPIKey = "test-key"

type scriptedGen struct{}

func (scriptedGen) Generate(ctx context.Context, promptText, system string) (llm.Result, error) {
	return llm.Result{Text: "generated summary text", Tokens: 5}, nil
}

func (scriptedGen) Model() string { return "test-model" }

func newTestServer(t *testing.T) (*Server, *history.Store) {
	t.Helper()

	cfg := config.Config{
		ServiceAPIKey:   testAPIKey,
		WorkerCount:     1,
		MaxQueueSize:    4,
		RunTTL:          time.Hour,
		MaxChunkSize:    200,
		MaxConcurrent:   2,
		MinTextLength:   10,
		MinPartialDraft: 20,
		MaxRetries:      1,
		RatePerChar:     0.0005,
		EstimateFloor:   30,
		OverheadFactor:  1.5,
		MaxUploadBytes:  1 << 20,
		DefaultLanguage: "en",
	}

	hist, err := history.Open(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, scriptedGen{}, hist, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, nil, log, cfg), hist
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func uploadRequest(t *testing.T, filename, language string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(data)
	if language != "" {
		mw.WriteField("language", language)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/summarize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return authed(req)
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, header := range []string{"", "Bearer wrong-key", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestHealthIsPublic(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSummarizeRejectsUnsupportedType(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "book.exe", "", []byte("data")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "unsupported file type") {
		t.Errorf("unexpected body: %s", rec.Body)
	}
}

func TestSummarizeRejectsUnknownLanguage(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "book.txt", "xx", []byte("data")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
	}
}

func TestSummarizeRunsToCompletion(t *testing.T) {
	srv, hist := newTestServer(t)

	text := strings.Repeat("A short book about nothing in particular. ", 10)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "book.txt", "en", []byte(text)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body)
	}

	var accepted struct {
		RunID   string `json:"run_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode accept response: %v", err)
	}
	if accepted.RunID == "" || accepted.PollURL == "" {
		t.Fatalf("incomplete accept response: %s", rec.Body)
	}

	snap := pollUntilTerminal(t, srv, accepted.PollURL)
	if snap.Phase != "completed" {
		t.Fatalf("expected completed, got %s (%s)", snap.Phase, snap.Error)
	}
	if snap.Summary != "generated summary text" {
		t.Errorf("unexpected summary %q", snap.Summary)
	}
	if snap.Progress != 100 {
		t.Errorf("expected progress 100, got %d", snap.Progress)
	}

	records := hist.List()
	if len(records) != 1 || records[0].ID != snap.RecordID {
		t.Fatalf("expected one record with id %s, got %+v", snap.RecordID, records)
	}
}

func pollUntilTerminal(t *testing.T, srv *Server, pollURL string) pipeline.RunSnapshot {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, pollURL, nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status poll failed: %d %s", rec.Code, rec.Body)
		}
		var snap pipeline.RunSnapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if snap.Phase == "completed" || snap.Phase == "error" {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("run did not finish in time")
	return pipeline.RunSnapshot{}
}

func TestRunStatusNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/summarize/nope/status", nil)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	srv, hist := newTestServer(t)

	saved := history.Record{
		ID:        "rec-1",
		CreatedAt: time.Now().UTC(),
		Filename:  "book.txt",
		Language:  "en",
		Summary:   "a summary",
		Model:     "test-model",
		Tokens:    42,
	}
	if err := hist.Save(saved); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	// List.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/history", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var listed struct {
		Count   int              `json:"count"`
		Records []history.Record `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listed.Count != 1 || listed.Records[0].ID != "rec-1" {
		t.Fatalf("unexpected list: %+v", listed)
	}

	// Get.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/history/rec-1", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	// Delete.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodDelete, "/api/history/rec-1", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if len(hist.List()) != 0 {
		t.Error("record not deleted")
	}
}

func TestHistoryExportImportRoundTrip(t *testing.T) {
	srv, hist := newTestServer(t)

	hist.Save(history.Record{ID: "rec-1", CreatedAt: time.Now().UTC(), Filename: "a.txt", Summary: "s1"})
	hist.Save(history.Record{ID: "rec-2", CreatedAt: time.Now().UTC(), Filename: "b.txt", Summary: "s2"})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/history/export", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("expected attachment disposition, got %q", cd)
	}
	backup := rec.Body.Bytes()

	// Import into a fresh server. Only the new records should be added.
	srv2, hist2 := newTestServer(t)
	hist2.Save(history.Record{ID: "rec-1", CreatedAt: time.Now().UTC(), Filename: "local.txt", Summary: "mine"})

	rec = httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodPost, "/api/history/import", bytes.NewReader(backup)))
	srv2.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var result struct {
		Imported int `json:"imported"`
		Total    int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode import result: %v", err)
	}
	if result.Imported != 1 || result.Total != 2 {
		t.Fatalf("expected 1 imported of 2 total, got %+v", result)
	}

	// The colliding record keeps the local version.
	got, ok := hist2.Get("rec-1")
	if !ok || got.Summary != "mine" {
		t.Fatalf("local record overwritten: %+v", got)
	}
}

func TestImportRejectsMalformedBackup(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodPost, "/api/history/import", strings.NewReader(`{"records":[]}`)))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "invalid backup") {
		t.Errorf("unexpected body: %s", rec.Body)
	}
}
