package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/history"
)

// handleListHistory returns all saved summaries, newest first.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	records := s.orchestrator.History().List()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	rec, ok := s.orchestrator.History().Get(recordID)
	if !ok {
		jsonError(w, "record not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	if err := s.orchestrator.History().Delete(recordID); err != nil {
		jsonError(w, "failed to delete record: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"deleted": recordID})
}

// handleExportHistory streams the full history as a versioned backup
// document suitable for later import on any instance.
func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	backup := s.orchestrator.History().Export()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="summaries-backup-%s.json"`, time.Now().UTC().Format("2006-01-02")))
	json.NewEncoder(w).Encode(backup)
}

// handleImportHistory merges a backup document into the history. Records
// already present keep their stored version.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "failed to read backup: "+err.Error(), http.StatusBadRequest)
		return
	}

	added, err := s.orchestrator.History().Import(data)
	if err != nil {
		var fe *history.FormatError
		if errors.As(err, &fe) {
			jsonError(w, fe.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, "import failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"imported": added,
		"total":    len(s.orchestrator.History().List()),
	})
}
