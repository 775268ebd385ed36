package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/FlagWatch/FlagWatch/internal/flagstatus"
	"github.com/FlagWatch/FlagWatch/internal/store"
)

func (s *Server) handleCurrentStatus(w http.ResponseWriter, r *http.Request) {
	if !acceptGET(w, r) {
		return
	}
	doc, err := s.store.Get(r.Context(), store.KeyCurrent)
	if errors.Is(err, store.ErrNotFound) {
		// No update has ever landed. Answer full staff instead of 404 so
		// consumers never special-case a fresh deployment.
		writeJSON(w, http.StatusOK, flagstatus.FallbackStatus(s.now()))
		return
	}
	if err != nil {
		slog.Error("Current status read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve current status")
		return
	}
	writeDocument(w, doc, "Failed to retrieve current status")
}

func (s *Server) handleProclamationIndex(w http.ResponseWriter, r *http.Request) {
	if !acceptGET(w, r) {
		return
	}
	doc, err := s.store.Get(r.Context(), store.KeyIndex)
	if errors.Is(err, store.ErrNotFound) {
		idx := flagstatus.NewIndex()
		idx.LastUpdated = flagstatus.Timestamp(s.now())
		writeJSON(w, http.StatusOK, idx)
		return
	}
	if err != nil {
		slog.Error("Proclamation index read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve proclamations")
		return
	}
	writeDocument(w, doc, "Failed to retrieve proclamations")
}

func (s *Server) handleProclamation(w http.ResponseWriter, r *http.Request) {
	if !acceptGET(w, r) {
		return
	}
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/v1/proclamations/"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "Proclamation ID required")
		return
	}
	keys, err := s.store.List(r.Context(), store.PrefixProclamations)
	if err != nil {
		slog.Error("Proclamation listing failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve proclamation")
		return
	}
	for _, key := range keys {
		// A request matches the exact id component of the archive key,
		// never a substring of it.
		if strings.TrimSuffix(path.Base(key), ".json") != id {
			continue
		}
		doc, err := s.store.Get(r.Context(), key)
		if err != nil {
			slog.Error("Proclamation read failed", "key", key, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to retrieve proclamation")
			return
		}
		writeDocument(w, doc, "Failed to retrieve proclamation")
		return
	}
	writeError(w, http.StatusNotFound, "Proclamation not found")
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if !acceptGET(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleStatusPage serves the embedded page at the root and answers for
// every path no other route claimed.
func (s *Server) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	if !acceptGET(w, r) {
		return
	}
	if r.URL.Path != "/" || len(s.page) == 0 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(s.page)
}

// writeDocument replies with a stored document as-is, reformatted to the
// indented style every endpoint uses. A stored document that does not
// parse is a server error, not something to pass through.
func writeDocument(w http.ResponseWriter, doc []byte, errMsg string) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		slog.Error("Stored document is not valid JSON", "error", err)
		writeError(w, http.StatusInternalServerError, errMsg)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
