// Package api serves the read-only flag status API and the embedded
// status page.
package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/FlagWatch/FlagWatch/internal/store"
	webassets "github.com/FlagWatch/FlagWatch/web"
)

// Server answers status queries against the document store. It never
// mutates the store; the updater is the only writer.
type Server struct {
	store store.Store
	now   func() time.Time
	page  []byte
}

func NewServer(st store.Store) *Server {
	page, err := webassets.Files.ReadFile("index.html")
	if err != nil {
		slog.Warn("Status page asset missing", "error", err)
	}
	return &Server{store: st, now: time.Now, page: page}
}

// Handler returns the route table wrapped with request logging and
// panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status/current", s.handleCurrentStatus)
	mux.HandleFunc("/api/v1/proclamations", s.handleProclamationIndex)
	mux.HandleFunc("/api/v1/proclamations/", s.handleProclamation)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/", s.handleStatusPage)
	return s.withRequestLog(mux)
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	slog.Info("API server listening", "addr", addr, "store", s.store.String())
	return http.ListenAndServe(addr, s.Handler())
}

func newTraceID() string {
	var b [8]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// statusRecorder remembers what a handler wrote so the request log can
// report it and the panic path knows whether a reply already went out.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.wrote = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(p)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		trace := newTraceID()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if v := recover(); v != nil {
				slog.Error("Request handler panicked", "method", r.Method, "path", r.URL.Path, "trace_id", trace, "panic", v)
				if !rec.wrote {
					corsHeaders(rec)
					writeError(rec, http.StatusInternalServerError, "Internal server error")
				}
				return
			}
			slog.Info("Request served", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration_ms", time.Since(start).Milliseconds(), "trace_id", trace)
		}()
		next.ServeHTTP(rec, r)
	})
}

// corsHeaders mirrors what the public site was promised: every response,
// errors included, is callable from a browser on another origin.
func corsHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Allow-Methods", "GET,OPTIONS")
}

// acceptGET settles CORS preflight and rejects non-GET methods. It
// reports whether the handler should keep going.
func acceptGET(w http.ResponseWriter, r *http.Request) bool {
	corsHeaders(w)
	if r.Method == "OPTIONS" {
		return false
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		slog.Error("Response marshal failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
