package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"icsgen/internal/config"
	"icsgen/internal/export"
	"icsgen/internal/ics"
	appLog "icsgen/internal/log"
	"icsgen/internal/metric"
	"icsgen/internal/model"
)

const maxBodyBytes = 1 << 20

// Server exposes one calendar document over HTTP.
//
// ics.Document is not safe for concurrent use, so every handler that
// touches it holds docMu.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	docMu sync.Mutex
	doc   *ics.Document
}

// NewServer constructs a new Server around doc.
func NewServer(cfg *config.Config, doc *ics.Document) *Server {
	s := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
		doc: doc,
	}
	s.registerRoutes()
	return s
}

// SetDocument swaps the served document, e.g. after the events file was
// reloaded.
func (s *Server) SetDocument(doc *ics.Document) {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	s.doc = doc
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password disables auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="icsgen", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleAddEvent)
	s.mux.HandleFunc("GET /api/build", s.handleBuild)
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("GET /download", s.handleDownload)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type eventsResponse struct {
	Events []string `json:"events"`
}

type eventResponse struct {
	Event string `json:"event"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	s.docMu.Lock()
	events := s.doc.Events()
	s.docMu.Unlock()

	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req model.EventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.docMu.Lock()
	block, err := s.doc.AddEvent(req)
	s.docMu.Unlock()

	metric.ObserveAdd(err)
	if err != nil {
		if errors.Is(err, ics.ErrMissingField) || errors.Is(err, ics.ErrInvalidTime) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		appLog.Error("api add event failed", err)
		writeError(w, http.StatusInternalServerError, "failed to add event")
		return
	}

	appLog.Debug("api event added", "bytes", len(block))
	writeJSON(w, http.StatusCreated, eventResponse{Event: block})
}

// handleCalendar renders the document even when it has no events.
func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	s.docMu.Lock()
	cal := s.doc.Calendar()
	s.docMu.Unlock()

	w.Header().Set("Content-Type", ics.MIMEType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(cal))
}

func (s *Server) handleBuild(w http.ResponseWriter, _ *http.Request) {
	s.docMu.Lock()
	cal, err := s.doc.Build()
	s.docMu.Unlock()

	if errors.Is(err, ics.ErrNoEvents) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", ics.MIMEType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(cal))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filename := q.Get("filename")
	ext := q.Get("ext")
	if strings.ContainsAny(filename+ext, `/\`) {
		writeError(w, http.StatusBadRequest, "filename must not contain a path")
		return
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	s.docMu.Lock()
	_, err := s.doc.Download(export.HTTP{W: w}, filename, ext)
	s.docMu.Unlock()

	switch {
	case err == nil:
	case errors.Is(err, ics.ErrNoEvents):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		// Headers are already sent; nothing useful left to tell the client.
		appLog.Error("api download failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
