// Package server serves the local export popup and its JSON API.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/runnerr0/tabsnap/internal/config"
	"github.com/runnerr0/tabsnap/internal/export"
)

//go:embed popup.html
var popupHTML string

var popupTemplate = template.Must(template.New("popup").Parse(popupHTML))

// Server exposes a Composer over HTTP.
type Server struct {
	composer *export.Composer
	cfg      config.ServerConfig
	logger   *slog.Logger
	handler  http.Handler
}

// New builds the router. A nil logger uses slog.Default().
func New(c *export.Composer, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{composer: c, cfg: cfg, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/counts", s.handleCounts)
		r.Get("/status", s.handleStatus)
		r.Get("/export/{format}", s.handleExport)
	})

	// An empty list would make cors allow every origin.
	if len(s.cfg.AllowedOrigins) == 0 {
		return r
	}
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         86400,
	})
	return c.Handler(r)
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the listen address from configuration.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// ListenAndServe listens on Addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}
	s.logger.Info("popup server listening", "addr", ln.Addr().String())
	return s.Serve(ctx, ln)
}

type formatButton struct {
	Name  string
	Label string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var data struct{ Formats []formatButton }
	for _, f := range export.Formats() {
		data.Formats = append(data.Formats, formatButton{Name: f.String(), Label: f.Label()})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := popupTemplate.Execute(w, data); err != nil {
		s.logger.Error("render popup", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.composer.Counts(r.Context())
	if err != nil {
		s.logger.Error("count failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.composer.Status())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	em := &responseEmitter{w: w}
	_, err = s.composer.ExportTo(r.Context(), f, em)
	switch {
	case err == nil:
	case errors.Is(err, export.ErrExportInProgress):
		writeError(w, http.StatusConflict, err)
	case em.wrote:
		// Headers are gone; the client sees a truncated body.
		s.logger.Warn("export response interrupted", "format", f, "error", err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

// responseEmitter delivers an export as an HTTP attachment.
type responseEmitter struct {
	w     http.ResponseWriter
	wrote bool
}

func (e *responseEmitter) Emit(ctx context.Context, name, contentType string, data []byte) error {
	h := e.w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	e.w.WriteHeader(http.StatusOK)
	e.wrote = true
	_, err := e.w.Write(data)
	return err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
