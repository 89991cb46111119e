// Package server exposes the three model entry points as a JSON HTTP API.
//
//	POST /api/v1/closed-form     exponential and logistic growth
//	POST /api/v1/compartmental   SIR and SEIR
//	POST /api/v1/vector-field    dx/dt, dy/dt on a grid
//	GET  /api/v1/presets         named parameter sets per model
//	GET  /api/v1/models          registered model names
//	GET  /health
//
// Successful computations answer 200 with the computed view. Domain failures
// answer 422 with the idle placeholder view carrying kind and message, so a
// client can always draw axes. Malformed JSON answers 400.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/epidemic"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/growth"
)

const maxBody = 1 << 20

type Server struct {
	registry *experiment.Registry
	logger   *slog.Logger
	cfg      config.ServerConfig
	server   *http.Server
}

func New(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		registry: experiment.NewRegistry(cfg.Solver.NewSolver),
		logger:   logger,
		cfg:      cfg.Server,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /api/v1/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"models": s.registry.ListModels()})
	})
	mux.HandleFunc("GET /api/v1/presets", s.handlePresets)
	mux.HandleFunc("POST /api/v1/closed-form", s.handleClosedForm)
	mux.HandleFunc("POST /api/v1/compartmental", s.handleCompartmental)
	mux.HandleFunc("POST /api/v1/vector-field", s.handleVectorField)

	return s.recoverer(s.logRequests(mux))
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return s.server.Shutdown(shutdownCtx)
	}
}

// closedFormRequest flattens the growth parameters next to the model kind.
type closedFormRequest struct {
	Kind string `json:"kind"`
	growth.Params
}

func (s *Server) handleClosedForm(w http.ResponseWriter, r *http.Request) {
	var body closedFormRequest
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	req := experiment.Request{Model: strings.ToLower(strings.TrimSpace(body.Kind)), Growth: &body.Params}
	if _, err := growth.ParseKind(req.Model); err != nil {
		s.fail(w, req, err)
		return
	}
	s.run(w, r, req)
}

func (s *Server) handleCompartmental(w http.ResponseWriter, r *http.Request) {
	var body epidemic.Params
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if body.Kind == "" {
		body.Kind = epidemic.KindSIR
	}
	req := experiment.Request{Model: string(body.Kind), Epidemic: &body}
	kind, err := epidemic.ParseKind(string(body.Kind))
	if err != nil {
		s.fail(w, req, err)
		return
	}
	body.Kind = kind
	req.Model = string(kind)
	s.run(w, r, req)
}

func (s *Server) handleVectorField(w http.ResponseWriter, r *http.Request) {
	var body field.Request
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.run(w, r, experiment.Request{Model: "field", Field: &body})
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, req experiment.Request) {
	ctx := r.Context()
	if s.cfg.ComputeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ComputeTimeout)
		defer cancel()
	}

	view := s.registry.Execute(ctx, req)
	if view.Failed() {
		s.logger.Warn("computation failed", "model", req.Model, "kind", view.Kind, "message", view.Message)
		writeJSON(w, http.StatusUnprocessableEntity, view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// fail answers a request rejected before it reached the registry.
func (s *Server) fail(w http.ResponseWriter, req experiment.Request, err error) {
	view := experiment.Placeholder(req)
	view.Kind = experiment.Classify(err)
	view.Message = err.Error()
	s.logger.Warn("request rejected", "model", req.Model, "error", err)
	writeJSON(w, http.StatusUnprocessableEntity, view)
}

type presetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	models := config.Models
	if m := r.URL.Query().Get("model"); m != "" {
		if _, ok := config.Presets[m]; !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("no presets for model %q", m))
			return
		}
		models = []string{m}
	}

	out := make(map[string][]presetInfo, len(models))
	for _, m := range models {
		for _, name := range config.ListPresets(m) {
			out[m] = append(out[m], presetInfo{Name: name, Description: config.Presets[m][name].Description})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": out})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic", "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, fmt.Errorf("internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func readJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return fmt.Errorf("failed reading request body: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return fmt.Errorf("empty request body")
	}
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"failed to marshal json"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
