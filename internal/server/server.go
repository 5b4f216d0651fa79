// Package server provides the HTTP retrieval endpoint and the consumer
// views built on it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"DailyBriefing/internal/dispatch"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/logging"
	"DailyBriefing/internal/retrieval"
)

// Gateway resolves a date key to a document through the fallback chain.
type Gateway interface {
	Resolve(ctx context.Context, dateKey string) retrieval.Result
	Placeholder(dateKey string) retrieval.Result
}

// EmailRenderer turns a document into an HTML page.
type EmailRenderer interface {
	Render(doc domain.BriefingDocument) (string, error)
}

// RunStatus summarises the last scheduled pipeline run for /health.
type RunStatus struct {
	DateKey        string   `json:"date_key"`
	State          string   `json:"state"`
	MissingSources []string `json:"missing_sources"`
}

type healthResponse struct {
	Status  string     `json:"status"`
	LastRun *RunStatus `json:"last_run,omitempty"`
}

// Deps wires the collaborators behind the routes. LastRun is optional.
type Deps struct {
	Gateway     Gateway
	Email       EmailRenderer
	Voice       *dispatch.VoiceRenderer
	VoiceRouter *dispatch.Router
	LastRun     func() (RunStatus, bool)
	Logger      *slog.Logger
}

// Server is the HTTP front of the briefing store.
type Server struct {
	httpServer *http.Server
	gateway    Gateway
	email      EmailRenderer
	voice      *dispatch.VoiceRenderer
	router     *dispatch.Router
	lastRun    func() (RunStatus, bool)
	logger     *slog.Logger
}

// New registers all routes on addr.
func New(addr string, deps Deps) *Server {
	s := &Server{
		gateway: deps.Gateway,
		email:   deps.Email,
		voice:   deps.Voice,
		router:  deps.VoiceRouter,
		lastRun: deps.LastRun,
		logger:  deps.Logger,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /daily-briefing", s.handleBriefing)
	mux.HandleFunc("GET /daily-briefing/voice", s.handleBriefingVoice)
	mux.HandleFunc("GET /daily-briefing/email", s.handleBriefingEmail)
	mux.HandleFunc("POST /voice", s.handleVoice)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.withLogging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request served", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.lastRun != nil {
		if status, ok := s.lastRun(); ok {
			resp.LastRun = &status
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
