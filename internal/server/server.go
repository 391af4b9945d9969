// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server provides the HTTP API for desk-researcher.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pdiddy/desk-researcher/internal/pipeline"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

// DefaultRequestTimeout bounds a synchronous research request.
const DefaultRequestTimeout = 5 * time.Minute

// Runner executes a research request.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (types.Outcome, error)
}

// RunStore creates and looks up persisted runs.
type RunStore interface {
	Create(ctx context.Context, query, email string) (*types.Run, error)
	Get(ctx context.Context, id string) (*types.Run, error)
}

// Pinger checks that a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Components describes the configured backends for /health and /api/status.
type Components struct {
	StoreBackend    string
	Store           Pinger
	AIConfigured    bool
	EmailConfigured bool
}

// Server is the HTTP server for the research API.
type Server struct {
	runner     Runner
	runs       RunStore
	components Components
	config     types.ServerConfig
	version    string
	logger     *zap.Logger
	server     *http.Server

	// bg outlives individual requests and is cancelled by Stop.
	bg       context.Context
	cancelBg context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a server. runs may be nil, in which case async requests are
// rejected.
func New(runner Runner, runs RunStore, components Components, cfg types.ServerConfig, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	bg, cancel := context.WithCancel(context.Background())
	return &Server{
		runner:     runner,
		runs:       runs,
		components: components,
		config:     cfg,
		version:    version,
		logger:     logger,
		bg:         bg,
		cancelBg:   cancel,
	}
}

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	r.With(middleware.Timeout(timeout)).Post("/api/research", s.handleResearch)
	r.Get("/api/research/{id}", s.handleGetRun)
	r.Get("/api/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "not_found", "endpoint not found")
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server, then cancels and waits for
// background runs.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.cancelBg()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// Wait blocks until all background runs finish.
func (s *Server) Wait() {
	s.wg.Wait()
}

// requestLogger logs each request with zap once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// cors allows any origin and answers preflight requests.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
