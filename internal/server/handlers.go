// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pdiddy/desk-researcher/internal/pipeline"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

type researchRequest struct {
	Query string `json:"query"`
	Email string `json:"email"`
	Topic string `json:"topic,omitempty"`
	Async bool   `json:"async,omitempty"`
}

type researchResponse struct {
	Status         string         `json:"status"`
	Message        string         `json:"message,omitempty"`
	RunID          string         `json:"run_id,omitempty"`
	Report         *types.Report  `json:"report,omitempty"`
	TotalPapers    int            `json:"total_papers"`
	RelevantPapers int            `json:"relevant_papers"`
	DeliveryID     string         `json:"delivery_id,omitempty"`
	Sources        []types.Source `json:"sources,omitempty"`
}

// StatusCode maps an error kind to its HTTP status.
func StatusCode(err error) int {
	switch types.KindOf(err) {
	case types.ErrInvalidRequest:
		return http.StatusBadRequest
	case types.ErrNotFound:
		return http.StatusNotFound
	case types.ErrNetwork, types.ErrSynthesis, types.ErrDelivery:
		return http.StatusBadGateway
	case types.ErrEmbedding, types.ErrIndex:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var body researchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	req := pipeline.Request{Query: body.Query, Email: body.Email, Topic: body.Topic}
	if err := req.Validate(s.config.MinQueryLength); err != nil {
		s.respondKind(w, err)
		return
	}
	s.logger.Debug("research request", zap.String("query", req.Query), zap.Bool("async", body.Async))

	if body.Async {
		s.startAsync(w, r, req)
		return
	}

	out, err := s.runner.Run(r.Context(), req)
	if err != nil {
		s.logger.Error("research failed", zap.Error(err))
		s.respondKind(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, researchResponse{
		Status:         string(types.RunSucceeded),
		Report:         out.Report,
		TotalPapers:    out.TotalPapers,
		RelevantPapers: out.RelevantPapers,
		DeliveryID:     out.DeliveryID,
		Sources:        reportSources(out.Report),
	})
}

// startAsync records a run, answers 202 and processes it in the background.
func (s *Server) startAsync(w http.ResponseWriter, r *http.Request, req pipeline.Request) {
	if s.runs == nil {
		s.respondError(w, http.StatusServiceUnavailable, "internal_error", "background runs need a run ledger")
		return
	}
	run, err := s.runs.Create(r.Context(), req.Query, req.Email)
	if err != nil {
		s.logger.Error("creating run failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	req.RunID = run.ID

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.runner.Run(s.bg, req); err != nil {
			s.logger.Warn("background research failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}()

	s.respondJSON(w, http.StatusAccepted, researchResponse{
		Status:  string(types.RunProcessing),
		RunID:   run.ID,
		Message: fmt.Sprintf("Your research is being processed. You will receive an email at %s in 1-3 minutes.", req.Email),
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.respondError(w, http.StatusNotFound, "not_found", "run ledger not enabled")
		return
	}
	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondKind(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"qdrant": s.storeState(r.Context(), "connected", "disconnected"),
		"groq":   configured(s.components.AIConfigured, "not configured"),
		"resend": configured(s.components.EmailConfigured, "not configured"),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	engine := "active"
	if s.runner == nil {
		engine = "inactive"
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"app":     "desk-researcher",
		"version": s.version,
		"components": map[string]string{
			"research_engine": engine,
			"store_backend":   s.components.StoreBackend,
			"qdrant":          s.storeState(r.Context(), "connected", "disconnected"),
			"groq_api":        configured(s.components.AIConfigured, "missing"),
			"resend_api":      configured(s.components.EmailConfigured, "missing"),
			"run_ledger":      configured(s.runs != nil, "disabled"),
		},
	})
}

func (s *Server) storeState(ctx context.Context, up, down string) string {
	if s.components.Store == nil {
		return down
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.components.Store.Ping(ctx); err != nil {
		return down
	}
	return up
}

func configured(ok bool, otherwise string) string {
	if ok {
		return "configured"
	}
	return otherwise
}

func reportSources(r *types.Report) []types.Source {
	if r == nil {
		return nil
	}
	return r.Sources
}

func (s *Server) respondKind(w http.ResponseWriter, err error) {
	var serr *types.StageError
	detail := err.Error()
	if errors.As(err, &serr) {
		detail = fmt.Sprintf("%s: %v", serr.Stage, serr.Err)
	}
	s.respondError(w, StatusCode(err), types.KindName(err), detail)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, kind, detail string) {
	s.respondJSON(w, status, map[string]string{"error": kind, "detail": detail})
}
