// Package http exposes the interview orchestrator over a JSON API. Handlers
// never touch the store or the oracles directly; everything goes through the
// orchestrator.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"triage-interview/internal/core"
	"triage-interview/internal/llm"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server bundles the dependencies required by the HTTP handlers.
type Server struct {
	Interviews *core.Orchestrator
	Log        *zap.Logger
}

// NewServer constructs a Server around the orchestrator.
func NewServer(interviews *core.Orchestrator, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Interviews: interviews, Log: log}
}

// Router builds the chi router with the service routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/interviews", func(api chi.Router) {
		api.Post("/", s.handleStartInterview)
		api.Get("/{sessionID}", s.handleGetSession)
		api.Post("/{sessionID}/answers", s.handleSubmitAnswer)
		api.Post("/{sessionID}/report", s.handleGenerateReport)
	})

	return r
}

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Symptoms string `json:"symptoms"`
		UserID   string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Symptoms == "" {
		respondError(w, http.StatusBadRequest, "symptoms is required")
		return
	}

	sess, err := s.Interviews.StartInterview(r.Context(), payload.Symptoms, payload.UserID)
	if err != nil {
		s.respondOrchestratorError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"message":    "New diagnosis session started",
		"session_id": sess.ID,
		"question":   sess.Questions[0],
	})
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var payload struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Answer == "" {
		respondError(w, http.StatusBadRequest, "answer is required")
		return
	}

	step, err := s.Interviews.SubmitAnswer(r.Context(), sessionID, payload.Question, payload.Answer)
	if err != nil {
		s.respondOrchestratorError(w, err)
		return
	}
	if step.Done {
		respondJSON(w, http.StatusOK, map[string]any{
			"message":    "Diagnosis session completed",
			"session_id": step.Session.ID,
			"done":       true,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":    "New diagnosis question",
		"session_id": step.Session.ID,
		"question":   step.Question,
	})
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.Interviews.GenerateReport(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondOrchestratorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Interviews.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondOrchestratorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// respondOrchestratorError maps orchestrator failures to HTTP statuses. The
// body carries a generic human-readable message; details stay in the logs.
func (s *Server) respondOrchestratorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, core.ErrQuestionMismatch):
		respondError(w, http.StatusConflict, "answer does not match the pending question")
	case errors.Is(err, core.ErrInterviewComplete):
		respondError(w, http.StatusConflict, "interview already complete")
	case errors.Is(err, core.ErrInterviewActive):
		respondError(w, http.StatusConflict, "interview still in progress")
	case errors.Is(err, llm.ErrOracleTimeout):
		s.Log.Warn("oracle timeout", zap.Error(err))
		respondError(w, http.StatusGatewayTimeout, "diagnosis service timed out")
	case errors.Is(err, llm.ErrOracleContract):
		s.Log.Error("oracle failure", zap.Error(err))
		respondError(w, http.StatusBadGateway, "diagnosis service unavailable")
	default:
		s.Log.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
