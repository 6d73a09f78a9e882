// Package server exposes the conversation engine over HTTP: one endpoint
// to send a message, one to drop a session, and a health probe.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/engine"
	"github.com/hupe1980/supportmesh/logging"
)

// Conversations is the slice of the engine the HTTP layer needs.
type Conversations interface {
	HandleMessage(ctx context.Context, sessionID, input string) (*core.ConversationState, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// SendRequest is the POST /chat/send body.
type SendRequest struct {
	Message   string            `json:"message"`
	SessionID string            `json:"session_id,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

// SendResponse is the POST /chat/send reply. Context is echoed back
// unchanged for client correlation.
type SendResponse struct {
	Response  string            `json:"response"`
	SessionID string            `json:"session_id"`
	Timestamp string            `json:"timestamp"`
	Context   map[string]string `json:"context,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Options configures a Server.
type Options struct {
	// Logger receives request diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Server is the HTTP front of the engine.
type Server struct {
	conversations Conversations
	logger        logging.Logger
	router        chi.Router
}

// New creates a server around the given conversation handler.
func New(conversations Conversations, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{conversations: conversations, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Route("/chat", func(r chi.Router) {
		r.Post("/send", s.handleSend)
		r.Delete("/session/{sessionID}", s.handleDeleteSession)
		r.Get("/health", s.handleHealth)
	})
	s.router = r
	return s
}

// Router returns the HTTP handler for mounting or serving.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	state, err := s.conversations.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyInput) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message must not be empty"})
			return
		}
		s.logger.Error("chat turn failed", "session_id", req.SessionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	final, _ := state.FinalOutput()
	writeJSON(w, http.StatusOK, SendResponse{
		Response:  final,
		SessionID: state.SessionID(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Context:   req.Context,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.conversations.DeleteSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
			return
		}
		s.logger.Error("session delete failed", "session_id", sessionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "session_id": sessionID})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
