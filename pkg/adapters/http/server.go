package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/ussdpilot"
	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/steps"
	"github.com/aretw0/ussdpilot/pkg/trigger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxBodyBytes caps request bodies. Trigger messages are a few dozen bytes.
const MaxBodyBytes = 64 << 10

// Engine defines what the HTTP surface needs from the automation core.
type Engine interface {
	SubmitMessage(ctx context.Context, msg trigger.Message) (*domain.TransactionRequest, error)
	StartTransaction(ctx context.Context, req domain.TransactionRequest) error
	Session(ctx context.Context) (*domain.SessionState, error)
}

// Server serves the webhook and status routes.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	Metrics http.Handler
	Logger  *slog.Logger
}

// HandlerOption configures the handler built by NewHandler.
type HandlerOption func(*Server)

// WithStreams exposes GET /events backed by streams.
func WithStreams(streams *StreamManager) HandlerOption {
	return func(s *Server) { s.Streams = streams }
}

// WithMetrics mounts a metrics handler on GET /metrics.
func WithMetrics(h http.Handler) HandlerOption {
	return func(s *Server) { s.Metrics = h }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(s *Server) { s.Logger = logger }
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...HandlerOption) http.Handler {
	server := &Server{
		Engine: engine,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/messages", server.PostMessage)
	r.Post("/transactions", server.PostTransaction)
	r.Get("/session", server.GetSession)
	r.Get("/steps", server.GetSteps)
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.Streams != nil {
		r.Get("/events", server.SubscribeEvents)
	}
	if server.Metrics != nil {
		r.Handle("/metrics", server.Metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MessageResponse reports whether a message started a transaction.
type MessageResponse struct {
	Accepted bool                       `json:"accepted"`
	Request  *domain.TransactionRequest `json:"request,omitempty"`
}

// PostMessage handles POST /messages: an inbound SMS forwarded by a gateway.
// Rejected messages are answered with 200 and accepted=false so gateways do not retry.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	var msg trigger.Message
	if !s.decode(w, r, &msg) {
		return
	}

	req, err := s.Engine.SubmitMessage(r.Context(), msg)
	if err != nil {
		s.fail(w, "SubmitMessage", err)
		return
	}
	if req == nil {
		writeJSON(w, http.StatusOK, MessageResponse{Accepted: false})
		return
	}

	redacted := req.Redacted()
	writeJSON(w, http.StatusAccepted, MessageResponse{Accepted: true, Request: &redacted})
}

// PostTransaction handles POST /transactions: a typed request bypassing the allow-list.
func (s *Server) PostTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.TransactionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.Engine.StartTransaction(r.Context(), req); err != nil {
		s.fail(w, "StartTransaction", err)
		return
	}

	redacted := req.Redacted()
	writeJSON(w, http.StatusAccepted, MessageResponse{Accepted: true, Request: &redacted})
}

// GetSession handles GET /session.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Engine.Session(r.Context())
	if err != nil {
		s.fail(w, "Session", err)
		return
	}
	writeJSON(w, http.StatusOK, state.Redacted())
}

// GetSteps handles GET /steps. ?format=markdown returns the table as a document.
func (s *Server) GetSteps(w http.ResponseWriter, r *http.Request) {
	if strings.EqualFold(r.URL.Query().Get("format"), "markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(steps.Markdown()))
		return
	}

	chains := make(map[domain.Mode][]domain.StepDefinition, len(domain.Modes))
	for _, mode := range domain.Modes {
		chains[mode] = append(steps.Chain(mode), steps.Confirm)
	}
	writeJSON(w, http.StatusOK, chains)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "ussdpilot-http",
		"version": strings.TrimSpace(ussdpilot.Version),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "err", err)
	} else {
		s.Logger.Debug(op+" refused", "err", err)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionOpenFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrLoopStopped):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
