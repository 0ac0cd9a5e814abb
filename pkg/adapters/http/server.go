package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/carepath"
	"github.com/aretw0/carepath/internal/logging"
	"github.com/aretw0/carepath/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Engine defines the session API served over HTTP.
type Engine interface {
	InitializeSession(ctx context.Context, patient domain.PatientInfo) (string, error)
	HandleEvent(ctx context.Context, sessionID string, ev domain.Event) (*domain.JourneyState, error)
	GetState(ctx context.Context, sessionID string) (*domain.JourneyState, error)
	EndSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]domain.SessionSummary, error)
	TriggerEmergency(ctx context.Context, sessionID, description string) (*domain.JourneyState, error)
}

var _ Engine = (*carepath.Engine)(nil)

// Server serves the session API.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager that the engine publishes diffs to.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.InitializeSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetState)
			r.Delete("/", s.EndSession)
			r.Post("/events", s.HandleEvent)
			r.Post("/emergency", s.TriggerEmergency)
			r.Get("/stream", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createSessionResponse struct {
	SessionID string               `json:"session_id"`
	State     *domain.JourneyState `json:"state,omitempty"`
}

type emergencyRequest struct {
	Description string `json:"description"`
}

// InitializeSession handles POST /sessions.
func (s *Server) InitializeSession(w http.ResponseWriter, r *http.Request) {
	var patient domain.PatientInfo
	if !s.decode(w, r, &patient) {
		return
	}
	id, err := s.Engine.InitializeSession(r.Context(), patient)
	if err != nil {
		s.fail(w, r, "initialize session", err)
		return
	}
	state, err := s.Engine.GetState(r.Context(), id)
	if err != nil {
		s.fail(w, r, "initialize session", err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id, State: state})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.Engine.ListSessions(r.Context())
	if err != nil {
		s.fail(w, r, "list sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetState handles GET /sessions/{id}.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.Engine.GetState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "get state", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// EndSession handles DELETE /sessions/{id}.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "end session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEvent handles POST /sessions/{id}/events.
func (s *Server) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.Event
	if !s.decode(w, r, &ev) {
		return
	}
	if err := ev.Validate(); err != nil {
		http.Error(w, "Invalid event", http.StatusBadRequest)
		s.logger.Warn("rejected event", "err", err)
		return
	}
	if ev.Source == "" {
		ev.Source = "http"
	}
	state, err := s.Engine.HandleEvent(r.Context(), chi.URLParam(r, "id"), ev)
	if err != nil {
		s.fail(w, r, "handle event", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// TriggerEmergency handles POST /sessions/{id}/emergency.
func (s *Server) TriggerEmergency(w http.ResponseWriter, r *http.Request) {
	var req emergencyRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	state, err := s.Engine.TriggerEmergency(r.Context(), chi.URLParam(r, "id"), req.Description)
	if err != nil {
		s.fail(w, r, "trigger emergency", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "carepath-http",
		"version": strings.TrimSpace(carepath.Version),
	})
}

// SubscribeEvents handles GET /sessions/{id}/stream (SSE).
// The optional watch query parameter filters diffs by field (stage, emergency,
// location, queue, tasks, notifications, history).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	if _, err := s.Engine.GetState(r.Context(), sessionID); err != nil {
		s.fail(w, r, "subscribe", err)
		return
	}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				watch = append(watch, f)
			}
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("sse client connected", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watchMatches(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

// fail maps engine errors to status codes. Internal details are logged, never returned.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	s.logger.Error(op+" failed",
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"err", err,
	)
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
