package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/carepath"
	"github.com/aretw0/carepath/internal/logging"
	"github.com/aretw0/carepath/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// SessionsURI is the resource listing live sessions.
const SessionsURI = "carepath://sessions"

// errInternal replaces engine errors in tool results.
var errInternal = errors.New("internal error")

// Engine defines the session API exposed as MCP tools.
type Engine interface {
	InitializeSession(ctx context.Context, patient domain.PatientInfo) (string, error)
	HandleEvent(ctx context.Context, sessionID string, ev domain.Event) (*domain.JourneyState, error)
	GetState(ctx context.Context, sessionID string) (*domain.JourneyState, error)
	EndSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]domain.SessionSummary, error)
	TriggerEmergency(ctx context.Context, sessionID, description string) (*domain.JourneyState, error)
}

var _ Engine = (*carepath.Engine)(nil)

// SessionResponse is the structured result of every session tool.
type SessionResponse struct {
	SessionID string               `json:"session_id" jsonschema_description:"The session identifier"`
	State     *domain.JourneyState `json:"state,omitempty" jsonschema_description:"The journey state after the call"`
	Ended     bool                 `json:"ended,omitempty" jsonschema_description:"Set when the session was discarded"`
}

// SessionList is the structured result of list_sessions.
type SessionList struct {
	Sessions []domain.SessionSummary `json:"sessions"`
}

type initializeArgs struct {
	PatientID        string `json:"patient_id"`
	HospitalID       string `json:"hospital_id"`
	Name             string `json:"name"`
	AppointmentID    string `json:"appointment_id"`
	Department       string `json:"department"`
	DoctorID         string `json:"doctor_id"`
	InitialArea      string `json:"initial_area"`
	HasPrescriptions bool   `json:"has_prescriptions"`
	HasLabOrders     bool   `json:"has_lab_orders"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type messageArgs struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type locationArgs struct {
	SessionID string  `json:"session_id"`
	Area      string  `json:"area"`
	BeaconID  string  `json:"beacon_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type signalArgs struct {
	SessionID string `json:"session_id"`
	Signal    string `json:"signal"`
	Data      string `json:"data"`
}

type emergencyArgs struct {
	SessionID   string `json:"session_id"`
	Description string `json:"description"`
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance. A nil logger discards output.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("carepath-mcp", strings.TrimSpace(carepath.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sessionID := mcp.WithString("session_id", mcp.Required(), mcp.Description("The session identifier"))

	s.mcpServer.AddTool(mcp.NewTool("initialize_session",
		mcp.WithDescription("Start a patient journey. Returns the new session and its state."),
		mcp.WithString("patient_id", mcp.Required(), mcp.Description("Patient identifier")),
		mcp.WithString("hospital_id", mcp.Description("Hospital identifier")),
		mcp.WithString("name", mcp.Description("Patient display name")),
		mcp.WithString("appointment_id", mcp.Description("Appointment identifier")),
		mcp.WithString("department", mcp.Description("Department the patient is queued for")),
		mcp.WithString("doctor_id", mcp.Description("Attending doctor")),
		mcp.WithString("initial_area", mcp.Description("Area the patient is in when the session starts")),
		mcp.WithBoolean("has_prescriptions", mcp.Description("Prescriptions are expected after the visit")),
		mcp.WithBoolean("has_lab_orders", mcp.Description("Lab work is expected after the visit")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleInitialize))

	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send a patient message to the session."),
		sessionID,
		mcp.WithString("text", mcp.Required(), mcp.Description("What the patient said")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleMessage))

	s.mcpServer.AddTool(mcp.NewTool("update_location",
		mcp.WithDescription("Report the patient's position by area tag, beacon or coordinates."),
		sessionID,
		mcp.WithString("area", mcp.Description("Known area tag, e.g. waiting_room")),
		mcp.WithString("beacon_id", mcp.Description("Indoor beacon identifier")),
		mcp.WithNumber("latitude", mcp.Description("GPS latitude")),
		mcp.WithNumber("longitude", mcp.Description("GPS longitude")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleLocation))

	s.mcpServer.AddTool(mcp.NewTool("send_signal",
		mcp.WithDescription("Deliver a hospital system signal (e.g. doctor_ready, visit_ended)."),
		sessionID,
		mcp.WithString("signal", mcp.Required(), mcp.Description("Signal name")),
		mcp.WithString("data", mcp.Description("JSON object with the signal payload")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleSignal))

	s.mcpServer.AddTool(mcp.NewTool("trigger_emergency",
		mcp.WithDescription("Raise an emergency for the session."),
		sessionID,
		mcp.WithString("description", mcp.Description("What is happening")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleEmergency))

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Return the current journey state."),
		sessionID,
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetState))

	s.mcpServer.AddTool(mcp.NewTool("end_session",
		mcp.WithDescription("End the journey and discard the session."),
		sessionID,
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleEnd))

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List live sessions."),
		mcp.WithOutputSchema[SessionList](),
	), mcp.NewStructuredToolHandler(s.handleList))
}

func (s *Server) handleInitialize(ctx context.Context, request mcp.CallToolRequest, args initializeArgs) (SessionResponse, error) {
	if args.PatientID == "" {
		return SessionResponse{}, errors.New("patient_id is required")
	}
	id, err := s.engine.InitializeSession(ctx, domain.PatientInfo{
		PatientID:        args.PatientID,
		HospitalID:       args.HospitalID,
		Name:             args.Name,
		AppointmentID:    args.AppointmentID,
		Department:       args.Department,
		DoctorID:         args.DoctorID,
		InitialArea:      domain.Area(args.InitialArea),
		HasPrescriptions: args.HasPrescriptions,
		HasLabOrders:     args.HasLabOrders,
	})
	if err != nil {
		return SessionResponse{}, s.toolError("initialize_session", err)
	}
	return s.handleGetState(ctx, request, sessionArgs{SessionID: id})
}

func (s *Server) handleMessage(ctx context.Context, request mcp.CallToolRequest, args messageArgs) (SessionResponse, error) {
	return s.event(ctx, "send_message", args.SessionID, domain.NewUserMessage(args.Text))
}

func (s *Server) handleLocation(ctx context.Context, request mcp.CallToolRequest, args locationArgs) (SessionResponse, error) {
	return s.event(ctx, "update_location", args.SessionID, domain.NewLocationUpdate(domain.LocationSignal{
		Area:      domain.Area(args.Area),
		BeaconID:  args.BeaconID,
		Latitude:  args.Latitude,
		Longitude: args.Longitude,
	}))
}

func (s *Server) handleSignal(ctx context.Context, request mcp.CallToolRequest, args signalArgs) (SessionResponse, error) {
	var data map[string]any
	if args.Data != "" {
		if err := json.Unmarshal([]byte(args.Data), &data); err != nil {
			return SessionResponse{}, errors.New("data must be a JSON object")
		}
	}
	return s.event(ctx, "send_signal", args.SessionID, domain.NewSystemSignal(args.Signal, data))
}

func (s *Server) handleEmergency(ctx context.Context, request mcp.CallToolRequest, args emergencyArgs) (SessionResponse, error) {
	state, err := s.engine.TriggerEmergency(ctx, args.SessionID, args.Description)
	if err != nil {
		return SessionResponse{}, s.toolError("trigger_emergency", err)
	}
	return SessionResponse{SessionID: args.SessionID, State: state}, nil
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (SessionResponse, error) {
	state, err := s.engine.GetState(ctx, args.SessionID)
	if err != nil {
		return SessionResponse{}, s.toolError("get_state", err)
	}
	return SessionResponse{SessionID: args.SessionID, State: state}, nil
}

func (s *Server) handleEnd(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (SessionResponse, error) {
	if err := s.engine.EndSession(ctx, args.SessionID); err != nil {
		return SessionResponse{}, s.toolError("end_session", err)
	}
	return SessionResponse{SessionID: args.SessionID, Ended: true}, nil
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, args struct{}) (SessionList, error) {
	list, err := s.engine.ListSessions(ctx)
	if err != nil {
		return SessionList{}, s.toolError("list_sessions", err)
	}
	return SessionList{Sessions: list}, nil
}

func (s *Server) event(ctx context.Context, tool, sessionID string, ev domain.Event) (SessionResponse, error) {
	if err := ev.Validate(); err != nil {
		return SessionResponse{}, errors.New("invalid event")
	}
	ev.Source = "mcp"
	state, err := s.engine.HandleEvent(ctx, sessionID, ev)
	if err != nil {
		return SessionResponse{}, s.toolError(tool, err)
	}
	return SessionResponse{SessionID: sessionID, State: state}, nil
}

// toolError keeps internal details out of tool results.
func (s *Server) toolError(tool string, err error) error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.ErrSessionNotFound
	}
	s.logger.Error("mcp tool failed", "tool", tool, "err", err)
	return errInternal
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Live Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, err := s.engine.ListSessions(ctx)
		if err != nil {
			return nil, s.toolError("resource sessions", err)
		}
		jsonBytes, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("failed to encode sessions: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
