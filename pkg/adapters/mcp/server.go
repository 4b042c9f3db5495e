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

	"github.com/aretw0/ussdpilot"
	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/steps"
	"github.com/aretw0/ussdpilot/pkg/trigger"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs.
const (
	StepsURI   = "ussdpilot://steps"
	SessionURI = "ussdpilot://session"
)

// Engine defines what the MCP server needs from the automation core.
type Engine interface {
	SubmitMessage(ctx context.Context, msg trigger.Message) (*domain.TransactionRequest, error)
	StartTransaction(ctx context.Context, req domain.TransactionRequest) error
	Session(ctx context.Context) (*domain.SessionState, error)
}

// SubmitMessageArgs are the arguments of submit_message.
type SubmitMessageArgs struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// StartTransactionArgs are the arguments of start_transaction.
type StartTransactionArgs struct {
	Mode             string `json:"mode"`
	Amount           string `json:"amount"`
	Phone            string `json:"phone,omitempty"`
	Till             string `json:"till,omitempty"`
	Business         string `json:"business,omitempty"`
	Account          string `json:"account,omitempty"`
	Agent            string `json:"agent,omitempty"`
	Store            string `json:"store,omitempty"`
	AuthCode         string `json:"auth_code"`
	ConfirmAfterAuth bool   `json:"confirm_after_auth,omitempty"`
}

// Request converts the arguments into a transaction request.
func (a StartTransactionArgs) Request() (domain.TransactionRequest, error) {
	mode, err := domain.ParseMode(a.Mode)
	if err != nil {
		return domain.TransactionRequest{}, err
	}
	return domain.TransactionRequest{
		Mode:             mode,
		Amount:           strings.TrimSpace(a.Amount),
		Phone:            strings.TrimSpace(a.Phone),
		Till:             strings.TrimSpace(a.Till),
		Business:         strings.TrimSpace(a.Business),
		Account:          strings.TrimSpace(a.Account),
		Agent:            strings.TrimSpace(a.Agent),
		Store:            strings.TrimSpace(a.Store),
		AuthCode:         strings.TrimSpace(a.AuthCode),
		ConfirmAfterAuth: a.ConfirmAfterAuth,
	}, nil
}

// TransactionResponse reports whether a transaction was started.
type TransactionResponse struct {
	Accepted bool                       `json:"accepted" jsonschema_description:"True when a menu session was started"`
	Request  *domain.TransactionRequest `json:"request,omitempty" jsonschema_description:"The interpreted request, auth code masked"`
}

// SessionResponse describes the persisted session.
type SessionResponse struct {
	Found bool                 `json:"found" jsonschema_description:"False when no session was ever started"`
	State *domain.SessionState `json:"state,omitempty" jsonschema_description:"The session cursor, auth code masked"`
}

// Server wraps the Pilot and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("ussdpilot-mcp", strings.TrimSpace(ussdpilot.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	submitTool := mcp.NewTool("submit_message",
		mcp.WithDescription("Interpret an inbound SMS trigger (e.g. SM|0712345678|500) and start the transaction if the sender is authorized."),
		mcp.WithString("sender", mcp.Required(), mcp.Description("Originating phone number")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Message body")),
		mcp.WithOutputSchema[TransactionResponse](),
	)
	s.mcpServer.AddTool(submitTool, mcp.NewStructuredToolHandler(s.handleSubmitMessage))

	startTool := mcp.NewTool("start_transaction",
		mcp.WithDescription("Start a typed transaction directly, bypassing the sender allow-list."),
		mcp.WithString("mode", mcp.Required(), mcp.Enum("SEND_MONEY", "TILL", "PAYBILL", "WITHDRAW")),
		mcp.WithString("amount", mcp.Required()),
		mcp.WithString("phone", mcp.Description("Recipient phone (SEND_MONEY)")),
		mcp.WithString("till", mcp.Description("Till number (TILL)")),
		mcp.WithString("business", mcp.Description("Business number (PAYBILL)")),
		mcp.WithString("account", mcp.Description("Account number (PAYBILL)")),
		mcp.WithString("agent", mcp.Description("Agent number (WITHDRAW)")),
		mcp.WithString("store", mcp.Description("Store number (WITHDRAW)")),
		mcp.WithString("auth_code", mcp.Required(), mcp.Description("PIN typed at the authentication step")),
		mcp.WithBoolean("confirm_after_auth", mcp.Description("Answer the confirmation screen after the PIN")),
		mcp.WithOutputSchema[TransactionResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStartTransaction))

	statusTool := mcp.NewTool("session_status",
		mcp.WithDescription("Report the current automation session."),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleSessionStatus))
}

func (s *Server) handleSubmitMessage(ctx context.Context, _ mcp.CallToolRequest, args SubmitMessageArgs) (TransactionResponse, error) {
	req, err := s.engine.SubmitMessage(ctx, trigger.Message{Sender: args.Sender, Body: args.Body})
	if err != nil {
		s.logger.Error("MCP submit_message failed", "err", err)
		return TransactionResponse{}, fmt.Errorf("submit failed: %w", err)
	}
	if req == nil {
		return TransactionResponse{Accepted: false}, nil
	}
	redacted := req.Redacted()
	return TransactionResponse{Accepted: true, Request: &redacted}, nil
}

func (s *Server) handleStartTransaction(ctx context.Context, _ mcp.CallToolRequest, args StartTransactionArgs) (TransactionResponse, error) {
	req, err := args.Request()
	if err != nil {
		return TransactionResponse{}, err
	}
	if err := s.engine.StartTransaction(ctx, req); err != nil {
		return TransactionResponse{}, fmt.Errorf("start failed: %w", err)
	}
	redacted := req.Redacted()
	return TransactionResponse{Accepted: true, Request: &redacted}, nil
}

func (s *Server) handleSessionStatus(ctx context.Context, _ mcp.CallToolRequest, _ struct{}) (SessionResponse, error) {
	state, err := s.engine.Session(ctx)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return SessionResponse{Found: false}, nil
	}
	if err != nil {
		return SessionResponse{}, fmt.Errorf("session lookup failed: %w", err)
	}
	return SessionResponse{Found: true, State: state.Redacted()}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StepsURI, "Step chains",
		mcp.WithResourceDescription("The per-mode step table driven against the menu"),
		mcp.WithMIMEType("text/markdown"),
	), s.readSteps)

	s.mcpServer.AddResource(mcp.NewResource(SessionURI, "Current session",
		mcp.WithMIMEType("application/json"),
	), s.readSession)
}

func (s *Server) readSteps(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      StepsURI,
			MIMEType: "text/markdown",
			Text:     steps.Markdown(),
		},
	}, nil
}

func (s *Server) readSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	resp, err := s.handleSessionStatus(ctx, mcp.CallToolRequest{}, struct{}{})
	if err != nil {
		return nil, err
	}
	jsonBytes, _ := json.Marshal(resp)
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SessionURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
