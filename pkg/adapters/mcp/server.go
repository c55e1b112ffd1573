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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/storyloom"
	"github.com/aretw0/storyloom/internal/logging"
	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/runner"
)

// SessionsURI lists the stored sessions as a resource.
const SessionsURI = "storyloom://sessions"

// Service is the part of storyloom.Service exposed as tools.
type Service interface {
	Submit(ctx context.Context, sessionID string, req domain.Requirement) (*domain.State, error)
	Answer(ctx context.Context, sessionID, answer string) (*domain.State, error)
	Ask(ctx context.Context, sessionID, question string) (*domain.State, error)
	Improve(ctx context.Context, sessionID string) (*domain.State, error)
	Get(ctx context.Context, sessionID string) (*domain.State, error)
	Reset(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

var _ Service = (*storyloom.Service)(nil)

// ResetResponse is returned by reset_session.
type ResetResponse struct {
	SessionID string `json:"session_id" jsonschema_description:"The discarded session"`
	Reset     bool   `json:"reset"`
}

type generateArgs struct {
	Requirement string `mapstructure:"requirement"`
	Context     string `mapstructure:"context"`
	SessionID   string `mapstructure:"session_id"`
}

type answerArgs struct {
	SessionID string `mapstructure:"session_id"`
	Answer    string `mapstructure:"answer"`
}

type questionArgs struct {
	SessionID string `mapstructure:"session_id"`
	Question  string `mapstructure:"question"`
}

type sessionArgs struct {
	SessionID string `mapstructure:"session_id"`
}

// Server wraps the storyloom Service and exposes it as an MCP Server.
type Server struct {
	svc       Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger used for tool failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("storyloom-mcp", strings.TrimSpace(storyloom.Version),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	s.registerTools()
	s.registerResources()
	return s
}

const instructions = `storyloom turns a requirement into Agile user stories and refines them through clarification questions.
Call generate_story first, then relay each pending_question to the user and pass the reply to answer_question.
Use ask_question for the user's own questions and improve_story to rewrite the story with what was learned.`

// MCPServer exposes the underlying server, e.g. for HandleMessage in tests.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
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

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: generate_story
	s.mcpServer.AddTool(mcp.NewTool("generate_story",
		mcp.WithDescription("Generate user stories with acceptance criteria, edge cases and assumptions from a requirement. Returns the story and one clarification question."),
		mcp.WithString("requirement", mcp.Required(), mcp.Description("The requirement text")),
		mcp.WithString("context", mcp.Description("Optional domain context")),
		mcp.WithString("session_id", mcp.Description("Session to create or replace (a new ID is assigned when omitted)")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleGenerate))

	// TOOL: answer_question
	s.mcpServer.AddTool(mcp.NewTool("answer_question",
		mcp.WithDescription("Answer the pending clarification question. The story is kept; a new question is returned."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("answer", mcp.Required(), mcp.Description("The user's answer")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	// TOOL: ask_question
	s.mcpServer.AddTool(mcp.NewTool("ask_question",
		mcp.WithDescription("Ask a free question about the current story."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("question", mcp.Required(), mcp.Description("The user's question")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleAsk))

	// TOOL: improve_story
	s.mcpServer.AddTool(mcp.NewTool("improve_story",
		mcp.WithDescription("Rewrite the story to be clearer and easier to test. Clears the clarification history."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleImprove))

	// TOOL: get_session
	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Return the stored story, pending question and dialogue of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	// TOOL: reset_session
	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Discard a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[ResetResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))
}

// Handler methods for structured tools

func (s *Server) handleGenerate(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (runner.RichResponse, error) {
	var in generateArgs
	if err := decodeArgs(args, &in); err != nil {
		return runner.RichResponse{}, err
	}
	state, err := s.svc.Submit(ctx, in.SessionID, domain.Requirement{Text: in.Requirement, Context: in.Context})
	if err != nil {
		return runner.RichResponse{}, s.toolError("generate_story", in.SessionID, err)
	}
	return *runner.Respond(nil, state), nil
}

func (s *Server) handleAnswer(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (runner.RichResponse, error) {
	var in answerArgs
	if err := decodeArgs(args, &in); err != nil {
		return runner.RichResponse{}, err
	}
	return s.transition(ctx, "answer_question", in.SessionID, func(ctx context.Context) (*domain.State, error) {
		return s.svc.Answer(ctx, in.SessionID, in.Answer)
	})
}

func (s *Server) handleAsk(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (runner.RichResponse, error) {
	var in questionArgs
	if err := decodeArgs(args, &in); err != nil {
		return runner.RichResponse{}, err
	}
	return s.transition(ctx, "ask_question", in.SessionID, func(ctx context.Context) (*domain.State, error) {
		return s.svc.Ask(ctx, in.SessionID, in.Question)
	})
}

func (s *Server) handleImprove(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (runner.RichResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return runner.RichResponse{}, err
	}
	return s.transition(ctx, "improve_story", in.SessionID, func(ctx context.Context) (*domain.State, error) {
		return s.svc.Improve(ctx, in.SessionID)
	})
}

func (s *Server) handleGet(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (runner.RichResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return runner.RichResponse{}, err
	}
	state, err := s.svc.Get(ctx, in.SessionID)
	if err != nil {
		return runner.RichResponse{}, s.toolError("get_session", in.SessionID, err)
	}
	return runner.RichResponse{State: state, Blocks: runner.History(state)}, nil
}

func (s *Server) handleReset(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (ResetResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return ResetResponse{}, err
	}
	if _, err := s.svc.Get(ctx, in.SessionID); err != nil {
		return ResetResponse{}, s.toolError("reset_session", in.SessionID, err)
	}
	if err := s.svc.Reset(ctx, in.SessionID); err != nil {
		return ResetResponse{}, s.toolError("reset_session", in.SessionID, err)
	}
	return ResetResponse{SessionID: in.SessionID, Reset: true}, nil
}

func (s *Server) transition(ctx context.Context, tool, sessionID string, fn func(context.Context) (*domain.State, error)) (runner.RichResponse, error) {
	prev, err := s.svc.Get(ctx, sessionID)
	if err != nil {
		return runner.RichResponse{}, s.toolError(tool, sessionID, err)
	}
	next, err := fn(ctx)
	if err != nil {
		return runner.RichResponse{}, s.toolError(tool, sessionID, err)
	}
	return *runner.Respond(prev, next), nil
}

func (s *Server) toolError(tool, sessionID string, err error) error {
	s.logger.Warn("MCP tool failed", "tool", tool, "session_id", sessionID, "err", err)
	return fmt.Errorf("%s failed: %w", tool, err)
}

// decodeArgs maps the loosely typed tool arguments onto a struct.
func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (s *Server) registerResources() {
	// EXPOSE: storyloom://sessions
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Stored sessions",
		mcp.WithResourceDescription("IDs of the stored storyloom sessions"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.svc.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
