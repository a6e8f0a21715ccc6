package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/tesoro"
	"github.com/aretw0/tesoro/internal/logging"
	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StateURI is the resource that exposes the cached game state.
const StateURI = "tesoro://state"

// ToolResponse is the structured result of every game tool.
type ToolResponse struct {
	Status  domain.Status `json:"status" jsonschema_description:"Outcome status: ok, warn, error, timeout, no_reply or unavailable"`
	Message string        `json:"message" jsonschema_description:"Human readable reply, tagged when not ok"`
	Items   []string      `json:"items,omitempty" jsonschema_description:"List result for list-shaped queries"`
	State   domain.State  `json:"state" jsonschema_description:"Cached game state after the call"`
}

// Facade is the part of the game facade exposed as tools.
// Both *game.Game and *tesoro.Client satisfy it.
type Facade interface {
	ExecuteCommand(ctx context.Context, text string) domain.Outcome
	Move(ctx context.Context, dest string) domain.Outcome
	Take(ctx context.Context, obj string) domain.Outcome
	Use(ctx context.Context, obj string) domain.Outcome
	Reset(ctx context.Context) domain.Outcome
	Destinations(ctx context.Context) ([]string, domain.Outcome)
	ObjectsHere(ctx context.Context) ([]string, domain.Outcome)
	Inventory(ctx context.Context) ([]string, domain.Outcome)
	Visited(ctx context.Context) ([]string, domain.Outcome)
	HowToWin(ctx context.Context) ([]string, domain.Outcome)
	WhereAmI(ctx context.Context) domain.Outcome
	WhereIs(ctx context.Context, obj string) domain.Outcome
	CanGo(ctx context.Context, dest string) domain.Outcome
	CheckWin(ctx context.Context) domain.Outcome
	State() domain.State
}

// Server exposes a game facade as an MCP Server.
type Server struct {
	game      Facade
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(game Facade, opts ...Option) *Server {
	s := &Server{
		game:      game,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("tesoro-mcp", strings.TrimSpace(tesoro.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process transports.
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type (
	argFunc   func(ctx context.Context, arg string) domain.Outcome
	plainFunc func(ctx context.Context) domain.Outcome
	listFunc  func(ctx context.Context) ([]string, domain.Outcome)
)

func (s *Server) registerTools() {
	withArg := []struct {
		name, desc, param, paramDesc string
		fn                           argFunc
	}{
		{"move", "Move the player to a destination.", "destination", "Place to move to", s.game.Move},
		{"take", "Pick up an object at the current location.", "object", "Object to take", s.game.Take},
		{"use", "Use an object from the inventory.", "object", "Object to use", s.game.Use},
		{"where_is", "Ask where an object is.", "object", "Object to locate", s.game.WhereIs},
		{"can_go", "Ask whether a destination is reachable from here.", "destination", "Place to check", s.game.CanGo},
		{"execute", "Run a raw engine goal such as mover(templo).", "command", "Predicate call without the final full stop", s.game.ExecuteCommand},
	}
	for _, t := range withArg {
		tool := mcp.NewTool(t.name,
			mcp.WithDescription(t.desc),
			mcp.WithString(t.param, mcp.Required(), mcp.Description(t.paramDesc)),
			mcp.WithOutputSchema[ToolResponse](),
		)
		s.mcpServer.AddTool(tool, mcp.NewStructuredToolHandler(s.argHandler(t.name, t.param, t.fn)))
	}

	plain := []struct {
		name, desc string
		fn         plainFunc
	}{
		{"reset", "Restart the game from the beginning.", s.game.Reset},
		{"where_am_i", "Ask the engine for the current location.", s.game.WhereAmI},
		{"check_win", "Check whether the win condition holds.", s.game.CheckWin},
	}
	for _, t := range plain {
		tool := mcp.NewTool(t.name, mcp.WithDescription(t.desc), mcp.WithOutputSchema[ToolResponse]())
		fn := t.fn
		s.mcpServer.AddTool(tool, mcp.NewStructuredToolHandler(
			func(ctx context.Context, _ mcp.CallToolRequest, _ map[string]interface{}) (ToolResponse, error) {
				return s.respond(fn(ctx), nil), nil
			}))
	}

	lists := []struct {
		name, desc string
		fn         listFunc
	}{
		{"destinations", "List the places reachable from the current location.", s.game.Destinations},
		{"objects_here", "List the objects at the current location.", s.game.ObjectsHere},
		{"inventory", "List the objects the player carries.", s.game.Inventory},
		{"visited", "List the places visited so far.", s.game.Visited},
		{"how_to_win", "List the steps needed to win.", s.game.HowToWin},
	}
	for _, t := range lists {
		tool := mcp.NewTool(t.name, mcp.WithDescription(t.desc), mcp.WithOutputSchema[ToolResponse]())
		fn := t.fn
		s.mcpServer.AddTool(tool, mcp.NewStructuredToolHandler(
			func(ctx context.Context, _ mcp.CallToolRequest, _ map[string]interface{}) (ToolResponse, error) {
				items, out := fn(ctx)
				return s.respond(out, items), nil
			}))
	}
}

func (s *Server) argHandler(name, param string, fn argFunc) func(context.Context, mcp.CallToolRequest, map[string]interface{}) (ToolResponse, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (ToolResponse, error) {
		value, _ := args[param].(string)
		value = strings.TrimSpace(value)
		if value == "" {
			return ToolResponse{}, fmt.Errorf("missing required argument %q", param)
		}
		out := fn(ctx, value)
		s.logger.Debug("MCP tool call", "tool", name, "status", out.Status)
		return s.respond(out, nil), nil
	}
}

func (s *Server) respond(out domain.Outcome, items []string) ToolResponse {
	return ToolResponse{
		Status:  out.Status,
		Message: out.String(),
		Items:   items,
		State:   s.game.State(),
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Cached Game State",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.game.State())
		if err != nil {
			return nil, fmt.Errorf("failed to encode state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StateURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
