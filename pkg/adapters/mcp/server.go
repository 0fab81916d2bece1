// Package mcp exposes the bot to AI agents over the Model Context
// Protocol. Sessions live in the shared session store, so an agent can
// interleave with other frontends on the same conversation.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/necyberteam/qabot"
	"github.com/necyberteam/qabot/internal/logging"
	"github.com/necyberteam/qabot/pkg/domain"
	"github.com/necyberteam/qabot/pkg/query"
	"github.com/necyberteam/qabot/pkg/session"
	"github.com/necyberteam/qabot/pkg/submit"
)

// ViewResult is the unified tool output across adapters.
type ViewResult struct {
	SessionID     string   `json:"session_id" jsonschema_description:"The conversation session identifier"`
	Node          string   `json:"node" jsonschema_description:"The current dialog node"`
	Message       string   `json:"message" jsonschema_description:"The assistant's message"`
	Options       []string `json:"options,omitempty" jsonschema_description:"Choices the user may pick from"`
	InputDisabled bool     `json:"input_disabled" jsonschema_description:"True when only the listed options are accepted"`
	Rejection     string   `json:"rejection,omitempty" jsonschema_description:"Validation message when the last input was rejected"`
	Posted        []string `json:"posted,omitempty" jsonschema_description:"Messages posted out of band during the turn"`
}

// Config wires the server's backends.
type Config struct {
	Sessions *session.Manager
	Tickets  *submit.Client

	QueryBase string
	QueryKey  string
	Dev       bool

	Logger *slog.Logger
	Hooks  domain.LifecycleHooks
}

// Server wraps the bot and exposes it as an MCP server.
type Server struct {
	cfg       Config
	logger    *slog.Logger
	mcpServer *server.MCPServer

	mu   sync.Mutex
	bots map[string]*qabot.Bot
}

// NewServer creates a new MCP server instance.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("mcp: session manager is required")
	}
	if cfg.Tickets == nil {
		return nil, fmt.Errorf("mcp: ticket client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		mcpServer: server.NewMCPServer("qabot-mcp", qabot.Version),
		bots:      make(map[string]*qabot.Bot),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
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
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
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

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_session",
		mcp.WithDescription("Start a new support conversation. Returns the session id and the main menu."),
		mcp.WithString("identity", mcp.Description("JSON object with the user's known email, name and username (optional)")),
		mcp.WithBoolean("authenticated", mcp.Description("Whether the user is logged in; enables the Q&A flow")),
		mcp.WithOutputSchema[ViewResult](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStartSession))

	messageTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send the user's message or option choice to an existing conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session id returned by start_session")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The user's message, or the exact text of one of the offered options")),
		mcp.WithOutputSchema[ViewResult](),
	)
	s.mcpServer.AddTool(messageTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	renderTool := mcp.NewTool("render",
		mcp.WithDescription("Re-render the current view of a conversation without sending input."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session id")),
		mcp.WithOutputSchema[ViewResult](),
	)
	s.mcpServer.AddTool(renderTool, mcp.NewStructuredToolHandler(s.handleRender))
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("qabot://nodes", "Dialog Node Names",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		bot, err := s.buildBot(uuid.NewString(), domain.Identity{}, false)
		if err != nil {
			return nil, fmt.Errorf("failed to compose flow: %w", err)
		}
		jsonBytes, _ := json.Marshal(bot.Nodes())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "qabot://nodes",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ViewResult, error) {
	var identity domain.Identity
	identityRaw := map[string]any{}
	if idStr, ok := args["identity"].(string); ok && idStr != "" {
		if err := json.Unmarshal([]byte(idStr), &identityRaw); err != nil {
			return ViewResult{}, fmt.Errorf("invalid identity: %w", err)
		}
		if err := mapstructure.Decode(identityRaw, &identity); err != nil {
			return ViewResult{}, fmt.Errorf("invalid identity: %w", err)
		}
	}
	authenticated, _ := args["authenticated"].(bool)

	sessionID := uuid.NewString()
	bot, err := s.buildBot(sessionID, identity, authenticated)
	if err != nil {
		return ViewResult{}, fmt.Errorf("session build failed: %w", err)
	}

	state := bot.Start()
	state.Context["identity"] = identityRaw
	state.Context["authenticated"] = authenticated

	view, err := bot.Render(ctx, state, nil)
	if err != nil {
		return ViewResult{}, fmt.Errorf("render failed: %w", err)
	}
	if err := s.cfg.Sessions.Save(ctx, sessionID, state); err != nil {
		return ViewResult{}, fmt.Errorf("save failed: %w", err)
	}

	s.mu.Lock()
	s.bots[sessionID] = bot
	s.mu.Unlock()

	return mapView(sessionID, view, nil), nil
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ViewResult, error) {
	sessionID, _ := args["session_id"].(string)
	text, _ := args["text"].(string)

	var (
		view   *qabot.View
		posted []string
	)
	err := s.cfg.Sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := s.cfg.Sessions.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		bot, err := s.bot(sessionID, state)
		if err != nil {
			return err
		}
		newState, v, err := bot.Navigate(ctx, state, domain.TextInput(text), func(msg string) {
			posted = append(posted, msg)
		})
		if err != nil {
			return fmt.Errorf("navigate: %w", err)
		}
		view = v
		return s.cfg.Sessions.Save(ctx, sessionID, newState)
	})
	if err != nil {
		return ViewResult{}, err
	}
	return mapView(sessionID, view, posted), nil
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ViewResult, error) {
	sessionID, _ := args["session_id"].(string)

	state, err := s.cfg.Sessions.Load(ctx, sessionID)
	if err != nil {
		return ViewResult{}, err
	}
	bot, err := s.bot(sessionID, state)
	if err != nil {
		return ViewResult{}, err
	}
	view, err := bot.Render(ctx, state, nil)
	if err != nil {
		return ViewResult{}, fmt.Errorf("render failed: %w", err)
	}
	return mapView(sessionID, view, nil), nil
}

func (s *Server) bot(sessionID string, state *domain.State) (*qabot.Bot, error) {
	s.mu.Lock()
	cached, ok := s.bots[sessionID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	var identity domain.Identity
	if raw, ok := state.Context["identity"]; ok && raw != nil {
		if err := mapstructure.Decode(raw, &identity); err != nil {
			return nil, fmt.Errorf("restore identity: %w", err)
		}
	}
	authenticated, _ := state.Context["authenticated"].(bool)

	bot, err := s.buildBot(sessionID, identity, authenticated)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.bots[sessionID] = bot
	s.mu.Unlock()
	return bot, nil
}

func (s *Server) buildBot(sessionID string, identity domain.Identity, authenticated bool) (*qabot.Bot, error) {
	opts := []qabot.Option{
		qabot.WithIdentity(identity),
		qabot.WithLogger(s.logger.With("session_id", sessionID)),
		qabot.WithLifecycleHooks(s.cfg.Hooks),
	}
	if authenticated && s.cfg.QueryBase != "" {
		opts = append(opts, qabot.WithQueryClient(query.NewClient(s.cfg.QueryBase, s.cfg.QueryKey, sessionID)))
	}
	if s.cfg.Dev {
		opts = append(opts, qabot.WithDevDesk())
	}
	return qabot.New(sessionID, s.cfg.Tickets, opts...)
}

func mapView(sessionID string, v *qabot.View, posted []string) ViewResult {
	return ViewResult{
		SessionID:     sessionID,
		Node:          v.Node,
		Message:       v.Message,
		Options:       v.Options,
		InputDisabled: v.InputDisabled,
		Rejection:     v.Rejection,
		Posted:        posted,
	}
}
