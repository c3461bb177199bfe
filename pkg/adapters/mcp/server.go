package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/clocktower/internal/runtime"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GamesResponse lists stored game ids.
type GamesResponse struct {
	Games []string `json:"games" jsonschema_description:"Ids of the stored games"`
}

// EventsResponse carries public events of one game.
type EventsResponse struct {
	Events []domain.Event `json:"events" jsonschema_description:"Public events after the requested sequence number"`
}

// GrimoireResponse is the revealed ground truth of a finished game.
type GrimoireResponse struct {
	Entries []domain.GrimoireEntry `json:"entries" jsonschema_description:"Every seat with its true character and state"`
}

// Server exposes stored games read-only to MCP hosts. Agents see only what a
// seated participant could see; the grimoire stays sealed until the game ends.
type Server struct {
	store     ports.EventStore
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates an MCP server over the given store.
func NewServer(store ports.EventStore, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:     store,
		mcpServer: server.NewMCPServer("clocktower-mcp", version),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
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
	s.mcpServer.AddTool(mcp.NewTool("list_games",
		mcp.WithDescription("List the ids of all stored games."),
		mcp.WithOutputSchema[GamesResponse](),
	), mcp.NewStructuredToolHandler(s.handleListGames))

	s.mcpServer.AddTool(mcp.NewTool("game_summary",
		mcp.WithDescription("Public state of a game: phase, round, living players and the outcome if it is over."),
		mcp.WithString("game_id", mcp.Required(), mcp.Description("The game id")),
		mcp.WithOutputSchema[domain.GameSummary](),
	), mcp.NewStructuredToolHandler(s.handleSummary))

	s.mcpServer.AddTool(mcp.NewTool("public_events",
		mcp.WithDescription("Public events of a game, optionally after a sequence number."),
		mcp.WithString("game_id", mcp.Required(), mcp.Description("The game id")),
		mcp.WithNumber("since", mcp.Description("Only events with a greater sequence number (optional)")),
		mcp.WithOutputSchema[EventsResponse](),
	), mcp.NewStructuredToolHandler(s.handleEvents))

	s.mcpServer.AddTool(mcp.NewTool("participant_view",
		mcp.WithDescription("Everything the participant in a seat has observed: their character, public and private events and their information."),
		mcp.WithString("game_id", mcp.Required(), mcp.Description("The game id")),
		mcp.WithNumber("seat", mcp.Required(), mcp.Description("The participant's seat")),
		mcp.WithOutputSchema[domain.View](),
	), mcp.NewStructuredToolHandler(s.handleView))

	s.mcpServer.AddTool(mcp.NewTool("grimoire",
		mcp.WithDescription("The storyteller's grimoire of a finished game."),
		mcp.WithString("game_id", mcp.Required(), mcp.Description("The game id")),
		mcp.WithOutputSchema[GrimoireResponse](),
	), mcp.NewStructuredToolHandler(s.handleGrimoire))
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("clocktower://games", "Stored games",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		games, err := s.handleListGames(ctx, mcp.CallToolRequest{}, nil)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(games)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "clocktower://games",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func (s *Server) handleListGames(ctx context.Context, _ mcp.CallToolRequest, _ map[string]interface{}) (GamesResponse, error) {
	games, err := s.store.List(ctx)
	if err != nil {
		return GamesResponse{}, fmt.Errorf("list games: %w", err)
	}
	return GamesResponse{Games: games}, nil
}

func (s *Server) handleSummary(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (domain.GameSummary, error) {
	id, events, err := s.load(ctx, args)
	if err != nil {
		return domain.GameSummary{}, err
	}
	return runtime.Summarize(id, events)
}

func (s *Server) handleEvents(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (EventsResponse, error) {
	_, events, err := s.load(ctx, args)
	if err != nil {
		return EventsResponse{}, err
	}
	var since uint64
	if n, ok := args["since"].(float64); ok && n > 0 {
		since = uint64(n)
	}
	out := make([]domain.Event, 0, len(events))
	for _, evt := range events {
		if evt.Seq > since && evt.Visibility == domain.VisibilityPublic {
			out = append(out, evt)
		}
	}
	return EventsResponse{Events: out}, nil
}

func (s *Server) handleView(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (domain.View, error) {
	seat, ok := args["seat"].(float64)
	if !ok {
		return domain.View{}, errors.New("seat is required")
	}
	_, events, err := s.load(ctx, args)
	if err != nil {
		return domain.View{}, err
	}
	return runtime.ReplayView(events, domain.Seat(seat))
}

func (s *Server) handleGrimoire(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (GrimoireResponse, error) {
	_, events, err := s.load(ctx, args)
	if err != nil {
		return GrimoireResponse{}, err
	}
	g, err := runtime.Replay(events)
	if err != nil {
		return GrimoireResponse{}, err
	}
	if !g.Over {
		return GrimoireResponse{}, errors.New("the grimoire is sealed until the game ends")
	}
	return GrimoireResponse{Entries: g.Entries()}, nil
}

func (s *Server) load(ctx context.Context, args map[string]interface{}) (string, []domain.Event, error) {
	id, _ := args["game_id"].(string)
	if id == "" {
		return "", nil, errors.New("game_id is required")
	}
	events, err := s.store.Load(ctx, id)
	if err != nil {
		s.logger.Warn("MCP: load failed", "game", id, "err", err)
		return "", nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return id, events, nil
}
