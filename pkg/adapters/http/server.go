package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/clocktower/internal/runtime"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const apiVersion = "0.1.0"

// Server exposes stored game logs read-only over HTTP. Live games can publish
// their public events to SSE subscribers through Streams.
type Server struct {
	Store   ports.EventStore
	Streams *StreamManager
	Version string
	Logger  *slog.Logger
}

// NewServer creates a server over the given store.
func NewServer(store ports.EventStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Store:   store,
		Streams: NewStreamManager(logger),
		Version: "dev",
		Logger:  logger,
	}
}

// Handler returns the router for the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Route("/games", func(r chi.Router) {
		r.Get("/", s.ListGames)
		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", s.GetGame)
			r.Get("/events", s.GetEvents)
			r.Get("/views/{seat}", s.GetView)
			r.Get("/grimoire", s.GetGrimoire)
			r.Get("/stream", s.SubscribeEvents)
		})
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "clocktower-http",
		"version":     s.Version,
		"api_version": apiVersion,
	})
}

// ListGames handles GET /games.
func (s *Server) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.Store.List(r.Context())
	if err != nil {
		s.fail(w, "list games", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"games": games})
}

// GetGame handles GET /games/{gameID}.
func (s *Server) GetGame(w http.ResponseWriter, r *http.Request) {
	events, ok := s.load(w, r)
	if !ok {
		return
	}
	summary, err := runtime.Summarize(chi.URLParam(r, "gameID"), events)
	if err != nil {
		s.fail(w, "replay game", err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// GetEvents handles GET /games/{gameID}/events?since=N. Only public events are served.
func (s *Server) GetEvents(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "since must be a non-negative integer", http.StatusBadRequest)
			return
		}
		since = n
	}

	events, ok := s.load(w, r)
	if !ok {
		return
	}
	out := make([]domain.Event, 0, len(events))
	for _, evt := range events {
		if evt.Seq > since && evt.Visibility == domain.VisibilityPublic {
			out = append(out, evt)
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetView handles GET /games/{gameID}/views/{seat}.
func (s *Server) GetView(w http.ResponseWriter, r *http.Request) {
	seat, err := strconv.Atoi(chi.URLParam(r, "seat"))
	if err != nil {
		http.Error(w, "seat must be an integer", http.StatusBadRequest)
		return
	}
	events, ok := s.load(w, r)
	if !ok {
		return
	}
	view, err := runtime.ReplayView(events, domain.Seat(seat))
	if errors.Is(err, domain.ErrUnknownParticipant) {
		http.Error(w, fmt.Sprintf("no seat %d", seat), http.StatusNotFound)
		return
	}
	if err != nil {
		s.fail(w, "replay view", err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// GetGrimoire handles GET /games/{gameID}/grimoire. The ground truth is only
// served once the game is over.
func (s *Server) GetGrimoire(w http.ResponseWriter, r *http.Request) {
	events, ok := s.load(w, r)
	if !ok {
		return
	}
	g, err := runtime.Replay(events)
	if err != nil {
		s.fail(w, "replay game", err)
		return
	}
	if !g.Over {
		http.Error(w, "the grimoire is sealed until the game ends", http.StatusForbidden)
		return
	}
	s.writeJSON(w, http.StatusOK, g.Entries())
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) ([]domain.Event, bool) {
	id := chi.URLParam(r, "gameID")
	events, err := s.Store.Load(r.Context(), id)
	if errors.Is(err, domain.ErrGameNotFound) {
		http.Error(w, fmt.Sprintf("game %s not found", id), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.fail(w, "load game", err)
		return nil, false
	}
	return events, true
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.Logger.Error("http request failed", "op", op, "err", err)
	http.Error(w, fmt.Sprintf("%s: %v", op, err), http.StatusInternalServerError)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}
