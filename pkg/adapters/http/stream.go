package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// StreamManager fans public game events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- []byte]struct{} // gameID -> set of channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- []byte]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a subscriber for a game. The returned func unsubscribes and
// closes the channel.
func (sm *StreamManager) Subscribe(gameID string) (<-chan []byte, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan []byte, 32)
	if _, ok := sm.subscribers[gameID]; !ok {
		sm.subscribers[gameID] = make(map[chan<- []byte]struct{})
	}
	sm.subscribers[gameID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[gameID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, gameID)
			}
		}
	}
}

// Publish broadcasts a public event. Private and storyteller events are never streamed.
func (sm *StreamManager) Publish(gameID string, evt domain.Event) {
	if evt.Visibility != domain.VisibilityPublic {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		sm.logger.Error("stream: encode event", "game", gameID, "seq", evt.Seq, "err", err)
		return
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers[gameID] {
		select {
		case ch <- data:
		default:
			// Slow client.
			sm.logger.Warn("stream: client buffer full, dropping event", "game", gameID, "seq", evt.Seq)
		}
	}
}

// Hook adapts Publish to an engine event hook for one game.
func (sm *StreamManager) Hook(gameID string) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvent: func(_ context.Context, evt domain.Event) {
			sm.Publish(gameID, evt)
		},
	}
}

// SubscribeEvents handles GET /games/{gameID}/stream (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	gameID := chi.URLParam(r, "gameID")

	ch, cancel := s.Streams.Subscribe(gameID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("SSE client disconnected", "game", gameID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
