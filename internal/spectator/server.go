// Package spectator publishes a running game over HTTP and websockets.
// It only ever sees copies of the game state.
package spectator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/purchess/purchess/internal/chess"
	"github.com/purchess/purchess/internal/game"
	"github.com/rs/zerolog/log"
)

// historySize bounds the events kept for late joiners.
const historySize = 256

// Snapshot is the body of GET /api/game.
type Snapshot struct {
	GameID          string              `json:"gameId"`
	State           *game.View          `json:"state"`
	Material        chess.MaterialCount `json:"materialCount"`
	MaterialBalance int                 `json:"materialBalance"`
	Spectators      int                 `json:"spectators"`
	Events          int                 `json:"events"`
}

// Server is the spectator feed for one game.
type Server struct {
	id     uuid.UUID
	hub    *Hub
	router *mux.Router

	mu      sync.RWMutex
	state   *game.View
	history []game.Event

	srv    *http.Server
	addr   string
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds the routes for game id. Nothing listens until Start.
func New(id uuid.UUID) *Server {
	s := &Server{id: id, hub: NewHub()}
	r := mux.NewRouter()
	r.Use(cors)
	r.HandleFunc("/api/health", s.HealthHandler).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/game", s.GameHandler).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/game/events", s.EventsHandler).Methods("GET", "OPTIONS")
	r.HandleFunc("/ws", s.WebSocketHandler).Methods("GET")
	s.router = r
	return s
}

// cors lets spectator pages hosted elsewhere read the feed.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GameID identifies the game in every payload.
func (s *Server) GameID() uuid.UUID { return s.id }

// Handler exposes the router for embedding and tests.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the websocket fan-out.
func (s *Server) Hub() *Hub { return s.hub }

// Addr is the bound listen address once started.
func (s *Server) Addr() string { return s.addr }

// Publish records a game event and pushes it to spectators. It implements
// game.EventSink and never blocks.
func (s *Server) Publish(e game.Event) {
	s.mu.Lock()
	s.history = append(s.history, e)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	s.mu.Unlock()
	s.hub.Broadcast(Update{GameID: s.id.String(), Type: string(e.Kind), Data: e})
}

// SetState replaces the published snapshot. v must not be modified
// afterwards.
func (s *Server) SetState(v game.View) {
	s.mu.Lock()
	s.state = &v
	s.mu.Unlock()
	s.hub.Broadcast(Update{GameID: s.id.String(), Type: "state", Data: s.snapshot()})
}

func (s *Server) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		GameID:     s.id.String(),
		State:      s.state,
		Spectators: s.hub.Count(),
		Events:     len(s.history),
	}
	if s.state != nil {
		snap.Material = chess.MaterialOfPieces(s.state.Pieces)
		snap.MaterialBalance = snap.Material.Balance()
	}
	return snap
}

// HealthHandler reports liveness and the game id.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"gameId": s.id.String(),
	})
}

// GameHandler returns the latest snapshot, or 503 before the first one.
func (s *Server) GameHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	if snap.State == nil {
		http.Error(w, "Game not started", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

// EventsHandler returns the recent event history, oldest first.
func (s *Server) EventsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	events := append([]game.Event{}, s.history...)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"gameId": s.id.String(),
		"events": events,
		"total":  len(events),
	})
}

// WebSocketHandler attaches a spectator. The current snapshot is sent first.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	var hello []byte
	if snap := s.snapshot(); snap.State != nil {
		data, err := json.Marshal(Update{GameID: s.id.String(), Type: "state", Data: snap})
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal spectator snapshot")
			http.Error(w, "Failed to encode game", http.StatusInternalServerError)
			return
		}
		hello = data
	}
	s.hub.serve(w, r, hello)
}

// Start listens on addr and serves in the background. It returns the bound
// address, which differs from addr when addr asks for port 0.
func (s *Server) Start(ctx context.Context, addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("spectator listen on %s: %w", addr, err)
	}

	hubCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.hub.Run(hubCtx)
	}()

	s.addr = ln.Addr().String()
	s.srv = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", s.addr).Str("gameID", s.id.String()).Msg("Starting spectator server")
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Spectator server stopped")
		}
	}()
	return s.addr, nil
}

// Shutdown stops the listener and disconnects spectators.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	s.cancel()
	<-s.done
	log.Info().Str("gameID", s.id.String()).Msg("Spectator server exited")
	return err
}
