package status

import (
	"context"
	"encoding/json"
	"errors"
	log "log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/Nithin-2002-kumar/echo/internal/history"
)

// Event is one frame on the /ws feed: either a state transition or a
// completed exchange.
type Event struct {
	Kind     string    `json:"kind"` // "state" | "exchange"
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Command  string    `json:"command,omitempty"`
	Response string    `json:"response,omitempty"`
	At       time.Time `json:"at"`
}

// Server exposes a read-only view of the assistant: current state, recent
// history and a live event feed. It never mutates anything; the history
// store's snapshot reads make this safe alongside the dispatch loop.
type Server struct {
	history *history.Store
	state   func() string

	upgrader websocket.Upgrader
	srv      *http.Server

	mu   sync.Mutex
	subs map[*websocket.Conn]struct{}
}

func NewServer(addr string, hist *history.Store, state func() string) *Server {
	s := &Server{
		history: hist,
		state:   state,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subs: make(map[*websocket.Conn]struct{}),
	}
	s.srv = &http.Server{Addr: addr, Handler: s.Router()}
	return s
}

// Router builds the HTTP surface. Exposed separately so tests can drive it
// with httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/state", s.handleState)
	r.Get("/api/history", s.handleHistory)
	r.Get("/ws", s.handleWS)
	return r
}

// Start serves in the background.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("status server failed", "err", err)
		}
	}()
	log.Info("status server listening", "addr", s.srv.Addr)
}

// Shutdown stops the listener and drops all feed subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.subs {
		conn.Close()
	}
	s.subs = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	return s.srv.Shutdown(ctx)
}

// Publish broadcasts an event to every feed subscriber. Dead connections
// are dropped on write failure.
func (s *Server) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.subs {
		if err := conn.WriteJSON(ev); err != nil {
			conn.Close()
			delete(s.subs, conn)
		}
	}
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"state": s.state()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid n", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	entries := s.history.Recent(n)
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, entries)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("ws upgrade failed", "err", err)
		return
	}

	s.mu.Lock()
	s.subs[conn] = struct{}{}
	s.mu.Unlock()

	// Reader loop only detects the close; the feed is one-way.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.subs, conn)
				s.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encode response failed", "err", err)
	}
}
