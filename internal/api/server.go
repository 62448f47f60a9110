package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"stockgame/internal/game"
	"stockgame/internal/store"
)

// Server exposes the game over HTTP: a WebSocket endpoint for play, a
// couple of REST endpoints for polling and history, and an optional static
// frontend directory.
type Server struct {
	engine      *game.Engine
	hub         *Hub
	store       *store.Store
	rateLimiter *RateLimiter
	staticDir   string
	upgrader    websocket.Upgrader
	corsOrigins []string // Allowed CORS origins (empty = allow all)
}

func NewServer(engine *game.Engine, hub *Hub, st *store.Store) *Server {
	s := &Server{
		engine:      engine,
		hub:         hub,
		store:       st,
		rateLimiter: NewRateLimiter(120, time.Minute),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return s.checkCORSOrigin(r.Header.Get("Origin"))
		},
	}
	return s
}

// SetCORSOrigins restricts allowed origins. An empty slice allows all,
// which is the development default.
func (s *Server) SetCORSOrigins(origins []string) {
	s.corsOrigins = origins
}

// SetStaticDir serves the frontend from the given directory.
func (s *Server) SetStaticDir(dir string) {
	s.staticDir = dir
}

func (s *Server) checkCORSOrigin(origin string) bool {
	if len(s.corsOrigins) == 0 {
		return true
	}
	// Empty origin header = same-origin request, always allow
	if origin == "" {
		return true
	}
	for _, allowed := range s.corsOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	allowedOrigins := s.corsOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimiter.Middleware)
		r.Get("/state", s.handleState)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/rounds", s.handleRecentRounds)
	})

	// WebSocket
	r.Get("/ws", s.handleWebSocket)

	// Serve static files (frontend)
	if s.staticDir != "" {
		fileServer := http.FileServer(http.Dir(s.staticDir))
		r.Handle("/*", fileServer)
	}

	return r
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.CurrentSnapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "history not enabled", http.StatusNotFound)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	entries, err := s.store.Leaderboard(limit)
	if err != nil {
		http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (s *Server) handleRecentRounds(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "history not enabled", http.StatusNotFound)
		return
	}

	records, err := s.store.RecentRounds(10)
	if err != nil {
		http.Error(w, "failed to load rounds", http.StatusInternalServerError)
		return
	}

	type roundJSON struct {
		ID               string    `json:"id"`
		DurationSeconds  int       `json:"duration_seconds"`
		ParticipantCount int       `json:"participant_count"`
		EndedAt          time.Time `json:"ended_at"`
	}
	out := make([]roundJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, roundJSON{
			ID:               rec.ID,
			DurationSeconds:  rec.DurationSeconds,
			ParticipantCount: rec.ParticipantCount,
			EndedAt:          rec.EndedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &Client{
		hub:    s.hub,
		engine: s.engine,
		conn:   conn,
		id:     uuid.NewString(),
		send:   make(chan []byte, 256),
	}

	// Register before Connect so the init_status lands in the send queue.
	s.hub.Register(client)
	s.engine.Connect(client.id)

	go client.WritePump()
	go client.ReadPump()
}

// Shutdown stops internal goroutines (rate limiter, hub clients).
func (s *Server) Shutdown() {
	s.rateLimiter.Stop()
	s.hub.Stop()
}
