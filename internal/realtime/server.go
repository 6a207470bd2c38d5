package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/nacnacnacnac/naberlamusic-sub000/internal/playback"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks happen at the gateway; everything here sits behind it.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Server struct {
	registry *Registry
	hub      *Hub
	rdb      *redis.Client
}

func NewServer(registry *Registry, hub *Hub, rdb *redis.Client) *Server {
	return &Server{
		registry: registry,
		hub:      hub,
		rdb:      rdb,
	}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/ws/player", s.handlePlayerWS)
	r.Get("/ws/events", s.handleEventsWS)

	r.Get("/sessions", s.handleListSessions)
	r.Get("/sessions/{id}/state", s.handleGetState)
	r.Post("/sessions/{id}/pause", s.handleSetPaused)
	r.Get("/sessions/{id}/history", s.handleGetHistory)
	r.Post("/sessions/{id}/validate", s.handleValidate)

	return r
}

// RunRedisSubscriber pumps the shared "broadcast" channel into the
// observer hub. Blocks until ctx is cancelled.
func (s *Server) RunRedisSubscriber(ctx context.Context) {
	sub := s.rdb.Subscribe(ctx, "broadcast")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.hub.broadcast <- []byte(msg.Payload)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "realtime",
	})
}

// handlePlayerWS attaches an embedded player. A `session` query param
// reattaches to an existing session (screen remount); otherwise a fresh
// session is created.
func (s *Server) handlePlayerWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: ws upgrade: %v", err)
		return
	}

	client := newPlayerClient(conn)

	sessionID := r.URL.Query().Get("session")
	session, ok := s.registry.Get(sessionID)
	if ok {
		session.AttachHandle(client)
	} else {
		sessionID = uuid.NewString()
		session = playback.NewSession(sessionID, client)
		s.registry.Add(session)
	}
	client.session = session

	// The pumps outlive this handler, so the hooks cannot hold r.Context().
	client.onStateChange = func() {
		s.publishEvent(context.Background(), "player.state_changed", session.State())
	}
	client.onClose = func() {
		s.publishEvent(context.Background(), "player.detached", map[string]any{
			"sessionId": session.ID(),
		})
	}

	welcome := playerMessage{Type: msgWelcome, Message: sessionID}
	if b, err := json.Marshal(welcome); err == nil {
		client.send <- b
	}

	go client.writePump()
	go client.readPump()

	s.publishEvent(r.Context(), "player.attached", map[string]any{
		"sessionId": sessionID,
	})
}

// handleEventsWS attaches an observer to the broadcast feed.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: observer upgrade: %v", err)
		return
	}

	obs := &Observer{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.hub.register <- obs

	welcome := map[string]any{
		"type": msgWelcome,
		"now":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.Marshal(welcome); err == nil {
		obs.send <- b
	}

	go obs.writePump()
	go obs.readPump()
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.registry.List(),
	})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	session, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, session.State())
}

// handleSetPaused applies a play/pause intent. The response carries the
// optimistic state; the authoritative confirmation arrives later as a
// player.state_changed event.
func (s *Server) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	session, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var body struct {
		Paused *bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Paused == nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body, expected {\"paused\": bool}")
		return
	}

	session.SetPaused(r.Context(), *body.Paused)
	state := session.State()

	s.publishEvent(r.Context(), "player.state_changed", state)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	session, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshots": session.History(),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	session, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, session.Validate(r.Context()))
}

func (s *Server) publishEvent(ctx context.Context, eventType string, payload any) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(map[string]any{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		log.Printf("realtime: marshal event: %v", err)
		return
	}
	if err := s.rdb.Publish(ctx, "broadcast", string(data)).Err(); err != nil {
		log.Printf("realtime: publish event: %v", err)
	}
}
