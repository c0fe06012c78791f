package chat

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type EventType string

const (
	EventMessageAdded   EventType = "message.added"
	EventMessageUpdated EventType = "message.updated"
	EventSessionReset   EventType = "session.reset"
	EventStateChanged   EventType = "state.changed"
)

// Event is pushed to subscribers of a session.
type Event struct {
	Type      EventType `json:"type"`
	SessionID uuid.UUID `json:"sessionId"`
	State     State     `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscription receives the events of one session until cancelled.
type Subscription struct {
	C       <-chan Event
	send    chan Event
	session uuid.UUID
}

// Hub fans session events out to subscribers. Slow subscribers drop events.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(sessionID uuid.UUID) *Subscription {
	ch := make(chan Event, 64)
	sub := &Subscription{C: ch, send: ch, session: sessionID}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*Subscription]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[sub.session]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.session)
	}
	close(sub.send)
}

func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[e.SessionID] {
		select {
		case sub.send <- e:
		default:
		}
	}
}

func (h *Hub) SubscriberCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// newUpgrader accepts connections from the configured origins, from the
// serving host itself, and from clients that send no Origin header.
// "*" accepts any origin.
func newUpgrader(origins []string) *websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed["*"] || allowed[origin] {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// serveEvents upgrades the connection and streams the session's events
// until the client goes away.
func serveEvents(w http.ResponseWriter, r *http.Request, upgrader *websocket.Upgrader, hub *Hub, sessionID uuid.UUID, logger zerolog.Logger) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := hub.Subscribe(sessionID)
	go readPump(ws, func() { hub.Unsubscribe(sub) })
	writePump(ws, sub)
}

// readPump only watches for close and pong frames; clients send nothing.
func readPump(ws *websocket.Conn, done func()) {
	defer done()
	ws.SetReadLimit(512)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(ws *websocket.Conn, sub *Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case e, ok := <-sub.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
