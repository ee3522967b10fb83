package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/tilecity/internal/city"
)

const (
	maxStreamConns = 50
	clientBuffer   = 16
	pingPeriod     = 30 * time.Second
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans city summaries out to websocket clients. Slow clients miss
// summaries rather than stall the simulation.
type Hub struct {
	mu      sync.Mutex
	clients map[chan city.Summary]struct{}
	max     int
	closed  bool
}

// NewHub creates a hub accepting at most max clients.
func NewHub(max int) *Hub {
	return &Hub{clients: make(map[chan city.Summary]struct{}), max: max}
}

// Publish delivers s to every client without blocking.
func (h *Hub) Publish(s city.Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- s:
		default:
		}
	}
}

// subscribe returns a new client channel, or false when the hub is full.
func (h *Hub) subscribe() (chan city.Summary, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || len(h.clients) >= h.max {
		return nil, false
	}
	ch := make(chan city.Summary, clientBuffer)
	h.clients[ch] = struct{}{}
	return ch, true
}

func (h *Hub) unsubscribe(ch chan city.Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

// handleStream upgrades to a websocket and pushes every day and week summary
// as JSON until either side goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ch, ok := s.hub.subscribe()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "too many stream connections")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.unsubscribe(ch)
		slog.Debug("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	defer s.hub.unsubscribe(ch)

	// Reads only to notice the client closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case sum, ok := <-ch:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(sum); err != nil {
				slog.Debug("stream write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
