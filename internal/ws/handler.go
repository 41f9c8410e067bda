package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/Bulwark/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Event is one breaker state transition pushed to subscribers
type Event struct {
	Type    string    `json:"type"`
	Breaker string    `json:"breaker,omitempty"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// eventBuffer bounds transitions queued for delivery while websocket
// writes are in flight.
const eventBuffer = 256

// Hub fans breaker transitions out to connected WebSocket clients
type Hub struct {
	logger *logging.Logger
	events chan Event

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub and starts its dispatch loop
func NewHub(logger *logging.Logger) *Hub {
	h := &Hub{
		logger:  logger,
		events:  make(chan Event, eventBuffer),
		clients: make(map[*websocket.Conn]struct{}),
	}
	go h.dispatch()
	return h
}

// dispatch drains queued events into Broadcast so slow peers never
// stall the producers.
func (h *Hub) dispatch() {
	for event := range h.events {
		h.Broadcast(event)
	}
}

// HandleConnection upgrades the request and subscribes the client until
// it disconnects
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.register(conn)
	defer h.unregister(conn)

	welcome := Event{
		Type:    "system",
		Message: "subscribed to breaker state changes",
		At:      time.Now().UTC(),
	}
	h.mu.Lock()
	err = conn.WriteJSON(welcome)
	h.mu.Unlock()
	if err != nil {
		return
	}

	// Drain inbound frames so close frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends the event to every connected client. Clients whose
// write fails are dropped.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Debug("dropping websocket client", zap.Error(err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// StateHook returns an OnStateChange callback that queues each
// transition for broadcast. The callback runs on the breaker's hot
// path, so it never writes to the network itself; when the buffer is
// full the event is dropped.
func (h *Hub) StateHook() func(name string, from, to resilience.State) {
	return func(name string, from, to resilience.State) {
		event := Event{
			Type:    "breaker_state_change",
			Breaker: name,
			From:    from.String(),
			To:      to.String(),
			At:      time.Now().UTC(),
		}
		select {
		case h.events <- event:
		default:
			h.logger.Warn("event buffer full, dropping state change",
				zap.String("breaker", name),
				zap.String("to", event.To))
		}
	}
}

// ClientCount reports the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}
