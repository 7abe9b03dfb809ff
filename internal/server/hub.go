package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ironsheep/dental-detect/internal/controller"
	"github.com/ironsheep/dental-detect/internal/logger"
	"github.com/ironsheep/dental-detect/internal/render"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewMessage is pushed to websocket clients after every event. Effects
// lists what changed, e.g. "redraw-canvas" means /api/canvas.png is stale.
type ViewMessage struct {
	Type    string      `json:"type"`
	View    render.View `json:"view"`
	Effects []string    `json:"effects"`
}

// Hub fans view updates out to websocket clients. It is a controller.Sink.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	quit       chan struct{}
	mutex      sync.RWMutex
	latest     []byte
	renderer   *render.Renderer
	logger     *logger.Logger
}

// NewHub creates a hub. Run must be started for clients to be served.
func NewHub(renderer *render.Renderer, logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 1),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		quit:       make(chan struct{}),
		renderer:   renderer,
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done,
// then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.quit)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			latest := h.latest
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client connected. Total: %d", count)

			// New clients start from the current view.
			if latest != nil {
				h.send(client, latest)
			}

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.mutex.RLock()
			clients := make([]*websocket.Conn, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mutex.RUnlock()

			for _, client := range clients {
				h.send(client, message)
			}
		}
	}
}

// send writes one message; a failing client is dropped.
func (h *Hub) send(client *websocket.Conn, message []byte) {
	_ = client.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
		h.logger.Error("Error sending message: %v", err)
		h.mutex.Lock()
		delete(h.clients, client)
		h.mutex.Unlock()
		client.Close()
	}
}

// Register adds a client. After Run has returned the client is closed.
func (h *Hub) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.Close()
	}
}

// Unregister removes and closes a client.
func (h *Hub) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.quit:
		client.Close()
	}
}

// Broadcast queues a message for every client. It never blocks. Only the
// newest message is kept: a message still waiting when the next one arrives
// is replaced, so clients always end on the latest view.
func (h *Hub) Broadcast(message []byte) {
	for {
		select {
		case h.broadcast <- message:
			return
		default:
		}
		select {
		case <-h.broadcast:
			h.logger.Debug("Replacing undelivered view")
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Latest returns the last view message, or nil before the first event.
func (h *Hub) Latest() []byte {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.latest
}

// Apply implements controller.Sink.
func (h *Hub) Apply(st controller.State, effects []controller.Effect) {
	names := make([]string, 0, len(effects))
	for _, e := range effects {
		names = append(names, e.Kind.String())
	}

	message, err := json.Marshal(ViewMessage{Type: "view", View: h.renderer.View(st), Effects: names})
	if err != nil {
		h.logger.Error("Failed to encode view: %v", err)
		return
	}

	h.mutex.Lock()
	h.latest = message
	h.mutex.Unlock()

	h.Broadcast(message)
}

// handleWebsocket upgrades the connection and keeps it registered until the
// client goes away. Clients only listen; anything they send is discarded.
func (h *Hub) handleWebsocket(c *gin.Context) {
	connection, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warning("WebSocket upgrade error: %v", err)
		return
	}
	connection.SetReadLimit(512)
	_ = connection.SetReadDeadline(time.Now().Add(pongWait))
	connection.SetPongHandler(func(string) error {
		return connection.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.Register(connection)
	defer h.Unregister(connection)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := connection.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := connection.ReadMessage(); err != nil {
			h.logger.Debug("Viewer disconnected: %v", err)
			return
		}
	}
}
