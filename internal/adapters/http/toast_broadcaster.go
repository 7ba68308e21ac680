package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"adventofgah/internal/domain/achievement"
)

const (
	toastWriteWait  = 10 * time.Second
	toastPongWait   = 60 * time.Second
	toastPingPeriod = toastPongWait * 9 / 10
	toastSendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// toastClient is one connected browser tab.
type toastClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// ToastBroadcaster pushes toast list changes to every connected websocket client.
type ToastBroadcaster struct {
	clients    map[*toastClient]bool
	register   chan *toastClient
	unregister chan *toastClient
	broadcast  chan []byte
	done       chan struct{}
}

// NewToastBroadcaster creates a broadcaster. Call Run before serving clients.
func NewToastBroadcaster() *ToastBroadcaster {
	return &ToastBroadcaster{
		clients:    make(map[*toastClient]bool),
		register:   make(chan *toastClient),
		unregister: make(chan *toastClient),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then disconnects everyone.
func (b *ToastBroadcaster) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			for c := range b.clients {
				close(c.send)
				delete(b.clients, c)
			}
			return

		case c := <-b.register:
			b.clients[c] = true
			slog.Debug("toast_client_connected", "client_id", c.id, "clients", len(b.clients))

		case c := <-b.unregister:
			if _, ok := b.clients[c]; ok {
				delete(b.clients, c)
				close(c.send)
				slog.Debug("toast_client_disconnected", "client_id", c.id, "clients", len(b.clients))
			}

		case msg := <-b.broadcast:
			for c := range b.clients {
				select {
				case c.send <- msg:
				default:
					delete(b.clients, c)
					close(c.send)
					slog.Warn("toast_client_dropped", "client_id", c.id, "reason", "send_buffer_full")
				}
			}
		}
	}
}

// Publish queues list for every client. It never blocks; a backlog drops the update.
func (b *ToastBroadcaster) Publish(list []achievement.Achievement) {
	msg, err := json.Marshal(toastsResponse{Toasts: toToastViews(list)})
	if err != nil {
		slog.Error("toast_broadcast_encode_failed", "error", err)
		return
	}
	select {
	case b.broadcast <- msg:
	default:
		slog.Warn("toast_broadcast_dropped", "toasts", len(list))
	}
}

func (b *ToastBroadcaster) add(c *toastClient) bool {
	select {
	case b.register <- c:
		return true
	case <-b.done:
		return false
	}
}

func (b *ToastBroadcaster) remove(c *toastClient) {
	select {
	case b.unregister <- c:
	case <-b.done:
	}
}

// handleToastSocket streams the current toast list, then every change.
func handleToastSocket(w http.ResponseWriter, r *http.Request) {
	b := services.Broadcaster
	if b == nil {
		http.NotFound(w, r)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		slog.Warn("toast_socket_upgrade_failed", "error", err)
		return
	}

	c := &toastClient{id: uuid.NewString(), conn: conn, send: make(chan []byte, toastSendBuffer)}
	if !b.add(c) {
		conn.Close()
		return
	}
	initial, err := json.Marshal(toastsResponse{Toasts: toToastViews(services.Toasts.Current())})
	if err != nil {
		b.remove(c)
		conn.Close()
		return
	}
	go c.writePump(initial)
	c.readPump(b)
}

func (c *toastClient) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(toastWriteWait))
	return c.conn.WriteMessage(messageType, data)
}

func (c *toastClient) writePump(initial []byte) {
	ticker := time.NewTicker(toastPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	if err := c.write(websocket.TextMessage, initial); err != nil {
		return
	}
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and returns once the connection is gone.
func (c *toastClient) readPump(b *ToastBroadcaster) {
	defer b.remove(c)
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(toastPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(toastPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
