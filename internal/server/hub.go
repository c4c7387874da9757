package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/trackdrive/internal/core/events/bus"
	"github.com/zeusync/trackdrive/internal/core/observability/log"
	"github.com/zeusync/trackdrive/pkg/generic"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// telemetry is read-only and served to local dashboards
	CheckOrigin: func(*http.Request) bool { return true },
}

var buffers = generic.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

// Message is what clients receive for every race event.
type Message struct {
	Type   string `json:"type"`
	Source string `json:"source"`
	Data   any    `json:"data"`
}

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	runID string
}

// TelemetryHub streams race events from the bus to websocket clients.
// Clients may pass ?run=<id> to receive a single run only.
type TelemetryHub struct {
	sub          bus.Subscription
	logger       log.Log
	buffer       int
	writeTimeout time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	writers sync.WaitGroup
}

func NewTelemetryHub(b bus.EventBus, cfg Config, logger log.Log) (*TelemetryHub, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &TelemetryHub{
		logger:       logger.Named("telemetry"),
		buffer:       cfg.ClientBuffer,
		writeTimeout: cfg.WriteTimeout,
		clients:      make(map[*client]struct{}),
	}
	sub, err := b.Subscribe(bus.AllEvents, h.broadcast, func(e bus.Event) bool {
		return strings.HasPrefix(e.Type(), "race.")
	})
	if err != nil {
		return nil, err
	}
	h.sub = sub
	return h, nil
}

// Clients returns the number of connected clients.
func (h *TelemetryHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *TelemetryHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, h.buffer), runID: r.URL.Query().Get("run")}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	h.logger.Info("client connected", log.String("remote", conn.RemoteAddr().String()), log.String("run", c.runID))

	go h.write(c)

	// clients never talk; reading only notices the disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(c)
	h.logger.Info("client disconnected", log.String("remote", conn.RemoteAddr().String()))
}

func (h *TelemetryHub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.writers.Add(1)
	return true
}

func (h *TelemetryHub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *TelemetryHub) write(c *client) {
	defer h.writers.Done()
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("client write failed", log.Error(err))
			h.unregister(c)
			break
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

func (h *TelemetryHub) broadcast(e bus.Event) error {
	buf := buffers.Get()
	defer buffers.Put(buf)
	if err := json.NewEncoder(buf).Encode(Message{Type: e.Type(), Source: e.Source(), Data: e.Data()}); err != nil {
		return err
	}
	// clients keep the payload after the buffer goes back to the pool
	payload := bytes.Clone(buf.Bytes())

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.runID != "" && c.runID != e.Source() {
			continue
		}
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping slow client", log.String("remote", c.conn.RemoteAddr().String()))
			delete(h.clients, c)
			close(c.send)
		}
	}
	return nil
}

// Close stops listening to the bus and disconnects every client.
func (h *TelemetryHub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	err := h.sub.Cancel()
	h.writers.Wait()
	return err
}
