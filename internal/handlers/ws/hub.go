package ws

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"sync"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/metrics"
	"github.com/gofiber/websocket/v2"
	log "github.com/sirupsen/logrus"
)

// Conn is the part of a websocket connection the hub writes to. The hub
// never closes it; the goroutine that registered it does.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Envelope is the frame pushed to clients.
type Envelope struct {
	Type    string      `json:"tipo"`
	Payload interface{} `json:"dados,omitempty"`
	SentAt  time.Time   `json:"enviado_em"`
}

type frame struct {
	kind int
	data []byte
}

// ClientConnection is one live socket. A user may hold several.
type ClientConnection struct {
	UserID       uint
	conn         Conn
	supportsGzip bool
	send         chan frame
	done         chan struct{}
	stopped      chan struct{}
	closeOnce    sync.Once
}

func (c *ClientConnection) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Hub fans notifications out to every connection of a user. Delivery is
// best effort: offline users read their notifications over HTTP.
type Hub struct {
	clients      map[uint]map[*ClientConnection]struct{}
	clientsMux   sync.RWMutex
	sendBuffer   int
	pingInterval time.Duration
	pongTimeout  time.Duration
	gzipMinSize  int
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[uint]map[*ClientConnection]struct{}),
		sendBuffer:   32,
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
		gzipMinSize:  512,
	}
}

// Register adds a connection and starts its writer. Once the client is
// unregistered and its writer has stopped, the hub no longer touches conn.
func (h *Hub) Register(userID uint, conn Conn, supportsGzip bool) *ClientConnection {
	client := &ClientConnection{
		UserID:       userID,
		conn:         conn,
		supportsGzip: supportsGzip,
		send:         make(chan frame, h.sendBuffer),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}

	h.clientsMux.Lock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*ClientConnection]struct{})
		h.clients[userID] = set
	}
	set[client] = struct{}{}
	total := h.countLocked()
	h.clientsMux.Unlock()

	metrics.RealtimeConnections.Inc()
	go h.writePump(client)

	log.WithFields(log.Fields{"user_id": userID, "total": total, "gzip": supportsGzip}).Debug("ws: client connected")
	return client
}

// Unregister removes a connection. Calling it twice is harmless.
func (h *Hub) Unregister(client *ClientConnection) {
	h.clientsMux.Lock()
	set, ok := h.clients[client.UserID]
	_, present := set[client]
	if ok && present {
		delete(set, client)
		if len(set) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	total := h.countLocked()
	h.clientsMux.Unlock()

	client.close()
	if present {
		metrics.RealtimeConnections.Dec()
		log.WithFields(log.Fields{"user_id": client.UserID, "total": total}).Debug("ws: client disconnected")
	}
}

func (h *Hub) countLocked() int {
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) IsOnline(userID uint) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients[userID]) > 0
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return h.countLocked()
}

// Publish queues an event on every connection of userID. A connection
// whose buffer is full is dropped.
func (h *Hub) Publish(userID uint, event string, payload interface{}) {
	data, err := json.Marshal(Envelope{Type: event, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("ws: marshal event")
		return
	}

	h.clientsMux.RLock()
	targets := make([]*ClientConnection, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.clientsMux.RUnlock()

	for _, c := range targets {
		if !h.enqueue(c, h.encode(c, data)) {
			log.WithField("user_id", userID).Warn("ws: slow client dropped")
			h.Unregister(c)
		}
	}
}

func (h *Hub) enqueue(c *ClientConnection, f frame) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

// encode compresses large frames for clients that asked for it.
func (h *Hub) encode(c *ClientConnection, data []byte) frame {
	if !c.supportsGzip || len(data) <= h.gzipMinSize {
		return frame{kind: websocket.TextMessage, data: data}
	}
	compressed, err := compressData(data)
	if err != nil || len(compressed) >= len(data) {
		return frame{kind: websocket.TextMessage, data: data}
	}
	return frame{kind: websocket.BinaryMessage, data: compressed}
}

func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// attach registers conn and closes it as soon as the client is dropped,
// which unblocks the reader. detach returns only after both the writer and
// the closer are finished, so conn is never used once it returns.
func (h *Hub) attach(userID uint, conn Conn, supportsGzip bool) (*ClientConnection, func()) {
	client := h.Register(userID, conn, supportsGzip)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		<-client.done
		_ = conn.Close()
	}()
	return client, func() {
		h.Unregister(client)
		<-client.stopped
		<-closed
	}
}

// writePump is the only goroutine that writes to the connection.
func (h *Hub) writePump(c *ClientConnection) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		if r := recover(); r != nil {
			log.WithField("user_id", c.UserID).Errorf("ws: writer recovered from panic: %v", r)
			h.Unregister(c)
		}
		close(c.stopped)
	}()

	for {
		select {
		case f := <-c.send:
			if err := c.conn.WriteMessage(f.kind, f.data); err != nil {
				log.WithError(err).WithField("user_id", c.UserID).Debug("ws: write failed")
				h.Unregister(c)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Unregister(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close drops every connection.
func (h *Hub) Close() {
	h.clientsMux.RLock()
	all := make([]*ClientConnection, 0)
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.clientsMux.RUnlock()

	for _, c := range all {
		h.Unregister(c)
	}
}
