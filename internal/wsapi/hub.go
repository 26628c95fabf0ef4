// Package wsapi is the realtime websocket transport: lobby, room and game events
// exchanged as {event, data} JSON frames.
package wsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/cheese-rooms/internal/msgcat"
	"github.com/park285/cheese-rooms/internal/obslog"
	"github.com/park285/cheese-rooms/internal/room"
	"github.com/park285/cheese-rooms/internal/session"
	"github.com/park285/cheese-rooms/pkg/roomdto"
)

const (
	defaultPingInterval = 30 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultQueueSize    = 64
	readLimit           = 64 << 10
)

// Hub owns the websocket connections of this process.
type Hub struct {
	rooms *room.Manager
	users *session.Registry
	msgs  *msgcat.Catalog
	view  projector

	allow        map[string]struct{}
	pingInterval time.Duration
	writeTimeout time.Duration
	queueSize    int

	mu    sync.RWMutex
	conns map[string]*conn
}

type Option func(*Hub)

// WithOriginAllowlist restricts browser origins. An empty list allows any origin.
func WithOriginAllowlist(origins []string) Option {
	return func(h *Hub) {
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				h.allow[o] = struct{}{}
			}
		}
	}
}

func WithCatalog(c *msgcat.Catalog) Option { return func(h *Hub) { h.msgs = c } }

// WithHiddenHands turns on per-viewer hand hiding for card matches.
func WithHiddenHands(on bool) Option { return func(h *Hub) { h.view.hideHands = on } }

func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

func WithQueueSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

func NewHub(rooms *room.Manager, users *session.Registry, opts ...Option) *Hub {
	h := &Hub{
		rooms:        rooms,
		users:        users,
		allow:        make(map[string]struct{}),
		pingInterval: defaultPingInterval,
		writeTimeout: defaultWriteTimeout,
		queueSize:    defaultQueueSize,
		conns:        make(map[string]*conn),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) originAllowed(r *http.Request) bool {
	if len(h.allow) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	_, ok := h.allow[origin]
	return ok
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.originAllowed(r) {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// origin is checked above
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Debug("ws_accept_error", zap.Error(err))
		return
	}
	ws.SetReadLimit(readLimit)

	c := newConn(r.Context(), uuid.NewString(), ws, h.queueSize)
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	obslog.L().Info("ws_connect", zap.String("conn_id", c.id), zap.String("remote", r.RemoteAddr))

	go c.writeLoop(h.pingInterval, h.writeTimeout)
	h.readLoop(c)
	h.disconnect(c)
}

func (h *Hub) readLoop(c *conn) {
	for {
		typ, data, err := c.ws.Read(c.ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		var env roomdto.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			h.sendError(c, h.text("transport.bad_payload", map[string]any{"Event": "frame"}, "malformed frame"), "")
			continue
		}
		h.dispatch(c, env)
	}
}

func (h *Hub) disconnect(c *conn) {
	c.close(websocket.StatusNormalClosure, "bye")
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.leaveCurrent(ctx, c.id)
	h.users.Remove(c.id)
	obslog.L().Info("ws_disconnect", zap.String("conn_id", c.id))
}

// Close drops every connection. http.Server.Shutdown does not track hijacked conns.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		c.close(websocket.StatusGoingAway, "server shutdown")
	}
}

// Connections reports the number of open connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) conn(id string) (*conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}

func (h *Hub) allConns() []*conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*conn, 0, len(h.conns))
	for _, c := range h.conns {
		out = append(out, c)
	}
	return out
}

func encode(event string, data any) ([]byte, error) {
	env, err := roomdto.NewEnvelope(event, data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func (h *Hub) send(c *conn, event string, data any) {
	frame, err := encode(event, data)
	if err != nil {
		obslog.L().Error("ws_encode_error", zap.String("event", event), zap.Error(err))
		return
	}
	c.enqueue(frame)
}

// toRoom sends event to every connection seated in roomID; build gets the viewer id.
func (h *Hub) toRoom(roomID, event string, build func(viewer string) any) {
	for _, u := range h.users.InRoom(roomID) {
		if c, ok := h.conn(u.ID); ok {
			h.send(c, event, build(u.ID))
		}
	}
}

func (h *Hub) toAll(event string, build func(viewer string) any) {
	for _, c := range h.allConns() {
		h.send(c, event, build(c.id))
	}
}

func (h *Hub) sendError(c *conn, message, code string) {
	h.send(c, roomdto.EventGameError, roomdto.ErrorPayload{Message: message, Code: code})
}

func (h *Hub) text(key string, data any, fallback string) string {
	return h.msgs.Text(key, data, fallback)
}
