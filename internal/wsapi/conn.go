package wsapi

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/cheese-rooms/internal/obslog"
)

// conn is one websocket client. Frames are queued on send and written by writeLoop only.
type conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

func newConn(parent context.Context, id string, ws *websocket.Conn, queue int) *conn {
	ctx, cancel := context.WithCancel(parent)
	return &conn{id: id, ws: ws, send: make(chan []byte, queue), ctx: ctx, cancel: cancel}
}

// enqueue never blocks. A full queue means the peer stopped reading; the connection is dropped.
func (c *conn) enqueue(frame []byte) bool {
	select {
	case <-c.ctx.Done():
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		obslog.L().Warn("ws_send_queue_full", zap.String("conn_id", c.id))
		c.close(websocket.StatusPolicyViolation, "send queue overflow")
		return false
	}
}

func (c *conn) writeLoop(pingInterval, writeTimeout time.Duration) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	pingFailures := 0
	for {
		select {
		case <-c.ctx.Done():
			return
		case frame := <-c.send:
			ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
			err := c.ws.Write(ctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				obslog.L().Debug("ws_write_error", zap.String("conn_id", c.id), zap.Error(err))
				c.close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-t.C:
			ctx, cancel := context.WithTimeout(c.ctx, 3*time.Second)
			err := c.ws.Ping(ctx)
			cancel()
			if err == nil {
				pingFailures = 0
				continue
			}
			pingFailures++
			if pingFailures >= 2 {
				c.close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

func (c *conn) close(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.ws.Close(code, reason)
	})
}
