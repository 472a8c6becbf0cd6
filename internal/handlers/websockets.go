package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000
	replyBuffer      = 16
)

// Message types sent on /ws.
const (
	wsTypeState = "state"
	wsTypeReply = "reply"
)

// wsEnvelope wraps every message sent on /ws.
type wsEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// wsRequest is a macro call sent by the client, e.g. {"macro":"setDay/0,1"}.
type wsRequest struct {
	Macro string `json:"macro"`
}

type wsReply struct {
	Macro string `json:"macro"`
	Code  int    `json:"code"`
	Reply string `json:"reply"`
}

// The panel is served from another origin than the simulator.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConnect streams the controller state and accepts macro calls on the same
// socket. The state is checked every interval and sent only when it changed.
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	replies := make(chan wsReply, replyBuffer)
	done := make(chan struct{})
	go h.readRequests(ctx, conn, replies, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	var last []byte
	if last, err = h.sendState(conn, nil); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case r := <-replies:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(wsEnvelope{Type: wsTypeReply, Data: r}); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if last, err = h.sendState(conn, last); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}

// readRequests runs macro calls read from the socket until it closes.
// Malformed messages are answered with a 400 reply.
func (h *Handler) readRequests(ctx context.Context, conn *websocket.Conn, replies chan<- wsReply, done chan<- struct{}) {
	defer close(done)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}

		var req wsRequest
		r := wsReply{Code: http.StatusBadRequest, Reply: "invalid request"}
		if err := json.Unmarshal(msg, &req); err == nil && req.Macro != "" {
			r.Macro = req.Macro
			r.Reply, r.Code = h.runMacro(ctx, req.Macro)
		}

		select {
		case replies <- r:
		case <-ctx.Done():
			return
		}
	}
}

// sendState writes the snapshot unless its encoding equals last, and returns
// the encoding now on the client.
func (h *Handler) sendState(conn *websocket.Conn, last []byte) ([]byte, error) {
	data, err := json.Marshal(h.services.Snapshot())
	if err != nil {
		return last, err
	}
	if last != nil && bytes.Equal(data, last) {
		return last, nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(wsEnvelope{Type: wsTypeState, Data: json.RawMessage(data)}); err != nil {
		return last, err
	}
	return data, nil
}
