// Package liveview serves the control panel to browsers that cannot run the
// wasm build. The panel runs in this process against a dom.Memory; the page
// mirrors that document over a websocket and sends user events back.
package liveview

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"irrigation_panel/internal/dom"
	"irrigation_panel/internal/logger"
	"irrigation_panel/internal/metrics"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	maxMsgSize  = 1 << 12
	patchBuffer = 256

	defaultTitle = "Irrigation"
)

// Message types sent to the browser.
const (
	TypeSnapshot = "snapshot"
	TypePatch    = "patch"
)

// outMessage is sent to the browser: one snapshot, then patches.
type outMessage struct {
	Type    string      `json:"type"`
	Patches []dom.Patch `json:"patches,omitempty"`
	Patch   *dom.Patch  `json:"patch,omitempty"`
}

// inMessage is a user event from the browser.
type inMessage struct {
	ID    string  `json:"id"`
	Event string  `json:"event"`
	Value *string `json:"value,omitempty"`
}

type Options struct {
	Title   string
	Logger  *logger.Logger
	Metrics *metrics.Collector
}

// Server exposes one dom.Memory document to browsers.
type Server struct {
	doc      *dom.Memory
	page     string
	log      *logger.Logger
	metrics  *metrics.Collector
	upgrader websocket.Upgrader
}

func New(doc *dom.Memory, opts Options) *Server {
	title := opts.Title
	if title == "" {
		title = defaultTitle
	}
	return &Server{
		doc:     doc,
		page:    renderPage(title),
		log:     opts.Logger.Named("liveview"),
		metrics: opts.Metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes builds the gin router of the live view.
func (s *Server) Routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.metrics.GinMiddleware())

	router.GET("/", s.index)
	router.GET("/ws", s.wsConnect)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	return router
}

func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(s.page))
}

func (s *Server) wsConnect(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// subscribe before the snapshot so no change is lost in between
	patches, cancel := s.doc.Subscribe(patchBuffer)
	defer cancel()

	done := make(chan struct{})
	go s.readEvents(conn, done)

	if err := s.write(conn, outMessage{Type: TypeSnapshot, Patches: s.doc.Snapshot()}); err != nil {
		s.log.Infow("ws_write_failed_initial", "err", err)
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Infow("ws_ping_failed", "err", err)
				return
			}
		case p, ok := <-patches:
			if !ok {
				return
			}
			if err := s.write(conn, outMessage{Type: TypePatch, Patch: &p}); err != nil {
				s.log.Infow("ws_write_failed", "err", err)
				return
			}
		}
	}
}

func (s *Server) write(conn *websocket.Conn, msg outMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// readEvents replays browser events on the document until the connection closes.
func (s *Server) readEvents(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.log.Infow("ws_read_closed", "err", err)
			return
		}
		var msg inMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warnw("ws_bad_event", "err", err)
			continue
		}
		s.dispatch(msg)
	}
}

// dispatch applies the browser's control value, then fires the event.
func (s *Server) dispatch(msg inMessage) {
	if msg.Event != dom.EventClick && msg.Event != dom.EventChange {
		s.log.Warnw("ws_unknown_event", "id", msg.ID, "event", msg.Event)
		return
	}
	el, ok := s.doc.Element(msg.ID)
	if !ok {
		s.log.Debugw("ws_event_element_missing", "id", msg.ID)
		return
	}
	if msg.Value != nil && msg.Event == dom.EventChange {
		el.SetValue(*msg.Value)
	}
	if err := s.doc.Fire(msg.ID, msg.Event); err != nil {
		s.log.Debugw("ws_event_fire_failed", "id", msg.ID, "err", err)
	}
}
