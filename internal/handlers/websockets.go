package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"core_innovators/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
	pushBuffer       = 32
)

const (
	wsTypeSnapshot     = "snapshot"
	wsTypeReading      = "reading"
	wsTypeNotification = "notification"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type wsSnapshot struct {
	Reading  models.SensorReading `json:"reading"`
	Channels interface{}          `json:"channels"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConnect streams a status snapshot every interval, plus every ingested
// reading and every notification as they happen.
//
// @Summary      Live readings and notifications
// @Tags         system
// @Param        interval     query  string  false  "Snapshot period, e.g. 2s (max 10s)"
// @Param        interval_ms  query  int     false  "Snapshot period in ms"
// @Router       /ws [get]
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

	done := make(chan struct{})
	go h.startReader(conn, done)

	// Subscribers never write to conn; the loop below owns it.
	push := make(chan wsEnvelope, pushBuffer)
	for _, unsubscribe := range h.subscribe(push) {
		defer unsubscribe()
	}

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	if err := h.sendSnapshot(ctx, conn); err != nil {
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
		case <-ticker.C:
			if err := h.sendSnapshot(ctx, conn); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case env := <-push:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "type", env.Type, "err", err)
				}
				return
			}
		}
	}
}

// subscribe forwards readings and notifications into push. Slow clients
// drop pushed messages rather than block publishers.
func (h *Handler) subscribe(push chan<- wsEnvelope) []func() {
	offer := func(env wsEnvelope) {
		select {
		case push <- env:
		default:
		}
	}
	var unsubs []func()
	if h.services.Readings != nil {
		unsubs = append(unsubs, h.services.Readings.Subscribe(func(r models.SensorReading) {
			offer(wsEnvelope{Type: wsTypeReading, Data: r})
		}))
	}
	if h.services.Alerts != nil {
		unsubs = append(unsubs, h.services.Alerts.SubscribeNotifications(func(n models.Notification) {
			offer(wsEnvelope{Type: wsTypeNotification, Data: n})
		}))
	}
	return unsubs
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

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

	return interval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

func (h *Handler) sendSnapshot(ctx context.Context, conn *websocket.Conn) error {
	r, channels, err := h.services.Readings.Status(ctx)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_status_failed", "err", err)
		}
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: wsTypeSnapshot, Data: wsSnapshot{Reading: r, Channels: channels}})
}
