package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/LuckyLyon/Vibe-your-mind/internal/metrics"
	"github.com/LuckyLyon/Vibe-your-mind/internal/store"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient forwards one channel's realtime events to one websocket peer.
type wsClient struct {
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	doneOnce sync.Once
}

// ServeWS upgrades the connection and streams a channel's insert and
// presence events to the client. The stream is read-only; sends go through
// the HTTP message endpoint.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	if _, err := h.store.GetChannel(r.Context(), channelID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "channel not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &wsClient{
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
		done: make(chan struct{}),
	}

	deliver := func(payload []byte) {
		select {
		case c.send <- payload:
		case <-c.done:
		default:
			// Slow consumer, drop the event. The client reconciles from
			// history on reconnect.
		}
	}
	onError := func(err error) {
		h.logger.Warn().Err(err).Str("channel_id", channelID).Msg("realtime stream lost")
		c.close()
	}

	msgSub, err := h.rt.SubscribeMessages(channelID, deliver, onError)
	if err != nil {
		h.logger.Error().Err(err).Str("channel_id", channelID).Msg("message subscription failed")
		conn.Close()
		return
	}
	presSub, err := h.rt.SubscribePresence(channelID, deliver, onError)
	if err != nil {
		h.logger.Error().Err(err).Str("channel_id", channelID).Msg("presence subscription failed")
		msgSub.Cancel()
		conn.Close()
		return
	}

	metrics.WSClientsConnected.Inc()
	h.logger.Info().Str("channel_id", channelID).Str("remote_addr", r.RemoteAddr).Msg("websocket client connected")

	go c.writePump()
	go func() {
		c.readPump()
		msgSub.Cancel()
		presSub.Cancel()
		metrics.WSClientsConnected.Dec()
		h.logger.Info().Str("channel_id", channelID).Msg("websocket client disconnected")
	}()
}

func (c *wsClient) close() {
	c.doneOnce.Do(func() { close(c.done) })
}

// readPump discards inbound frames and tracks liveness via pongs. Returns
// when the peer goes away.
func (c *wsClient) readPump() {
	defer func() {
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
