package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bsi-games/bsi/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Send pings with this period, shorter than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Largest inbound message accepted
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Client is a single push connection.
// username is owned by the hub's Run loop.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	username string
}

// ServeWS upgrades the request and pumps messages until the peer goes away
func (h *Hub) ServeWS(validator Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		client := &Client{
			hub:  h,
			conn: conn,
			send: make(chan []byte, sendBufferSize),
		}
		h.Register(client)

		go client.writePump()
		client.readPump(r, validator)
	}
}

// readPump handles inbound messages. The connection's authorized username is
// tracked locally so relays never read hub-owned state.
func (c *Client) readPump(r *http.Request, validator Validator) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var username string
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("push client read failed", slog.String("error", err.Error()))
			}
			return
		}

		var msg model.OutboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.logger.Debug("ignoring malformed push message", slog.String("error", err.Error()))
			continue
		}

		switch msg.Type {
		case model.EventAuthorization:
			name, err := validator.ValidateBearer(r.Context(), msg.Token)
			if err != nil {
				c.hub.logger.Info("push authorization refused", slog.String("error", err.Error()))
				name = ""
			}
			username = name
			c.hub.Authorize(c, username)
		case model.EventGameActive, model.EventGameInactive:
			if username == "" {
				continue
			}
			c.hub.relay(username, msg)
		default:
			c.hub.logger.Debug("ignoring push message", slog.String("type", string(msg.Type)))
		}
	}
}

// writePump drains the send buffer and keeps the connection alive
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
