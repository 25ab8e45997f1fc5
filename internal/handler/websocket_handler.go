package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tradewire/trade-broadcast/internal/auth"
	"github.com/tradewire/trade-broadcast/internal/ledger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// CloseAuthFailure is the close code sent when admission fails. RFC 6455
// reserves no code for authentication, so this mirrors HTTP 401 in the
// application range.
const CloseAuthFailure = 4401

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Envelope is the wire format for every server→client message.
type Envelope struct {
	Type string      `json:"type"` // "init" or "trade"
	Data interface{} `json:"data"`
}

// Client is one admitted streaming subscriber.
type Client struct {
	id       string
	username string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
}

// Hub owns the subscriber registry. Registration, deregistration and fan-out
// are all serialized through Run, so a subscriber always receives its init
// snapshot before any trade message.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan ledger.Trade

	tokens *auth.Service
	store  *ledger.Ledger
	logger *zap.Logger
}

func NewHub(tokens *auth.Service, store *ledger.Ledger, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan ledger.Trade, 256),
		tokens:     tokens,
		store:      store,
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			init, err := json.Marshal(Envelope{Type: "init", Data: h.store.List()})
			if err != nil {
				h.logger.Error("marshal init snapshot", zap.Error(err))
				client.conn.Close()
				continue
			}
			// send is freshly created and buffered, this cannot block
			client.send <- init
			h.clients[client] = true
			h.logger.Info("subscriber admitted",
				zap.String("conn_id", client.id),
				zap.String("user", client.username),
				zap.Int("total", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("subscriber disconnected",
					zap.String("conn_id", client.id),
					zap.Int("total", len(h.clients)))
			}

		case trade := <-h.broadcast:
			data, err := json.Marshal(Envelope{Type: "trade", Data: trade})
			if err != nil {
				h.logger.Error("marshal trade", zap.Error(err))
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// slow consumer, drop it rather than block the rest
					delete(h.clients, client)
					close(client.send)
					h.logger.Warn("dropping slow subscriber",
						zap.String("conn_id", client.id))
				}
			}
		}
	}
}

// Broadcast queues a trade for fan-out to every admitted subscriber.
func (h *Hub) Broadcast(trade ledger.Trade) {
	h.broadcast <- trade
}

// credentialFromRequest tries each extraction strategy in order: the token
// query parameter first, then the websocket sub-protocol offer. The returned
// header echoes the sub-protocol when that path was used, as the handshake
// must select it for browser clients to accept the upgrade.
func credentialFromRequest(r *http.Request) (string, http.Header) {
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok, nil
	}
	if protos := websocket.Subprotocols(r); len(protos) > 0 && protos[0] != "" {
		return protos[0], http.Header{"Sec-WebSocket-Protocol": {protos[0]}}
	}
	return "", nil
}

// HandleWebSocket admits or rejects a streaming connection. The token is
// checked once, at admission; an admitted connection outlives its token's
// expiry.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	token, respHeader := credentialFromRequest(c.Request)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	if token == "" {
		h.reject(conn, "missing token")
		return
	}

	username, err := h.tokens.Validate(token)
	if err != nil {
		h.reject(conn, "invalid token")
		return
	}

	client := &Client{
		id:       uuid.NewString(),
		username: username,
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Hub) reject(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(CloseAuthFailure, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	conn.Close()
	h.logger.Info("subscriber rejected", zap.String("reason", reason))
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains and discards client frames; the channel is server→client
// only. Its job is to notice the close and deregister promptly.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error",
					zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}
	}
}
