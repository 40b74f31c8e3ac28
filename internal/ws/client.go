package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tablebill/api/internal/auth"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10 // below pongWait

	// subscribers only send control frames
	maxInboundSize = 512
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// browsers on any origin may subscribe; the token decides access
	CheckOrigin: func(*http.Request) bool { return true },
}

// Client is one websocket subscriber of an outlet.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	outletID uuid.UUID
	send     chan []byte
	logger   *slog.Logger
}

// readLoop keeps the read deadline moving on pongs and detaches the client
// once the peer goes away.
func (c *Client) readLoop() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	_ = extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			c.logger.Warn("websocket read failed", "outlet_id", c.outletID, "error", err)
		}
		return
	}
}

// writeLoop sends every event as its own text frame and pings on idle.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// hub dropped us
				_ = c.writeFrame(websocket.CloseMessage, nil)
				return
			}
			if err := c.writeFrame(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("websocket write failed", "outlet_id", c.outletID, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.writeFrame(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeFrame(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

type accessError struct {
	status int
	msg    string
}

func (e *accessError) Error() string { return e.msg }

// authorizeSubscriber checks the ?token= query against the {oid} path.
func authorizeSubscriber(r *http.Request, jwtSecret string) (*auth.Claims, uuid.UUID, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return nil, uuid.Nil, &accessError{http.StatusUnauthorized, "missing token"}
	}
	claims, err := auth.ValidateToken(jwtSecret, token)
	if err != nil {
		return nil, uuid.Nil, &accessError{http.StatusUnauthorized, "invalid token"}
	}
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		return nil, uuid.Nil, &accessError{http.StatusBadRequest, "invalid outlet id"}
	}
	if !claims.CanAccessOutlet(outletID) {
		return nil, uuid.Nil, &accessError{http.StatusForbidden, "outlet access denied"}
	}
	return claims, outletID, nil
}

// ServeWS upgrades GET /ws/outlets/{oid}/orders?token=JWT and subscribes the
// connection to the outlet's order feed.
func ServeWS(hub *Hub, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	claims, outletID, err := authorizeSubscriber(r, jwtSecret)
	if err != nil {
		var ae *accessError
		if errors.As(err, &ae) {
			http.Error(w, ae.msg, ae.status)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", "outlet_id", outletID, "error", err)
		return
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		outletID: outletID,
		send:     make(chan []byte, sendBuffer),
		logger:   hub.logger.With("actor_id", claims.ActorID, "actor_kind", claims.ActorKind),
	}
	if !hub.join(client) {
		conn.Close()
		return
	}

	go client.writeLoop()
	go client.readLoop()
}
