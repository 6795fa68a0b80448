package websockets

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4 * 1024
)

type MessageType string

const (
	TypeOrderNew        MessageType = "order.new"
	TypeOrderUpdate     MessageType = "order.update"
	TypeOrderDelete     MessageType = "order.delete"
	TypeInventoryUpdate MessageType = "inventory.update"
	TypeError           MessageType = "error"
	TypePing            MessageType = "ping"
	TypePong            MessageType = "pong"
)

// SessionCheck reports an error once the session a client connected with
// is no longer valid.
type SessionCheck func(ctx context.Context) error

type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client is one authenticated websocket connection. Clients only listen;
// the one message they may send is ping.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	username string
	check    SessionCheck
}

func NewClient(hub *Hub, conn *websocket.Conn, username string, check SessionCheck) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		username: username,
		check:    check,
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Warn("websocket read failed", zap.String("user", c.username), zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != TypePing {
			c.reply(Message{Type: TypeError, Data: json.RawMessage(`"unsupported message"`)})
			continue
		}
		c.reply(Message{Type: TypePong})
	}
}

// reply queues a direct answer to this client without blocking the reader
func (c *Client) reply(msg Message) {
	payload, _ := json.Marshal(msg)
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
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
			if err := c.verify(); err != nil {
				zap.L().Info("closing websocket for ended session", zap.String("user", c.username), zap.Error(err))
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session ended"))
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) verify() error {
	if c.check == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	return c.check(ctx)
}

// ServeWs registers conn with the hub and starts its pumps. check runs on
// every ping; the connection is closed once it fails.
func ServeWs(hub *Hub, conn *websocket.Conn, username string, check SessionCheck) {
	client := NewClient(hub, conn, username, check)

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
