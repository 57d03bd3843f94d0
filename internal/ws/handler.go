package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/middleware"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	// Origins are checked by middleware.WebSocketCORSCheck.
	CheckOrigin: func(r *http.Request) bool { return true },
}

var clientSeq atomic.Int64

// Client is one connected stream consumer.
type Client struct {
	id         string
	conn       *websocket.Conn
	send       chan outbound
	controls   *engine.Controls
	canControl bool
	dropped    atomic.Int64
}

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type PointerData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ForceData struct {
	Mode string `json:"mode"`
}

// HandleStream upgrades to a websocket that receives binary frames. A valid
// operator token in the "token" query parameter also lets the client steer
// the user force with pointer and force messages.
func HandleStream(hub *Hub, eng *engine.Engine, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		canControl := false
		if token := c.Query("token"); token != "" {
			_, roles, err := middleware.ParseToken(cfg, token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			canControl = middleware.HasRole(roles, "control")
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			id:         fmt.Sprintf("c%d", clientSeq.Add(1)),
			conn:       conn,
			send:       make(chan outbound, sendBuffer),
			controls:   eng.Controls(),
			canControl: canControl,
		}

		// The first frame goes out before any broadcast.
		if data, err := EncodeFrame(eng.Latest()); err == nil {
			client.send <- outbound{binary: true, data: data}
		}

		if !hub.join(client) {
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump(hub)
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			kind := websocket.TextMessage
			if msg.binary {
				kind = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(kind, msg.data); err != nil {
				log.Printf("[WS] write error for client %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for client %s: %v", c.id, err)
				return
			}
		}
	}
}

// readPump applies control messages until the connection fails.
func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] unexpected close for client %s: %v", c.id, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg WSMessage) {
	if !c.canControl {
		c.sendError("read-only stream")
		return
	}

	switch msg.Type {
	case "pointer":
		var d PointerData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			c.sendError("invalid pointer data")
			return
		}
		c.controls.SetPoint(d.X, d.Y)

	case "force":
		var d ForceData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			c.sendError("invalid force data")
			return
		}
		mode, err := engine.ParseForceMode(d.Mode)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.controls.SetForceMode(mode)

	default:
		c.sendError("unknown message type: " + msg.Type)
	}
}

// sendError queues an error message unless the client is backed up.
func (c *Client) sendError(message string) {
	data, _ := json.Marshal(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
	select {
	case c.send <- outbound{data: data}:
	default:
	}
}
