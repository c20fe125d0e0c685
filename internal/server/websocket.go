package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/silenos/silenos-server-go/internal/game"
	"github.com/silenos/silenos-server-go/internal/game/rules"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

// Message types on the socket.
const (
	msgGameState    = "game_state"
	msgActionResult = "action_result"
	msgError        = "error"
	msgAction       = "action"
)

// wsMessage is sent to the client.
type wsMessage struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// wsRequest is read from the client.
type wsRequest struct {
	Type   string      `json:"type"`
	Action game.Action `json:"action"`
}

// client is one websocket connection following one game for one player.
// Only writePump writes to conn.
type client struct {
	conn   *websocket.Conn
	server *Server
	uid    string
	gameID string
	send   chan wsMessage
	// notify holds at most one pending refresh; bursts of events collapse
	// into a single view push.
	notify chan struct{}
	logger *zap.Logger
}

func (s *Server) gameSocket(c *gin.Context) {
	id, _ := identityFrom(c)
	gameID := c.Param("id")

	// Refuse strangers before upgrading so they get a plain HTTP error.
	if _, err := s.sessions.View(c.Request.Context(), gameID, id.UID); err != nil {
		s.fail(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("game_id", gameID), zap.Error(err))
		return
	}

	cl := &client{
		conn:   conn,
		server: s,
		uid:    id.UID,
		gameID: gameID,
		send:   make(chan wsMessage, sendBuffer),
		notify: make(chan struct{}, 1),
		logger: s.logger.With(zap.String("game_id", gameID), zap.String("uid", id.UID)),
	}
	cl.run(s.ctx)
}

func (c *client) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	handle := c.server.sessions.Subscribe(c.gameID, func(rules.Event) { c.refresh() })
	defer c.server.sessions.Unsubscribe(handle)

	c.logger.Debug("websocket connected")
	c.refresh()

	go c.readPump(ctx, cancel)
	c.writePump(ctx)
	c.conn.Close()

	c.logger.Debug("websocket disconnected")
}

// refresh never blocks; it runs inside event delivery.
func (c *client) refresh() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *client) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		reply := c.handle(ctx, data)
		select {
		case c.send <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (c *client) handle(ctx context.Context, data []byte) wsMessage {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return wsMessage{Type: msgError, Error: "malformed message"}
	}

	switch req.Type {
	case msgAction:
		if req.Action.Type == "" {
			return wsMessage{Type: msgError, Error: "action type is required"}
		}
		out, err := c.server.sessions.SubmitAction(ctx, c.gameID, c.uid, req.Action)
		if err != nil {
			return c.errorMessage(err)
		}
		return wsMessage{Type: msgActionResult, Data: out}
	default:
		return wsMessage{Type: msgError, Error: "unknown message type " + req.Type}
	}
}

func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
				time.Now().Add(writeWait))
			return

		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				return
			}

		case <-c.notify:
			view, err := c.server.sessions.View(ctx, c.gameID, c.uid)
			msg := wsMessage{Type: msgGameState, Data: view}
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				msg = c.errorMessage(err)
			}
			if err := c.write(msg); err != nil {
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

func (c *client) write(msg wsMessage) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.logger.Debug("websocket write failed", zap.Error(err))
		return err
	}
	return nil
}

func (c *client) errorMessage(err error) wsMessage {
	if statusFor(err) >= 500 {
		c.logger.Error("websocket request failed", zap.Error(err))
		return wsMessage{Type: msgError, Error: "internal error"}
	}
	return wsMessage{Type: msgError, Error: err.Error()}
}
