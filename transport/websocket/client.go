package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/lastword/game/engine"
	"github.com/wricardo/lastword/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBufferSize = 256
)

// Client events.
const (
	EventJoinGame  = "joinGame"
	EventMakeMove  = "makeMove"
	EventSwapTiles = "swapTiles"
	EventSendChat  = "sendChatMessage"
)

var errMalformed = errors.New("malformed message")

// JoinRequest is the payload of joinGame.
type JoinRequest struct {
	Name string `json:"name"`
}

// MoveRequest is the payload of makeMove. Only tile ids are read.
type MoveRequest struct {
	Placements []engine.TilePlacement `json:"placements"`
	Force      bool                   `json:"force"`
}

// SwapRequest is the payload of swapTiles. Only tile ids are read.
type SwapRequest struct {
	Tiles []engine.Tile `json:"tiles"`
}

// ChatRequest is the payload of sendChatMessage.
type ChatRequest struct {
	Message string `json:"message"`
}

// Client is one WebSocket connection bound to a session and a player
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	playerID  string
	svc       service.GameService

	// joined is only touched by the read pump.
	joined bool

	// admitted is guarded by the hub's lock.
	admitted bool
}

func newClient(h *Hub, conn *websocket.Conn, sessionID, playerID string, svc service.GameService) *Client {
	return &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		sessionID: sessionID,
		playerID:  playerID,
		svc:       svc,
	}
}

// readPump reads client events and hands them to the game service
func (c *Client) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.hub.unregisterClient(c)
		c.conn.Close()
		if c.joined {
			if err := c.svc.Disconnect(context.Background(), c.sessionID, c.playerID); err != nil {
				log.Debug().Err(err).Str("session", c.sessionID).Msg("disconnect failed")
			}
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session", c.sessionID).Msg("websocket read failed")
			}
			return
		}
		c.handle(ctx, data)
	}
}

// handle dispatches one client frame. Failures are reported to this client
// only.
func (c *Client) handle(ctx context.Context, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.reply(c, service.EventGeneralError, service.GeneralError{Message: errMalformed.Error()})
		return
	}

	var err error
	switch msg.Event {
	case EventJoinGame:
		err = c.join(ctx, msg.Data)
	case EventMakeMove:
		var req MoveRequest
		if err = decode(msg.Data, &req); err == nil {
			_, err = c.svc.Move(ctx, c.sessionID, c.playerID, req.Placements, req.Force)
		}
	case EventSwapTiles:
		var req SwapRequest
		if err = decode(msg.Data, &req); err == nil {
			_, err = c.svc.Swap(ctx, c.sessionID, c.playerID, req.Tiles)
		}
	case EventSendChat:
		var req ChatRequest
		if err = decode(msg.Data, &req); err == nil {
			err = c.svc.Chat(ctx, c.sessionID, c.playerID, req.Message)
		}
	default:
		c.hub.reply(c, service.EventGeneralError, service.GeneralError{Message: "unknown event " + msg.Event})
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, errMalformed):
		c.hub.reply(c, service.EventGeneralError, service.GeneralError{Message: err.Error()})
	default:
		if !engine.IsUserError(err) {
			log.Error().Err(err).Str("session", c.sessionID).Str("event", msg.Event).Msg("request failed")
		}
		event, payload := service.RejectionFor(err)
		c.hub.reply(c, event, payload)
	}
}

func (c *Client) join(ctx context.Context, raw json.RawMessage) error {
	var req JoinRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	res, err := c.svc.Join(ctx, c.sessionID, engine.PlayerDetails{
		ID:   c.playerID,
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		return err
	}
	c.joined = true
	log.Debug().Str("session", c.sessionID).Bool("rejoined", res.Rejoined).Msg("websocket client joined")
	return nil
}

// decode reads an optional payload into v.
func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errMalformed
	}
	return nil
}

// writePump writes queued events to the connection, one frame per event
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
				// The hub closed the channel
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
