package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/rpsholdem/server/internal/engine"
	"github.com/rpsholdem/server/internal/game"
	"github.com/rpsholdem/server/internal/stats"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents a WebSocket connection to a client. Once the
// client creates or joins a game, the connection remembers its seat so
// later commands need no identity payload.
type Connection struct {
	id        string
	conn      *websocket.Conn
	send      chan *Message
	engine    *engine.Engine
	standings func() []stats.Standing
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	playerID  string
	gameID    string
	closeOnce sync.Once
}

// NewConnection creates a connection wrapper around an upgraded socket.
func NewConnection(conn *websocket.Conn, eng *engine.Engine, standings func() []stats.Standing, logger zerolog.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()

	return &Connection{
		id:        id,
		conn:      conn,
		send:      make(chan *Message, 256),
		engine:    eng,
		standings: standings,
		logger:    logger.With().Str("component", "conn").Str("conn", id).Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message to the client.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Send channel closed during shutdown.
			c.logger.Debug().Interface("panic", r).Msg("send on closed connection")
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn().Msg("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) setSeat(gameID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID = gameID
	c.playerID = playerID
}

func (c *Connection) seat() (gameID, playerID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameID, c.playerID
}

// readPump handles incoming messages from the client.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error().Err(err).Msg("websocket error")
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
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
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error().Err(err).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches one client command.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug().Str("type", string(msg.Type)).Msg("received message")

	switch msg.Type {
	case MessageTypeCreateGame:
		var data CreateGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, "invalid_message", "failed to parse create game data")
			return
		}
		c.handleCreateGame(msg, data)

	case MessageTypeJoinGame:
		var data JoinGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, "invalid_message", "failed to parse join game data")
			return
		}
		c.handleJoinGame(msg, data)

	case MessageTypeSubmitAction:
		var data SubmitActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, "invalid_message", "failed to parse action data")
			return
		}
		c.handleSubmitAction(msg, data)

	case MessageTypeGetGame:
		var data GetGameData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError(msg, "invalid_message", "failed to parse game query")
				return
			}
		}
		c.handleGetGame(msg, data)

	case MessageTypeGetRound:
		var data GetRoundData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError(msg, "invalid_message", "failed to parse round query")
				return
			}
		}
		c.handleGetRound(msg, data)

	case MessageTypeStandings:
		c.handleStandings(msg)

	default:
		c.sendError(msg, "unknown_message", "unknown message type: "+string(msg.Type))
	}
}

func (c *Connection) handleCreateGame(msg *Message, data CreateGameData) {
	joined, err := c.engine.CreateGame(data.PlayerName, data.AnteAmount, data.MaxPlayers)
	if err != nil {
		c.sendEngineError(msg, err)
		return
	}
	c.setSeat(joined.GameID, joined.PlayerID)
	c.reply(msg, MessageTypeGameJoined, GameJoinedData{
		GameID:   joined.GameID,
		PlayerID: joined.PlayerID,
	})
}

func (c *Connection) handleJoinGame(msg *Message, data JoinGameData) {
	joined, err := c.engine.JoinGame(data.GameID, data.PlayerName)
	if err != nil {
		c.sendEngineError(msg, err)
		return
	}
	c.setSeat(joined.GameID, joined.PlayerID)
	c.reply(msg, MessageTypeGameJoined, GameJoinedData{
		GameID:   joined.GameID,
		PlayerID: joined.PlayerID,
	})
}

func (c *Connection) handleSubmitAction(msg *Message, data SubmitActionData) {
	_, playerID := c.seat()
	if playerID == "" {
		c.sendError(msg, "not_seated", "join a game before acting")
		return
	}

	symbol, err := game.ParseSymbol(data.Symbol)
	if err != nil {
		c.sendError(msg, "invalid_symbol", err.Error())
		return
	}

	if err := c.engine.SubmitAction(playerID, symbol); err != nil {
		c.sendEngineError(msg, err)
		return
	}
	c.reply(msg, MessageTypeActionAccepted, ActionAcceptedData{Symbol: symbol.String()})
}

func (c *Connection) handleGetGame(msg *Message, data GetGameData) {
	gameID, playerID := c.seat()
	if data.GameID != "" {
		gameID = data.GameID
	}
	if gameID == "" {
		c.sendError(msg, "not_seated", "no game to query")
		return
	}

	view, err := c.engine.GameState(gameID, playerID)
	if err != nil {
		c.sendEngineError(msg, err)
		return
	}
	c.reply(msg, MessageTypeGameState, GameStateData{Game: view})
}

func (c *Connection) handleGetRound(msg *Message, data GetRoundData) {
	gameID, _ := c.seat()
	if data.GameID != "" {
		gameID = data.GameID
	}
	if gameID == "" {
		c.sendError(msg, "not_seated", "no game to query")
		return
	}

	view, err := c.engine.CurrentRound(gameID)
	if err != nil {
		c.sendEngineError(msg, err)
		return
	}
	c.reply(msg, MessageTypeRoundState, RoundStateData{Round: view})
}

func (c *Connection) handleStandings(msg *Message) {
	c.reply(msg, MessageTypeStandingsList, StandingsData{Standings: c.standings()})
}

// reply sends a typed payload back, echoing the request ID.
func (c *Connection) reply(req *Message, messageType MessageType, data interface{}) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		c.logger.Error().Err(err).Str("type", string(messageType)).Msg("failed to build message")
		return
	}
	msg.RequestID = req.RequestID
	_ = c.SendMessage(msg)
}

func (c *Connection) sendError(req *Message, code, message string) {
	c.reply(req, MessageTypeError, ErrorData{Code: code, Message: message})
}

// sendEngineError maps engine sentinels to stable wire codes.
func (c *Connection) sendEngineError(req *Message, err error) {
	code := "internal_error"
	switch {
	case errors.Is(err, engine.ErrGameNotFound):
		code = "game_not_found"
	case errors.Is(err, engine.ErrPlayerNotFound):
		code = "player_not_found"
	case errors.Is(err, engine.ErrGameStarted):
		code = "game_started"
	case errors.Is(err, engine.ErrGameFull):
		code = "game_full"
	case errors.Is(err, engine.ErrNameTaken):
		code = "name_taken"
	case errors.Is(err, engine.ErrNoActiveRound):
		code = "no_active_round"
	case errors.Is(err, engine.ErrDuplicateAction):
		code = "duplicate_action"
	case errors.Is(err, engine.ErrPlayerNotActive):
		code = "player_not_active"
	}
	c.sendError(req, code, err.Error())
}
