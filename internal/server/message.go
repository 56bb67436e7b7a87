package server

import (
	"encoding/json"
	"time"

	"github.com/rpsholdem/server/internal/engine"
	"github.com/rpsholdem/server/internal/stats"
)

// MessageType identifies a WebSocket message.
type MessageType string

// Client → Server
const (
	MessageTypeCreateGame   MessageType = "create_game"
	MessageTypeJoinGame     MessageType = "join_game"
	MessageTypeSubmitAction MessageType = "submit_action"
	MessageTypeGetGame      MessageType = "get_game"
	MessageTypeGetRound     MessageType = "get_round"
	MessageTypeStandings    MessageType = "standings"
)

// Server → Client
const (
	MessageTypeGameJoined     MessageType = "game_joined"
	MessageTypeActionAccepted MessageType = "action_accepted"
	MessageTypeGameState      MessageType = "game_state"
	MessageTypeRoundState     MessageType = "round_state"
	MessageTypeStandingsList  MessageType = "standings_list"
	MessageTypeError          MessageType = "error"
)

// Message is the base WebSocket message envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server payloads

type CreateGameData struct {
	PlayerName string `json:"playerName"`
	AnteAmount int    `json:"anteAmount,omitempty"`
	MaxPlayers int    `json:"maxPlayers,omitempty"`
}

type JoinGameData struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

type SubmitActionData struct {
	Symbol string `json:"symbol"`
}

type GetGameData struct {
	GameID string `json:"gameId,omitempty"`
}

type GetRoundData struct {
	GameID string `json:"gameId,omitempty"`
}

// Server → Client payloads

type GameJoinedData struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

type ActionAcceptedData struct {
	Symbol string `json:"symbol"`
}

type GameStateData struct {
	Game *engine.GameView `json:"game"`
}

type RoundStateData struct {
	Round *engine.RoundView `json:"round"`
}

type StandingsData struct {
	Standings []stats.Standing `json:"standings"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
