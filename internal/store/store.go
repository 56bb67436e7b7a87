// Package store defines the durable-store contract the engine runs
// against: CRUD plus the indexed lookups every transition needs. The
// in-memory implementation here is the only one the server ships; the
// engine assumes whatever sits behind the interface is transactionally
// consistent within one engine transition.
package store

import (
	"errors"

	"github.com/rpsholdem/server/internal/game"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateAction is returned when a (player, round) action pair
	// already exists. Duplicates are rejected, never overwritten.
	ErrDuplicateAction = errors.New("player already acted in this round")
	// ErrActiveRoundExists guards the one-active-round-per-game invariant
	// at the storage layer.
	ErrActiveRoundExists = errors.New("game already has an active betting round")
)

// Store is the persistence contract for games, players, rounds and actions.
// Implementations return copies; callers never share record memory with the
// store.
type Store interface {
	InsertGame(g *game.Game) error
	GetGame(id string) (*game.Game, error)
	UpdateGame(g *game.Game) error

	InsertPlayer(p *game.Player) error
	GetPlayer(id string) (*game.Player, error)
	UpdatePlayer(p *game.Player) error
	// PlayersByGame returns a game's players ordered by seat position.
	PlayersByGame(gameID string) ([]*game.Player, error)

	InsertRound(r *game.BettingRound) error
	GetRound(id string) (*game.BettingRound, error)
	UpdateRound(r *game.BettingRound) error
	// ActiveRoundByGame returns the game's single active round, or
	// ErrNotFound when none is open.
	ActiveRoundByGame(gameID string) (*game.BettingRound, error)
	RoundsByGame(gameID string) ([]*game.BettingRound, error)

	InsertAction(a *game.PlayerAction) error
	ActionsByRound(roundID string) ([]*game.PlayerAction, error)
	ActionByPlayerRound(playerID, roundID string) (*game.PlayerAction, error)
}
