package engine

import (
	"errors"
	"fmt"

	"github.com/rpsholdem/server/internal/game"
	"github.com/rpsholdem/server/internal/gameid"
	"github.com/rpsholdem/server/internal/stats"
	"github.com/rpsholdem/server/internal/store"
)

// JoinedGame identifies the game and seat a player received.
type JoinedGame struct {
	GameID   string
	PlayerID string
}

// CreateGame opens a new table with its creator seated at position zero.
// Zero ante or max players fall back to the configured defaults.
func (e *Engine) CreateGame(playerName string, anteAmount, maxPlayers int) (*JoinedGame, error) {
	if anteAmount <= 0 {
		anteAmount = e.cfg.DefaultAnte
	}
	if maxPlayers <= 0 {
		maxPlayers = e.cfg.DefaultMaxPlayers
	}
	if playerName == "" {
		return nil, fmt.Errorf("player name must not be empty")
	}

	g := &game.Game{
		ID:           gameid.New(),
		Status:       game.StatusWaiting,
		CurrentPhase: game.PhaseAnte,
		AnteAmount:   anteAmount,
		MaxPlayers:   maxPlayers,
	}
	if err := e.store.InsertGame(g); err != nil {
		return nil, fmt.Errorf("inserting game: %w", err)
	}

	p := e.newPlayer(g.ID, playerName, 0)
	if err := e.store.InsertPlayer(p); err != nil {
		return nil, fmt.Errorf("inserting player: %w", err)
	}

	e.logger.Info().
		Str("game", g.ID).
		Str("player", playerName).
		Int("ante", anteAmount).
		Int("maxPlayers", maxPlayers).
		Msg("game created")

	return &JoinedGame{GameID: g.ID, PlayerID: p.ID}, nil
}

// JoinGame seats a player at a waiting table. Joining the second seat
// schedules the first deal.
func (e *Engine) JoinGame(gameID, playerName string) (*JoinedGame, error) {
	if playerName == "" {
		return nil, fmt.Errorf("player name must not be empty")
	}

	lock := e.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	g, err := e.store.GetGame(gameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	if g.Status != game.StatusWaiting {
		return nil, ErrGameStarted
	}

	players, err := e.store.PlayersByGame(gameID)
	if err != nil {
		return nil, err
	}
	if len(players) >= g.MaxPlayers {
		return nil, ErrGameFull
	}
	for _, p := range players {
		if p.Name == playerName {
			return nil, ErrNameTaken
		}
	}

	p := e.newPlayer(gameID, playerName, len(players))
	if err := e.store.InsertPlayer(p); err != nil {
		return nil, fmt.Errorf("inserting player: %w", err)
	}

	e.logger.Info().
		Str("game", gameID).
		Str("player", playerName).
		Int("position", p.Position).
		Msg("player joined")

	if len(players)+1 == 2 {
		e.sched.After(e.cfg.StartDelay, "start-game", func() {
			e.startGame(gameID)
		})
	}

	return &JoinedGame{GameID: gameID, PlayerID: p.ID}, nil
}

// newPlayer seats a player with the starting stack and fires the buy-in
// stats event.
func (e *Engine) newPlayer(gameID, name string, position int) *game.Player {
	e.stats.Record(stats.Event{
		PlayerName:   name,
		ProfitChange: -e.cfg.StartingBalance,
	})
	return &game.Player{
		ID:       gameid.New(),
		GameID:   gameID,
		Name:     name,
		Balance:  e.cfg.StartingBalance,
		Position: position,
		Status:   game.PlayerActive,
		LastSeen: e.clock.Now(),
	}
}

// startGame is the scheduled first deal. Stale or duplicate deliveries
// find the game no longer waiting and do nothing.
func (e *Engine) startGame(gameID string) {
	lock := e.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	g, err := e.store.GetGame(gameID)
	if err != nil {
		e.logger.Warn().Err(err).Str("game", gameID).Msg("scheduled start for unknown game")
		return
	}
	if g.Status != game.StatusWaiting {
		return
	}

	players, err := e.store.PlayersByGame(gameID)
	if err != nil || len(players) < 2 {
		return
	}

	g.Status = game.StatusPlaying
	e.beginHand(g)
}
