package store

import (
	"sort"
	"sync"

	"github.com/rpsholdem/server/internal/game"
)

// Memory is an in-memory Store guarded by a single lock. Index maps mirror
// the lookups the engine performs on every transition: players by game,
// rounds by game, actions by round and by (player, round).
type Memory struct {
	mu sync.RWMutex

	games   map[string]*game.Game
	players map[string]*game.Player
	rounds  map[string]*game.BettingRound
	actions map[string]*game.PlayerAction

	playersByGame  map[string][]string
	roundsByGame   map[string][]string
	actionsByRound map[string][]string
	// actionByPlayerRound keys are playerID + "/" + roundID.
	actionByPlayerRound map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		games:               make(map[string]*game.Game),
		players:             make(map[string]*game.Player),
		rounds:              make(map[string]*game.BettingRound),
		actions:             make(map[string]*game.PlayerAction),
		playersByGame:       make(map[string][]string),
		roundsByGame:        make(map[string][]string),
		actionsByRound:      make(map[string][]string),
		actionByPlayerRound: make(map[string]string),
	}
}

// InsertGame stores a new game record.
func (m *Memory) InsertGame(g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g.Clone()
	return nil
}

// GetGame returns a copy of the game record.
func (m *Memory) GetGame(id string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Clone(), nil
}

// UpdateGame replaces an existing game record.
func (m *Memory) UpdateGame(g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[g.ID]; !ok {
		return ErrNotFound
	}
	m.games[g.ID] = g.Clone()
	return nil
}

// InsertPlayer stores a new player record.
func (m *Memory) InsertPlayer(p *game.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = p.Clone()
	m.playersByGame[p.GameID] = append(m.playersByGame[p.GameID], p.ID)
	return nil
}

// GetPlayer returns a copy of the player record.
func (m *Memory) GetPlayer(id string) (*game.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// UpdatePlayer replaces an existing player record.
func (m *Memory) UpdatePlayer(p *game.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[p.ID]; !ok {
		return ErrNotFound
	}
	m.players[p.ID] = p.Clone()
	return nil
}

// PlayersByGame returns the game's players ordered by seat position.
func (m *Memory) PlayersByGame(gameID string) ([]*game.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.playersByGame[gameID]
	players := make([]*game.Player, 0, len(ids))
	for _, id := range ids {
		players = append(players, m.players[id].Clone())
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Position < players[j].Position
	})
	return players, nil
}

// InsertRound stores a new betting round. Inserting a second active round
// for the same game violates an engine invariant and is refused.
func (m *Memory) InsertRound(r *game.BettingRound) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Status == game.RoundActive {
		for _, id := range m.roundsByGame[r.GameID] {
			if m.rounds[id].Status == game.RoundActive {
				return ErrActiveRoundExists
			}
		}
	}
	m.rounds[r.ID] = r.Clone()
	m.roundsByGame[r.GameID] = append(m.roundsByGame[r.GameID], r.ID)
	return nil
}

// GetRound returns a copy of the round record.
func (m *Memory) GetRound(id string) (*game.BettingRound, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

// UpdateRound replaces an existing round record.
func (m *Memory) UpdateRound(r *game.BettingRound) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rounds[r.ID]; !ok {
		return ErrNotFound
	}
	m.rounds[r.ID] = r.Clone()
	return nil
}

// ActiveRoundByGame returns the single active round for a game.
func (m *Memory) ActiveRoundByGame(gameID string) (*game.BettingRound, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.roundsByGame[gameID] {
		if r := m.rounds[id]; r.Status == game.RoundActive {
			return r.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// RoundsByGame returns every round of a game, oldest first.
func (m *Memory) RoundsByGame(gameID string) ([]*game.BettingRound, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.roundsByGame[gameID]
	rounds := make([]*game.BettingRound, 0, len(ids))
	for _, id := range ids {
		rounds = append(rounds, m.rounds[id].Clone())
	}
	return rounds, nil
}

// InsertAction stores one player's action for a round, rejecting
// duplicates for the same (player, round) pair.
func (m *Memory) InsertAction(a *game.PlayerAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := a.PlayerID + "/" + a.RoundID
	if _, exists := m.actionByPlayerRound[key]; exists {
		return ErrDuplicateAction
	}
	m.actions[a.ID] = a.Clone()
	m.actionsByRound[a.RoundID] = append(m.actionsByRound[a.RoundID], a.ID)
	m.actionByPlayerRound[key] = a.ID
	return nil
}

// ActionsByRound returns every action recorded for a round, in submission
// order.
func (m *Memory) ActionsByRound(roundID string) ([]*game.PlayerAction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.actionsByRound[roundID]
	actions := make([]*game.PlayerAction, 0, len(ids))
	for _, id := range ids {
		actions = append(actions, m.actions[id].Clone())
	}
	return actions, nil
}

// ActionByPlayerRound returns the action a player submitted in a round.
func (m *Memory) ActionByPlayerRound(playerID, roundID string) (*game.PlayerAction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.actionByPlayerRound[playerID+"/"+roundID]
	if !ok {
		return nil, ErrNotFound
	}
	return m.actions[id].Clone(), nil
}
