package engine

import (
	"errors"
	"time"

	"github.com/rpsholdem/server/internal/deck"
	"github.com/rpsholdem/server/internal/game"
	"github.com/rpsholdem/server/internal/store"
)

// PlayerView is one seat as a given viewer sees it. Hole cards are
// populated only for the viewer's own seat, or for every in-hand seat
// once the hand reaches showdown.
type PlayerView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Balance   int         `json:"balance"`
	Position  int         `json:"position"`
	Status    string      `json:"status"`
	HoleCards []deck.Card `json:"holeCards,omitempty"`
}

// GameView is the table as a given viewer sees it.
type GameView struct {
	ID             string       `json:"id"`
	Status         string       `json:"status"`
	Phase          string       `json:"phase"`
	Pot            int          `json:"pot"`
	CommunityCards []deck.Card  `json:"communityCards"`
	AnteAmount     int          `json:"anteAmount"`
	MaxPlayers     int          `json:"maxPlayers"`
	HandNumber     int          `json:"handNumber"`
	LastHandWinner string       `json:"lastHandWinner,omitempty"`
	Players        []PlayerView `json:"players"`
}

// ActionView is one submitted symbol with the actor's name resolved.
type ActionView struct {
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Symbol     string    `json:"symbol"`
	Timestamp  time.Time `json:"timestamp"`
}

// RoundView is the current betting round and the actions in so far.
type RoundView struct {
	ID        string       `json:"id"`
	Phase     string       `json:"phase"`
	BetAmount int          `json:"betAmount"`
	Status    string       `json:"status"`
	StartTime time.Time    `json:"startTime"`
	Actions   []ActionView `json:"actions"`
}

// GameState returns the table as viewerID sees it. An empty viewerID is
// a spectator: no hole cards until showdown.
func (e *Engine) GameState(gameID, viewerID string) (*GameView, error) {
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
	players, err := e.store.PlayersByGame(gameID)
	if err != nil {
		return nil, err
	}

	v := &GameView{
		ID:             g.ID,
		Status:         g.Status.String(),
		Phase:          g.CurrentPhase.String(),
		Pot:            g.Pot,
		CommunityCards: g.VisibleCommunity(),
		AnteAmount:     g.AnteAmount,
		MaxPlayers:     g.MaxPlayers,
		HandNumber:     g.HandNumber,
		LastHandWinner: g.LastHandWinner,
	}

	atShowdown := g.CurrentPhase == game.PhaseShowdown
	for _, p := range players {
		pv := PlayerView{
			ID:       p.ID,
			Name:     p.Name,
			Balance:  p.Balance,
			Position: p.Position,
			Status:   p.Status.String(),
		}
		if p.ID == viewerID || (atShowdown && p.InHand()) {
			pv.HoleCards = append([]deck.Card(nil), p.HoleCards...)
		}
		v.Players = append(v.Players, pv)
	}
	return v, nil
}

// CurrentRound returns the game's active betting round with actor names
// resolved, or ErrNoActiveRound when no round is open.
func (e *Engine) CurrentRound(gameID string) (*RoundView, error) {
	lock := e.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := e.store.GetGame(gameID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}

	round, err := e.store.ActiveRoundByGame(gameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoActiveRound
		}
		return nil, err
	}

	players, err := e.store.PlayersByGame(gameID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}

	actions, err := e.store.ActionsByRound(round.ID)
	if err != nil {
		return nil, err
	}

	v := &RoundView{
		ID:        round.ID,
		Phase:     round.Phase.String(),
		BetAmount: round.BetAmount,
		Status:    round.Status.String(),
		StartTime: round.StartTime,
	}
	for _, a := range actions {
		v.Actions = append(v.Actions, ActionView{
			PlayerID:   a.PlayerID,
			PlayerName: names[a.PlayerID],
			Symbol:     a.Symbol.String(),
			Timestamp:  a.Timestamp,
		})
	}
	return v, nil
}
