package engine

import (
	"github.com/rpsholdem/server/internal/deck"
	"github.com/rpsholdem/server/internal/game"
	"github.com/rpsholdem/server/internal/stats"
)

// beginHand runs the ante step: fresh deck, hole cards, antes into the
// pot, the full board dealt face down, and the preflop betting round
// opened. Caller holds the game lock.
func (e *Engine) beginHand(g *game.Game) {
	// A stray active round from the previous hand is closed, not resolved.
	if round, err := e.store.ActiveRoundByGame(g.ID); err == nil {
		e.logger.Warn().Str("game", g.ID).Str("round", round.ID).Msg("completing stray active round")
		round.Status = game.RoundCompleted
		if err := e.store.UpdateRound(round); err != nil {
			e.logger.Error().Err(err).Str("round", round.ID).Msg("failed to complete stray round")
			return
		}
	}

	players, err := e.store.PlayersByGame(g.ID)
	if err != nil {
		e.logger.Error().Err(err).Str("game", g.ID).Msg("failed to load players")
		return
	}

	eligible := make(map[string]bool)
	for _, p := range players {
		if p.Status != game.PlayerOut && p.Balance >= g.AnteAmount {
			eligible[p.ID] = true
		}
	}
	if len(eligible) < 2 {
		e.finishGame(g, players)
		return
	}

	g.HandNumber++
	g.LastHandWinner = ""
	d := deck.New(e.handRand())

	pot := 0
	for _, p := range players {
		if eligible[p.ID] {
			p.Status = game.PlayerActive
			p.HoleCards = d.DrawN(2)
			ante := g.AnteAmount
			if ante > p.Balance {
				ante = p.Balance
			}
			p.Balance -= ante
			pot += ante
			if p.Balance == 0 {
				// Anteing the whole stack busts the player immediately.
				p.Status = game.PlayerOut
			}
		} else {
			p.Status = game.PlayerOut
			p.HoleCards = nil
		}
		if err := e.store.UpdatePlayer(p); err != nil {
			e.logger.Error().Err(err).Str("player", p.ID).Msg("failed to update player")
			return
		}
	}

	g.Pot += pot
	g.CommunityCards = d.DrawN(5)
	g.CurrentPhase = game.PhasePreflop
	if err := e.store.UpdateGame(g); err != nil {
		e.logger.Error().Err(err).Str("game", g.ID).Msg("failed to update game")
		return
	}

	e.logger.Info().
		Str("game", g.ID).
		Int("hand", g.HandNumber).
		Int("pot", g.Pot).
		Int("players", len(eligible)).
		Msg("hand started")

	e.openRound(g)
}

// nextHand is the scheduled transition out of a finished hand. A delivery
// against a game that has since finished is a no-op.
func (e *Engine) nextHand(gameID string) {
	lock := e.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	g, err := e.store.GetGame(gameID)
	if err != nil {
		e.logger.Warn().Err(err).Str("game", gameID).Msg("scheduled next hand for unknown game")
		return
	}
	if g.Status != game.StatusPlaying {
		return
	}
	e.beginHand(g)
}

// finishGame terminates a game that can no longer seat two players for
// the ante and reports final balances to the stats collaborator.
func (e *Engine) finishGame(g *game.Game, players []*game.Player) {
	g.Status = game.StatusFinished
	if err := e.store.UpdateGame(g); err != nil {
		e.logger.Error().Err(err).Str("game", g.ID).Msg("failed to finish game")
		return
	}

	for _, p := range players {
		e.stats.Record(stats.Event{
			PlayerName:   p.Name,
			ProfitChange: p.Balance,
			GameFinished: true,
		})
	}

	e.logger.Info().
		Str("game", g.ID).
		Int("hands", g.HandNumber).
		Msg("game finished")
}
