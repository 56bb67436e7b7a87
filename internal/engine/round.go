package engine

import (
	"errors"
	"fmt"

	"github.com/rpsholdem/server/internal/game"
	"github.com/rpsholdem/server/internal/gameid"
	"github.com/rpsholdem/server/internal/stats"
	"github.com/rpsholdem/server/internal/store"
)

// openRound opens the betting round for the game's current phase and
// schedules its timeout. Caller holds the game lock.
func (e *Engine) openRound(g *game.Game) {
	round := &game.BettingRound{
		ID:        gameid.New(),
		GameID:    g.ID,
		Phase:     g.CurrentPhase,
		BetAmount: g.Pot / 2,
		Status:    game.RoundActive,
		StartTime: e.clock.Now(),
	}
	if err := e.store.InsertRound(round); err != nil {
		// A second active round violates the one-round-per-game invariant.
		e.logger.Error().Err(err).Str("game", g.ID).Str("phase", g.CurrentPhase.String()).
			Msg("failed to open betting round")
		return
	}

	e.logger.Info().
		Str("game", g.ID).
		Str("round", round.ID).
		Str("phase", round.Phase.String()).
		Int("betAmount", round.BetAmount).
		Msg("betting round opened")

	roundID := round.ID
	e.sched.After(e.cfg.RoundTimeout, "round-timeout", func() {
		e.resolveRound(g.ID, roundID)
	})
}

// SubmitAction records one player's symbol for the active round of their
// game. When the last active player acts, the round resolves immediately
// instead of waiting out the timer.
func (e *Engine) SubmitAction(playerID string, symbol game.Symbol) error {
	p, err := e.store.GetPlayer(playerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}

	lock := e.gameLock(p.GameID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: the hand may have moved on.
	p, err = e.store.GetPlayer(playerID)
	if err != nil {
		return ErrPlayerNotFound
	}
	if p.Status != game.PlayerActive {
		return ErrPlayerNotActive
	}

	round, err := e.store.ActiveRoundByGame(p.GameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoActiveRound
		}
		return err
	}

	if _, err := e.store.ActionByPlayerRound(playerID, round.ID); err == nil {
		return ErrDuplicateAction
	}

	action := &game.PlayerAction{
		ID:        gameid.New(),
		RoundID:   round.ID,
		PlayerID:  playerID,
		Symbol:    symbol,
		Timestamp: e.clock.Now(),
	}
	if err := e.store.InsertAction(action); err != nil {
		if errors.Is(err, store.ErrDuplicateAction) {
			return ErrDuplicateAction
		}
		return fmt.Errorf("inserting action: %w", err)
	}

	p.LastSeen = e.clock.Now()
	if err := e.store.UpdatePlayer(p); err != nil {
		e.logger.Warn().Err(err).Str("player", playerID).Msg("failed to update last seen")
	}

	e.logger.Debug().
		Str("game", p.GameID).
		Str("round", round.ID).
		Str("player", p.Name).
		Str("symbol", symbol.String()).
		Msg("action submitted")

	if e.allActed(p.GameID, round.ID) {
		e.resolveLocked(round.GameID, round.ID)
	}
	return nil
}

// allActed reports whether every active player has an action in the round.
// Caller holds the game lock.
func (e *Engine) allActed(gameID, roundID string) bool {
	players, err := e.store.PlayersByGame(gameID)
	if err != nil {
		return false
	}
	actions, err := e.store.ActionsByRound(roundID)
	if err != nil {
		return false
	}

	acted := make(map[string]bool, len(actions))
	for _, a := range actions {
		acted[a.PlayerID] = true
	}
	for _, p := range players {
		if p.Status == game.PlayerActive && !acted[p.ID] {
			return false
		}
	}
	return true
}

// resolveRound is the timer-fired resolution path.
func (e *Engine) resolveRound(gameID, roundID string) {
	lock := e.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()
	e.resolveLocked(gameID, roundID)
}

// resolveLocked settles the round as one atomic batch and advances the
// hand. Resolution is idempotent: a round that is no longer active — the
// other trigger won the race, or the scheduler redelivered — is left
// untouched. Caller holds the game lock.
func (e *Engine) resolveLocked(gameID, roundID string) {
	round, err := e.store.GetRound(roundID)
	if err != nil {
		e.logger.Warn().Err(err).Str("round", roundID).Msg("resolution for unknown round")
		return
	}
	if round.Status != game.RoundActive {
		return
	}

	g, err := e.store.GetGame(gameID)
	if err != nil {
		e.logger.Error().Err(err).Str("game", gameID).Msg("failed to load game for resolution")
		return
	}

	players, err := e.store.PlayersByGame(gameID)
	if err != nil {
		e.logger.Error().Err(err).Str("game", gameID).Msg("failed to load players for resolution")
		return
	}

	var active []*game.Player
	byID := make(map[string]*game.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
		if p.Status == game.PlayerActive {
			active = append(active, p)
		}
	}

	actions, err := e.store.ActionsByRound(roundID)
	if err != nil {
		e.logger.Error().Err(err).Str("round", roundID).Msg("failed to load actions for resolution")
		return
	}
	symbols := make(map[string]game.Symbol, len(actions))
	for _, a := range actions {
		symbols[a.PlayerID] = a.Symbol
	}

	result := game.ResolveRound(round.BetAmount, active, symbols)

	for _, pr := range result.Players {
		p := byID[pr.PlayerID]
		p.Balance -= pr.Paid
		if pr.Folds {
			p.Status = game.PlayerFolded
		}
		if pr.Busted {
			p.Status = game.PlayerOut
		}
		if err := e.store.UpdatePlayer(p); err != nil {
			e.logger.Error().Err(err).Str("player", p.ID).Msg("failed to settle player")
			return
		}
	}

	g.Pot += result.Total
	round.Status = game.RoundCompleted
	if err := e.store.UpdateRound(round); err != nil {
		e.logger.Error().Err(err).Str("round", roundID).Msg("failed to complete round")
		return
	}
	if err := e.store.UpdateGame(g); err != nil {
		e.logger.Error().Err(err).Str("game", gameID).Msg("failed to update pot")
		return
	}

	e.logger.Info().
		Str("game", gameID).
		Str("round", roundID).
		Str("phase", round.Phase.String()).
		Int("rockCount", result.RockCount).
		Int("collected", result.Total).
		Int("pot", g.Pot).
		Msg("betting round resolved")

	e.advancePhase(g)
}

// advancePhase moves the hand forward after a completed round: on to the
// next phase, or straight to payout when at most one player remains in
// contention. Caller holds the game lock.
func (e *Engine) advancePhase(g *game.Game) {
	players, err := e.store.PlayersByGame(g.ID)
	if err != nil {
		e.logger.Error().Err(err).Str("game", g.ID).Msg("failed to load players for phase advance")
		return
	}

	var active, inHand []*game.Player
	for _, p := range players {
		if p.InHand() {
			inHand = append(inHand, p)
		}
		if p.Status == game.PlayerActive {
			active = append(active, p)
		}
	}

	if len(inHand) <= 1 || len(active) <= 1 {
		e.awardToLastStanding(g, active)
		return
	}

	next, ok := g.CurrentPhase.Next()
	if !ok {
		e.logger.Error().Str("game", g.ID).Str("phase", g.CurrentPhase.String()).
			Msg("no phase after showdown")
		return
	}
	g.CurrentPhase = next
	if err := e.store.UpdateGame(g); err != nil {
		e.logger.Error().Err(err).Str("game", g.ID).Msg("failed to advance phase")
		return
	}

	e.logger.Info().Str("game", g.ID).Str("phase", next.String()).Msg("phase advanced")

	if next == game.PhaseShowdown {
		e.showdown(g, active)
		return
	}
	e.openRound(g)
}

// awardToLastStanding pays the whole pot to the sole active player after a
// fold cascade, then schedules the next hand. With nobody active the pot
// has no owner and is simply cleared.
func (e *Engine) awardToLastStanding(g *game.Game, active []*game.Player) {
	if len(active) == 1 {
		winner := active[0]
		winner.Balance += g.Pot
		if err := e.store.UpdatePlayer(winner); err != nil {
			e.logger.Error().Err(err).Str("player", winner.ID).Msg("failed to pay out pot")
			return
		}
		e.stats.Record(stats.Event{
			PlayerName:   winner.Name,
			ProfitChange: g.Pot,
			HandWon:      true,
		})
		g.LastHandWinner = fmt.Sprintf("%s wins %d, all others folded", winner.Name, g.Pot)
		e.logger.Info().Str("game", g.ID).Str("winner", winner.Name).Int("pot", g.Pot).
			Msg("hand won by fold")
	} else {
		g.LastHandWinner = "nobody left standing"
		e.logger.Warn().Str("game", g.ID).Int("pot", g.Pot).Msg("hand ended with no active players")
	}

	e.endHand(g)
}

// showdown compares the remaining hands, splits the pot, and schedules
// the next hand. Caller holds the game lock.
func (e *Engine) showdown(g *game.Game, active []*game.Player) {
	settlement, err := game.Showdown(g.Pot, active, g.CommunityCards)
	if err != nil {
		e.logger.Error().Err(err).Str("game", g.ID).Msg("showdown failed")
		return
	}

	byID := make(map[string]*game.Player, len(active))
	for _, p := range active {
		byID[p.ID] = p
	}
	for _, id := range settlement.Winners {
		winner := byID[id]
		payout := settlement.Payouts[id]
		winner.Balance += payout
		if err := e.store.UpdatePlayer(winner); err != nil {
			e.logger.Error().Err(err).Str("player", id).Msg("failed to pay out showdown share")
			return
		}
		e.stats.Record(stats.Event{
			PlayerName:   winner.Name,
			ProfitChange: payout,
			HandWon:      true,
		})
	}

	g.LastHandWinner = settlement.Summary
	e.logger.Info().
		Str("game", g.ID).
		Str("result", settlement.Summary).
		Int("pot", g.Pot).
		Msg("showdown settled")

	e.endHand(g)
}

// endHand zeroes the pot, leaves the result on display, and schedules the
// next hand.
func (e *Engine) endHand(g *game.Game) {
	g.Pot = 0
	if err := e.store.UpdateGame(g); err != nil {
		e.logger.Error().Err(err).Str("game", g.ID).Msg("failed to close out hand")
		return
	}

	gameID := g.ID
	e.sched.After(e.cfg.NextHandDelay, "next-hand", func() {
		e.nextHand(gameID)
	})
}
