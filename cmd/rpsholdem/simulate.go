package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	rand "math/rand/v2"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/rpsholdem/server/cmd/rpsholdem/shared"
	"github.com/rpsholdem/server/internal/engine"
	"github.com/rpsholdem/server/internal/game"
	"github.com/rpsholdem/server/internal/randutil"
	"github.com/rpsholdem/server/internal/scheduler"
	"github.com/rpsholdem/server/internal/stats"
	"github.com/rpsholdem/server/internal/store"
)

// SimulateCmd plays random-symbol bots against an in-process engine until
// the game finishes, then prints the session standings.
type SimulateCmd struct {
	Players    int    `kong:"default='4',help='Number of bots at the table'"`
	Ante       int    `kong:"default='10',help='Ante per hand'"`
	Balance    int    `kong:"default='200',help='Starting balance per bot'"`
	Seed       *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	MaxSeconds int    `kong:"default='60',help='Abort the simulation after this many seconds'"`
	Debug      bool   `kong:"help='Enable debug logging'"`
}

func (c *SimulateCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

	if c.Players < 2 {
		return errors.New("need at least 2 players")
	}

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	logger.Info().Int64("seed", seed).Int("players", c.Players).Msg("Starting simulation")

	// Short transition delays keep a full session under a second per hand.
	cfg := engine.DefaultConfig()
	cfg.StartingBalance = c.Balance
	cfg.DefaultAnte = c.Ante
	cfg.DefaultMaxPlayers = c.Players
	cfg.RoundTimeout = 200 * time.Millisecond
	cfg.NextHandDelay = 20 * time.Millisecond
	cfg.StartDelay = 20 * time.Millisecond

	clock := quartz.NewReal()
	session := stats.NewSession(clock)
	eng := engine.New(
		store.NewMemory(),
		scheduler.New(clock, logger),
		session,
		clock,
		logger,
		cfg,
		engine.WithRand(randutil.New(seed)),
	)

	created, err := eng.CreateGame("bot-1", c.Ante, c.Players)
	if err != nil {
		return err
	}
	playerIDs := []string{created.PlayerID}
	for i := 2; i <= c.Players; i++ {
		joined, err := eng.JoinGame(created.GameID, fmt.Sprintf("bot-%d", i))
		if err != nil {
			return err
		}
		playerIDs = append(playerIDs, joined.PlayerID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.MaxSeconds)*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for i, playerID := range playerIDs {
		rng := randutil.New(seed + int64(i) + 1)
		g.Go(func() error {
			return runBot(ctx, eng, created.GameID, playerID, rng)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	view, err := eng.GameState(created.GameID, "")
	if err != nil {
		return err
	}
	fmt.Printf("\nGame %s: %s after %d hands\n", view.ID, view.Status, view.HandNumber)
	if view.LastHandWinner != "" {
		fmt.Printf("Last hand: %s\n", view.LastHandWinner)
	}

	fmt.Println("\nStandings:")
	for i, s := range session.Standings() {
		fmt.Printf("%2d. %-10s profit %6d  hands won %3d\n",
			i+1, s.PlayerName, s.TotalProfit, s.HandsWon)
	}
	return nil
}

// runBot submits a random symbol whenever a betting round is open, until
// the game finishes or the context expires.
func runBot(ctx context.Context, eng *engine.Engine, gameID, playerID string, rng *rand.Rand) error {
	symbols := []game.Symbol{game.Rock, game.Paper, game.Scissors}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}

		view, err := eng.GameState(gameID, playerID)
		if err != nil {
			return err
		}
		if view.Status == "finished" {
			return nil
		}

		err = eng.SubmitAction(playerID, symbols[rng.IntN(len(symbols))])
		switch {
		case err == nil:
		case errors.Is(err, engine.ErrNoActiveRound),
			errors.Is(err, engine.ErrDuplicateAction),
			errors.Is(err, engine.ErrPlayerNotActive):
			// Between rounds, already acted, or out of the hand.
		default:
			return err
		}
	}
}
